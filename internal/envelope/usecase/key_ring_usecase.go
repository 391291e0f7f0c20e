// Package usecase orchestrates key ring persistence and the in-memory
// encryption processor.
//
// The database is the source of truth. Every lifecycle change is written in a
// transaction first and published to the processor after the commit, so the
// processor never holds a version that was rolled back. Processor merges are
// monotonic: a version is inserted at most once and only a greater version
// becomes current, which makes publishing the same ring twice harmless.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envelope/internal/database"
	"github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// loadAllPageSize is the number of rings read per query by LoadAll.
const loadAllPageSize = 100

// keyRingUseCase implements KeyRingUseCase.
type keyRingUseCase struct {
	txManager  database.TxManager
	repo       KeyRingRepository
	processor  EncryptionProcessor
	ownerID    uuid.UUID
	defaultTTL time.Duration
}

// NewKeyRingUseCase creates a KeyRingUseCase. ownerID is stamped on the keys
// of new rings; defaultTTL applies when Create receives a zero ttl.
func NewKeyRingUseCase(
	txManager database.TxManager,
	repo KeyRingRepository,
	processor EncryptionProcessor,
	ownerID uuid.UUID,
	defaultTTL time.Duration,
) KeyRingUseCase {
	return &keyRingUseCase{
		txManager:  txManager,
		repo:       repo,
		processor:  processor,
		ownerID:    ownerID,
		defaultTTL: defaultTTL,
	}
}

// Create generates version 1 of keyName with a random secret and persists the
// ring. A taken key name fails with domain.ErrKeyRingAlreadyExists.
func (k *keyRingUseCase) Create(
	ctx context.Context,
	keyName, description string,
	ttl time.Duration,
) (*domain.KeyRing, error) {
	if ttl <= 0 {
		ttl = k.defaultTTL
	}

	ring, err := domain.NewKeyRing(k.ownerID, keyName, description, ttl)
	if err != nil {
		return nil, err
	}

	if err := k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return k.repo.CreateKeyRing(txCtx, ring)
	}); err != nil {
		return nil, err
	}

	if err := k.processor.MergeKeyRing(ring); err != nil {
		return nil, apperrors.Wrap(err, "failed to publish key ring")
	}

	return ring, nil
}

// Rotate bumps the persisted ring of keyName by one version. The rotation
// starts from the stored ring, not from the processor, so rotations made by
// other instances are never skipped. Two concurrent rotations of the same
// ring collide on the (key_name, version) unique key and one of them fails
// with domain.ErrKeyRingAlreadyExists.
func (k *keyRingUseCase) Rotate(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	var ring *domain.KeyRing

	err := k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		ring, err = k.repo.GetKeyRing(txCtx, keyName)
		if err != nil {
			return err
		}
		if ring.Status() == domain.KeyRingStatusRetired {
			return apperrors.Wrapf(domain.ErrKeyRingRetired, "cannot rotate %s", keyName)
		}

		previous, err := ring.Get(0)
		if err != nil {
			return err
		}
		if err := ring.BumpVersion(); err != nil {
			return err
		}
		current, err := ring.Get(0)
		if err != nil {
			return err
		}

		if err := k.repo.CreateVersionedKey(txCtx, ring.ID(), current); err != nil {
			return err
		}
		if err := k.repo.UpdateVersionedKeyStatus(txCtx, previous); err != nil {
			return err
		}
		return k.repo.UpdateKeyRing(txCtx, ring)
	})
	if err != nil {
		return nil, err
	}

	if err := k.processor.MergeKeyRing(ring); err != nil {
		return nil, apperrors.Wrap(err, "failed to publish key ring")
	}

	return ring, nil
}

// Retire marks the ring of keyName retired. Retiring twice is not an error.
func (k *keyRingUseCase) Retire(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	var ring *domain.KeyRing

	err := k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		ring, err = k.repo.GetKeyRing(txCtx, keyName)
		if err != nil {
			return err
		}
		if ring.Status() == domain.KeyRingStatusRetired {
			return nil
		}

		ring.Retire()
		return k.repo.UpdateKeyRing(txCtx, ring)
	})
	if err != nil {
		return nil, err
	}

	if err := k.processor.MergeKeyRing(ring); err != nil {
		return nil, apperrors.Wrap(err, "failed to publish key ring")
	}

	return ring, nil
}

// Get returns the persisted ring of keyName.
func (k *keyRingUseCase) Get(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	if err := domain.ValidateKeyName(keyName); err != nil {
		return nil, err
	}
	return k.repo.GetKeyRing(ctx, keyName)
}

// List returns persisted rings ordered by key name.
func (k *keyRingUseCase) List(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	return k.repo.ListKeyRings(ctx, offset, limit)
}

// LoadAll pages through every persisted ring and merges it into the processor.
func (k *keyRingUseCase) LoadAll(ctx context.Context) ([]*domain.KeyRing, error) {
	var loaded []*domain.KeyRing

	for offset := 0; ; offset += loadAllPageSize {
		rings, err := k.repo.ListKeyRings(ctx, offset, loadAllPageSize)
		if err != nil {
			return nil, err
		}

		for _, ring := range rings {
			if err := k.processor.MergeKeyRing(ring); err != nil {
				return nil, apperrors.Wrapf(err, "failed to load key ring %s", ring.KeyName())
			}
		}
		loaded = append(loaded, rings...)

		if len(rings) < loadAllPageSize {
			return loaded, nil
		}
	}
}
