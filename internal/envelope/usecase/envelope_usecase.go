package usecase

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// envelopeUseCase implements EnvelopeUseCase.
//
// The processor answers from memory. When it does not know a key name or a
// version, the ring is read from the repository once and the operation is
// retried; concurrent misses for the same key name share one read.
type envelopeUseCase struct {
	repo      KeyRingRepository
	processor EncryptionProcessor
	loads     singleflight.Group
}

// NewEnvelopeUseCase creates an EnvelopeUseCase.
func NewEnvelopeUseCase(repo KeyRingRepository, processor EncryptionProcessor) EnvelopeUseCase {
	return &envelopeUseCase{
		repo:      repo,
		processor: processor,
	}
}

// Encrypt encrypts plaintext under the current version of keyName.
func (e *envelopeUseCase) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	envelope, err := e.processor.Encrypt(keyName, plaintext)
	if !isRingMiss(err) {
		return envelope, err
	}

	if err := e.load(ctx, keyName); err != nil {
		return nil, err
	}
	return e.processor.Encrypt(keyName, plaintext)
}

// Decrypt opens an envelope with the key version named by its header.
func (e *envelopeUseCase) Decrypt(ctx context.Context, envelope []byte) ([]byte, domain.EnvelopeHeader, error) {
	plaintext, header, err := e.processor.DecryptWithHeader(envelope)
	if !isRingMiss(err) {
		return plaintext, header, err
	}

	if err := e.load(ctx, header.KeyName()); err != nil {
		return nil, header, err
	}
	return e.processor.DecryptWithHeader(envelope)
}

// load reads the ring of keyName from the repository into the processor.
// The read is shared by every waiting caller, so it does not inherit the
// cancellation of the caller that started it.
func (e *envelopeUseCase) load(ctx context.Context, keyName string) error {
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := e.loads.Do(keyName, func() (any, error) {
		ring, err := e.repo.GetKeyRing(loadCtx, keyName)
		if err != nil {
			return nil, err
		}
		return nil, e.processor.MergeKeyRing(ring)
	})
	return err
}

func isRingMiss(err error) bool {
	return apperrors.Is(err, domain.ErrUnknownKeyName) || apperrors.Is(err, domain.ErrKeyVersionNotFound)
}
