package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envelope/internal/envelope/domain"
)

// KeyRingRepository defines the interface for key ring persistence.
type KeyRingRepository interface {
	CreateKeyRing(ctx context.Context, ring *domain.KeyRing) error
	UpdateKeyRing(ctx context.Context, ring *domain.KeyRing) error
	CreateVersionedKey(ctx context.Context, ringID uuid.UUID, key *domain.VersionedKey) error
	UpdateVersionedKeyStatus(ctx context.Context, key *domain.VersionedKey) error
	GetKeyRing(ctx context.Context, keyName string) (*domain.KeyRing, error)
	ListKeyRings(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error)
}

// EncryptionProcessor is the in-memory key ring registry that performs the
// envelope cryptography. service.EncryptionProcessor implements it.
type EncryptionProcessor interface {
	MergeKeyRing(ring *domain.KeyRing) error
	Encrypt(keyName string, plaintext []byte) ([]byte, error)
	DecryptWithHeader(envelope []byte) ([]byte, domain.EnvelopeHeader, error)
}

// KeyRingUseCase defines the key ring lifecycle operations.
type KeyRingUseCase interface {
	// Create persists a new ring holding version 1 of keyName. A zero ttl
	// selects the configured default.
	Create(ctx context.Context, keyName, description string, ttl time.Duration) (*domain.KeyRing, error)
	// Rotate adds a new current version to the ring of keyName.
	Rotate(ctx context.Context, keyName string) (*domain.KeyRing, error)
	// Retire stops the ring of keyName from encrypting. Decryption keeps working.
	Retire(ctx context.Context, keyName string) (*domain.KeyRing, error)
	Get(ctx context.Context, keyName string) (*domain.KeyRing, error)
	List(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error)
	// LoadAll reads every persisted ring into the processor and returns them.
	LoadAll(ctx context.Context) ([]*domain.KeyRing, error)
}

// EnvelopeUseCase defines the envelope encryption operations.
type EnvelopeUseCase interface {
	// Encrypt returns the envelope of plaintext under the current version of keyName.
	Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error)
	// Decrypt opens an envelope and returns the plaintext with the parsed header.
	//
	// Security Note: callers should wipe the returned plaintext once done with it.
	Decrypt(ctx context.Context, envelope []byte) ([]byte, domain.EnvelopeHeader, error)
}
