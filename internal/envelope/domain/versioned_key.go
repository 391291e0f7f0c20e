package domain

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
)

// KeyIdentity identifies a key version. Two keys are equal when their
// identities are equal; the secret takes no part in equality.
type KeyIdentity struct {
	OwnerID uuid.UUID
	KeyName string
	Version uint16
}

// String returns the display id of the identity, see BuildID.
func (i KeyIdentity) String() string {
	return i.KeyName + strconv.FormatUint(uint64(i.Version), 10)
}

// VersionedKey is one generation of secret material for a key name.
//
// The secret lives in a memguard enclave, encrypted while at rest in memory,
// and is only decrypted into a locked, read-only buffer for the duration of
// WithSecret. Apart from the status and the last requested time a key never
// changes after it has been added to a key ring.
type VersionedKey struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	keyName   string
	version   uint16
	secret    *memguard.Enclave
	status    KeyStatus
	ttl       time.Duration
	createdAt time.Time

	// unix nanoseconds, zero when never requested
	lastRequestedAt atomic.Int64
}

// VersionedKeyParams carries the persisted attributes of a key version.
type VersionedKeyParams struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	KeyName         string
	Version         uint16
	Status          KeyStatus
	TTL             time.Duration
	CreatedAt       time.Time
	LastRequestedAt *time.Time
}

// NewVersionedKey creates version 1 of keyName with a fresh random secret.
func NewVersionedKey(ownerID uuid.UUID, keyName string, ttl time.Duration) (*VersionedKey, error) {
	if err := ValidateKeyName(keyName); err != nil {
		return nil, err
	}

	return newVersionedKey(ownerID, keyName, 1, ttl, memguard.NewEnclaveRandom(SecretSize)), nil
}

// NewVersionedKeyWithSecret creates version 1 of keyName with a caller supplied
// secret. The secret is copied; the caller keeps ownership of its slice.
func NewVersionedKeyWithSecret(
	ownerID uuid.UUID,
	keyName string,
	ttl time.Duration,
	secret []byte,
) (*VersionedKey, error) {
	if err := ValidateKeyName(keyName); err != nil {
		return nil, err
	}

	enclave, err := sealSecret(secret)
	if err != nil {
		return nil, err
	}

	return newVersionedKey(ownerID, keyName, 1, ttl, enclave), nil
}

// RestoreVersionedKey rebuilds a persisted key version. The secret is copied;
// callers should wipe their slice afterwards.
func RestoreVersionedKey(params VersionedKeyParams, secret []byte) (*VersionedKey, error) {
	if err := ValidateKeyName(params.KeyName); err != nil {
		return nil, err
	}

	enclave, err := sealSecret(secret)
	if err != nil {
		return nil, err
	}

	k := &VersionedKey{
		id:        params.ID,
		ownerID:   params.OwnerID,
		keyName:   params.KeyName,
		version:   params.Version,
		secret:    enclave,
		status:    params.Status,
		ttl:       params.TTL,
		createdAt: params.CreatedAt,
	}
	if params.LastRequestedAt != nil {
		k.lastRequestedAt.Store(params.LastRequestedAt.UnixNano())
	}

	return k, nil
}

func newVersionedKey(
	ownerID uuid.UUID,
	keyName string,
	version uint16,
	ttl time.Duration,
	secret *memguard.Enclave,
) *VersionedKey {
	return &VersionedKey{
		id:        uuid.Must(uuid.NewV7()),
		ownerID:   ownerID,
		keyName:   keyName,
		version:   version,
		secret:    secret,
		status:    KeyStatusCurrent,
		ttl:       ttl,
		createdAt: time.Now().UTC(),
	}
}

// sealSecret copies secret into a new enclave. memguard wipes the copy.
func sealSecret(secret []byte) (*memguard.Enclave, error) {
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSecretSize, len(secret))
	}

	buf := make([]byte, SecretSize)
	copy(buf, secret)

	return memguard.NewEnclave(buf), nil
}

// ID returns the storage id of the key version.
func (k *VersionedKey) ID() uuid.UUID { return k.id }

// OwnerID returns the owning application, uuid.Nil when unscoped.
func (k *VersionedKey) OwnerID() uuid.UUID { return k.ownerID }

// KeyName returns the 4-character key name.
func (k *VersionedKey) KeyName() string { return k.keyName }

// Version returns the key generation number.
func (k *VersionedKey) Version() uint16 { return k.version }

// Status returns the lifecycle status.
func (k *VersionedKey) Status() KeyStatus { return k.status }

// TTL returns the rotation interval requested for the key.
func (k *VersionedKey) TTL() time.Duration { return k.ttl }

// CreatedAt returns the creation time.
func (k *VersionedKey) CreatedAt() time.Time { return k.createdAt }

// LastRequestedAt returns the last time the key was resolved through a key
// ring, or the zero time.
func (k *VersionedKey) LastRequestedAt() time.Time {
	nanos := k.lastRequestedAt.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

// Identity returns the (owner, key name, version) triple.
func (k *VersionedKey) Identity() KeyIdentity {
	return KeyIdentity{OwnerID: k.ownerID, KeyName: k.keyName, Version: k.version}
}

// Equal reports whether both keys share the same identity.
func (k *VersionedKey) Equal(other *VersionedKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.Identity() == other.Identity()
}

// SetSecret replaces the secret. It must only be used before the key is added
// to a key ring.
func (k *VersionedKey) SetSecret(secret []byte) error {
	enclave, err := sealSecret(secret)
	if err != nil {
		return err
	}
	k.secret = enclave
	return nil
}

// SetSecretString replaces the secret with the bytes of an ASCII string of
// exactly 32 characters.
func (k *VersionedKey) SetSecretString(secret string) error {
	return k.SetSecret([]byte(secret))
}

// WithSecret opens the secret into a locked, read-only buffer, passes it to
// fn and destroys the buffer when fn returns. fn must not retain the slice.
func (k *VersionedKey) WithSecret(fn func(secret []byte) error) error {
	buf, err := k.secret.Open()
	if err != nil {
		return fmt.Errorf("failed to open key secret: %w", err)
	}
	defer buf.Destroy()

	buf.Freeze()
	return fn(buf.Bytes())
}

// ExportSecret returns a copy of the secret for persistence. The caller owns
// the copy and must wipe it with memguard.WipeBytes when done.
func (k *VersionedKey) ExportSecret() ([]byte, error) {
	out := make([]byte, SecretSize)
	err := k.WithSecret(func(secret []byte) error {
		copy(out, secret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NewVersion derives the successor of this key: same owner, key name and ttl,
// a fresh random secret and version explicitVersion, or the next version when
// explicitVersion is zero.
func (k *VersionedKey) NewVersion(explicitVersion uint16) (*VersionedKey, error) {
	version := explicitVersion
	if version == 0 {
		if k.version == math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s", ErrVersionOverflow, k.Identity())
		}
		version = k.version + 1
	}

	return newVersionedKey(k.ownerID, k.keyName, version, k.ttl, memguard.NewEnclaveRandom(SecretSize)), nil
}

// touch records a lookup.
func (k *VersionedKey) touch(now time.Time) {
	k.lastRequestedAt.Store(now.UnixNano())
}

// clone copies the key so its status can change without affecting readers of
// the original. The secret enclave is immutable and shared.
func (k *VersionedKey) clone() *VersionedKey {
	c := &VersionedKey{
		id:        k.id,
		ownerID:   k.ownerID,
		keyName:   k.keyName,
		version:   k.version,
		secret:    k.secret,
		status:    k.status,
		ttl:       k.ttl,
		createdAt: k.createdAt,
	}
	c.lastRequestedAt.Store(k.lastRequestedAt.Load())
	return c
}

// BuildID formats the display id of a key version, keyName followed by the
// decimal version. skipValidation omits the key name check for callers that
// already validated it.
func BuildID(keyName string, version uint16, skipValidation bool) (string, error) {
	if !skipValidation {
		if err := ValidateKeyName(keyName); err != nil {
			return "", err
		}
	}
	return keyName + strconv.FormatUint(uint64(version), 10), nil
}
