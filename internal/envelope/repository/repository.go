// Package repository persists key rings and their versioned keys.
//
// Two implementations exist, one per supported database:
//   - PostgreSQL: native UUID type, BYTEA secrets
//   - MySQL: BINARY(16) UUIDs, VARBINARY secrets
//
// Secrets are stored as raw 32-byte values. Protecting the database itself is
// the responsibility of the deployment.
//
// All methods are transaction-aware through database.GetTx: inside
// TxManager.WithTx they run on the transaction, otherwise on the pool.
package repository

import (
	"fmt"
	"math"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// keyRingRow mirrors one row of key_rings.
type keyRingRow struct {
	id             uuid.UUID
	ownerID        uuid.UUID
	keyName        string
	description    string
	ttlSeconds     int64
	status         int
	currentVersion int
	createdAt      time.Time
}

// versionedKeyRow mirrors one row of versioned_keys.
type versionedKeyRow struct {
	id              uuid.UUID
	ownerID         uuid.UUID
	keyName         string
	version         int
	secret          []byte
	status          int
	ttlSeconds      int64
	createdAt       time.Time
	lastRequestedAt *time.Time
}

func (r versionedKeyRow) toDomain() (*domain.VersionedKey, error) {
	defer memguard.WipeBytes(r.secret)

	if r.version < 0 || r.version > math.MaxUint16 {
		return nil, fmt.Errorf("invalid stored version %d for %s", r.version, r.keyName)
	}

	key, err := domain.RestoreVersionedKey(domain.VersionedKeyParams{
		ID:              r.id,
		OwnerID:         r.ownerID,
		KeyName:         r.keyName,
		Version:         uint16(r.version),
		Status:          domain.KeyStatus(r.status),
		TTL:             time.Duration(r.ttlSeconds) * time.Second,
		CreatedAt:       r.createdAt,
		LastRequestedAt: r.lastRequestedAt,
	}, r.secret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to restore versioned key")
	}
	return key, nil
}

func (r keyRingRow) toDomain(keys []*domain.VersionedKey) (*domain.KeyRing, error) {
	ring, err := domain.RestoreKeyRing(domain.KeyRingParams{
		ID:          r.id,
		OwnerID:     r.ownerID,
		KeyName:     r.keyName,
		Description: r.description,
		TTL:         time.Duration(r.ttlSeconds) * time.Second,
		Status:      domain.KeyRingStatus(r.status),
		CreatedAt:   r.createdAt,
	}, keys)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to restore key ring")
	}
	return ring, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	return int64(ttl / time.Second)
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
