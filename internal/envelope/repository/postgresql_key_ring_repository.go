package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/envelope/internal/database"
	"github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// PostgreSQL unique_violation error code.
const pgUniqueViolation = "23505"

// PostgreSQLKeyRingRepository persists key rings in PostgreSQL.
//
// Schema:
//   - key_rings: one row per key name (UNIQUE key_name)
//   - versioned_keys: one row per generation (UNIQUE key_name, version),
//     key_ring_id references key_rings(id)
type PostgreSQLKeyRingRepository struct {
	db *sql.DB
}

// NewPostgreSQLKeyRingRepository creates a new PostgreSQL key ring repository.
func NewPostgreSQLKeyRingRepository(db *sql.DB) *PostgreSQLKeyRingRepository {
	return &PostgreSQLKeyRingRepository{db: db}
}

// CreateKeyRing inserts the ring row and every version it holds. Callers run
// it inside a transaction so a partial ring is never visible. A duplicate key
// name fails with domain.ErrKeyRingAlreadyExists.
func (p *PostgreSQLKeyRingRepository) CreateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO key_rings (id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		ring.ID(),
		ring.OwnerID(),
		ring.KeyName(),
		ring.Description(),
		ttlSeconds(ring.TTL()),
		int(ring.Status()),
		int(ring.CurrentVersion()),
		ring.CreatedAt(),
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrKeyRingAlreadyExists, ring.KeyName())
		}
		return apperrors.Wrap(err, "failed to create key ring")
	}

	for _, key := range ring.Versions() {
		if err := p.CreateVersionedKey(ctx, ring.ID(), key); err != nil {
			return err
		}
	}

	return nil
}

// UpdateKeyRing writes the mutable ring attributes: description, status and
// current version.
func (p *PostgreSQLKeyRingRepository) UpdateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE key_rings
			  SET description = $1, status = $2, current_version = $3, updated_at = NOW()
			  WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		ring.Description(),
		int(ring.Status()),
		int(ring.CurrentVersion()),
		ring.ID(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update key ring")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownKeyName, ring.KeyName())
	}

	return nil
}

// CreateVersionedKey inserts one key generation into the ring ringID.
func (p *PostgreSQLKeyRingRepository) CreateVersionedKey(
	ctx context.Context,
	ringID uuid.UUID,
	key *domain.VersionedKey,
) error {
	querier := database.GetTx(ctx, p.db)

	secret, err := key.ExportSecret()
	if err != nil {
		return apperrors.Wrap(err, "failed to export key secret")
	}
	defer memguard.WipeBytes(secret)

	query := `INSERT INTO versioned_keys (id, key_ring_id, owner_id, key_name, version, secret, status, ttl_seconds, created_at, last_requested_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.ID(),
		ringID,
		key.OwnerID(),
		key.KeyName(),
		int(key.Version()),
		secret,
		int(key.Status()),
		ttlSeconds(key.TTL()),
		key.CreatedAt(),
		nullableTime(key.LastRequestedAt()),
	)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrKeyRingAlreadyExists, key.Identity())
		}
		return apperrors.Wrap(err, "failed to create versioned key")
	}
	return nil
}

// UpdateVersionedKeyStatus writes the status and last requested time of key.
func (p *PostgreSQLKeyRingRepository) UpdateVersionedKeyStatus(ctx context.Context, key *domain.VersionedKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE versioned_keys SET status = $1, last_requested_at = $2 WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, int(key.Status()), nullableTime(key.LastRequestedAt()), key.ID())
	if err != nil {
		return apperrors.Wrap(err, "failed to update versioned key status")
	}
	return nil
}

// GetKeyRing loads a ring with all its versions. A missing ring fails with
// domain.ErrUnknownKeyName.
func (p *PostgreSQLKeyRingRepository) GetKeyRing(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at
			  FROM key_rings
			  WHERE key_name = $1`

	var row keyRingRow
	err := querier.QueryRowContext(ctx, query, keyName).Scan(
		&row.id,
		&row.ownerID,
		&row.keyName,
		&row.description,
		&row.ttlSeconds,
		&row.status,
		&row.currentVersion,
		&row.createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKeyName, keyName)
		}
		return nil, apperrors.Wrap(err, "failed to get key ring")
	}

	keys, err := p.listVersionedKeys(ctx, querier, row.id)
	if err != nil {
		return nil, err
	}

	return row.toDomain(keys)
}

// ListKeyRings returns rings ordered by key name, with their versions.
func (p *PostgreSQLKeyRingRepository) ListKeyRings(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at
			  FROM key_rings
			  ORDER BY key_name
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key rings")
	}
	defer func() {
		_ = rows.Close()
	}()

	var ringRows []keyRingRow
	for rows.Next() {
		var row keyRingRow
		if err := rows.Scan(
			&row.id,
			&row.ownerID,
			&row.keyName,
			&row.description,
			&row.ttlSeconds,
			&row.status,
			&row.currentVersion,
			&row.createdAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key ring")
		}
		ringRows = append(ringRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key rings")
	}
	// release the connection before loading versions on the same transaction
	_ = rows.Close()

	rings := make([]*domain.KeyRing, 0, len(ringRows))
	for _, row := range ringRows {
		keys, err := p.listVersionedKeys(ctx, querier, row.id)
		if err != nil {
			return nil, err
		}
		ring, err := row.toDomain(keys)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}

	return rings, nil
}

func (p *PostgreSQLKeyRingRepository) listVersionedKeys(
	ctx context.Context,
	querier database.Querier,
	ringID uuid.UUID,
) ([]*domain.VersionedKey, error) {
	query := `SELECT id, owner_id, key_name, version, secret, status, ttl_seconds, created_at, last_requested_at
			  FROM versioned_keys
			  WHERE key_ring_id = $1
			  ORDER BY version`

	rows, err := querier.QueryContext(ctx, query, ringID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list versioned keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*domain.VersionedKey
	for rows.Next() {
		var row versionedKeyRow
		if err := rows.Scan(
			&row.id,
			&row.ownerID,
			&row.keyName,
			&row.version,
			&row.secret,
			&row.status,
			&row.ttlSeconds,
			&row.createdAt,
			&row.lastRequestedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan versioned key")
		}

		key, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate versioned keys")
	}

	return keys, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isPostgreSQLUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
