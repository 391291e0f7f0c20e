package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/allisson/envelope/internal/database"
	"github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// MySQL ER_DUP_ENTRY error number.
const mysqlDuplicateEntry = 1062

// MySQLKeyRingRepository persists key rings in MySQL. UUIDs are stored as
// BINARY(16).
type MySQLKeyRingRepository struct {
	db *sql.DB
}

// NewMySQLKeyRingRepository creates a new MySQL key ring repository.
func NewMySQLKeyRingRepository(db *sql.DB) *MySQLKeyRingRepository {
	return &MySQLKeyRingRepository{db: db}
}

// CreateKeyRing inserts the ring row and every version it holds.
func (m *MySQLKeyRingRepository) CreateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	querier := database.GetTx(ctx, m.db)

	id, err := ring.ID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key ring id")
	}
	ownerID, err := ring.OwnerID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `INSERT INTO key_rings (id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ownerID,
		ring.KeyName(),
		ring.Description(),
		ttlSeconds(ring.TTL()),
		int(ring.Status()),
		int(ring.CurrentVersion()),
		ring.CreatedAt(),
		ring.CreatedAt(),
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrKeyRingAlreadyExists, ring.KeyName())
		}
		return apperrors.Wrap(err, "failed to create key ring")
	}

	for _, key := range ring.Versions() {
		if err := m.CreateVersionedKey(ctx, ring.ID(), key); err != nil {
			return err
		}
	}

	return nil
}

// UpdateKeyRing writes the mutable ring attributes.
func (m *MySQLKeyRingRepository) UpdateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	querier := database.GetTx(ctx, m.db)

	id, err := ring.ID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key ring id")
	}

	query := `UPDATE key_rings
			  SET description = ?, status = ?, current_version = ?, updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		ring.Description(),
		int(ring.Status()),
		int(ring.CurrentVersion()),
		id,
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
func (m *MySQLKeyRingRepository) CreateVersionedKey(
	ctx context.Context,
	ringID uuid.UUID,
	key *domain.VersionedKey,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := key.ID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal versioned key id")
	}
	ringIDBytes, err := ringID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal key ring id")
	}
	ownerID, err := key.OwnerID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal owner id")
	}

	secret, err := key.ExportSecret()
	if err != nil {
		return apperrors.Wrap(err, "failed to export key secret")
	}
	defer memguard.WipeBytes(secret)

	query := `INSERT INTO versioned_keys (id, key_ring_id, owner_id, key_name, version, secret, status, ttl_seconds, created_at, last_requested_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ringIDBytes,
		ownerID,
		key.KeyName(),
		int(key.Version()),
		secret,
		int(key.Status()),
		ttlSeconds(key.TTL()),
		key.CreatedAt(),
		nullableTime(key.LastRequestedAt()),
	)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrKeyRingAlreadyExists, key.Identity())
		}
		return apperrors.Wrap(err, "failed to create versioned key")
	}
	return nil
}

// UpdateVersionedKeyStatus writes the status and last requested time of key.
func (m *MySQLKeyRingRepository) UpdateVersionedKeyStatus(ctx context.Context, key *domain.VersionedKey) error {
	querier := database.GetTx(ctx, m.db)

	id, err := key.ID().MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal versioned key id")
	}

	query := `UPDATE versioned_keys SET status = ?, last_requested_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, int(key.Status()), nullableTime(key.LastRequestedAt()), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update versioned key status")
	}
	return nil
}

// GetKeyRing loads a ring with all its versions.
func (m *MySQLKeyRingRepository) GetKeyRing(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at
			  FROM key_rings
			  WHERE key_name = ?`

	row, err := scanMySQLKeyRing(querier.QueryRowContext(ctx, query, keyName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKeyName, keyName)
		}
		return nil, apperrors.Wrap(err, "failed to get key ring")
	}

	keys, err := m.listVersionedKeys(ctx, querier, row.id)
	if err != nil {
		return nil, err
	}

	return row.toDomain(keys)
}

// ListKeyRings returns rings ordered by key name, with their versions.
func (m *MySQLKeyRingRepository) ListKeyRings(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, owner_id, key_name, description, ttl_seconds, status, current_version, created_at
			  FROM key_rings
			  ORDER BY key_name
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list key rings")
	}
	defer func() {
		_ = rows.Close()
	}()

	var ringRows []keyRingRow
	for rows.Next() {
		row, err := scanMySQLKeyRing(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan key ring")
		}
		ringRows = append(ringRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate key rings")
	}
	_ = rows.Close()

	rings := make([]*domain.KeyRing, 0, len(ringRows))
	for _, row := range ringRows {
		keys, err := m.listVersionedKeys(ctx, querier, row.id)
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

func (m *MySQLKeyRingRepository) listVersionedKeys(
	ctx context.Context,
	querier database.Querier,
	ringID uuid.UUID,
) ([]*domain.VersionedKey, error) {
	id, err := ringID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal key ring id")
	}

	query := `SELECT id, owner_id, key_name, version, secret, status, ttl_seconds, created_at, last_requested_at
			  FROM versioned_keys
			  WHERE key_ring_id = ?
			  ORDER BY version`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list versioned keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []*domain.VersionedKey
	for rows.Next() {
		var row versionedKeyRow
		var keyID, ownerID []byte
		if err := rows.Scan(
			&keyID,
			&ownerID,
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

		if err := row.id.UnmarshalBinary(keyID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal versioned key id")
		}
		if err := row.ownerID.UnmarshalBinary(ownerID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLKeyRing(scanner rowScanner) (keyRingRow, error) {
	var row keyRingRow
	var id, ownerID []byte
	if err := scanner.Scan(
		&id,
		&ownerID,
		&row.keyName,
		&row.description,
		&row.ttlSeconds,
		&row.status,
		&row.currentVersion,
		&row.createdAt,
	); err != nil {
		return keyRingRow{}, err
	}

	if err := row.id.UnmarshalBinary(id); err != nil {
		return keyRingRow{}, fmt.Errorf("failed to unmarshal key ring id: %w", err)
	}
	if err := row.ownerID.UnmarshalBinary(ownerID); err != nil {
		return keyRingRow{}, fmt.Errorf("failed to unmarshal owner id: %w", err)
	}
	return row, nil
}

// isMySQLUniqueViolation checks if the error is a MySQL duplicate entry error.
func isMySQLUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
