package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/envelope/domain"
)

const testSecret = "abcDEFGHijklmnopqrstuvwxyz123456"

var (
	keyRingColumns = []string{
		"id", "owner_id", "key_name", "description", "ttl_seconds", "status", "current_version", "created_at",
	}
	versionedKeyColumns = []string{
		"id", "owner_id", "key_name", "version", "secret", "status", "ttl_seconds", "created_at", "last_requested_at",
	}
)

func newTestKeyRing(t *testing.T) *domain.KeyRing {
	t.Helper()

	key, err := domain.NewVersionedKeyWithSecret(uuid.New(), "ABCd", time.Hour, []byte(testSecret))
	require.NoError(t, err)

	ring := domain.NewKeyRingFromKey(key)
	return ring
}
