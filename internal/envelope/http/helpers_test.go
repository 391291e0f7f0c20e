package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/envelope/domain"
)

// createTestContext builds a gin context for method and path. A non nil body
// is sent as JSON.
func createTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var payload io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		payload = bytes.NewReader(raw)
	}

	c.Request = httptest.NewRequest(method, path, payload)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKeyRing(t *testing.T, keyName string) *domain.KeyRing {
	t.Helper()
	ring, err := domain.NewKeyRing(uuid.New(), keyName, "payments", time.Hour)
	require.NoError(t, err)
	return ring
}
