package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/envelope/http/dto"
	"github.com/allisson/envelope/internal/envelope/usecase/mocks"
)

// setupTestEnvelopeHandler creates a test envelope handler with mocked dependencies.
func setupTestEnvelopeHandler(t *testing.T) (*EnvelopeHandler, *mocks.MockEnvelopeUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockEnvelopeUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })

	return NewEnvelopeHandler(mockUseCase, newTestLogger()), mockUseCase
}

func newTestHeader(t *testing.T, keyName string, version uint16) domain.EnvelopeHeader {
	t.Helper()
	ticks := domain.TicksFromTime(time.Date(2024, 1, 1, 10, 30, 15, 0, time.UTC))
	header, err := domain.NewEnvelopeHeader(keyName, version, ticks)
	require.NoError(t, err)
	return header
}

func TestEnvelopeHandler_EncryptHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		plaintext := []byte("my secret data")
		envelope := append(newTestHeader(t, "ABCd", 2).Bytes(), make([]byte, 16)...)

		mockUseCase.On("Encrypt", mock.Anything, "ABCd", plaintext).Return(envelope, nil).Once()

		request := dto.EncryptRequest{Plaintext: base64.StdEncoding.EncodeToString(plaintext)}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/ABCd/encrypt", request)
		c.Params = gin.Params{{Key: "key_name", Value: "ABCd"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.EncryptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, envelope, response.Ciphertext)
		assert.Equal(t, "ABCd", response.KeyName)
		assert.Equal(t, uint16(2), response.Version)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestEnvelopeHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/envelope/ABCd/encrypt", nil)
		c.Params = gin.Params{{Key: "key_name", Value: "ABCd"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_EmptyPlaintext", func(t *testing.T) {
		handler, _ := setupTestEnvelopeHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/envelope/ABCd/encrypt", dto.EncryptRequest{})
		c.Params = gin.Params{{Key: "key_name", Value: "ABCd"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "plaintext")
	})

	t.Run("Error_InvalidBase64", func(t *testing.T) {
		handler, _ := setupTestEnvelopeHandler(t)

		request := dto.EncryptRequest{Plaintext: "not-valid-base64!@#$%"}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/ABCd/encrypt", request)
		c.Params = gin.Params{{Key: "key_name", Value: "ABCd"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "base64")
	})

	t.Run("Error_UnknownKeyName", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		mockUseCase.On("Encrypt", mock.Anything, "ZZZZ", []byte("data")).
			Return(nil, domain.ErrUnknownKeyName).
			Once()

		request := dto.EncryptRequest{Plaintext: base64.StdEncoding.EncodeToString([]byte("data"))}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/ZZZZ/encrypt", request)
		c.Params = gin.Params{{Key: "key_name", Value: "ZZZZ"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_RetiredRing", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		mockUseCase.On("Encrypt", mock.Anything, "ABCd", []byte("data")).
			Return(nil, domain.ErrKeyRingRetired).
			Once()

		request := dto.EncryptRequest{Plaintext: base64.StdEncoding.EncodeToString([]byte("data"))}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/ABCd/encrypt", request)
		c.Params = gin.Params{{Key: "key_name", Value: "ABCd"}}

		handler.EncryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestEnvelopeHandler_DecryptHandler(t *testing.T) {
	t.Run("Success_ValidRequest", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		header := newTestHeader(t, "1969", 3)
		envelope := append(header.Bytes(), make([]byte, 16)...)

		mockUseCase.On("Decrypt", mock.Anything, envelope).
			Return([]byte("The first encryption data message!"), header, nil).
			Once()

		request := dto.DecryptRequest{Ciphertext: base64.StdEncoding.EncodeToString(envelope)}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/decrypt", request)

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DecryptResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "The first encryption data message!", string(response.Plaintext))
		assert.Equal(t, "1969", response.KeyName)
		assert.Equal(t, uint16(3), response.Version)
		assert.True(t, response.Timestamp.Equal(time.Date(2024, 1, 1, 10, 30, 15, 0, time.UTC)))
	})

	t.Run("Error_MissingCiphertext", func(t *testing.T) {
		handler, _ := setupTestEnvelopeHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/envelope/decrypt", dto.DecryptRequest{})

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ciphertext")
	})

	t.Run("Error_NotAnEnvelope", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		blob := make([]byte, 32)
		mockUseCase.On("Decrypt", mock.Anything, blob).
			Return(nil, domain.EnvelopeHeader{}, domain.ErrNotAnEnvelope).
			Once()

		request := dto.DecryptRequest{Ciphertext: base64.StdEncoding.EncodeToString(blob)}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/decrypt", request)

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "not an encrypted envelope")
	})

	t.Run("Error_VersionNotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestEnvelopeHandler(t)

		header := newTestHeader(t, "ABCd", 9)
		envelope := append(header.Bytes(), make([]byte, 16)...)
		mockUseCase.On("Decrypt", mock.Anything, envelope).
			Return(nil, header, domain.ErrKeyVersionNotFound).
			Once()

		request := dto.DecryptRequest{Ciphertext: base64.StdEncoding.EncodeToString(envelope)}
		c, w := createTestContext(http.MethodPost, "/v1/envelope/decrypt", request)

		handler.DecryptHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
