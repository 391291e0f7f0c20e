package commands

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/clock"
	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/envelope/service"
	envelopeMocks "github.com/allisson/envelope/internal/envelope/usecase/mocks"
)

func newTestHeader(t *testing.T) domain.EnvelopeHeader {
	t.Helper()
	at := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	header, err := domain.NewEnvelopeHeader("ABCd", 2, domain.TicksFromTime(at))
	require.NoError(t, err)
	return header
}

func TestRunEncrypt(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("success", func(t *testing.T) {
		envelope := append(newTestHeader(t).Bytes(), make([]byte, 16)...)
		mockUseCase := &envelopeMocks.MockEnvelopeUseCase{}
		mockUseCase.On("Encrypt", ctx, "ABCd", []byte("hello")).Return(envelope, nil)

		var out bytes.Buffer
		err := RunEncrypt(ctx, mockUseCase, logger, &out, "ABCd", "hello")

		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(envelope), strings.TrimSpace(out.String()))
		mockUseCase.AssertExpectations(t)
	})

	t.Run("retired-key-ring", func(t *testing.T) {
		mockUseCase := &envelopeMocks.MockEnvelopeUseCase{}
		mockUseCase.On("Encrypt", ctx, "ABCd", mock.Anything).Return(nil, domain.ErrKeyRingRetired)

		err := RunEncrypt(ctx, mockUseCase, logger, &bytes.Buffer{}, "ABCd", "hello")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrKeyRingRetired)
		mockUseCase.AssertExpectations(t)
	})
}

func TestRunDecrypt(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	envelope := append(newTestHeader(t).Bytes(), make([]byte, 16)...)
	blob := base64.StdEncoding.EncodeToString(envelope)

	t.Run("success", func(t *testing.T) {
		mockUseCase := &envelopeMocks.MockEnvelopeUseCase{}
		mockUseCase.On("Decrypt", ctx, envelope).Return([]byte("hello"), newTestHeader(t), nil)

		var out bytes.Buffer
		err := RunDecrypt(ctx, mockUseCase, logger, &out, blob)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Plaintext: hello")
		assert.Contains(t, out.String(), "Key Name: ABCd")
		assert.Contains(t, out.String(), "Version: 2")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-base64", func(t *testing.T) {
		mockUseCase := &envelopeMocks.MockEnvelopeUseCase{}

		err := RunDecrypt(ctx, mockUseCase, logger, &bytes.Buffer{}, "not base64!")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --blob")
		mockUseCase.AssertNotCalled(t, "Decrypt")
	})

	t.Run("version-not-found", func(t *testing.T) {
		mockUseCase := &envelopeMocks.MockEnvelopeUseCase{}
		mockUseCase.On("Decrypt", ctx, envelope).Return(nil, domain.EnvelopeHeader{}, domain.ErrKeyVersionNotFound)

		err := RunDecrypt(ctx, mockUseCase, logger, &bytes.Buffer{}, blob)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrKeyVersionNotFound)
		mockUseCase.AssertExpectations(t)
	})
}

func TestRunEncryptStoredIV(t *testing.T) {
	logger := newTestLogger()
	processor := service.NewEncryptionProcessor(service.NewAESCBCFactory(), clock.Real{})
	secret := []byte("abcDEFGHijklmnopqrstuvwxyz123456")
	encodedSecret := base64.StdEncoding.EncodeToString(secret)

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		err := RunEncryptStoredIV(processor, logger, &out, "ABCd", encodedSecret, "stored")
		require.NoError(t, err)

		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		plaintext, err := processor.DecryptWithStoredIV(secret, data)
		require.NoError(t, err)
		assert.Equal(t, "stored", string(plaintext))
	})

	t.Run("invalid-secret-encoding", func(t *testing.T) {
		err := RunEncryptStoredIV(processor, logger, &bytes.Buffer{}, "ABCd", "%%%", "stored")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --secret")
	})

	t.Run("invalid-secret-size", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString(secret[:16])

		err := RunEncryptStoredIV(processor, logger, &bytes.Buffer{}, "ABCd", short, "stored")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidSecretSize)
	})

	t.Run("invalid-key-name", func(t *testing.T) {
		err := RunEncryptStoredIV(processor, logger, &bytes.Buffer{}, "TOOLONG", encodedSecret, "stored")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidKeyName)
	})
}

func TestRunDecryptStoredIV(t *testing.T) {
	logger := newTestLogger()
	processor := service.NewEncryptionProcessor(service.NewAESCBCFactory(), clock.Real{})
	secret := []byte("abcDEFGHijklmnopqrstuvwxyz123456")
	encodedSecret := base64.StdEncoding.EncodeToString(secret)

	data, err := processor.EncryptWithStoredIV("ABCd", secret, []byte("stored"), nil)
	require.NoError(t, err)
	blob := base64.StdEncoding.EncodeToString(data)

	t.Run("success", func(t *testing.T) {
		var out bytes.Buffer
		err := RunDecryptStoredIV(processor, logger, &out, encodedSecret, blob)

		require.NoError(t, err)
		assert.Equal(t, "Plaintext: stored\n", out.String())
	})

	t.Run("invalid-blob-encoding", func(t *testing.T) {
		err := RunDecryptStoredIV(processor, logger, &bytes.Buffer{}, encodedSecret, "%%%")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --blob")
	})

	t.Run("too-short", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString(data[:8])

		err := RunDecryptStoredIV(processor, logger, &bytes.Buffer{}, encodedSecret, short)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBlobTooShort)
	})
}
