package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/awnumar/memguard"

	"github.com/allisson/envelope/internal/envelope/domain"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

// StoredIVEncryptor encrypts with a caller held secret, storing the IV in
// front of the ciphertext. service.EncryptionProcessor implements it.
type StoredIVEncryptor interface {
	EncryptWithStoredIV(keyName string, secret, plaintext, iv []byte) ([]byte, error)
	DecryptWithStoredIV(secret, data []byte) ([]byte, error)
}

// RunEncrypt encrypts data under the current version of keyName and prints
// the envelope as base64.
func RunEncrypt(
	ctx context.Context,
	useCase envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	keyName, data string,
) error {
	plaintext := []byte(data)
	defer memguard.WipeBytes(plaintext)

	envelope, err := useCase.Encrypt(ctx, keyName, plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	header, err := domain.ParseEnvelopeHeader(envelope)
	if err != nil {
		return fmt.Errorf("failed to parse envelope header: %w", err)
	}
	logger.Info("data encrypted",
		slog.String("key_name", header.KeyName()),
		slog.Int("version", int(header.Version())),
	)

	_, _ = fmt.Fprintln(writer, base64.StdEncoding.EncodeToString(envelope))
	return nil
}

// RunDecrypt opens a base64 envelope and prints the plaintext followed by the
// key name, version and timestamp recorded in its header.
func RunDecrypt(
	ctx context.Context,
	useCase envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	blob string,
) error {
	envelope, err := decodeBase64Flag("blob", blob)
	if err != nil {
		return err
	}

	plaintext, header, err := useCase.Decrypt(ctx, envelope)
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	logger.Info("data decrypted",
		slog.String("key_name", header.KeyName()),
		slog.Int("version", int(header.Version())),
	)

	_, _ = fmt.Fprintf(writer, "Plaintext: %s\n", plaintext)
	_, _ = fmt.Fprintf(writer, "Key Name: %s\n", header.KeyName())
	_, _ = fmt.Fprintf(writer, "Version: %d\n", header.Version())
	_, _ = fmt.Fprintf(writer, "Encrypted At: %s\n", header.Timestamp().Format(time.RFC3339))
	return nil
}

// RunEncryptStoredIV encrypts data with a base64 encoded 32 byte secret and a
// random IV. Nothing is read from or written to the database.
func RunEncryptStoredIV(
	encryptor StoredIVEncryptor,
	logger *slog.Logger,
	writer io.Writer,
	keyName, secret, data string,
) error {
	secretBytes, err := decodeBase64Flag("secret", secret)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(secretBytes)

	plaintext := []byte(data)
	defer memguard.WipeBytes(plaintext)

	encrypted, err := encryptor.EncryptWithStoredIV(keyName, secretBytes, plaintext, nil)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	logger.Info("data encrypted with stored iv", slog.String("key_name", keyName))

	_, _ = fmt.Fprintln(writer, base64.StdEncoding.EncodeToString(encrypted))
	return nil
}

// RunDecryptStoredIV opens a base64 blob produced by RunEncryptStoredIV with
// the same base64 encoded secret and prints the plaintext.
func RunDecryptStoredIV(
	encryptor StoredIVEncryptor,
	logger *slog.Logger,
	writer io.Writer,
	secret, blob string,
) error {
	secretBytes, err := decodeBase64Flag("secret", secret)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(secretBytes)

	data, err := decodeBase64Flag("blob", blob)
	if err != nil {
		return err
	}

	plaintext, err := encryptor.DecryptWithStoredIV(secretBytes, data)
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	logger.Info("data decrypted with stored iv", slog.Int("size", len(plaintext)))

	_, _ = fmt.Fprintf(writer, "Plaintext: %s\n", plaintext)
	return nil
}
