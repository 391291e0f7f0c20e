package service

import (
	"crypto/rand"
	"fmt"

	"github.com/allisson/envelope/internal/envelope/domain"
)

// EncryptWithStoredIV encrypts plaintext with a caller managed secret and
// returns iv followed by the ciphertext. A nil iv is replaced by 16 random
// bytes. keyName is validated but not written to the output.
func (p *EncryptionProcessor) EncryptWithStoredIV(keyName string, secret, plaintext, iv []byte) ([]byte, error) {
	if err := domain.ValidateKeyName(keyName); err != nil {
		return nil, err
	}
	if len(secret) != domain.SecretSize {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidSecretSize, len(secret))
	}

	if iv == nil {
		iv = make([]byte, domain.IVSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, fmt.Errorf("failed to generate iv: %w", err)
		}
	} else if len(iv) != domain.IVSize {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidIVSize, len(iv))
	}

	c, err := p.ciphers.NewCipher(secret, iv)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}

	out := make([]byte, 0, domain.IVSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptWithStoredIV reverses EncryptWithStoredIV.
func (p *EncryptionProcessor) DecryptWithStoredIV(secret, data []byte) ([]byte, error) {
	if len(secret) != domain.SecretSize {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidSecretSize, len(secret))
	}
	if len(data) < domain.IVSize {
		return nil, fmt.Errorf("%w: got %d bytes", domain.ErrBlobTooShort, len(data))
	}

	c, err := p.ciphers.NewCipher(secret, data[:domain.IVSize])
	if err != nil {
		return nil, err
	}
	defer c.Close()

	plaintext, err := c.Decrypt(data[domain.IVSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
