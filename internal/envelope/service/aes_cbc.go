package service

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/allisson/envelope/internal/envelope/domain"
)

var (
	errInvalidCiphertextSize = errors.New("ciphertext is not a positive multiple of the block size")
	errInvalidPadding        = errors.New("invalid padding")
	errCipherClosed          = errors.New("cipher is closed")
)

// AESCBCCipher implements BlockCipher using AES-256 in CBC mode with PKCS7
// padding.
//
// The mode is fixed by the envelope wire format. It carries no authentication
// tag, so decryption can only detect corruption through invalid padding.
//
// The cipher holds a single IV and is therefore meant for one message. Close
// releases the expanded key once the message is done; callers close it before
// the secret it was created from is wiped. Encrypt and Decrypt are safe for
// concurrent use, Close is not.
type AESCBCCipher struct {
	block cipher.Block
	iv    [domain.IVSize]byte
}

// NewAESCBC creates a cipher for a 32-byte secret and a 16-byte IV.
func NewAESCBC(secret, iv []byte) (*AESCBCCipher, error) {
	if len(secret) != domain.SecretSize {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidSecretSize, len(secret))
	}
	if len(iv) != domain.IVSize {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidIVSize, len(iv))
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	c := &AESCBCCipher{block: block}
	copy(c.iv[:], iv)
	return c, nil
}

// Encrypt pads plaintext with PKCS7 and encrypts it. An empty plaintext
// produces one full block of padding.
func (c *AESCBCCipher) Encrypt(plaintext []byte) ([]byte, error) {
	if c.block == nil {
		return nil, errCipherClosed
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer memguard.WipeBytes(padded)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv[:]).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt decrypts ciphertext and strips the PKCS7 padding.
func (c *AESCBCCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if c.block == nil {
		return nil, errCipherClosed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errInvalidCiphertextSize
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.iv[:]).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		memguard.WipeBytes(padded)
		return nil, err
	}

	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	memguard.WipeBytes(padded)
	return out, nil
}

// Close drops the AES key schedule and wipes the IV. The schedule itself lives
// in memory owned by crypto/aes and is reclaimed by the garbage collector.
func (c *AESCBCCipher) Close() {
	c.block = nil
	memguard.WipeBytes(c.iv[:])
}

// AESCBCFactory creates AESCBCCipher instances.
type AESCBCFactory struct{}

// NewAESCBCFactory creates a new AESCBCFactory.
func NewAESCBCFactory() *AESCBCFactory {
	return &AESCBCFactory{}
}

// NewCipher creates an AES-256-CBC cipher for secret and iv.
func (f *AESCBCFactory) NewCipher(secret, iv []byte) (BlockCipher, error) {
	return NewAESCBC(secret, iv)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padding)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padding)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errInvalidPadding
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errInvalidPadding
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errInvalidPadding
		}
	}

	return data[:len(data)-padding], nil
}
