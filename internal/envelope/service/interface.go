// Package service implements envelope encryption over versioned key rings.
// It holds the in-memory key ring registry and performs the AES-256-CBC
// transforms for header-prefixed envelopes and the stored-IV format.
package service

// BlockCipher encrypts and decrypts whole messages under a fixed key and IV.
type BlockCipher interface {
	// Encrypt pads plaintext and returns the ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt returns the unpadded plaintext.
	Decrypt(ciphertext []byte) ([]byte, error)

	// Close drops the expanded key. The cipher cannot be used afterwards.
	Close()
}

// CipherFactory creates BlockCipher instances bound to one secret and IV.
type CipherFactory interface {
	NewCipher(secret, iv []byte) (BlockCipher, error)
}
