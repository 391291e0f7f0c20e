package domain

import (
	"github.com/allisson/envelope/internal/errors"
)

// Envelope error definitions.
//
// Every error wraps one of the base errors from internal/errors so the HTTP
// layer can map it without knowing the envelope domain.
var (
	// ErrInvalidKeyName indicates a key name that is not exactly 4 ASCII characters.
	ErrInvalidKeyName = errors.Wrap(errors.ErrInvalidInput, "key name must be exactly 4 characters in length")

	// ErrInvalidSecretSize indicates a secret that is not exactly 32 bytes.
	ErrInvalidSecretSize = errors.Wrap(errors.ErrInvalidInput, "secret must be exactly 32 bytes in length")

	// ErrInvalidIVSize indicates an explicit IV that is not exactly 16 bytes.
	ErrInvalidIVSize = errors.Wrap(errors.ErrInvalidInput, "iv must be exactly 16 bytes in length")

	// ErrNotAnEnvelope indicates the leading bytes do not carry the envelope magic.
	ErrNotAnEnvelope = errors.Wrap(errors.ErrInvalidInput, "data is not an encrypted envelope")

	// ErrBlobTooShort indicates fewer bytes than an envelope header.
	ErrBlobTooShort = errors.Wrap(errors.ErrInvalidInput, "encrypted data is shorter than the envelope header")

	// ErrIVDerivationOverflow indicates the derived IV instant falls outside years 1 to 9999.
	ErrIVDerivationOverflow = errors.Wrap(errors.ErrInvalidInput, "iv derivation overflow")

	// ErrDecryptionFailed indicates a wrong key, a corrupted ciphertext or bad padding.
	// The cause is deliberately not disclosed.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(
		errors.ErrInvalidInput,
		"unable to decrypt the encrypted stream, the key or the data is not valid",
	)

	// ErrVersionOverflow indicates a key ring already reached version 65535.
	ErrVersionOverflow = errors.Wrap(errors.ErrInvalidInput, "key version overflow")

	// ErrKeyNameMismatch indicates a key inserted into a ring of another name.
	ErrKeyNameMismatch = errors.Wrap(errors.ErrInvalidInput, "key name does not match key ring")

	// ErrEmptyKeyRing indicates an attempt to build a ring without any key.
	ErrEmptyKeyRing = errors.Wrap(errors.ErrInvalidInput, "key ring requires at least one key")

	// ErrKeyRingRetired indicates an encryption request against a retired ring.
	ErrKeyRingRetired = errors.Wrap(errors.ErrInvalidInput, "key ring is retired")

	// ErrUnknownKeyName indicates no key ring exists for the key name.
	ErrUnknownKeyName = errors.Wrap(errors.ErrNotFound, "key ring not found")

	// ErrKeyVersionNotFound indicates the key ring has no such version.
	// Callers treat it as recoverable, for example data under a purged version.
	ErrKeyVersionNotFound = errors.Wrap(errors.ErrNotFound, "key version not found")

	// ErrKeyRingAlreadyExists indicates a key ring with the same name already exists.
	ErrKeyRingAlreadyExists = errors.Wrap(errors.ErrConflict, "key ring already exists")
)
