// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/envelope/internal/validation"
)

// maxTTLSeconds caps ring TTLs at ten years.
const maxTTLSeconds = 10 * 365 * 24 * 60 * 60

// CreateKeyRingRequest contains the parameters for creating a key ring.
// A zero TTL selects the configured default.
type CreateKeyRingRequest struct {
	KeyName     string `json:"key_name"`
	Description string `json:"description"`
	TTLSeconds  int64  `json:"ttl_seconds"`
}

// Validate checks if the create key ring request is valid.
func (r *CreateKeyRingRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.KeyName,
			validation.Required,
			customValidation.KeyName,
		),
		validation.Field(&r.Description,
			customValidation.NoWhitespace,
			validation.Length(0, 255),
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(int64(0)),
			validation.Max(int64(maxTTLSeconds)),
		),
	)
}

// EncryptRequest contains the parameters for encrypting data.
type EncryptRequest struct {
	Plaintext string `json:"plaintext"` // Base64-encoded plaintext
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
	)
}

// DecryptRequest contains the parameters for decrypting an envelope.
type DecryptRequest struct {
	Ciphertext string `json:"ciphertext"` // Base64-encoded envelope
}

// Validate checks if the decrypt request is valid.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ciphertext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
	)
}
