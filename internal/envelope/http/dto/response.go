package dto

import (
	"time"

	"github.com/allisson/envelope/internal/envelope/domain"
)

// VersionResponse describes one key version. The secret is never included.
type VersionResponse struct {
	Version         uint16     `json:"version"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	LastRequestedAt *time.Time `json:"last_requested_at,omitempty"`
}

// KeyRingResponse represents a key ring in API responses.
type KeyRingResponse struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	KeyName        string            `json:"key_name"`
	Description    string            `json:"description"`
	TTLSeconds     int64             `json:"ttl_seconds"`
	Status         string            `json:"status"`
	CurrentVersion uint16            `json:"current_version"`
	CreatedAt      time.Time         `json:"created_at"`
	Versions       []VersionResponse `json:"versions"`
}

// MapKeyRingToResponse converts a domain key ring to an API response.
func MapKeyRingToResponse(ring *domain.KeyRing) KeyRingResponse {
	keys := ring.Versions()
	versions := make([]VersionResponse, 0, len(keys))
	for _, key := range keys {
		v := VersionResponse{
			Version:   key.Version(),
			Status:    key.Status().String(),
			CreatedAt: key.CreatedAt(),
		}
		if lastRequestedAt := key.LastRequestedAt(); !lastRequestedAt.IsZero() {
			v.LastRequestedAt = &lastRequestedAt
		}
		versions = append(versions, v)
	}

	return KeyRingResponse{
		ID:             ring.ID().String(),
		OwnerID:        ring.OwnerID().String(),
		KeyName:        ring.KeyName(),
		Description:    ring.Description(),
		TTLSeconds:     int64(ring.TTL() / time.Second),
		Status:         ring.Status().String(),
		CurrentVersion: ring.CurrentVersion(),
		CreatedAt:      ring.CreatedAt(),
		Versions:       versions,
	}
}

// ListKeyRingsResponse represents a paginated list of key rings in API responses.
type ListKeyRingsResponse struct {
	Data []KeyRingResponse `json:"data"`
}

// MapKeyRingsToListResponse converts a slice of domain key rings to a list response.
func MapKeyRingsToListResponse(rings []*domain.KeyRing) ListKeyRingsResponse {
	data := make([]KeyRingResponse, 0, len(rings))
	for _, ring := range rings {
		data = append(data, MapKeyRingToResponse(ring))
	}
	return ListKeyRingsResponse{Data: data}
}

// EncryptResponse contains the result of an encryption operation.
type EncryptResponse struct {
	Ciphertext []byte `json:"ciphertext"` // Envelope: header followed by ciphertext
	KeyName    string `json:"key_name"`
	Version    uint16 `json:"version"`
}

// DecryptResponse contains the result of a decryption operation.
// SECURITY: The Plaintext field contains sensitive data and should be transmitted over HTTPS.
type DecryptResponse struct {
	Plaintext []byte    `json:"plaintext"`
	KeyName   string    `json:"key_name"`
	Version   uint16    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// MapDecryptResponse builds the decrypt response from the plaintext and the envelope header.
func MapDecryptResponse(plaintext []byte, header domain.EnvelopeHeader) DecryptResponse {
	return DecryptResponse{
		Plaintext: plaintext,
		KeyName:   header.KeyName(),
		Version:   header.Version(),
		Timestamp: header.Timestamp(),
	}
}
