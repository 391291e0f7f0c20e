// Package domain defines the envelope encryption model: versioned keys grouped
// into key rings, the 16-byte envelope header that prefixes every ciphertext,
// and the deterministic IV derivation driven by the header timestamp.
//
// The binary layout and the IV derivation are a permanent wire contract. Data
// encrypted years ago must still decrypt, so neither may ever change.
package domain

const (
	// SecretSize is the size in bytes of every key secret (AES-256).
	SecretSize = 32

	// IVSize is the AES block size and therefore the IV size in bytes.
	IVSize = 16

	// KeyNameSize is the exact length of a key name in ASCII characters.
	KeyNameSize = 4

	// HeaderSize is the size in bytes of the envelope header.
	HeaderSize = 16

	// Magic is the format marker stored little-endian in the first two header bytes (0x0B 0xA9).
	Magic uint16 = 43275
)

// Header field offsets.
const (
	magicOffset     = 0
	keyNameOffset   = 2
	versionOffset   = 6
	timestampOffset = 8
)

// KeyStatus is the lifecycle state of a single key version.
type KeyStatus uint8

// Values are persisted as numbers and must not be renumbered.
const (
	KeyStatusCurrent  KeyStatus = 0
	KeyStatusPrevious KeyStatus = 10
	KeyStatusRetired  KeyStatus = 255
)

// String returns the lower-case name of the status.
func (s KeyStatus) String() string {
	switch s {
	case KeyStatusCurrent:
		return "current"
	case KeyStatusPrevious:
		return "previous"
	case KeyStatusRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// KeyRingStatus is the lifecycle state of a key ring.
type KeyRingStatus uint8

const (
	KeyRingStatusActive  KeyRingStatus = 0
	KeyRingStatusRetired KeyRingStatus = 255
)

// String returns the lower-case name of the status.
func (s KeyRingStatus) String() string {
	switch s {
	case KeyRingStatusActive:
		return "active"
	case KeyRingStatusRetired:
		return "retired"
	default:
		return "unknown"
	}
}
