package domain

import (
	"encoding/binary"
	"fmt"
	"time"
)

// EnvelopeHeader is the 16-byte prefix written in front of every ciphertext.
//
// Layout, all integers little-endian:
//
//	offset 0  size 2  magic (43275)
//	offset 2  size 4  key name, ASCII
//	offset 6  size 2  key version
//	offset 8  size 8  timestamp, 100ns ticks since 0001-01-01T00:00:00
//
// A header is a value: once built or parsed its fields cannot change, and
// Bytes hands out copies only.
type EnvelopeHeader struct {
	buf [HeaderSize]byte
}

// NewEnvelopeHeader builds the header for a new envelope.
func NewEnvelopeHeader(keyName string, version uint16, ticks int64) (EnvelopeHeader, error) {
	var h EnvelopeHeader

	if err := ValidateKeyName(keyName); err != nil {
		return h, err
	}

	binary.LittleEndian.PutUint16(h.buf[magicOffset:], Magic)
	copy(h.buf[keyNameOffset:versionOffset], keyName)
	binary.LittleEndian.PutUint16(h.buf[versionOffset:], version)
	binary.LittleEndian.PutUint64(h.buf[timestampOffset:], uint64(ticks))

	return h, nil
}

// ParseEnvelopeHeader copies the first HeaderSize bytes of data into a header.
// Any trailing bytes are ignored. It fails with ErrBlobTooShort when data is
// shorter than a header and with ErrNotAnEnvelope when the magic does not match.
func ParseEnvelopeHeader(data []byte) (EnvelopeHeader, error) {
	var h EnvelopeHeader

	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: got %d bytes", ErrBlobTooShort, len(data))
	}

	copy(h.buf[:], data[:HeaderSize])

	if magic := h.Magic(); magic != Magic {
		return EnvelopeHeader{}, fmt.Errorf("%w: unexpected magic %#04x", ErrNotAnEnvelope, magic)
	}

	return h, nil
}

// Magic returns the format marker.
func (h EnvelopeHeader) Magic() uint16 {
	return binary.LittleEndian.Uint16(h.buf[magicOffset:])
}

// KeyName returns the 4-character key name.
func (h EnvelopeHeader) KeyName() string {
	return string(h.buf[keyNameOffset:versionOffset])
}

// Version returns the key version used for the envelope.
func (h EnvelopeHeader) Version() uint16 {
	return binary.LittleEndian.Uint16(h.buf[versionOffset:])
}

// Ticks returns the raw timestamp field.
func (h EnvelopeHeader) Ticks() int64 {
	return int64(binary.LittleEndian.Uint64(h.buf[timestampOffset:]))
}

// Timestamp returns the timestamp field as a UTC time.
func (h EnvelopeHeader) Timestamp() time.Time {
	return TimeFromTicks(h.Ticks())
}

// IV derives the AES IV for this envelope.
func (h EnvelopeHeader) IV() ([IVSize]byte, error) {
	return DeriveIV(h.Ticks())
}

// Bytes returns a copy of the serialized header.
func (h EnvelopeHeader) Bytes() []byte {
	out := make([]byte, HeaderSize)
	copy(out, h.buf[:])
	return out
}

// String returns a loggable description of the header.
func (h EnvelopeHeader) String() string {
	return fmt.Sprintf("%s v%d @%d", h.KeyName(), h.Version(), h.Ticks())
}

// ValidateKeyName checks that keyName is exactly KeyNameSize ASCII characters.
func ValidateKeyName(keyName string) error {
	if len(keyName) != KeyNameSize {
		return fmt.Errorf("%w: %q has %d", ErrInvalidKeyName, keyName, len(keyName))
	}
	for i := 0; i < len(keyName); i++ {
		if keyName[i] > 0x7f {
			return fmt.Errorf("%w: %q is not ASCII", ErrInvalidKeyName, keyName)
		}
	}
	return nil
}
