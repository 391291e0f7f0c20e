package service

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/allisson/envelope/internal/clock"
	"github.com/allisson/envelope/internal/envelope/domain"
)

// registry maps key names to key rings. A published registry is never
// modified; every mutation publishes a new one.
type registry map[string]*domain.KeyRing

// EncryptionProcessor encrypts and decrypts envelopes with the key rings it
// holds in memory.
//
// Lookups read the current registry snapshot without locking. Mutations are
// serialized by a mutex, work on clones of the affected ring and publish the
// result with a single atomic store, so a reader sees a ring either before or
// after a rotation and never in between.
type EncryptionProcessor struct {
	mu       sync.Mutex
	registry atomic.Pointer[registry]
	ciphers  CipherFactory
	clock    clock.Clock
}

// NewEncryptionProcessor creates an empty processor.
func NewEncryptionProcessor(ciphers CipherFactory, clk clock.Clock) *EncryptionProcessor {
	p := &EncryptionProcessor{
		ciphers: ciphers,
		clock:   clk,
	}
	p.registry.Store(&registry{})
	return p
}

func (p *EncryptionProcessor) snapshot() registry {
	return *p.registry.Load()
}

// publish replaces one ring and stores the new registry. Callers hold p.mu.
func (p *EncryptionProcessor) publish(ring *domain.KeyRing) {
	next := maps.Clone(p.snapshot())
	next[ring.KeyName()] = ring
	p.registry.Store(&next)
}

func (p *EncryptionProcessor) ring(keyName string) (*domain.KeyRing, error) {
	ring, ok := p.snapshot()[keyName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKeyName, keyName)
	}
	return ring, nil
}

// LoadKey adds a key version to the ring of its key name, creating the ring
// when absent. An already loaded version is ignored.
func (p *EncryptionProcessor) LoadKey(key *domain.VersionedKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.snapshot()[key.KeyName()]
	if !ok {
		p.publish(domain.NewKeyRingFromKey(key))
		return nil
	}

	ring := current.Clone()
	inserted, err := ring.InsertVersion(key)
	if err != nil {
		return err
	}
	if inserted {
		p.publish(ring)
	}
	return nil
}

// AddKeyRing registers a new ring. It fails with ErrKeyRingAlreadyExists when
// the key name is taken.
func (p *EncryptionProcessor) AddKeyRing(ring *domain.KeyRing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.snapshot()[ring.KeyName()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrKeyRingAlreadyExists, ring.KeyName())
	}

	p.publish(ring.Clone())
	return nil
}

// MergeKeyRing folds a ring loaded from storage into the registry. Missing
// versions are inserted with LoadKey semantics and a retired status is
// carried over. A ring is never un-retired by a merge.
func (p *EncryptionProcessor) MergeKeyRing(ring *domain.KeyRing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.snapshot()[ring.KeyName()]
	if !ok {
		p.publish(ring.Clone())
		return nil
	}

	merged := current.Clone()
	for _, key := range ring.Versions() {
		if _, err := merged.InsertVersion(key); err != nil {
			return err
		}
	}
	if ring.Status() == domain.KeyRingStatusRetired {
		merged.Retire()
	}

	p.publish(merged)
	return nil
}

// BumpVersion rotates the ring of keyName and returns the rotated ring.
func (p *EncryptionProcessor) BumpVersion(keyName string) (*domain.KeyRing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.ring(keyName)
	if err != nil {
		return nil, err
	}
	if current.Status() == domain.KeyRingStatusRetired {
		return nil, fmt.Errorf("%w: %s", domain.ErrKeyRingRetired, keyName)
	}

	ring := current.Clone()
	if err := ring.BumpVersion(); err != nil {
		return nil, err
	}

	p.publish(ring)
	return ring.Clone(), nil
}

// Retire marks the ring of keyName retired.
func (p *EncryptionProcessor) Retire(keyName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.ring(keyName)
	if err != nil {
		return err
	}

	ring := current.Clone()
	ring.Retire()
	p.publish(ring)
	return nil
}

// KeyNameExists reports whether a ring is loaded for keyName.
func (p *EncryptionProcessor) KeyNameExists(keyName string) bool {
	_, ok := p.snapshot()[keyName]
	return ok
}

// KeyNames returns the loaded key names in ascending order.
func (p *EncryptionProcessor) KeyNames() []string {
	return slices.Sorted(maps.Keys(p.snapshot()))
}

// KeyRing returns a private copy of the ring of keyName.
func (p *EncryptionProcessor) KeyRing(keyName string) (*domain.KeyRing, error) {
	ring, err := p.ring(keyName)
	if err != nil {
		return nil, err
	}
	return ring.Clone(), nil
}

// GetVersionedKey resolves a key version, version 0 meaning the current one.
func (p *EncryptionProcessor) GetVersionedKey(keyName string, version uint16) (*domain.VersionedKey, error) {
	ring, err := p.ring(keyName)
	if err != nil {
		return nil, err
	}
	return ring.Get(version)
}

// Encrypt encrypts plaintext under the current version of keyName and returns
// the envelope: the 16-byte header followed by the AES-256-CBC ciphertext.
func (p *EncryptionProcessor) Encrypt(keyName string, plaintext []byte) ([]byte, error) {
	if err := domain.ValidateKeyName(keyName); err != nil {
		return nil, err
	}

	ring, err := p.ring(keyName)
	if err != nil {
		return nil, err
	}
	if ring.Status() == domain.KeyRingStatusRetired {
		return nil, fmt.Errorf("%w: %s", domain.ErrKeyRingRetired, keyName)
	}

	key, err := ring.Get(0)
	if err != nil {
		return nil, err
	}

	header, err := domain.NewEnvelopeHeader(keyName, key.Version(), domain.TicksFromTime(p.clock.Now()))
	if err != nil {
		return nil, err
	}

	iv, err := header.IV()
	if err != nil {
		return nil, err
	}

	var ciphertext []byte
	err = key.WithSecret(func(secret []byte) error {
		c, err := p.ciphers.NewCipher(secret, iv[:])
		if err != nil {
			return err
		}
		defer c.Close()

		ciphertext, err = c.Encrypt(plaintext)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt with %s: %w", header, err)
	}

	envelope := make([]byte, 0, domain.HeaderSize+len(ciphertext))
	envelope = append(envelope, header.Bytes()...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// Decrypt opens an envelope produced by Encrypt with any loaded version of
// its key name, retired rings included.
func (p *EncryptionProcessor) Decrypt(envelope []byte) ([]byte, error) {
	plaintext, _, err := p.DecryptWithHeader(envelope)
	return plaintext, err
}

// DecryptWithHeader is Decrypt that also returns the parsed header.
func (p *EncryptionProcessor) DecryptWithHeader(envelope []byte) ([]byte, domain.EnvelopeHeader, error) {
	header, err := domain.ParseEnvelopeHeader(envelope)
	if err != nil {
		return nil, domain.EnvelopeHeader{}, err
	}

	ring, err := p.ring(header.KeyName())
	if err != nil {
		return nil, header, err
	}

	key, err := ring.Lookup(header.Version())
	if err != nil {
		return nil, header, err
	}

	iv, err := header.IV()
	if err != nil {
		return nil, header, err
	}

	var plaintext []byte
	err = key.WithSecret(func(secret []byte) error {
		c, err := p.ciphers.NewCipher(secret, iv[:])
		if err != nil {
			return err
		}
		defer c.Close()

		plaintext, err = c.Decrypt(envelope[domain.HeaderSize:])
		return err
	})
	if err != nil {
		return nil, header, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}

	return plaintext, header, nil
}
