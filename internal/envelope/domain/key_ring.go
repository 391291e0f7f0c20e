package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// KeyRing holds every retained generation of one key name.
//
// The ring always contains at least one key, the current version always
// resolves to a key with status Current, and no other key has that status.
// Versions only move forward: an inserted key becomes current only when its
// version is greater than the current one.
//
// A KeyRing is not safe for concurrent mutation. Shared rings are treated as
// immutable and changed through Clone (copy-on-write).
type KeyRing struct {
	id             uuid.UUID
	ownerID        uuid.UUID
	keyName        string
	description    string
	ttl            time.Duration
	status         KeyRingStatus
	currentVersion uint16
	keys           map[uint16]*VersionedKey
	createdAt      time.Time
}

// KeyRingParams carries the persisted attributes of a key ring.
type KeyRingParams struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	KeyName     string
	Description string
	TTL         time.Duration
	Status      KeyRingStatus
	CreatedAt   time.Time
}

// NewKeyRing creates an active ring holding version 1 of keyName.
func NewKeyRing(ownerID uuid.UUID, keyName, description string, ttl time.Duration) (*KeyRing, error) {
	key, err := NewVersionedKey(ownerID, keyName, ttl)
	if err != nil {
		return nil, err
	}

	ring := NewKeyRingFromKey(key)
	ring.description = description
	return ring, nil
}

// NewKeyRingFromKey creates an active ring whose only and current entry is key.
func NewKeyRingFromKey(key *VersionedKey) *KeyRing {
	first := key.clone()
	first.status = KeyStatusCurrent

	return &KeyRing{
		id:             uuid.Must(uuid.NewV7()),
		ownerID:        key.ownerID,
		keyName:        key.keyName,
		ttl:            key.ttl,
		status:         KeyRingStatusActive,
		currentVersion: first.version,
		keys:           map[uint16]*VersionedKey{first.version: first},
		createdAt:      time.Now().UTC(),
	}
}

// RestoreKeyRing rebuilds a persisted ring from its attributes and keys. The
// current version is recomputed from the keys.
func RestoreKeyRing(params KeyRingParams, keys []*VersionedKey) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyKeyRing, params.KeyName)
	}

	ring := NewKeyRingFromKey(keys[0])
	for _, key := range keys[1:] {
		if _, err := ring.InsertVersion(key); err != nil {
			return nil, err
		}
	}

	// Keep persisted statuses except where they would break the single Current rule.
	for _, key := range keys {
		restored := ring.keys[key.version]
		switch {
		case key.version == ring.currentVersion:
			restored.status = KeyStatusCurrent
		case key.status == KeyStatusCurrent:
			restored.status = KeyStatusPrevious
		default:
			restored.status = key.status
		}
	}

	ring.id = params.ID
	ring.ownerID = params.OwnerID
	ring.description = params.Description
	ring.ttl = params.TTL
	ring.status = params.Status
	ring.createdAt = params.CreatedAt

	if ring.keyName != params.KeyName {
		return nil, fmt.Errorf("%w: %q holds keys of %q", ErrKeyNameMismatch, params.KeyName, ring.keyName)
	}

	return ring, nil
}

// ID returns the storage id of the ring.
func (r *KeyRing) ID() uuid.UUID { return r.id }

// OwnerID returns the owning application, uuid.Nil when unscoped.
func (r *KeyRing) OwnerID() uuid.UUID { return r.ownerID }

// KeyName returns the key name shared by every version.
func (r *KeyRing) KeyName() string { return r.keyName }

// Description returns the free-form description.
func (r *KeyRing) Description() string { return r.description }

// TTL returns the rotation interval requested for the ring.
func (r *KeyRing) TTL() time.Duration { return r.ttl }

// Status returns the lifecycle status.
func (r *KeyRing) Status() KeyRingStatus { return r.status }

// CreatedAt returns the creation time.
func (r *KeyRing) CreatedAt() time.Time { return r.createdAt }

// CurrentVersion returns the version used for new envelopes.
func (r *KeyRing) CurrentVersion() uint16 { return r.currentVersion }

// VersionCount returns the number of retained generations.
func (r *KeyRing) VersionCount() int { return len(r.keys) }

// Get resolves a key version, version 0 meaning the current one. A miss fails
// with ErrKeyVersionNotFound.
func (r *KeyRing) Get(version uint16) (*VersionedKey, error) {
	if version == 0 {
		version = r.currentVersion
	}
	return r.Lookup(version)
}

// Lookup resolves exactly version, without the version 0 shorthand of Get.
// Envelope headers are resolved this way.
func (r *KeyRing) Lookup(version uint16) (*VersionedKey, error) {
	key, ok := r.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s version %d", ErrKeyVersionNotFound, r.keyName, version)
	}

	key.touch(time.Now().UTC())
	return key, nil
}

// Versions returns the keys ordered by ascending version.
func (r *KeyRing) Versions() []*VersionedKey {
	keys := make([]*VersionedKey, 0, len(r.keys))
	for _, key := range r.keys {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b *VersionedKey) int {
		return int(a.version) - int(b.version)
	})
	return keys
}

// BumpVersion rotates the ring: the current key becomes Previous and a newly
// derived successor with a fresh secret becomes Current.
func (r *KeyRing) BumpVersion() error {
	current := r.keys[r.currentVersion]

	next, err := current.NewVersion(0)
	if err != nil {
		return err
	}

	current.status = KeyStatusPrevious
	r.keys[next.version] = next
	r.currentVersion = next.version
	return nil
}

// InsertVersion adds an externally supplied key, typically one loaded from
// storage. An already present version is left untouched and false is
// returned. The key becomes current only when its version is greater than the
// current version.
func (r *KeyRing) InsertVersion(key *VersionedKey) (bool, error) {
	if key.keyName != r.keyName {
		return false, fmt.Errorf("%w: %q into %q", ErrKeyNameMismatch, key.keyName, r.keyName)
	}

	if _, exists := r.keys[key.version]; exists {
		return false, nil
	}

	inserted := key.clone()
	if inserted.version > r.currentVersion {
		r.keys[r.currentVersion].status = KeyStatusPrevious
		inserted.status = KeyStatusCurrent
		r.currentVersion = inserted.version
	} else if inserted.status == KeyStatusCurrent {
		inserted.status = KeyStatusPrevious
	}

	r.keys[inserted.version] = inserted
	return true, nil
}

// Retire marks the ring retired. Retired rings still decrypt but no longer
// encrypt.
func (r *KeyRing) Retire() {
	r.status = KeyRingStatusRetired
}

// Clone returns a copy of the ring whose keys can change status without
// affecting readers of r.
func (r *KeyRing) Clone() *KeyRing {
	c := *r
	c.keys = make(map[uint16]*VersionedKey, len(r.keys))
	for version, key := range r.keys {
		c.keys[version] = key.clone()
	}
	return &c
}
