// Package mocks provides mock implementations of the envelope use case interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/envelope/internal/envelope/domain"
)

// MockKeyRingRepository is a mock implementation of KeyRingRepository.
type MockKeyRingRepository struct {
	mock.Mock
}

// CreateKeyRing mocks the CreateKeyRing method of KeyRingRepository.
func (m *MockKeyRingRepository) CreateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	args := m.Called(ctx, ring)
	return args.Error(0)
}

// UpdateKeyRing mocks the UpdateKeyRing method of KeyRingRepository.
func (m *MockKeyRingRepository) UpdateKeyRing(ctx context.Context, ring *domain.KeyRing) error {
	args := m.Called(ctx, ring)
	return args.Error(0)
}

// CreateVersionedKey mocks the CreateVersionedKey method of KeyRingRepository.
func (m *MockKeyRingRepository) CreateVersionedKey(
	ctx context.Context,
	ringID uuid.UUID,
	key *domain.VersionedKey,
) error {
	args := m.Called(ctx, ringID, key)
	return args.Error(0)
}

// UpdateVersionedKeyStatus mocks the UpdateVersionedKeyStatus method of KeyRingRepository.
func (m *MockKeyRingRepository) UpdateVersionedKeyStatus(ctx context.Context, key *domain.VersionedKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// GetKeyRing mocks the GetKeyRing method of KeyRingRepository.
func (m *MockKeyRingRepository) GetKeyRing(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	args := m.Called(ctx, keyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KeyRing), args.Error(1)
}

// ListKeyRings mocks the ListKeyRings method of KeyRingRepository.
func (m *MockKeyRingRepository) ListKeyRings(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KeyRing), args.Error(1)
}

// MockKeyRingUseCase is a mock implementation of KeyRingUseCase.
type MockKeyRingUseCase struct {
	mock.Mock
}

func (m *MockKeyRingUseCase) ring(args mock.Arguments) (*domain.KeyRing, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KeyRing), args.Error(1)
}

func (m *MockKeyRingUseCase) rings(args mock.Arguments) ([]*domain.KeyRing, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KeyRing), args.Error(1)
}

// Create mocks the Create method of KeyRingUseCase.
func (m *MockKeyRingUseCase) Create(
	ctx context.Context,
	keyName, description string,
	ttl time.Duration,
) (*domain.KeyRing, error) {
	return m.ring(m.Called(ctx, keyName, description, ttl))
}

// Rotate mocks the Rotate method of KeyRingUseCase.
func (m *MockKeyRingUseCase) Rotate(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	return m.ring(m.Called(ctx, keyName))
}

// Retire mocks the Retire method of KeyRingUseCase.
func (m *MockKeyRingUseCase) Retire(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	return m.ring(m.Called(ctx, keyName))
}

// Get mocks the Get method of KeyRingUseCase.
func (m *MockKeyRingUseCase) Get(ctx context.Context, keyName string) (*domain.KeyRing, error) {
	return m.ring(m.Called(ctx, keyName))
}

// List mocks the List method of KeyRingUseCase.
func (m *MockKeyRingUseCase) List(ctx context.Context, offset, limit int) ([]*domain.KeyRing, error) {
	return m.rings(m.Called(ctx, offset, limit))
}

// LoadAll mocks the LoadAll method of KeyRingUseCase.
func (m *MockKeyRingUseCase) LoadAll(ctx context.Context) ([]*domain.KeyRing, error) {
	return m.rings(m.Called(ctx))
}

// MockEnvelopeUseCase is a mock implementation of EnvelopeUseCase.
type MockEnvelopeUseCase struct {
	mock.Mock
}

// Encrypt mocks the Encrypt method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) Encrypt(ctx context.Context, keyName string, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, keyName, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Decrypt mocks the Decrypt method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) Decrypt(
	ctx context.Context,
	envelope []byte,
) ([]byte, domain.EnvelopeHeader, error) {
	args := m.Called(ctx, envelope)
	header, _ := args.Get(1).(domain.EnvelopeHeader)
	if args.Get(0) == nil {
		return nil, header, args.Error(2)
	}
	return args.Get(0).([]byte), header, args.Error(2)
}
