package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/clock"
	databaseMocks "github.com/allisson/envelope/internal/database/mocks"
	"github.com/allisson/envelope/internal/envelope/domain"
	"github.com/allisson/envelope/internal/envelope/service"
	"github.com/allisson/envelope/internal/envelope/usecase/mocks"
)

const testDefaultTTL = 720 * time.Hour

func newTestProcessor() *service.EncryptionProcessor {
	return service.NewEncryptionProcessor(service.NewAESCBCFactory(), clock.NewMock(time.Time{}))
}

func newStoredRing(t *testing.T, keyName string) *domain.KeyRing {
	t.Helper()
	ring, err := domain.NewKeyRing(uuid.Nil, keyName, "stored", time.Hour)
	require.NoError(t, err)
	return ring
}

type keyRingFixture struct {
	txManager *databaseMocks.MockTxManager
	repo      *mocks.MockKeyRingRepository
	processor *service.EncryptionProcessor
	useCase   KeyRingUseCase
}

func newKeyRingFixture(ownerID uuid.UUID) *keyRingFixture {
	f := &keyRingFixture{
		txManager: &databaseMocks.MockTxManager{},
		repo:      &mocks.MockKeyRingRepository{},
		processor: newTestProcessor(),
	}
	f.useCase = NewKeyRingUseCase(f.txManager, f.repo, f.processor, ownerID, testDefaultTTL)
	return f
}

func (f *keyRingFixture) assertExpectations(t *testing.T) {
	f.txManager.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestKeyRingUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DefaultTTL", func(t *testing.T) {
		// Arrange
		ownerID := uuid.New()
		f := newKeyRingFixture(ownerID)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("CreateKeyRing", ctx, mock.AnythingOfType("*domain.KeyRing")).Return(nil).Once()

		// Act
		ring, err := f.useCase.Create(ctx, "ABCd", "payments", 0)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "ABCd", ring.KeyName())
		assert.Equal(t, "payments", ring.Description())
		assert.Equal(t, testDefaultTTL, ring.TTL())
		assert.Equal(t, ownerID, ring.OwnerID())
		assert.Equal(t, uint16(1), ring.CurrentVersion())
		assert.True(t, f.processor.KeyNameExists("ABCd"))
		f.assertExpectations(t)
	})

	t.Run("Success_ExplicitTTL", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("CreateKeyRing", ctx, mock.AnythingOfType("*domain.KeyRing")).Return(nil).Once()

		ring, err := f.useCase.Create(ctx, "WXYz", "", 2*time.Hour)

		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, ring.TTL())
	})

	t.Run("Error_InvalidKeyName", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)

		ring, err := f.useCase.Create(ctx, "TooShort", "", 0)

		assert.Nil(t, ring)
		assert.ErrorIs(t, err, domain.ErrInvalidKeyName)
		f.assertExpectations(t)
	})

	t.Run("Error_AlreadyExists", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("CreateKeyRing", ctx, mock.AnythingOfType("*domain.KeyRing")).
			Return(domain.ErrKeyRingAlreadyExists).
			Once()

		ring, err := f.useCase.Create(ctx, "ABCd", "", 0)

		assert.Nil(t, ring)
		assert.ErrorIs(t, err, domain.ErrKeyRingAlreadyExists)
		assert.False(t, f.processor.KeyNameExists("ABCd"))
	})

	t.Run("Error_BeginTransaction", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(errors.New("connection refused")).Once()

		_, err := f.useCase.Create(ctx, "ABCd", "", 0)

		assert.EqualError(t, err, "connection refused")
		f.repo.AssertNotCalled(t, "CreateKeyRing", mock.Anything, mock.Anything)
	})
}

func TestKeyRingUseCase_Rotate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		require.NoError(t, f.processor.AddKeyRing(stored))

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored.Clone(), nil).Once()
		f.repo.On("CreateVersionedKey", ctx, stored.ID(), mock.MatchedBy(func(key *domain.VersionedKey) bool {
			return key.Version() == 2 && key.Status() == domain.KeyStatusCurrent
		})).Return(nil).Once()
		f.repo.On("UpdateVersionedKeyStatus", ctx, mock.MatchedBy(func(key *domain.VersionedKey) bool {
			return key.Version() == 1 && key.Status() == domain.KeyStatusPrevious
		})).Return(nil).Once()
		f.repo.On("UpdateKeyRing", ctx, mock.MatchedBy(func(ring *domain.KeyRing) bool {
			return ring.CurrentVersion() == 2
		})).Return(nil).Once()

		// Act
		ring, err := f.useCase.Rotate(ctx, "ABCd")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint16(2), ring.CurrentVersion())
		assert.Equal(t, 2, ring.VersionCount())

		current, err := f.processor.GetVersionedKey("ABCd", 0)
		require.NoError(t, err)
		assert.Equal(t, uint16(2), current.Version())
		f.assertExpectations(t)
	})

	t.Run("Success_RingNotLoaded", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored, nil).Once()
		f.repo.On("CreateVersionedKey", ctx, stored.ID(), mock.Anything).Return(nil).Once()
		f.repo.On("UpdateVersionedKeyStatus", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("UpdateKeyRing", ctx, stored).Return(nil).Once()

		_, err := f.useCase.Rotate(ctx, "ABCd")

		require.NoError(t, err)
		ring, err := f.processor.KeyRing("ABCd")
		require.NoError(t, err)
		assert.Equal(t, 2, ring.VersionCount())
	})

	t.Run("Error_Retired", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		stored.Retire()

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored, nil).Once()

		ring, err := f.useCase.Rotate(ctx, "ABCd")

		assert.Nil(t, ring)
		assert.ErrorIs(t, err, domain.ErrKeyRingRetired)
		f.assertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(nil, domain.ErrUnknownKeyName).Once()

		_, err := f.useCase.Rotate(ctx, "ABCd")

		assert.ErrorIs(t, err, domain.ErrUnknownKeyName)
	})

	t.Run("Error_ConcurrentRotationNotPublished", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		require.NoError(t, f.processor.AddKeyRing(stored))

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored.Clone(), nil).Once()
		f.repo.On("CreateVersionedKey", ctx, stored.ID(), mock.Anything).
			Return(domain.ErrKeyRingAlreadyExists).
			Once()

		_, err := f.useCase.Rotate(ctx, "ABCd")

		assert.ErrorIs(t, err, domain.ErrKeyRingAlreadyExists)
		current, err := f.processor.GetVersionedKey("ABCd", 0)
		require.NoError(t, err)
		assert.Equal(t, uint16(1), current.Version())
		f.assertExpectations(t)
	})
}

func TestKeyRingUseCase_Retire(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		require.NoError(t, f.processor.AddKeyRing(stored))

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored.Clone(), nil).Once()
		f.repo.On("UpdateKeyRing", ctx, mock.MatchedBy(func(ring *domain.KeyRing) bool {
			return ring.Status() == domain.KeyRingStatusRetired
		})).Return(nil).Once()

		ring, err := f.useCase.Retire(ctx, "ABCd")

		require.NoError(t, err)
		assert.Equal(t, domain.KeyRingStatusRetired, ring.Status())
		_, err = f.processor.Encrypt("ABCd", []byte("data"))
		assert.ErrorIs(t, err, domain.ErrKeyRingRetired)
		f.assertExpectations(t)
	})

	t.Run("Success_AlreadyRetired", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		stored.Retire()

		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored, nil).Once()

		ring, err := f.useCase.Retire(ctx, "ABCd")

		require.NoError(t, err)
		assert.Equal(t, domain.KeyRingStatusRetired, ring.Status())
		f.repo.AssertNotCalled(t, "UpdateKeyRing", mock.Anything, mock.Anything)
	})

	t.Run("Error_UpdateFails", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(newStoredRing(t, "ABCd"), nil).Once()
		f.repo.On("UpdateKeyRing", ctx, mock.Anything).Return(errors.New("deadlock")).Once()

		_, err := f.useCase.Retire(ctx, "ABCd")

		assert.EqualError(t, err, "deadlock")
		assert.False(t, f.processor.KeyNameExists("ABCd"))
	})
}

func TestKeyRingUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := newStoredRing(t, "ABCd")
		f.repo.On("GetKeyRing", ctx, "ABCd").Return(stored, nil).Once()

		ring, err := f.useCase.Get(ctx, "ABCd")

		require.NoError(t, err)
		assert.Same(t, stored, ring)
	})

	t.Run("Error_InvalidKeyName", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)

		_, err := f.useCase.Get(ctx, "abc")

		assert.ErrorIs(t, err, domain.ErrInvalidKeyName)
		f.repo.AssertNotCalled(t, "GetKeyRing", mock.Anything, mock.Anything)
	})
}

func TestKeyRingUseCase_List(t *testing.T) {
	ctx := context.Background()
	f := newKeyRingFixture(uuid.Nil)
	stored := []*domain.KeyRing{newStoredRing(t, "ABCd"), newStoredRing(t, "WXYz")}
	f.repo.On("ListKeyRings", ctx, 10, 2).Return(stored, nil).Once()

	rings, err := f.useCase.List(ctx, 10, 2)

	require.NoError(t, err)
	assert.Equal(t, stored, rings)
	assert.Empty(t, f.processor.KeyNames())
}

func TestKeyRingUseCase_LoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SinglePage", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		stored := []*domain.KeyRing{newStoredRing(t, "ABCd"), newStoredRing(t, "WXYz")}
		f.repo.On("ListKeyRings", ctx, 0, loadAllPageSize).Return(stored, nil).Once()

		rings, err := f.useCase.LoadAll(ctx)

		require.NoError(t, err)
		assert.Len(t, rings, 2)
		assert.Equal(t, []string{"ABCd", "WXYz"}, f.processor.KeyNames())
	})

	t.Run("Success_MultiplePages", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		firstPage := make([]*domain.KeyRing, 0, loadAllPageSize)
		for i := range loadAllPageSize {
			firstPage = append(firstPage, newStoredRing(t, fmt.Sprintf("k%03d", i)))
		}
		f.repo.On("ListKeyRings", ctx, 0, loadAllPageSize).Return(firstPage, nil).Once()
		f.repo.On("ListKeyRings", ctx, loadAllPageSize, loadAllPageSize).
			Return([]*domain.KeyRing{newStoredRing(t, "last")}, nil).
			Once()

		rings, err := f.useCase.LoadAll(ctx)

		require.NoError(t, err)
		assert.Len(t, rings, loadAllPageSize+1)
		assert.Len(t, f.processor.KeyNames(), loadAllPageSize+1)
		f.assertExpectations(t)
	})

	t.Run("Error_List", func(t *testing.T) {
		f := newKeyRingFixture(uuid.Nil)
		f.repo.On("ListKeyRings", ctx, 0, loadAllPageSize).Return(nil, errors.New("timeout")).Once()

		rings, err := f.useCase.LoadAll(ctx)

		assert.Nil(t, rings)
		assert.EqualError(t, err, "timeout")
	})
}
