package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("Success_PreservesChain", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "key ring not found")

		require.Error(t, wrapped)
		assert.Equal(t, "key ring not found: not found", wrapped.Error())
		assert.True(t, errors.Is(wrapped, ErrNotFound))
	})

	t.Run("Success_NilStaysNil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("Success_DoubleWrap", func(t *testing.T) {
		domainErr := Wrap(ErrInvalidInput, "invalid key name")
		wrapped := Wrap(domainErr, "create key ring")

		assert.True(t, Is(wrapped, domainErr))
		assert.True(t, Is(wrapped, ErrInvalidInput))
		assert.False(t, Is(wrapped, ErrNotFound))
	})
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrNotFound, "version %d of %q", 7, "ABCd")
	require.Error(t, wrapped)
	assert.Equal(t, `version 7 of "ABCd": not found`, wrapped.Error())
	assert.True(t, Is(wrapped, ErrNotFound))

	assert.NoError(t, Wrapf(nil, "version %d", 1))
}

func TestBaseErrors(t *testing.T) {
	tests := []struct {
		err  error
		text string
	}{
		{ErrNotFound, "not found"},
		{ErrConflict, "conflict"},
		{ErrInvalidInput, "invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.text)
		})
	}
}
