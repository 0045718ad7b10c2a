package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel with customised message", func(t *testing.T) {
		err := ErrNotFound.WithMessage("Client not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, "Client not found", err.Error())
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("apply: %w", ErrInsufficientBalance)
		assert.True(t, errors.Is(err, ErrInsufficientBalance))
	})
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset by peer")

	t.Run("hides cause from message", func(t *testing.T) {
		err := NewStorageError(cause)
		assert.True(t, errors.Is(err, ErrStorage))
		assert.ErrorIs(t, err, cause)
		assert.NotContains(t, err.Error(), "connection reset")
	})

	t.Run("AsStorageError keeps domain errors", func(t *testing.T) {
		assert.Nil(t, AsStorageError(nil))
		assert.Same(t, ErrNotFound, AsStorageError(ErrNotFound))
		assert.True(t, errors.Is(AsStorageError(cause), ErrStorage))
	})
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 1000}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}
