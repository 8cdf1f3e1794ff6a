package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/tabvault/internal/errors"
)

func TestDiskvBlobStore(t *testing.T) {
	t.Run("Success_WriteReadDelete", func(t *testing.T) {
		store := NewDiskvBlobStore(t.TempDir())

		require.NoError(t, store.Write("abc123", []byte("image-bytes")))

		data, err := store.Read("abc123")
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)

		require.NoError(t, store.Delete("abc123"))

		_, err = store.Read("abc123")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Success_DeleteAbsentKeyIsNoOp", func(t *testing.T) {
		store := NewDiskvBlobStore(t.TempDir())
		assert.NoError(t, store.Delete("missing"))
	})

	t.Run("Error_ReadAbsentKey", func(t *testing.T) {
		store := NewDiskvBlobStore(t.TempDir())

		_, err := store.Read("missing")
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("Success_Keys", func(t *testing.T) {
		store := NewDiskvBlobStore(t.TempDir())
		require.NoError(t, store.Write("aa11", []byte("one")))
		require.NoError(t, store.Write("bb22", []byte("two")))

		keys, err := store.Keys()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"aa11", "bb22"}, keys)
	})

	t.Run("Success_OverwriteExistingKey", func(t *testing.T) {
		store := NewDiskvBlobStore(t.TempDir())
		require.NoError(t, store.Write("aa11", []byte("old")))
		require.NoError(t, store.Write("aa11", []byte("new")))

		data, err := store.Read("aa11")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})
}
