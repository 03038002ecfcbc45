package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/alignsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			return tx.Set([]byte("k1"), []byte("v1"))
		})
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			val, found, err := readValue(tx, []byte("k1"))
			require.True(t, found)
			assert.Equal(t, []byte("v1"), val)
			return err
		}, false)
		require.NoError(t, err)
	})

	t.Run("discards on error", func(t *testing.T) {
		err := backend.WithTransaction(ctx, func(tx *badger.Txn) error {
			require.NoError(t, tx.Set([]byte("k2"), []byte("v2")))
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, found, err := readValue(tx, []byte("k2"))
			assert.False(t, found)
			return err
		}, false)
		require.NoError(t, err)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := backend.WithTransaction(cancelled, func(tx *badger.Txn) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
