package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(keyring.NewArrayKeyring(nil))
}

func TestStore_SetGetDelete(t *testing.T) {
	t.Run("round trips a secret", func(t *testing.T) {
		store := newTestStore()

		account := filepath.Join(t.TempDir(), "localhost.key.pem")
		require.NoError(t, store.Set(account, []byte("secret material")))

		got, err := store.Get(account)
		require.NoError(t, err)
		assert.Equal(t, []byte("secret material"), got)
	})

	t.Run("missing secret returns ErrSecretNotFound", func(t *testing.T) {
		store := newTestStore()

		_, err := store.Get(filepath.Join(t.TempDir(), "absent.key.pem"))
		require.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("delete removes the secret", func(t *testing.T) {
		store := newTestStore()

		account := filepath.Join(t.TempDir(), "localhost.key.pem")
		require.NoError(t, store.Set(account, []byte("secret material")))
		require.NoError(t, store.Delete(account))

		_, err := store.Get(account)
		require.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("delete of an absent secret succeeds", func(t *testing.T) {
		store := newTestStore()

		require.NoError(t, store.Delete(filepath.Join(t.TempDir(), "absent.key.pem")))
	})
}

func TestStore_LegacyMigration(t *testing.T) {
	t.Run("get migrates a legacy file into the keyring", func(t *testing.T) {
		ring := keyring.NewArrayKeyring(nil)
		store := NewStore(ring)

		account := filepath.Join(t.TempDir(), "localhost.key.pem")
		require.NoError(t, os.WriteFile(account, []byte("legacy key bytes"), 0600))

		got, err := store.Get(account)
		require.NoError(t, err)
		assert.Equal(t, []byte("legacy key bytes"), got)

		// the legacy file is gone
		_, err = os.Stat(account)
		assert.True(t, os.IsNotExist(err))

		// a second, independent store over the same keyring still finds it
		got, err = NewStore(ring).Get(account)
		require.NoError(t, err)
		assert.Equal(t, []byte("legacy key bytes"), got)
	})

	t.Run("get after migration is idempotent", func(t *testing.T) {
		store := newTestStore()

		dir := t.TempDir()
		account := filepath.Join(dir, "localhost.key.pem")
		require.NoError(t, os.WriteFile(account, []byte("legacy key bytes"), 0600))

		_, err := store.Get(account)
		require.NoError(t, err)

		got, err := store.Get(account)
		require.NoError(t, err)
		assert.Equal(t, []byte("legacy key bytes"), got)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("set removes a stale legacy file", func(t *testing.T) {
		store := newTestStore()

		account := filepath.Join(t.TempDir(), "localhost.key.pem")
		require.NoError(t, os.WriteFile(account, []byte("stale"), 0600))

		require.NoError(t, store.Set(account, []byte("fresh")))

		_, err := os.Stat(account)
		assert.True(t, os.IsNotExist(err))

		got, err := store.Get(account)
		require.NoError(t, err)
		assert.Equal(t, []byte("fresh"), got)
	})

	t.Run("delete removes the legacy file too", func(t *testing.T) {
		store := newTestStore()

		account := filepath.Join(t.TempDir(), "localhost.key.pem")
		require.NoError(t, os.WriteFile(account, []byte("legacy"), 0600))

		require.NoError(t, store.Delete(account))

		_, err := os.Stat(account)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStore_Accounts(t *testing.T) {
	store := newTestStore()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.key.pem")
	second := filepath.Join(dir, "b.key.pem")

	require.NoError(t, store.Set(first, []byte("one")))
	require.NoError(t, store.Set(second, []byte("two")))

	accounts, err := store.Accounts()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, accounts)
}
