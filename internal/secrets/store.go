// Package secrets stores private key material in the OS keyring, with a
// one-time migration path for keys that older releases wrote straight to
// disk. Accounts are keyed by the path the key file would occupy on disk,
// which is also where the legacy layout kept the actual file.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog/log"
)

// ErrSecretNotFound is returned when a secret exists in neither the keyring
// nor the legacy file location.
var ErrSecretNotFound = errors.New("secret not found")

// Store persists secrets in an OS-level keyring (keychain, secret-service,
// wincred, or an encrypted file fallback). On lookup misses it falls back to
// the legacy raw-file layout and migrates any key it finds into the keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the keyring for the given service name, selecting the best
// available backend for the platform.
func Open(service string) (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              service,
		KeychainTrustApplication: true,
		FileDir:                  filepath.Join(home, "."+service, "keyring"),
		FilePasswordFunc:         keyring.TerminalPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring. Tests use this with
// keyring.NewArrayKeyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a secret by account. On a keyring miss it reads the account
// as a legacy file path; a hit there migrates the value into the keyring and
// removes the file, so subsequent calls touch the keyring only.
func (s *Store) Get(account string) ([]byte, error) {
	item, err := s.ring.Get(account)
	if err == nil {
		return item.Data, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	return s.migrateLegacy(account)
}

// Set writes a secret to the keyring and removes any stale legacy file at the
// account path, so the two locations can never disagree.
func (s *Store) Set(account string, secret []byte) error {
	err := s.ring.Set(keyring.Item{
		Key:   account,
		Data:  secret,
		Label: filepath.Base(account),
	})
	if err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}

	if err := removeIfPresent(account); err != nil {
		return fmt.Errorf("failed to remove stale legacy secret file: %w", err)
	}

	return nil
}

// Delete removes a secret from the keyring and from the legacy file location,
// tolerating absence in either.
func (s *Store) Delete(account string) error {
	if err := s.ring.Remove(account); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	if err := removeIfPresent(account); err != nil {
		return fmt.Errorf("failed to remove legacy secret file: %w", err)
	}

	return nil
}

// Accounts lists every account stored in the keyring.
func (s *Store) Accounts() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets: %w", err)
	}

	return keys, nil
}

// migrateLegacy reads a secret from the legacy raw-file layout and, if found,
// moves it into the keyring. The migration is one-way: once the file is gone
// the keyring is the only copy.
func (s *Store) migrateLegacy(account string) ([]byte, error) {
	data, err := os.ReadFile(account)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSecretNotFound
		}
		return nil, fmt.Errorf("failed to read legacy secret file: %w", err)
	}

	err = s.ring.Set(keyring.Item{
		Key:   account,
		Data:  data,
		Label: filepath.Base(account),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate secret to keyring: %w", err)
	}

	if err := os.Remove(account); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove migrated legacy secret file: %w", err)
	}

	log.Info().Str("account", account).Msg("migrated legacy secret file into keyring")

	return data, nil
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
