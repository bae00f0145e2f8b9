package certstore

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/localca/internal/secrets"
)

// List returns a restartable sequence of the certificate records persisted in
// dir. Each range over the sequence performs one directory read up front and
// yields fully constructed records in directory enumeration order. A missing
// directory yields nothing. The scan is best-effort: concurrent writers may
// or may not be observed.
func List(store *secrets.Store, dir string, issuer Issuer, noKeys bool) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield(nil, fmt.Errorf("failed to read certificate directory: %w", err))
			return
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), CertFileSuffix) {
				continue
			}

			rec, err := loadEntry(store, filepath.Join(dir, entry.Name()), issuer, noKeys)
			if !yield(rec, err) {
				return
			}
		}
	}
}

// loadEntry constructs a record straight from a certificate file path,
// deriving the paired secret store account from the filename. The record name
// comes from the certificate subject, since the on-disk filename encoding is
// not reversible.
func loadEntry(store *secrets.Store, certPath string, issuer Issuer, noKey bool) (*Record, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	keyAccount := strings.TrimSuffix(certPath, CertFileSuffix) + KeyFileSuffix

	var keyPEM []byte
	if !noKey {
		keyPEM, err = store.Get(keyAccount)
		if err != nil && !errors.Is(err, secrets.ErrSecretNotFound) {
			return nil, err
		}
	}

	rec, err := New("", keyPEM, certPEM, issuer, false)
	if err != nil {
		return nil, fmt.Errorf("corrupt certificate record %s: %w", certPath, err)
	}

	rec.certPath = certPath
	rec.keyAccount = keyAccount

	return rec, nil
}
