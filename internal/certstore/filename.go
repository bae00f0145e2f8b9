package certstore

import (
	"crypto/sha256"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// CertFileSuffix is the suffix for persisted certificate files.
	CertFileSuffix = ".cert.pem"

	// KeyFileSuffix is the suffix of the would-be key file path. The path is
	// used as the secret store account even when no file exists there.
	KeyFileSuffix = ".key.pem"
)

// maxNamePrefix caps the readable portion of a generated filename.
const maxNamePrefix = 64

// safeFileName maps an arbitrary record name (a hostname, or a distinguished
// name such as "CN=localhost") to a stable, collision-resistant filename
// fragment. Unsafe runes are replaced and a base58 digest of the full name is
// appended so distinct names can never collide after sanitization.
func safeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	prefix := strings.Trim(b.String(), ".-")
	if prefix == "" {
		prefix = "cert"
	}
	if len(prefix) > maxNamePrefix {
		prefix = prefix[:maxNamePrefix]
	}

	digest := sha256.Sum256([]byte(name))

	return prefix + "-" + base58.Encode(digest[:])[:8]
}

// CertPath returns the certificate file path for a record name in dir.
func CertPath(dir, name string) string {
	return filepath.Join(dir, safeFileName(name)+CertFileSuffix)
}

// KeyAccount returns the secret store account for a record name in dir. This
// is the path the key file would occupy in the legacy layout.
func KeyAccount(dir, name string) string {
	return filepath.Join(dir, safeFileName(name)+KeyFileSuffix)
}
