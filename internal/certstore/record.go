// Package certstore manages persisted certificate records: immutable
// certificate+key pairs cached on disk, with private keys held in the secret
// store rather than files. It also owns the renewal decision that determines
// whether a cached record can be reused.
package certstore

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/localca/internal/pki"
	"github.com/wolfeidau/localca/internal/secrets"
)

// Sentinel errors
var (
	// ErrRecordNotFound is returned when no certificate file exists for a
	// record name. Absence is expected and triggers regeneration upstream.
	ErrRecordNotFound = errors.New("certificate record not found")

	// ErrNotPersisted is returned when deletion is attempted on a record that
	// was never written to disk, so no file identity was ever established.
	ErrNotPersisted = errors.New("record was never persisted")
)

// Issuer identifies who signed a record: either another record (the
// authority) or the record itself. Using an explicit marker instead of a nil
// authority keeps Record.Authority a valid reference for every fully
// constructed record.
type Issuer struct {
	authority *Record
	self      bool
}

// IssuedBy marks a record as signed by the given authority.
func IssuedBy(authority *Record) Issuer {
	return Issuer{authority: authority}
}

// SelfSigned marks a record as its own authority.
func SelfSigned() Issuer {
	return Issuer{self: true}
}

// Record is an immutable certificate record. The certificate PEM is parsed
// exactly once at construction; identity, validity and SAN fields are served
// from the parsed form for the lifetime of the record.
type Record struct {
	name      string
	keyPEM    []byte
	certPEM   []byte
	cert      *x509.Certificate
	authority *Record
	self      bool
	temporary bool

	// set only after a successful load from or save to disk
	certPath   string
	keyAccount string
}

// New constructs a record from PEM bytes. An empty name is derived from the
// certificate subject. Temporary records never touch disk or the secret store.
func New(name string, keyPEM, certPEM []byte, issuer Issuer, temporary bool) (*Record, error) {
	cert, err := pki.ParseCertificatePEM(certPEM)
	if err != nil {
		return nil, err
	}

	if !cert.NotBefore.Before(cert.NotAfter) {
		return nil, fmt.Errorf("invalid certificate validity: notBefore %s is not before notAfter %s",
			cert.NotBefore, cert.NotAfter)
	}

	if name == "" {
		name = cert.Subject.CommonName
		if name == "" {
			name = cert.Subject.String()
		}
	}

	rec := &Record{
		name:      name,
		keyPEM:    keyPEM,
		certPEM:   certPEM,
		cert:      cert,
		authority: issuer.authority,
		self:      issuer.self,
		temporary: temporary,
	}
	if issuer.self {
		rec.authority = rec
	}

	return rec, nil
}

// Load reads a record from dir by name. Returns ErrRecordNotFound when the
// certificate file does not exist; any other read or parse failure
// propagates. Unless noKey is set, the private key is fetched from the secret
// store keyed by the would-be key file path; a missing secret yields a record
// without key material rather than an error.
func Load(store *secrets.Store, dir, name string, issuer Issuer, noKey bool) (*Record, error) {
	certPath := CertPath(dir, name)

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	keyAccount := KeyAccount(dir, name)

	var keyPEM []byte
	if !noKey {
		keyPEM, err = store.Get(keyAccount)
		if err != nil && !errors.Is(err, secrets.ErrSecretNotFound) {
			return nil, err
		}
	}

	rec, err := New(name, keyPEM, certPEM, issuer, false)
	if err != nil {
		return nil, fmt.Errorf("corrupt certificate record %s: %w", certPath, err)
	}

	rec.certPath = certPath
	rec.keyAccount = keyAccount

	return rec, nil
}

// Save persists the record under dir: the key goes to the secret store, the
// certificate PEM to disk. A no-op for temporary records.
func (r *Record) Save(store *secrets.Store, dir string) error {
	if r.temporary {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}

	certPath := CertPath(dir, r.name)
	keyAccount := KeyAccount(dir, r.name)

	if r.keyPEM != nil {
		if err := store.Set(keyAccount, r.keyPEM); err != nil {
			return err
		}
	}

	// The certificate is public material; keys never hit disk.
	if err := os.WriteFile(certPath, r.certPEM, 0644); err != nil { // #nosec G306
		return fmt.Errorf("failed to write certificate file: %w", err)
	}

	r.certPath = certPath
	r.keyAccount = keyAccount

	log.Debug().Str("name", r.name).Str("certPath", certPath).Msg("certificate record saved")

	return nil
}

// Delete removes the record's secret and certificate file, tolerating the
// "already gone" case. A no-op for temporary records; an error for records
// that were never persisted, since there is nothing safe to target.
func (r *Record) Delete(store *secrets.Store) error {
	if r.temporary {
		return nil
	}

	if r.certPath == "" {
		return fmt.Errorf("%w: %s", ErrNotPersisted, r.name)
	}

	if r.keyAccount != "" {
		if err := store.Delete(r.keyAccount); err != nil {
			return err
		}
	}

	if err := os.Remove(r.certPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove certificate file: %w", err)
	}

	log.Debug().Str("name", r.name).Str("certPath", r.certPath).Msg("certificate record deleted")

	return nil
}

// Verify reports whether the record's certificate carries a valid signature
// from its authority. Records without an authority reference report false.
func (r *Record) Verify() bool {
	if r.authority == nil {
		return false
	}
	return pki.Verify(r.cert, r.authority.cert)
}

// Name returns the record's logical identifier: the primary host for leaf
// records, the subject for the root.
func (r *Record) Name() string { return r.name }

// KeyPEM returns the PEM-encoded private key, or nil when the record was
// read without key material.
func (r *Record) KeyPEM() []byte { return r.keyPEM }

// CertPEM returns the PEM-encoded certificate.
func (r *Record) CertPEM() []byte { return r.certPEM }

// ChainPEM returns the certificate PEM concatenated with the authority's
// certificate PEM. For a self-signed root the chain is the certificate alone.
func (r *Record) ChainPEM() []byte {
	if r.authority == nil || r.self {
		return r.certPEM
	}

	chain := make([]byte, 0, len(r.certPEM)+len(r.authority.certPEM))
	chain = append(chain, r.certPEM...)
	chain = append(chain, r.authority.certPEM...)

	return chain
}

// Certificate returns the parsed certificate.
func (r *Record) Certificate() *x509.Certificate { return r.cert }

// Authority returns the record that signed this one. For a self-signed root
// this is the record itself.
func (r *Record) Authority() *Record { return r.authority }

// SelfSigned reports whether the record is its own authority.
func (r *Record) SelfSigned() bool { return r.self }

// Temporary reports whether the record is purely in-memory.
func (r *Record) Temporary() bool { return r.temporary }

// CertPath returns the certificate file path, empty until the record has been
// loaded from or saved to disk.
func (r *Record) CertPath() string { return r.certPath }

// KeyAccount returns the secret store account, empty until the record has
// been loaded from or saved to disk.
func (r *Record) KeyAccount() string { return r.keyAccount }

// Subject returns the certificate subject distinguished name.
func (r *Record) Subject() string { return r.cert.Subject.String() }

// Issuer returns the certificate issuer distinguished name.
func (r *Record) Issuer() string { return r.cert.Issuer.String() }

// Serial returns the certificate serial number.
func (r *Record) Serial() *big.Int { return r.cert.SerialNumber }

// NotBefore returns the start of the certificate validity window.
func (r *Record) NotBefore() time.Time { return r.cert.NotBefore }

// NotAfter returns the end of the certificate validity window.
func (r *Record) NotAfter() time.Time { return r.cert.NotAfter }

// DNSNames returns the DNS subject alternative names.
func (r *Record) DNSNames() []string { return r.cert.DNSNames }

// IPAddresses returns the IP subject alternative names.
func (r *Record) IPAddresses() []net.IP { return r.cert.IPAddresses }

// TLSCertificate assembles a tls.Certificate from the record's chain and
// private key, ready to serve from an http.Server.
func (r *Record) TLSCertificate() (tls.Certificate, error) {
	if r.keyPEM == nil {
		return tls.Certificate{}, pki.ErrNoPrivateKey
	}

	cert, err := tls.X509KeyPair(r.ChainPEM(), r.keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to assemble TLS certificate: %w", err)
	}

	return cert, nil
}
