// Package ca orchestrates the local certificate authority: root
// initialization, leaf issuance with cache reuse, deletion and listing.
package ca

import (
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/localca/internal/certstore"
	"github.com/wolfeidau/localca/internal/pki"
	"github.com/wolfeidau/localca/internal/secrets"
)

// Sentinel errors
var (
	// ErrNoHosts is returned when issuance is requested with an empty host
	// list. This fails before any filesystem or secret store access.
	ErrNoHosts = errors.New("at least one host is required")

	// ErrNoCachedAuthority is returned when ephemeral issuance is requested on
	// a non-temporary manager that has not initialized its authority, since
	// proceeding would silently bypass the on-disk root.
	ErrNoCachedAuthority = errors.New("ephemeral issuance requires a temporary manager or an initialized authority")
)

// Options configure a Manager.
type Options struct {
	// Dir is the certificate directory.
	Dir string

	// AuthorityName is the common name of the root certificate.
	AuthorityName string

	// AuthorityValidityDays is the validity window of a freshly generated root.
	AuthorityValidityDays int

	// ValidityDays is the validity window of issued leaf certificates.
	ValidityDays int

	// MinRunDays is the minimum remaining validity required to reuse cached
	// material; anything expiring inside this window is renewed proactively.
	MinRunDays int

	// Temporary disables all filesystem and secret store writes; every record
	// produced is ephemeral.
	Temporary bool
}

// Manager owns one in-process cached root authority and issues leaf
// certificates signed by it. The cache is scoped to the instance: callers
// that want sharing share the Manager. There is no cross-process locking;
// two processes racing issuance may both regenerate, and the last writer
// wins (acceptable for a local development tool).
type Manager struct {
	opts      Options
	store     *secrets.Store
	authority *certstore.Record
}

// New creates a Manager. The authority is not touched until the first
// operation that needs it.
func New(opts Options, store *secrets.Store) *Manager {
	return &Manager{opts: opts, store: store}
}

// authoritySubject is the distinguished name string the root record is named
// and persisted under.
func (m *Manager) authoritySubject() string {
	return pkix.Name{CommonName: m.opts.AuthorityName}.String()
}

func (m *Manager) minRun() time.Duration {
	return time.Duration(m.opts.MinRunDays) * 24 * time.Hour
}

// Init returns the root authority record, creating it if needed. The cached
// instance is returned when present; otherwise, unless force is set, a
// persisted root is loaded and reused when it still covers the minimum run
// window. Failing that a fresh root is generated, persisted (unless the
// manager is temporary) and cached.
func (m *Manager) Init(force bool) (*certstore.Record, error) {
	if m.authority != nil {
		return m.authority, nil
	}

	if !force && !m.opts.Temporary {
		existing, err := certstore.Load(m.store, m.opts.Dir, m.authoritySubject(), certstore.SelfSigned(), false)
		if err != nil && !errors.Is(err, certstore.ErrRecordNotFound) {
			return nil, err
		}

		// Root records have no external authority, so only presence and
		// remaining validity are checked against them.
		if ok, reason := certstore.EvaluateReuse(existing, nil, m.minRun(), time.Now()); ok {
			log.Debug().Str("subject", existing.Subject()).Time("notAfter", existing.NotAfter()).
				Msg("reusing persisted authority")
			m.authority = existing
			return existing, nil
		} else if existing != nil {
			log.Info().Str("reason", string(reason)).Msg("persisted authority not reusable, regenerating")
		}
	}

	authority, err := m.generateAuthority()
	if err != nil {
		return nil, err
	}

	if err := authority.Save(m.store, m.opts.Dir); err != nil {
		return nil, err
	}

	m.authority = authority

	log.Info().Str("subject", authority.Subject()).Time("notAfter", authority.NotAfter()).
		Msg("generated new authority")

	return authority, nil
}

// Issue returns a certificate record for the given hosts, reusing a persisted
// record when the renewal policy allows it. The first host becomes the
// subject common name and the record name; every host becomes a SAN entry.
func (m *Manager) Issue(hosts []string, force bool) (*certstore.Record, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	authority, err := m.Init(false)
	if err != nil {
		return nil, err
	}

	primary := hosts[0]

	if !force && !m.opts.Temporary {
		existing, err := certstore.Load(m.store, m.opts.Dir, primary, certstore.IssuedBy(authority), false)
		if err != nil && !errors.Is(err, certstore.ErrRecordNotFound) {
			return nil, err
		}

		if ok, reason := certstore.EvaluateReuse(existing, authority, m.minRun(), time.Now()); ok {
			log.Debug().Str("host", primary).Time("notAfter", existing.NotAfter()).
				Msg("reusing persisted certificate")
			return existing, nil
		} else if existing != nil {
			log.Info().Str("host", primary).Str("reason", string(reason)).
				Msg("persisted certificate not reusable, regenerating")
		}
	}

	leaf, err := m.generateLeaf(authority, hosts, m.opts.Temporary)
	if err != nil {
		return nil, err
	}

	if err := leaf.Save(m.store, m.opts.Dir); err != nil {
		return nil, err
	}

	log.Info().Str("host", primary).Strs("hosts", hosts).Time("notAfter", leaf.NotAfter()).
		Msg("issued new certificate")

	return leaf, nil
}

// IssueEphemeral issues a leaf without touching storage. On a temporary
// manager a missing authority is generated in memory; on a non-temporary
// manager the authority must already be cached, otherwise the on-disk root
// would be silently bypassed.
func (m *Manager) IssueEphemeral(hosts []string) (*certstore.Record, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}

	if m.authority == nil {
		if !m.opts.Temporary {
			return nil, ErrNoCachedAuthority
		}

		authority, err := m.generateAuthority()
		if err != nil {
			return nil, err
		}
		m.authority = authority
	}

	return m.generateLeaf(m.authority, hosts, true)
}

// DeleteAuthority removes the root authority record, locating it on disk when
// the instance has not cached one yet. The in-process cache is cleared.
func (m *Manager) DeleteAuthority() error {
	authority := m.authority
	if authority == nil {
		var err error
		authority, err = certstore.Load(m.store, m.opts.Dir, m.authoritySubject(), certstore.SelfSigned(), true)
		if err != nil {
			return err
		}
	}

	if err := authority.Delete(m.store); err != nil {
		return err
	}

	m.authority = nil

	return nil
}

// DeleteRecord removes a specific record's certificate file and secret.
func (m *Manager) DeleteRecord(rec *certstore.Record) error {
	return rec.Delete(m.store)
}

// DeleteByHost resolves the leaf record for a host and removes it. Returns
// ErrRecordNotFound when no record exists for the host.
func (m *Manager) DeleteByHost(host string) error {
	rec, err := certstore.Load(m.store, m.opts.Dir, host, certstore.Issuer{}, true)
	if err != nil {
		return err
	}

	return rec.Delete(m.store)
}

// DeleteAll removes every persisted record in the certificate directory,
// including the authority. Unlike List it never initializes a new authority
// just to tear it down again.
func (m *Manager) DeleteAll() error {
	for rec, err := range certstore.List(m.store, m.opts.Dir, certstore.Issuer{}, true) {
		if err != nil {
			return err
		}
		if err := rec.Delete(m.store); err != nil {
			return err
		}
	}

	m.authority = nil

	return nil
}

// List returns a sequence of every persisted record in the certificate
// directory, with the current authority attached as the expected issuer so
// callers can check signature linkage via Record.Verify.
func (m *Manager) List() (iter.Seq2[*certstore.Record, error], error) {
	authority, err := m.Init(false)
	if err != nil {
		return nil, err
	}

	return certstore.List(m.store, m.opts.Dir, certstore.IssuedBy(authority), true), nil
}

// Dir returns the certificate directory the manager operates on.
func (m *Manager) Dir() string {
	return m.opts.Dir
}

func (m *Manager) generateAuthority() (*certstore.Record, error) {
	key, err := pki.GenerateKey()
	if err != nil {
		return nil, err
	}

	validFor := time.Duration(m.opts.AuthorityValidityDays) * 24 * time.Hour

	tmpl, err := pki.AuthorityTemplate(m.opts.AuthorityName, validFor, &key.PublicKey)
	if err != nil {
		return nil, err
	}

	der, err := pki.SelfSign(tmpl, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign authority certificate: %w", err)
	}

	keyPEM, err := pki.EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}

	return certstore.New(m.authoritySubject(), keyPEM, pki.EncodeCertificatePEM(der),
		certstore.SelfSigned(), m.opts.Temporary)
}

func (m *Manager) generateLeaf(authority *certstore.Record, hosts []string, temporary bool) (*certstore.Record, error) {
	signer, err := pki.NewKeypairSigner(authority.KeyPEM(), authority.CertPEM())
	if err != nil {
		return nil, err
	}

	key, err := pki.GenerateKey()
	if err != nil {
		return nil, err
	}

	validFor := time.Duration(m.opts.ValidityDays) * 24 * time.Hour

	tmpl, err := pki.LeafTemplate(hosts, validFor, &key.PublicKey)
	if err != nil {
		return nil, err
	}

	der, err := signer.SignCertificate(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign certificate: %w", err)
	}

	keyPEM, err := pki.EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}

	return certstore.New(hosts[0], keyPEM, pki.EncodeCertificatePEM(der),
		certstore.IssuedBy(authority), temporary)
}
