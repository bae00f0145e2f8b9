package certstore

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/localca/internal/pki"
)

// makeAuthorityAt builds a self-signed root with an explicit validity window,
// so tests control the timestamps the policy compares.
func makeAuthorityAt(t *testing.T, cn string, notBefore, notAfter time.Time) *Record {
	t.Helper()

	key, err := pki.GenerateKey()
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyPEM, err := pki.EncodePrivateKeyPEM(key)
	require.NoError(t, err)

	rec, err := New(cn, keyPEM, pki.EncodeCertificatePEM(der), SelfSigned(), false)
	require.NoError(t, err)

	return rec
}

// makeLeafAt builds a leaf signed by authority with an explicit validity window.
func makeLeafAt(t *testing.T, authority *Record, host string, notBefore, notAfter time.Time) *Record {
	t.Helper()

	signer, err := pki.NewKeypairSigner(authority.KeyPEM(), authority.CertPEM())
	require.NoError(t, err)

	key, err := pki.GenerateKey()
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: host},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		DNSNames:     []string{host},
		PublicKey:    &key.PublicKey,
	}

	der, err := signer.SignCertificate(tmpl)
	require.NoError(t, err)

	keyPEM, err := pki.EncodePrivateKeyPEM(key)
	require.NoError(t, err)

	rec, err := New(host, keyPEM, pki.EncodeCertificatePEM(der), IssuedBy(authority), false)
	require.NoError(t, err)

	return rec
}

func TestEvaluateReuse(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	minRun := 7 * 24 * time.Hour

	authority := makeAuthorityAt(t, "test CA", now.Add(-time.Hour), now.Add(365*24*time.Hour))
	leaf := makeLeafAt(t, authority, "localhost", now.Add(-time.Minute), now.Add(30*24*time.Hour))

	t.Run("reuses a valid record", func(t *testing.T) {
		ok, reason := EvaluateReuse(leaf, authority, minRun, now)
		assert.True(t, ok)
		assert.Equal(t, ReasonNone, reason)
	})

	t.Run("missing record", func(t *testing.T) {
		ok, reason := EvaluateReuse(nil, authority, minRun, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonMissing, reason)
	})

	t.Run("missing key material", func(t *testing.T) {
		noKey, err := New("localhost", nil, leaf.CertPEM(), IssuedBy(authority), false)
		require.NoError(t, err)

		ok, reason := EvaluateReuse(noKey, authority, minRun, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonMissingKey, reason)
	})

	t.Run("issuer subject changed", func(t *testing.T) {
		renamed := makeAuthorityAt(t, "renamed CA", now.Add(-time.Hour), now.Add(365*24*time.Hour))

		ok, reason := EvaluateReuse(leaf, renamed, minRun, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonIssuerChanged, reason)
	})

	t.Run("authority rotated after leaf issuance", func(t *testing.T) {
		// same subject, recreated after the leaf was issued
		rotated := makeAuthorityAt(t, "test CA", now.Add(time.Hour), now.Add(365*24*time.Hour))

		ok, reason := EvaluateReuse(leaf, rotated, minRun, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonAuthorityNewer, reason)
	})

	t.Run("authority rotated within the same second", func(t *testing.T) {
		// same subject and identical validity window, so the timestamp
		// comparison cannot tell the roots apart; only the key can
		rotated := makeAuthorityAt(t, "test CA", authority.NotBefore(), authority.NotAfter())

		ok, reason := EvaluateReuse(leaf, rotated, minRun, now)
		assert.False(t, ok)
		assert.Equal(t, ReasonAuthorityKeyChanged, reason)
	})

	t.Run("no authority skips issuer and rotation checks", func(t *testing.T) {
		ok, reason := EvaluateReuse(authority, nil, minRun, now)
		assert.True(t, ok)
		assert.Equal(t, ReasonNone, reason)
	})

	t.Run("remaining validity exactly at the boundary is insufficient", func(t *testing.T) {
		boundary := leaf.NotAfter().Add(-minRun)

		ok, reason := EvaluateReuse(leaf, authority, minRun, boundary)
		assert.False(t, ok)
		assert.Equal(t, ReasonExpiringSoon, reason)
	})

	t.Run("remaining validity just above the boundary is sufficient", func(t *testing.T) {
		justInside := leaf.NotAfter().Add(-minRun).Add(-time.Second)

		ok, reason := EvaluateReuse(leaf, authority, minRun, justInside)
		assert.True(t, ok)
		assert.Equal(t, ReasonNone, reason)
	})

	t.Run("expired record", func(t *testing.T) {
		ok, reason := EvaluateReuse(leaf, authority, minRun, leaf.NotAfter().Add(time.Hour))
		assert.False(t, ok)
		assert.Equal(t, ReasonExpiringSoon, reason)
	})
}
