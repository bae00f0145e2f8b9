package certstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeFileName(t *testing.T) {
	t.Run("escapes distinguished names", func(t *testing.T) {
		name := safeFileName("/CN=localhost")
		assert.NotContains(t, name, "/")
		assert.NotContains(t, name, "=")
		assert.Contains(t, name, "CN-localhost")
	})

	t.Run("is stable", func(t *testing.T) {
		assert.Equal(t, safeFileName("CN=localca development CA"), safeFileName("CN=localca development CA"))
	})

	t.Run("sanitized collisions stay distinct", func(t *testing.T) {
		// both sanitize to the same readable prefix
		assert.NotEqual(t, safeFileName("foo/bar"), safeFileName("foo:bar"))
	})

	t.Run("caps very long names", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		assert.LessOrEqual(t, len(safeFileName(long)), maxNamePrefix+1+8)
	})

	t.Run("handles names with no safe runes", func(t *testing.T) {
		name := safeFileName("///")
		assert.True(t, strings.HasPrefix(name, "cert-"))
	})
}

func TestCertPathAndKeyAccount(t *testing.T) {
	certPath := CertPath("/tmp/certs", "localhost")
	keyAccount := KeyAccount("/tmp/certs", "localhost")

	assert.True(t, strings.HasSuffix(certPath, CertFileSuffix))
	assert.True(t, strings.HasSuffix(keyAccount, KeyFileSuffix))
	assert.Equal(t,
		strings.TrimSuffix(certPath, CertFileSuffix),
		strings.TrimSuffix(keyAccount, KeyFileSuffix))
}
