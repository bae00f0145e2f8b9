package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing default file yields defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultAuthorityName, cfg.AuthorityName)
		assert.Equal(t, DefaultValidityDays, cfg.ValidityDays)
		assert.NotEmpty(t, cfg.Dir)
	})

	t.Run("file values override defaults, absent keys keep them", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dir: /tmp/certs\nmin_run_days: 14\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/certs", cfg.Dir)
		assert.Equal(t, 14, cfg.MinRunDays)
		assert.Equal(t, DefaultAuthorityName, cfg.AuthorityName)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dir: [broken"), 0644))

		_, err := Load(path)
		require.Error(t, err)
	})
}
