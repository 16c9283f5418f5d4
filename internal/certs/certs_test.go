package certs

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, der []byte) *x509.Certificate {
	t.Helper()
	c, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return c
}

func TestStore_Certificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	store := NewStore(dir)

	first, err := store.Certificate()
	require.NoError(t, err)
	require.NotEmpty(t, first.Certificate)

	c := leaf(t, first.Certificate[0])
	assert.Contains(t, c.DNSNames, "localhost")
	assert.Len(t, c.IPAddresses, 2)
	assert.NoError(t, c.VerifyHostname("127.0.0.1"))

	info, err := os.Stat(filepath.Join(dir, "purse.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Run("reuses a valid certificate", func(t *testing.T) {
		again, err := store.Certificate()
		require.NoError(t, err)
		assert.Equal(t, first.Certificate[0], again.Certificate[0])
	})

	t.Run("regenerates an expired certificate", func(t *testing.T) {
		later := NewStore(dir)
		later.now = func() time.Time { return time.Now().Add(2 * Validity) }

		renewed, err := later.Certificate()
		require.NoError(t, err)
		assert.NotEqual(t, first.Certificate[0], renewed.Certificate[0])
	})

	t.Run("regenerates for new hosts", func(t *testing.T) {
		wider := NewStore(dir, "purse.local")
		renewed, err := wider.Certificate()
		require.NoError(t, err)
		assert.Contains(t, leaf(t, renewed.Certificate[0]).DNSNames, "purse.local")
	})
}

func TestStore_CorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "purse.crt"), []byte("junk"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "purse.key"), []byte("junk"), 0o600))

	cfg, err := NewStore(dir).TLSConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
}
