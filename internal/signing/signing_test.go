package signing

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/plugkit/pkg/manifest"
)

func TestSignAndVerify(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "libstats.so")
	require.NoError(t, os.WriteFile(binary, []byte("fake binary contents"), 0644))

	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sigPath := DefaultSignaturePath(binary)
	assert.Equal(t, binary+".sig", sigPath)
	require.NoError(t, SignBinary(binary, sigPath, priv))

	assert.NoError(t, VerifyBinary(binary, sigPath, []ed25519.PublicKey{pub}))
}

func TestVerify_WrongKey(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "libstats.so")
	require.NoError(t, os.WriteFile(binary, []byte("fake binary contents"), 0644))

	_, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	sigPath := DefaultSignaturePath(binary)
	require.NoError(t, SignBinary(binary, sigPath, priv))

	assert.Error(t, VerifyBinary(binary, sigPath, []ed25519.PublicKey{otherPub}))
	assert.Error(t, VerifyBinary(binary, sigPath, nil))
}

func TestVerify_TamperedBinary(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "libstats.so")
	require.NoError(t, os.WriteFile(binary, []byte("original"), 0644))

	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sigPath := DefaultSignaturePath(binary)
	require.NoError(t, SignBinary(binary, sigPath, priv))

	require.NoError(t, os.WriteFile(binary, []byte("tampered"), 0644))
	assert.Error(t, VerifyBinary(binary, sigPath, []ed25519.PublicKey{pub}))
}

func TestVerifyChecksum(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "libstats.so")
	require.NoError(t, os.WriteFile(binary, []byte("payload"), 0644))

	sum, err := FileChecksum(binary)
	require.NoError(t, err)
	assert.Contains(t, sum, ChecksumPrefix)

	m := &manifest.PluginManifest{
		Binary: manifest.BinaryInfo{
			Name:      "stats",
			Checksums: map[string]string{manifest.CurrentPlatform(): sum},
		},
	}
	assert.NoError(t, VerifyChecksum(m, binary))

	// Tampering fails.
	require.NoError(t, os.WriteFile(binary, []byte("tampered payload"), 0644))
	assert.Error(t, VerifyChecksum(m, binary))
}

func TestVerifyChecksum_NoClaimForPlatform(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "libstats.so")
	require.NoError(t, os.WriteFile(binary, []byte("payload"), 0644))

	m := &manifest.PluginManifest{
		Binary: manifest.BinaryInfo{
			Name:      "stats",
			Checksums: map[string]string{"some-other-platform": "sha256:ffff"},
		},
	}
	assert.NoError(t, VerifyChecksum(m, binary), "no checksum for this platform means no claim")
}
