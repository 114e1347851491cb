package packaging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/plugkit/pkg/manifest"
)

const packTOML = `
[package]
id = "vendor.themes"
name = "Theme Collection"
version = "2.0.0"

[[plugins]]
id = "vendor.dark"
name = "Dark Theme"
type = "theme"
binary = "dark_theme"

[[plugins]]
id = "vendor.light"
name = "Light Theme"
type = "theme"
binary = "light_theme"
`

// buildFixture lays out a package directory with its manifest and the
// platform library files the manifest names.
func buildFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(packTOML), 0644))

	for _, base := range []string{"dark_theme", "light_theme"} {
		lib := filepath.Join(dir, manifest.LibraryFilename(base))
		require.NoError(t, os.WriteFile(lib, []byte("binary for "+base), 0644))
	}
	// Hidden files stay out of the archive.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log"), 0644))
	return dir
}

func TestBuildAndExtractRoundTrip(t *testing.T) {
	packageDir := buildFixture(t)
	archivePath := filepath.Join(t.TempDir(), "themes.zip")

	built, err := Build(packageDir, archivePath)
	require.NoError(t, err)
	assert.Equal(t, "vendor.themes", built.Manifest.Package.ID)
	assert.Contains(t, built.Checksum, "sha256:")
	assert.Len(t, built.Binaries, 2)

	targetDir := t.TempDir()
	extracted, err := Extract(archivePath, targetDir)
	require.NoError(t, err)

	assert.Equal(t, built.Manifest.Package.ID, extracted.Manifest.Package.ID)
	assert.Equal(t, built.Manifest.Package.Version, extracted.Manifest.Package.Version)
	assert.Equal(t, filepath.Join(targetDir, "vendor.themes"), extracted.Path)

	require.Contains(t, extracted.Binaries, "vendor.dark")
	data, err := os.ReadFile(extracted.Binaries["vendor.dark"])
	require.NoError(t, err)
	assert.Equal(t, "binary for dark_theme", string(data))

	_, err = os.Stat(filepath.Join(extracted.Path, ".gitignore"))
	assert.True(t, os.IsNotExist(err), "hidden files are not packaged")
}

func TestBuild_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(packTOML), 0644))
	// Only one of the two libraries exists.
	lib := filepath.Join(dir, manifest.LibraryFilename("dark_theme"))
	require.NoError(t, os.WriteFile(lib, []byte("x"), 0644))

	_, err := Build(dir, filepath.Join(t.TempDir(), "out.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor.light")
}

func TestBuild_MissingManifest(t *testing.T) {
	_, err := Build(t.TempDir(), filepath.Join(t.TempDir(), "out.zip"))
	require.Error(t, err)
	assert.True(t, manifest.HasKind(err, manifest.KindIO))
}

func TestValidate(t *testing.T) {
	packageDir := buildFixture(t)
	archivePath := filepath.Join(t.TempDir(), "themes.zip")
	_, err := Build(packageDir, archivePath)
	require.NoError(t, err)

	m, err := Validate(archivePath)
	require.NoError(t, err)
	assert.Equal(t, "vendor.themes", m.Package.ID)
	assert.Len(t, m.Plugins, 2)
}

func TestValidate_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	_, err := Validate(path)
	assert.Error(t, err)
}
