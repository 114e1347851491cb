// Package packaging builds and extracts distributable package archives.
// A package archive is a ZIP containing package.toml plus one library file
// per plugin definition; the whole archive is checksummed per platform,
// matching the checksum map in [binary.checksums].
package packaging

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goatkit/plugkit/internal/signing"
	"github.com/goatkit/plugkit/pkg/manifest"
)

// ManifestName is the manifest filename inside an archive.
const ManifestName = "package.toml"

// Archive describes a built or extracted package archive.
type Archive struct {
	Manifest *manifest.PackageManifest
	Path     string            // archive path (Build) or extraction dir (Extract)
	Binaries map[string]string // plugin id -> extracted/bundled library path
	Checksum string            // archive checksum, "sha256:..." (Build only)
}

// Build creates a ZIP archive from a package directory. The directory must
// contain package.toml and, for every plugin definition, the platform
// library file named by its binary (e.g. binary = "dark_theme" expects
// libdark_theme.so on Linux). Hidden files are skipped; everything else in
// the directory travels along.
func Build(packageDir, outputPath string) (*Archive, error) {
	m, err := manifest.ParsePackageFile(filepath.Join(packageDir, ManifestName))
	if err != nil {
		return nil, err
	}

	binaries := make(map[string]string, len(m.Plugins))
	for i := range m.Plugins {
		def := &m.Plugins[i]
		libPath := filepath.Join(packageDir, def.BinaryFilename())
		if _, err := os.Stat(libPath); err != nil {
			return nil, fmt.Errorf("plugin %s: binary %s: %w", def.ID, def.BinaryFilename(), err)
		}
		binaries[def.ID] = libPath
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	zipWriter := zip.NewWriter(outFile)
	err = filepath.Walk(packageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		relPath, err := filepath.Rel(packageDir, path)
		if err != nil {
			return err
		}
		return addFileToZip(zipWriter, path, relPath)
	})
	if err != nil {
		zipWriter.Close()
		outFile.Close()
		return nil, fmt.Errorf("package archive: %w", err)
	}
	if err := zipWriter.Close(); err != nil {
		outFile.Close()
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	checksum, err := signing.FileChecksum(outputPath)
	if err != nil {
		return nil, err
	}

	return &Archive{
		Manifest: m,
		Path:     outputPath,
		Binaries: binaries,
		Checksum: checksum,
	}, nil
}

// Validate opens an archive and parses its embedded package.toml without
// extracting anything.
func Validate(archivePath string) (*manifest.PackageManifest, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	return readManifest(&reader.Reader)
}

// Extract unpacks an archive into targetDir/<package id>. The embedded
// package.toml is parsed and validated first; each plugin definition's
// library path is resolved in the extraction directory when present.
func Extract(archivePath, targetDir string) (*Archive, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	m, err := readManifest(&reader.Reader)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(targetDir, m.Package.ID)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create package dir: %w", err)
	}

	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Path traversal guard.
		cleanName := filepath.Clean(f.Name)
		if strings.HasPrefix(cleanName, "..") || filepath.IsAbs(cleanName) {
			continue
		}

		destPath := filepath.Join(destDir, cleanName)
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		if err := extractZipFile(f, destPath); err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}

	binaries := make(map[string]string, len(m.Plugins))
	for i := range m.Plugins {
		def := &m.Plugins[i]
		libPath := filepath.Join(destDir, def.BinaryFilename())
		if _, err := os.Stat(libPath); err == nil {
			binaries[def.ID] = libPath
		}
	}

	return &Archive{
		Manifest: m,
		Path:     destDir,
		Binaries: binaries,
	}, nil
}

func readManifest(reader *zip.Reader) (*manifest.PackageManifest, error) {
	for _, f := range reader.File {
		if filepath.Base(f.Name) != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		return manifest.ParsePackage(data)
	}
	return nil, fmt.Errorf("archive missing %s", ManifestName)
}

func addFileToZip(w *zip.Writer, srcPath, zipPath string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(zipPath)
	header.Method = zip.Deflate

	writer, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

func extractZipFile(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, rc)
	return err
}
