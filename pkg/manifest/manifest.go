// Package manifest defines the plugin manifest data model and its
// dependency-resolution engine.
//
// Two manifest shapes exist: a single plugin descriptor (plugin.toml, root
// section [plugin]) and a multi-plugin package descriptor (package.toml, root
// section [package] plus [[plugins]]). Parse auto-detects the shape; a
// package can be expanded into equivalent single-plugin manifests and asked
// for a dependency-respecting install order.
//
// All values are immutable after parsing and safe for concurrent readers.
package manifest

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is either a single plugin manifest or a package manifest.
// Exactly one of Single and Pkg is non-nil.
type Manifest struct {
	Single *PluginManifest
	Pkg    *PackageManifest
}

// Parse parses a manifest from TOML, auto-detecting the shape by root
// section. A [package] root takes priority over [plugin] if both appear.
// Input with neither root fails with KindInvalidFormat.
func Parse(data []byte) (*Manifest, error) {
	var roots map[string]any
	if err := toml.Unmarshal(data, &roots); err != nil {
		return nil, parseError(err)
	}

	if _, ok := roots["package"]; ok {
		p, err := ParsePackage(data)
		if err != nil {
			return nil, err
		}
		return &Manifest{Pkg: p}, nil
	}
	if _, ok := roots["plugin"]; ok {
		m, err := ParsePlugin(data)
		if err != nil {
			return nil, err
		}
		return &Manifest{Single: m}, nil
	}
	return nil, invalidFormat("manifest must contain either a [plugin] or [package] section")
}

// ParseFile reads and parses a manifest file, auto-detecting the shape.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(err)
	}
	return Parse(data)
}

// IsPackage reports whether this manifest is a multi-plugin package.
func (m *Manifest) IsPackage() bool { return m.Pkg != nil }

// ID returns the plugin id or the package id.
func (m *Manifest) ID() string {
	if m.Pkg != nil {
		return m.Pkg.Package.ID
	}
	return m.Single.Plugin.ID
}

// Version returns the plugin version or the package version.
func (m *Manifest) Version() string {
	if m.Pkg != nil {
		return m.Pkg.Package.Version
	}
	return m.Single.Plugin.Version
}

// PluginIDs returns every plugin id in this manifest: one for a single
// plugin, the declared-order ids for a package. Package ids are neither
// expanded nor install-ordered.
func (m *Manifest) PluginIDs() []string {
	if m.Pkg != nil {
		ids := make([]string, len(m.Pkg.Plugins))
		for i := range m.Pkg.Plugins {
			ids[i] = m.Pkg.Plugins[i].ID
		}
		return ids
	}
	return []string{m.Single.Plugin.ID}
}

// CLIConfig returns the single plugin's CLI configuration, or nil for
// plugins without a [cli] section. Packages cannot register host CLI
// commands, so this is always nil for packages.
func (m *Manifest) CLIConfig() *CliConfig {
	if m.Single != nil {
		return m.Single.CLI
	}
	return nil
}
