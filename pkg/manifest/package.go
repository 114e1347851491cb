package manifest

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// PackageManifest is a multi-plugin package descriptor parsed from
// package.toml. All plugins in a package share compatibility, signature, and
// one distributable archive with per-platform checksums.
type PackageManifest struct {
	Package PackageMeta `toml:"package"`

	// Compatibility is shared by every plugin in the package.
	Compatibility CompatibilityInfo `toml:"compatibility"`

	// Plugins in declaration order. Declaration order is not install order;
	// see InstallOrder.
	Plugins []PluginDef `toml:"plugins"`

	// Binary holds checksums for the package's single shared archive.
	Binary PackageBinaryInfo `toml:"binary"`

	Signature *SignatureInfo `toml:"signature,omitempty"`
}

// PackageMeta identifies a package.
type PackageMeta struct {
	ID          string  `toml:"id"` // e.g. "vendor.theme-pack"
	Name        string  `toml:"name"`
	Version     string  `toml:"version"`
	Author      string  `toml:"author,omitempty"`
	Description string  `toml:"description,omitempty"`
	License     *string `toml:"license,omitempty"`
	Homepage    *string `toml:"homepage,omitempty"`
}

// PluginDef is one plugin entry inside a package.
type PluginDef struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Type string `toml:"type"`

	// Binary is the base binary name. Mandatory; package plugins have no
	// default binary.
	Binary string `toml:"binary"`

	// Description falls back to the package description when absent.
	Description *string `toml:"description,omitempty"`

	// DependsOn lists sibling plugin ids within the same package that must
	// install first.
	DependsOn []string `toml:"depends_on,omitempty"`

	Config   *ConfigInfo          `toml:"config,omitempty"`
	Provides []ServiceDeclaration `toml:"provides,omitempty"`
	Requires []ServiceRequirement `toml:"requires,omitempty"`
}

// BinaryFilename returns the platform-specific library filename for this
// plugin definition's binary.
func (d *PluginDef) BinaryFilename() string {
	return LibraryFilename(d.Binary)
}

// PackageBinaryInfo holds checksums for the whole package archive.
type PackageBinaryInfo struct {
	Checksums map[string]string `toml:"checksums,omitempty"`
}

// ParsePackage parses a package manifest from TOML.
func ParsePackage(data []byte) (*PackageManifest, error) {
	p := &PackageManifest{
		Compatibility: defaultCompatibility(),
	}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, parseError(err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParsePackageFile reads and parses a package.toml.
func ParsePackageFile(path string) (*PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(err)
	}
	return ParsePackage(data)
}

func (p *PackageManifest) validate() error {
	switch {
	case p.Package.ID == "":
		return missingField("package.id")
	case p.Package.Name == "":
		return missingField("package.name")
	case p.Package.Version == "":
		return missingField("package.version")
	case p.Plugins == nil:
		// A package without a plugins array is not a package.
		return missingField("plugins")
	}
	for i := range p.Plugins {
		def := &p.Plugins[i]
		switch {
		case def.ID == "":
			return missingField(fmt.Sprintf("plugins[%d].id", i))
		case def.Name == "":
			return missingField(fmt.Sprintf("plugins[%d].name", i))
		case def.Type == "":
			return missingField(fmt.Sprintf("plugins[%d].type", i))
		case def.Binary == "":
			return missingField(fmt.Sprintf("plugins[%d].binary", i))
		}
		if err := validateServices(def.Provides, def.Requires, fmt.Sprintf("plugins[%d].", i)); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the package manifest to TOML.
func (p *PackageManifest) Encode() ([]byte, error) {
	data, err := toml.Marshal(p)
	if err != nil {
		return nil, invalidFormat("serialize manifest: " + err.Error())
	}
	return data, nil
}

// Expand produces one PluginManifest per plugin definition, in declaration
// order. Each expanded manifest inherits the package version, author,
// license, homepage, signature, and shared compatibility; a definition's own
// depends_on replaces the shared one when non-empty. The package archive
// checksums are copied into every expanded manifest (single shared archive
// model). Expanded manifests share no mutable state with the package or each
// other. Expansion never fails.
func (p *PackageManifest) Expand() []*PluginManifest {
	expanded := make([]*PluginManifest, 0, len(p.Plugins))
	for i := range p.Plugins {
		def := &p.Plugins[i]

		checksums := make(map[string]string, len(p.Binary.Checksums))
		for platform, sum := range p.Binary.Checksums {
			checksums[platform] = sum
		}

		compat := p.Compatibility
		compat.Platforms = slices.Clone(compat.Platforms)
		compat.DependsOn = slices.Clone(compat.DependsOn)
		if len(def.DependsOn) > 0 {
			compat.DependsOn = slices.Clone(def.DependsOn)
		}

		description := p.Package.Description
		if def.Description != nil {
			description = *def.Description
		}

		var signature *SignatureInfo
		if p.Signature != nil {
			sig := *p.Signature
			signature = &sig
		}

		var config ConfigInfo
		if def.Config != nil {
			config = ConfigInfo{Defaults: maps.Clone(def.Config.Defaults)}
		}

		expanded = append(expanded, &PluginManifest{
			Plugin: PluginMeta{
				ID:          def.ID,
				Name:        def.Name,
				Version:     p.Package.Version,
				Type:        def.Type,
				Author:      p.Package.Author,
				Description: description,
				License:     p.Package.License,
				Homepage:    p.Package.Homepage,
			},
			Compatibility: compat,
			Binary: BinaryInfo{
				Name:      def.Binary,
				Checksums: checksums,
			},
			Signature: signature,
			Config:    config,
			Provides:  slices.Clone(def.Provides),
			Requires:  slices.Clone(def.Requires),
			// CLI commands and capabilities are single-plugin concepts;
			// package-sourced plugins never carry them, nor the
			// type-specific sections.
			CLI:          nil,
			Capabilities: nil,
		})
	}
	return expanded
}

// InstallOrder returns the package's plugins sorted so that every plugin
// appears after all plugins it depends on. Ordering is deterministic for a
// fixed declaration order: plugins are visited depth-first in declaration
// order. A depends_on entry naming an id outside the package adds no edge
// and raises no error. A cycle fails with KindCircularDependency carrying
// the id at which the cycle was detected.
func (p *PackageManifest) InstallOrder() ([]*PluginDef, error) {
	byID := make(map[string]*PluginDef, len(p.Plugins))
	for i := range p.Plugins {
		byID[p.Plugins[i].ID] = &p.Plugins[i]
	}

	done := make(map[string]bool, len(p.Plugins))
	inProgress := make(map[string]bool)
	order := make([]*PluginDef, 0, len(p.Plugins))

	var visit func(id string) error
	visit = func(id string) error {
		if done[id] {
			return nil
		}
		if inProgress[id] {
			return circularDependency(id)
		}
		def, ok := byID[id]
		if !ok {
			// Dependency on a plugin outside this package: skipped.
			return nil
		}

		inProgress[id] = true
		for _, dep := range def.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(inProgress, id)

		done[id] = true
		order = append(order, def)
		return nil
	}

	for i := range p.Plugins {
		if err := visit(p.Plugins[i].ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ChecksumForCurrentPlatform looks up the archive checksum for the host
// platform. A missing entry is not an error; ok is false.
func (p *PackageManifest) ChecksumForCurrentPlatform() (string, bool) {
	sum, ok := p.Binary.Checksums[CurrentPlatform()]
	return sum, ok
}

// SupportsCurrentPlatform reports whether the host platform is within the
// package's declared platform list. An empty list means unrestricted.
func (p *PackageManifest) SupportsCurrentPlatform() bool {
	return supportsCurrentPlatform(p.Compatibility.Platforms)
}
