package manifest

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultAPIVersion is the current plugin API generation. Manifests that do
// not declare compatibility.api_version are assumed to target this version.
const DefaultAPIVersion = 2

// DefaultBinaryName is used when a manifest omits binary.name.
const DefaultBinaryName = "plugin"

// PluginManifest is a single plugin descriptor parsed from plugin.toml.
// It is immutable once constructed and safe to share across goroutines.
type PluginManifest struct {
	// Plugin identity. The only section with no usable zero value.
	Plugin PluginMeta `toml:"plugin"`

	// Compatibility constraints shared with the host.
	Compatibility CompatibilityInfo `toml:"compatibility"`

	// Binary describes the loadable library and its per-platform checksums.
	Binary BinaryInfo `toml:"binary"`

	// Signature carries signing material through unvalidated.
	Signature *SignatureInfo `toml:"signature,omitempty"`

	// Config seeds default settings in the host.
	Config ConfigInfo `toml:"config"`

	// Provides lists services this plugin offers to other plugins.
	Provides []ServiceDeclaration `toml:"provides,omitempty"`

	// Requires lists services this plugin needs from other plugins.
	Requires []ServiceRequirement `toml:"requires,omitempty"`

	// CLI, when present, registers the plugin as a top-level host command.
	CLI *CliConfig `toml:"cli,omitempty"`

	// Capabilities advertised for external capability routing.
	Capabilities []CapabilityDeclaration `toml:"capabilities,omitempty"`

	// Optional sections conventionally tied to a plugin type. Presence is
	// purely structural; no validation against Plugin.Type is performed.
	Tags         *TagsInfo         `toml:"tags,omitempty"`
	Hive         *HiveInfo         `toml:"hive,omitempty"`
	Translation  *TranslationInfo  `toml:"translation,omitempty"`
	Language     *LanguageInfo     `toml:"language,omitempty"`
	Requirements *RequirementsInfo `toml:"requirements,omitempty"`
}

// PluginMeta identifies a plugin.
type PluginMeta struct {
	ID          string  `toml:"id"`   // globally unique, dotted namespace, e.g. "vendor.stats"
	Name        string  `toml:"name"` // human-readable display name
	Version     string  `toml:"version"`
	Type        string  `toml:"type"` // classification tag: "core", "extension", "theme", ...
	Author      string  `toml:"author,omitempty"`
	Description string  `toml:"description,omitempty"`
	License     *string `toml:"license,omitempty"`  // SPDX identifier
	Homepage    *string `toml:"homepage,omitempty"` // URL to docs/repo
}

// CompatibilityInfo constrains where a plugin can load. A package manifest
// carries one CompatibilityInfo shared by all of its plugins.
type CompatibilityInfo struct {
	APIVersion     uint32   `toml:"api_version"`
	MinHostVersion *string  `toml:"min_host_version,omitempty"`
	MaxHostVersion *string  `toml:"max_host_version,omitempty"`
	Platforms      []string `toml:"platforms,omitempty"` // empty = all platforms
	DependsOn      []string `toml:"depends_on,omitempty"` // plugin ids loaded first
}

func defaultCompatibility() CompatibilityInfo {
	return CompatibilityInfo{APIVersion: DefaultAPIVersion}
}

// BinaryInfo describes the plugin's loadable binary.
type BinaryInfo struct {
	// Name is the base binary name without lib prefix or extension.
	Name string `toml:"name"`

	// Checksums maps platform identifier to checksum, e.g.
	// "linux-x86_64" -> "sha256:abc...".
	Checksums map[string]string `toml:"checksums,omitempty"`
}

func defaultBinary() BinaryInfo {
	return BinaryInfo{Name: DefaultBinaryName}
}

// SignatureInfo holds signing material. This package carries it through
// without verifying anything.
type SignatureInfo struct {
	PublicKey     string `toml:"public_key"`     // ed25519 public key, base64
	SignatureFile string `toml:"signature_file"` // path relative to the manifest
}

// ConfigInfo seeds default configuration values in the host.
type ConfigInfo struct {
	Defaults map[string]any `toml:"defaults,omitempty"`
}

// ServiceDeclaration is a service this plugin offers.
type ServiceDeclaration struct {
	ID          string `toml:"id"` // e.g. "goatkit.indexer.search"
	Version     string `toml:"version"`
	Description string `toml:"description,omitempty"`
}

// ServiceRequirement is a service this plugin needs.
type ServiceRequirement struct {
	ID         string  `toml:"id"`
	MinVersion *string `toml:"min_version,omitempty"`
	Optional   bool    `toml:"optional,omitempty"` // false = hard requirement
}

// CapabilityDeclaration advertises a named, versioned protocol for
// cross-host capability routing. Same shape as ServiceDeclaration but a
// separate namespace; comparable with ==.
type CapabilityDeclaration struct {
	Protocol    string `toml:"protocol"` // e.g. "embeddings", "llm.chat"
	Version     string `toml:"version"`
	Description string `toml:"description,omitempty"`
}

// CliConfig registers a plugin as a top-level command of the host CLI.
type CliConfig struct {
	// Command is the subcommand name. Expected to be lowercase
	// alphanumeric with hyphens; not enforced here.
	Command string `toml:"command"`

	// Description shown in --help output.
	Description string `toml:"description"`

	// Aliases are optional short forms, e.g. ["t"] for "tasks".
	Aliases []string `toml:"aliases,omitempty"`

	// DynamicCompletions enables shell completion callbacks into the
	// plugin. The plugin outputs tab-separated completion/description
	// pairs, one per line.
	DynamicCompletions bool `toml:"dynamic_completions,omitempty"`
}

// TagsInfo categorizes a plugin for discovery.
type TagsInfo struct {
	Categories []string `toml:"categories,omitempty"`
	Platforms  []string `toml:"platforms,omitempty"`
}

// HiveInfo describes a hive-plugin's slot within the hive.
type HiveInfo struct {
	Category string `toml:"category"` // e.g. "runner", "proxy", "health"
	Name     string `toml:"name"`     // e.g. "docker", "cors"
}

// TranslationInfo describes a translation plugin's target.
type TranslationInfo struct {
	Translates   string `toml:"translates"` // plugin id being translated
	Language     string `toml:"language"`   // e.g. "en-US"
	LanguageName string `toml:"language_name,omitempty"`
	Namespace    string `toml:"namespace,omitempty"`
}

// LanguageInfo describes a language analyzer plugin.
type LanguageInfo struct {
	ID         string   `toml:"id"` // e.g. "rust", "python"
	Extensions []string `toml:"extensions"`
}

// RequirementsInfo declares host platform requirements.
type RequirementsInfo struct {
	OS    *string `toml:"os,omitempty"`
	Arch  *string `toml:"arch,omitempty"`
	Notes *string `toml:"notes,omitempty"`
}

// ParsePlugin parses a single-plugin manifest from TOML.
func ParsePlugin(data []byte) (*PluginManifest, error) {
	m := &PluginManifest{
		Compatibility: defaultCompatibility(),
		Binary:        defaultBinary(),
	}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, parseError(err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParsePluginFile reads and parses a plugin.toml.
func ParsePluginFile(path string) (*PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(err)
	}
	return ParsePlugin(data)
}

func (m *PluginManifest) validate() error {
	switch {
	case m.Plugin.ID == "":
		return missingField("plugin.id")
	case m.Plugin.Name == "":
		return missingField("plugin.name")
	case m.Plugin.Version == "":
		return missingField("plugin.version")
	case m.Plugin.Type == "":
		return missingField("plugin.type")
	}

	// Optional sections may be absent, but a present section must carry its
	// own mandatory fields.
	if m.Signature != nil {
		switch {
		case m.Signature.PublicKey == "":
			return missingField("signature.public_key")
		case m.Signature.SignatureFile == "":
			return missingField("signature.signature_file")
		}
	}
	if m.CLI != nil {
		switch {
		case m.CLI.Command == "":
			return missingField("cli.command")
		case m.CLI.Description == "":
			return missingField("cli.description")
		}
	}
	if err := validateServices(m.Provides, m.Requires, ""); err != nil {
		return err
	}
	for i := range m.Capabilities {
		switch {
		case m.Capabilities[i].Protocol == "":
			return missingField(fmt.Sprintf("capabilities[%d].protocol", i))
		case m.Capabilities[i].Version == "":
			return missingField(fmt.Sprintf("capabilities[%d].version", i))
		}
	}
	if m.Hive != nil {
		switch {
		case m.Hive.Category == "":
			return missingField("hive.category")
		case m.Hive.Name == "":
			return missingField("hive.name")
		}
	}
	if m.Translation != nil {
		switch {
		case m.Translation.Translates == "":
			return missingField("translation.translates")
		case m.Translation.Language == "":
			return missingField("translation.language")
		}
	}
	if m.Language != nil && m.Language.ID == "" {
		return missingField("language.id")
	}
	return nil
}

// validateServices checks the mandatory fields of service declarations and
// requirements. prefix scopes the reported field path, e.g. "plugins[0].".
func validateServices(provides []ServiceDeclaration, requires []ServiceRequirement, prefix string) error {
	for i := range provides {
		switch {
		case provides[i].ID == "":
			return missingField(fmt.Sprintf("%sprovides[%d].id", prefix, i))
		case provides[i].Version == "":
			return missingField(fmt.Sprintf("%sprovides[%d].version", prefix, i))
		}
	}
	for i := range requires {
		if requires[i].ID == "" {
			return missingField(fmt.Sprintf("%srequires[%d].id", prefix, i))
		}
	}
	return nil
}

// Encode serializes the manifest to TOML. Round-tripping through ParsePlugin
// preserves all field values but not the original byte layout.
func (m *PluginManifest) Encode() ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, invalidFormat("serialize manifest: " + err.Error())
	}
	return data, nil
}

// WriteFile serializes the manifest and writes it to path.
func (m *PluginManifest) WriteFile(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return ioError(err)
	}
	return nil
}

// BinaryFilename returns the platform-specific library filename for this
// plugin's binary, e.g. "libstats.so".
func (m *PluginManifest) BinaryFilename() string {
	return LibraryFilename(m.Binary.Name)
}

// ChecksumForCurrentPlatform looks up the checksum for the host platform.
// A missing entry is not an error; ok is false.
func (m *PluginManifest) ChecksumForCurrentPlatform() (string, bool) {
	sum, ok := m.Binary.Checksums[CurrentPlatform()]
	return sum, ok
}

// SupportsCurrentPlatform reports whether the host platform is within the
// manifest's declared platform list. An empty list means unrestricted.
func (m *PluginManifest) SupportsCurrentPlatform() bool {
	return supportsCurrentPlatform(m.Compatibility.Platforms)
}

func supportsCurrentPlatform(platforms []string) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if MatchesPlatform(p) {
			return true
		}
	}
	return false
}
