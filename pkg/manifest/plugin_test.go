package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlugin_FullManifest(t *testing.T) {
	data := []byte(`
[plugin]
id = "vendor.test-plugin"
name = "Test Plugin"
version = "1.0.0"
type = "extension"
author = "Test Author"

[compatibility]
api_version = 1
min_host_version = "0.8.0"
platforms = ["darwin-aarch64", "linux-x86_64"]

[binary]
name = "test_plugin"
[binary.checksums]
darwin-aarch64 = "sha256:abc123"

[config.defaults]
enabled = true
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	assert.Equal(t, "vendor.test-plugin", m.Plugin.ID)
	assert.Equal(t, "Test Plugin", m.Plugin.Name)
	assert.Equal(t, "1.0.0", m.Plugin.Version)
	assert.Equal(t, "extension", m.Plugin.Type)
	assert.Equal(t, uint32(1), m.Compatibility.APIVersion)
	require.NotNil(t, m.Compatibility.MinHostVersion)
	assert.Equal(t, "0.8.0", *m.Compatibility.MinHostVersion)
	assert.Equal(t, "test_plugin", m.Binary.Name)
	assert.Equal(t, "sha256:abc123", m.Binary.Checksums["darwin-aarch64"])
	assert.Equal(t, true, m.Config.Defaults["enabled"])
}

func TestParsePlugin_Defaults(t *testing.T) {
	data := []byte(`
[plugin]
id = "vendor.minimal"
name = "Minimal"
version = "0.1.0"
type = "extension"
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	assert.Equal(t, uint32(DefaultAPIVersion), m.Compatibility.APIVersion)
	assert.Nil(t, m.Compatibility.MinHostVersion)
	assert.Empty(t, m.Compatibility.Platforms)
	assert.Equal(t, DefaultBinaryName, m.Binary.Name)
	assert.Empty(t, m.Provides)
	assert.Empty(t, m.Requires)
	assert.Empty(t, m.Capabilities)
	assert.Nil(t, m.CLI)
	assert.Nil(t, m.Signature)
	assert.Nil(t, m.Tags)
	assert.Empty(t, m.Config.Defaults)
}

const validPluginHeader = "[plugin]\nid = \"v.x\"\nname = \"X\"\nversion = \"1.0.0\"\ntype = \"core\"\n\n"

func TestParsePlugin_MissingMandatoryFields(t *testing.T) {
	tests := []struct {
		name     string
		toml     string
		wantPath string
	}{
		{
			name:     "missing id",
			toml:     "[plugin]\nname = \"X\"\nversion = \"1.0.0\"\ntype = \"core\"\n",
			wantPath: "plugin.id",
		},
		{
			name:     "missing name",
			toml:     "[plugin]\nid = \"v.x\"\nversion = \"1.0.0\"\ntype = \"core\"\n",
			wantPath: "plugin.name",
		},
		{
			name:     "missing version",
			toml:     "[plugin]\nid = \"v.x\"\nname = \"X\"\ntype = \"core\"\n",
			wantPath: "plugin.version",
		},
		{
			name:     "missing type",
			toml:     "[plugin]\nid = \"v.x\"\nname = \"X\"\nversion = \"1.0.0\"\n",
			wantPath: "plugin.type",
		},
		{
			name:     "signature without signature_file",
			toml:     validPluginHeader + "[signature]\npublic_key = \"aGVsbG8=\"\n",
			wantPath: "signature.signature_file",
		},
		{
			name:     "cli without command",
			toml:     validPluginHeader + "[cli]\ndescription = \"Tasks\"\n",
			wantPath: "cli.command",
		},
		{
			name:     "cli without description",
			toml:     validPluginHeader + "[cli]\ncommand = \"tasks\"\n",
			wantPath: "cli.description",
		},
		{
			name:     "provides without version",
			toml:     validPluginHeader + "[[provides]]\nid = \"v.x.search\"\n",
			wantPath: "provides[0].version",
		},
		{
			name:     "requires without id",
			toml:     validPluginHeader + "[[requires]]\noptional = true\n",
			wantPath: "requires[0].id",
		},
		{
			name:     "capability without version",
			toml:     validPluginHeader + "[[capabilities]]\nprotocol = \"embeddings\"\n",
			wantPath: "capabilities[0].version",
		},
		{
			name:     "hive without name",
			toml:     validPluginHeader + "[hive]\ncategory = \"runner\"\n",
			wantPath: "hive.name",
		},
		{
			name:     "translation without language",
			toml:     validPluginHeader + "[translation]\ntranslates = \"v.y\"\n",
			wantPath: "translation.language",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlugin([]byte(tt.toml))
			require.Error(t, err)
			assert.True(t, HasKind(err, KindMissingField))
			var me *Error
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.wantPath, me.Detail)
		})
	}
}

func TestParsePlugin_MalformedTOML(t *testing.T) {
	_, err := ParsePlugin([]byte("[plugin\nid ="))
	require.Error(t, err)
	assert.True(t, HasKind(err, KindParseSyntax))
}

func TestParsePlugin_CLIConfig(t *testing.T) {
	data := []byte(`
[plugin]
id = "goatkit.tasks"
name = "GoatKit Tasks"
version = "1.0.0"
type = "core"

[cli]
command = "tasks"
description = "Task management with dependency tracking"
aliases = ["t"]

[binary]
name = "tasks_plugin"
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)
	require.NotNil(t, m.CLI)
	assert.Equal(t, "tasks", m.CLI.Command)
	assert.Equal(t, "Task management with dependency tracking", m.CLI.Description)
	assert.Equal(t, []string{"t"}, m.CLI.Aliases)
	assert.False(t, m.CLI.DynamicCompletions)
}

func TestParsePlugin_ProvidesAndRequires(t *testing.T) {
	data := []byte(`
[plugin]
id = "goatkit.indexer"
name = "Indexer"
version = "2.1.0"
type = "core"

[[provides]]
id = "goatkit.indexer.search"
version = "1.0.0"
description = "Full-text search"

[[requires]]
id = "goatkit.storage"
min_version = "0.5.0"

[[requires]]
id = "goatkit.metrics"
optional = true
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	require.Len(t, m.Provides, 1)
	assert.Equal(t, "goatkit.indexer.search", m.Provides[0].ID)
	assert.Equal(t, "1.0.0", m.Provides[0].Version)

	require.Len(t, m.Requires, 2)
	require.NotNil(t, m.Requires[0].MinVersion)
	assert.Equal(t, "0.5.0", *m.Requires[0].MinVersion)
	assert.False(t, m.Requires[0].Optional)
	assert.True(t, m.Requires[1].Optional)
}

func TestParsePlugin_Capabilities(t *testing.T) {
	data := []byte(`
[plugin]
id = "goatkit.tasks"
name = "GoatKit Tasks"
version = "1.0.0"
type = "core"

[[capabilities]]
protocol = "tasks"
version = "1.0.0"
description = "Task management API"

[[capabilities]]
protocol = "tasks.execute"
version = "1.0.0"
description = "Task execution capability"
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	require.Len(t, m.Capabilities, 2)
	assert.Equal(t, "tasks", m.Capabilities[0].Protocol)
	assert.Equal(t, "tasks.execute", m.Capabilities[1].Protocol)

	// Capabilities are comparable by all three fields.
	assert.Equal(t, CapabilityDeclaration{
		Protocol:    "tasks",
		Version:     "1.0.0",
		Description: "Task management API",
	}, m.Capabilities[0])
	assert.NotEqual(t, m.Capabilities[0], m.Capabilities[1])
}

func TestParsePlugin_TypeSpecificSections(t *testing.T) {
	data := []byte(`
[plugin]
id = "hive.runner.docker"
name = "Docker Runner"
version = "0.1.0"
type = "hive-plugin"

[hive]
category = "runner"
name = "docker"

[tags]
categories = ["hive", "runner", "docker"]

[translation]
translates = "goatkit.workflow"
language = "en-US"
language_name = "English (United States)"
namespace = "workflow"

[language]
id = "rust"
extensions = ["rs"]

[requirements]
os = "linux"
arch = "aarch64"
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	require.NotNil(t, m.Hive)
	assert.Equal(t, "runner", m.Hive.Category)
	assert.Equal(t, "docker", m.Hive.Name)

	require.NotNil(t, m.Tags)
	assert.Equal(t, []string{"hive", "runner", "docker"}, m.Tags.Categories)

	require.NotNil(t, m.Translation)
	assert.Equal(t, "goatkit.workflow", m.Translation.Translates)
	assert.Equal(t, "en-US", m.Translation.Language)

	require.NotNil(t, m.Language)
	assert.Equal(t, []string{"rs"}, m.Language.Extensions)

	require.NotNil(t, m.Requirements)
	require.NotNil(t, m.Requirements.OS)
	assert.Equal(t, "linux", *m.Requirements.OS)
}

func TestPluginManifest_EncodeRoundTrip(t *testing.T) {
	data := []byte(`
[plugin]
id = "goatkit.tasks"
name = "GoatKit Tasks"
version = "0.8.8"
type = "core"
author = "GoatKit Team"
description = "Task management"

[cli]
command = "tasks"
description = "Task management"
aliases = ["t"]

[[provides]]
id = "goatkit.tasks.cli"
version = "1.0.0"
description = "CLI commands"

[binary]
name = "plugin"

[tags]
categories = ["tasks", "workflow"]
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)

	encoded, err := m.Encode()
	require.NoError(t, err)

	reparsed, err := ParsePlugin(encoded)
	require.NoError(t, err)

	assert.Equal(t, "goatkit.tasks", reparsed.Plugin.ID)
	assert.Equal(t, "0.8.8", reparsed.Plugin.Version)
	require.NotNil(t, reparsed.CLI)
	assert.Equal(t, m.CLI.Command, reparsed.CLI.Command)
	assert.Equal(t, m.Provides, reparsed.Provides)
	require.NotNil(t, reparsed.Tags)
	assert.Equal(t, m.Tags.Categories, reparsed.Tags.Categories)
}

func TestPluginManifest_BinaryFilename(t *testing.T) {
	data := []byte(`
[plugin]
id = "test.plugin"
name = "Test"
version = "1.0.0"
type = "test"

[binary]
name = "my_plugin"
`)

	m, err := ParsePlugin(data)
	require.NoError(t, err)
	assert.Contains(t, m.BinaryFilename(), "my_plugin")
}

func TestPluginManifest_PlatformSupport(t *testing.T) {
	m := &PluginManifest{}
	assert.True(t, m.SupportsCurrentPlatform(), "empty platform list is unrestricted")

	m.Compatibility.Platforms = []string{"all"}
	assert.True(t, m.SupportsCurrentPlatform())

	m.Compatibility.Platforms = []string{CurrentPlatform()}
	assert.True(t, m.SupportsCurrentPlatform())

	m.Compatibility.Platforms = []string{"definitely-not-a-real-platform"}
	assert.False(t, m.SupportsCurrentPlatform())
}

func TestPluginManifest_ChecksumForCurrentPlatform(t *testing.T) {
	m := &PluginManifest{
		Binary: BinaryInfo{
			Name: "plugin",
			Checksums: map[string]string{
				CurrentPlatform(): "sha256:deadbeef",
			},
		},
	}

	sum, ok := m.ChecksumForCurrentPlatform()
	assert.True(t, ok)
	assert.Equal(t, "sha256:deadbeef", sum)

	m.Binary.Checksums = map[string]string{"other-platform": "sha256:ffff"}
	_, ok = m.ChecksumForCurrentPlatform()
	assert.False(t, ok, "absent key is not an error, just no checksum")
}
