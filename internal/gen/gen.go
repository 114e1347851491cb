// Package gen derives a plugin manifest from a project descriptor
// (project.toml). The descriptor embeds plugin metadata under
// [package.metadata.plugin]; everything else about the build config is
// opaque to this tool.
package gen

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/goatkit/plugkit/pkg/manifest"
)

// DescriptorName is the project descriptor filename, both for the plugin
// itself and for workspace roots found by walking parent directories.
const DescriptorName = "project.toml"

// FromDescriptor reads a project descriptor and synthesizes a
// PluginManifest from its [package.metadata.plugin] section. The version may
// be declared literally or inherited from an enclosing workspace
// (version = { workspace = true }).
func FromDescriptor(path string) (*manifest.PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &manifest.Error{Kind: manifest.KindIO, Err: err}
	}
	return fromDescriptorData(data, path)
}

func fromDescriptorData(data []byte, path string) (*manifest.PluginManifest, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &manifest.Error{Kind: manifest.KindParseSyntax, Err: err}
	}

	pkg, ok := table(doc, "package")
	if !ok {
		return nil, &manifest.Error{Kind: manifest.KindMissingField, Detail: "package"}
	}

	version, err := resolveVersion(pkg, path)
	if err != nil {
		return nil, err
	}

	meta, ok := table(pkg, "metadata", "plugin")
	if !ok {
		return nil, &manifest.Error{Kind: manifest.KindMissingField, Detail: "package.metadata.plugin"}
	}

	id, ok := str(meta, "id")
	if !ok {
		return nil, &manifest.Error{Kind: manifest.KindMissingField, Detail: "package.metadata.plugin.id"}
	}
	name, ok := str(meta, "name")
	if !ok {
		return nil, &manifest.Error{Kind: manifest.KindMissingField, Detail: "package.metadata.plugin.name"}
	}
	pluginType, ok := str(meta, "type")
	if !ok {
		return nil, &manifest.Error{Kind: manifest.KindMissingField, Detail: "package.metadata.plugin.type"}
	}

	description, _ := str(pkg, "description")

	return &manifest.PluginManifest{
		Plugin: manifest.PluginMeta{
			ID:          id,
			Name:        name,
			Version:     version,
			Type:        pluginType,
			Author:      firstAuthor(pkg),
			Description: description,
		},
		Compatibility: parseCompatibility(meta),
		Binary:        parseBinary(meta),
		Provides:      parseProvides(meta),
		Requires:      parseRequires(meta),
		CLI:           parseCLI(meta),
		Capabilities:  parseCapabilities(meta),
		Tags:          parseTags(meta),
		Hive:          parseHive(meta),
		Translation:   parseTranslation(meta),
		Language:      parseLanguage(meta),
		Requirements:  parseRequirements(meta),
	}, nil
}

func firstAuthor(pkg map[string]any) string {
	authors, ok := pkg["authors"].([]any)
	if !ok || len(authors) == 0 {
		return ""
	}
	author, _ := authors[0].(string)
	return author
}

func parseCompatibility(meta map[string]any) manifest.CompatibilityInfo {
	compat, ok := table(meta, "compatibility")
	if !ok {
		return manifest.CompatibilityInfo{APIVersion: manifest.DefaultAPIVersion}
	}
	info := manifest.CompatibilityInfo{
		APIVersion: manifest.DefaultAPIVersion,
		Platforms:  strSlice(compat, "platforms"),
		DependsOn:  strSlice(compat, "depends_on"),
	}
	if v, ok := integer(compat, "api_version"); ok {
		info.APIVersion = uint32(v)
	}
	info.MinHostVersion = strPtr(compat, "min_host_version")
	info.MaxHostVersion = strPtr(compat, "max_host_version")
	return info
}

func parseBinary(meta map[string]any) manifest.BinaryInfo {
	bin, ok := table(meta, "binary")
	if !ok {
		return manifest.BinaryInfo{Name: manifest.DefaultBinaryName}
	}
	name, ok := str(bin, "name")
	if !ok {
		name = manifest.DefaultBinaryName
	}
	return manifest.BinaryInfo{Name: name}
}

func parseCLI(meta map[string]any) *manifest.CliConfig {
	cli, ok := table(meta, "cli")
	if !ok {
		return nil
	}
	command, ok := str(cli, "command")
	if !ok {
		return nil
	}
	description, _ := str(cli, "description")
	dynamic, _ := cli["dynamic_completions"].(bool)
	return &manifest.CliConfig{
		Command:            command,
		Description:        description,
		Aliases:            strSlice(cli, "aliases"),
		DynamicCompletions: dynamic,
	}
}

func parseProvides(meta map[string]any) []manifest.ServiceDeclaration {
	items, ok := meta["provides"].([]any)
	if !ok {
		return nil
	}
	var provides []manifest.ServiceDeclaration
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := str(entry, "id")
		if !ok {
			continue
		}
		version, ok := str(entry, "version")
		if !ok {
			version = "1.0.0"
		}
		description, _ := str(entry, "description")
		provides = append(provides, manifest.ServiceDeclaration{
			ID:          id,
			Version:     version,
			Description: description,
		})
	}
	return provides
}

func parseRequires(meta map[string]any) []manifest.ServiceRequirement {
	items, ok := meta["requires"].([]any)
	if !ok {
		return nil
	}
	var requires []manifest.ServiceRequirement
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := str(entry, "id")
		if !ok {
			continue
		}
		minVersion := strPtr(entry, "min_version")
		if minVersion == nil {
			minVersion = strPtr(entry, "version")
		}
		optional, _ := entry["optional"].(bool)
		requires = append(requires, manifest.ServiceRequirement{
			ID:         id,
			MinVersion: minVersion,
			Optional:   optional,
		})
	}
	return requires
}

func parseCapabilities(meta map[string]any) []manifest.CapabilityDeclaration {
	items, ok := meta["capabilities"].([]any)
	if !ok {
		return nil
	}
	var capabilities []manifest.CapabilityDeclaration
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		protocol, ok := str(entry, "protocol")
		if !ok {
			continue
		}
		version, ok := str(entry, "version")
		if !ok {
			version = "1.0.0"
		}
		description, _ := str(entry, "description")
		capabilities = append(capabilities, manifest.CapabilityDeclaration{
			Protocol:    protocol,
			Version:     version,
			Description: description,
		})
	}
	return capabilities
}

func parseTags(meta map[string]any) *manifest.TagsInfo {
	tags, ok := table(meta, "tags")
	if !ok {
		return nil
	}
	return &manifest.TagsInfo{
		Categories: strSlice(tags, "categories"),
		Platforms:  strSlice(tags, "platforms"),
	}
}

func parseHive(meta map[string]any) *manifest.HiveInfo {
	hive, ok := table(meta, "hive")
	if !ok {
		return nil
	}
	category, ok := str(hive, "category")
	if !ok {
		return nil
	}
	name, ok := str(hive, "name")
	if !ok {
		return nil
	}
	return &manifest.HiveInfo{Category: category, Name: name}
}

func parseTranslation(meta map[string]any) *manifest.TranslationInfo {
	tr, ok := table(meta, "translation")
	if !ok {
		return nil
	}
	translates, ok := str(tr, "translates")
	if !ok {
		return nil
	}
	language, ok := str(tr, "language")
	if !ok {
		return nil
	}
	languageName, _ := str(tr, "language_name")
	namespace, _ := str(tr, "namespace")
	return &manifest.TranslationInfo{
		Translates:   translates,
		Language:     language,
		LanguageName: languageName,
		Namespace:    namespace,
	}
}

func parseLanguage(meta map[string]any) *manifest.LanguageInfo {
	lang, ok := table(meta, "language")
	if !ok {
		return nil
	}
	id, ok := str(lang, "id")
	if !ok {
		return nil
	}
	return &manifest.LanguageInfo{
		ID:         id,
		Extensions: strSlice(lang, "extensions"),
	}
}

func parseRequirements(meta map[string]any) *manifest.RequirementsInfo {
	req, ok := table(meta, "requirements")
	if !ok {
		return nil
	}
	return &manifest.RequirementsInfo{
		OS:    strPtr(req, "os"),
		Arch:  strPtr(req, "arch"),
		Notes: strPtr(req, "notes"),
	}
}

// table walks nested tables by key, returning the innermost one.
func table(doc map[string]any, keys ...string) (map[string]any, bool) {
	current := doc
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func str(doc map[string]any, key string) (string, bool) {
	s, ok := doc[key].(string)
	return s, ok && s != ""
}

func strPtr(doc map[string]any, key string) *string {
	if s, ok := str(doc, key); ok {
		return &s
	}
	return nil
}

func strSlice(doc map[string]any, key string) []string {
	items, ok := doc[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func integer(doc map[string]any, key string) (int64, bool) {
	switch v := doc[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
