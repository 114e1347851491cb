package gen

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/goatkit/plugkit/pkg/manifest"
)

// resolveVersion returns the descriptor's version. A literal string is used
// directly; version = { workspace = true } delegates to the enclosing
// workspace; anything else is a missing version.
func resolveVersion(pkg map[string]any, descriptorPath string) (string, error) {
	switch v := pkg["version"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case map[string]any:
		if ws, ok := v["workspace"].(bool); ok && ws {
			return resolveWorkspaceVersion(descriptorPath)
		}
	}
	return "", &manifest.Error{Kind: manifest.KindMissingField, Detail: "package.version"}
}

// resolveWorkspaceVersion walks parent directories of the descriptor looking
// for a workspace root descriptor. The walk stops at the first ancestor that
// has one: if that file declares [workspace.package].version the walk
// succeeds, otherwise resolution fails. Ancestors without a descriptor file
// are skipped.
func resolveWorkspaceVersion(descriptorPath string) (string, error) {
	dir := filepath.Dir(descriptorPath)
	if dir == "" || dir == descriptorPath {
		return "", &manifest.Error{Kind: manifest.KindInvalidFormat, Detail: "descriptor path has no parent directory"}
	}

	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		dir = parent

		wsPath := filepath.Join(dir, DescriptorName)
		data, err := os.ReadFile(wsPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", &manifest.Error{Kind: manifest.KindIO, Err: err}
		}

		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return "", &manifest.Error{Kind: manifest.KindParseSyntax, Err: err}
		}

		wsPackage, ok := table(doc, "workspace", "package")
		if ok {
			if version, ok := str(wsPackage, "version"); ok {
				return version, nil
			}
		}
		// First ancestor with a descriptor decides; it lacks a workspace
		// version, so resolution fails here rather than walking further up.
		return "", &manifest.Error{
			Kind:   manifest.KindInvalidFormat,
			Detail: "workspace root " + wsPath + " does not declare workspace.package.version",
		}
	}

	return "", &manifest.Error{Kind: manifest.KindInvalidFormat, Detail: "could not resolve workspace version"}
}
