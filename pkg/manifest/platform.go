package manifest

import (
	"fmt"
	"runtime"
)

// CurrentPlatform returns the host platform identifier, e.g. "darwin-aarch64"
// or "linux-x86_64". Platform identifiers use this form throughout manifests
// (compatibility.platforms, binary.checksums keys).
func CurrentPlatform() string {
	var os string
	switch runtime.GOOS {
	case "darwin":
		os = "darwin"
	case "linux":
		os = "linux"
	case "windows":
		os = "windows"
	default:
		os = "unknown"
	}

	var arch string
	switch runtime.GOARCH {
	case "arm64":
		arch = "aarch64"
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "x86"
	default:
		arch = "unknown"
	}

	return fmt.Sprintf("%s-%s", os, arch)
}

// LibraryFilename returns the shared-library filename for a base binary name
// on the current platform: "lib" prefix everywhere except Windows, and a
// .dylib/.dll/.so extension.
func LibraryFilename(name string) string {
	prefix := "lib"
	if runtime.GOOS == "windows" {
		prefix = ""
	}

	var ext string
	switch runtime.GOOS {
	case "darwin":
		ext = "dylib"
	case "windows":
		ext = "dll"
	default:
		ext = "so"
	}

	return fmt.Sprintf("%s%s.%s", prefix, name, ext)
}

// MatchesPlatform reports whether a declared platform identifier applies to
// the current host. The wildcard "all" matches every platform.
func MatchesPlatform(platform string) bool {
	return platform == CurrentPlatform() || platform == "all"
}
