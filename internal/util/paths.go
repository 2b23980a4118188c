// Package util holds path helpers shared by the mirror and the sync orchestrator.
package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
)

const separator = string(filepath.Separator)

// ExpandHome expands a leading ~ in p to the user's home directory.
// Paths without a leading ~ are returned unchanged.
func ExpandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}

// ConfigDir returns the punto configuration directory. PUNTO_HOME takes
// precedence over XDG_CONFIG_HOME/punto.
func ConfigDir() string {
	if dir := os.Getenv("PUNTO_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, "punto")
}

// SanitizeRelativePath strips leading "/" and "./" markers so that p can be
// joined onto a base directory. Markers are stripped until none remain, which
// keeps the function idempotent for inputs like "//a" or "././a".
func SanitizeRelativePath(p string) string {
	for {
		switch {
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		default:
			return p
		}
	}
}

// JoinPaths joins base and p after sanitizing p. A trailing separator on p is
// preserved, so JoinPaths("x/", "y/") == "x/y/".
func JoinPaths(base, p string) string {
	p = SanitizeRelativePath(p)
	joined := filepath.Join(base, p)
	if hasTrailingSlash(p) && !hasTrailingSlash(joined) {
		joined += separator
	}
	return joined
}

// EnsureTrailingSlash appends a path separator to p unless it already ends in
// one. rsync reads "src/" as "the contents of src" and "src" as "src itself".
func EnsureTrailingSlash(p string) string {
	if p == "" || hasTrailingSlash(p) {
		return p
	}
	return p + separator
}

// Exists reports whether something is present at path. Symlinks are not followed.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func hasTrailingSlash(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, separator)
}
