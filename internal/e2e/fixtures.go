package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture provides helpers for building a directory tree in E2E tests.
type Fixture struct {
	t       *testing.T
	baseDir string
}

// NewFixture creates a new fixture helper rooted at the given directory.
func NewFixture(t *testing.T, baseDir string) *Fixture {
	t.Helper()
	return &Fixture{
		t:       t,
		baseDir: baseDir,
	}
}

// Base returns the fixture root.
func (f *Fixture) Base() string {
	return f.baseDir
}

// WriteFile writes content to a file relative to the fixture base directory.
// It creates parent directories as needed.
func (f *Fixture) WriteFile(relPath, content string) string {
	f.t.Helper()
	fullPath := filepath.Join(f.baseDir, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		f.t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
		f.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}

	return fullPath
}

// Remove deletes a file or directory relative to the base.
func (f *Fixture) Remove(relPath string) {
	f.t.Helper()
	if err := os.RemoveAll(filepath.Join(f.baseDir, relPath)); err != nil {
		f.t.Fatalf("failed to remove %s: %v", relPath, err)
	}
}

// Path returns the full path for a relative path.
func (f *Fixture) Path(relPath string) string {
	return filepath.Join(f.baseDir, relPath)
}

// Exists returns true if the file or directory exists.
func (f *Fixture) Exists(relPath string) bool {
	f.t.Helper()
	_, err := os.Stat(filepath.Join(f.baseDir, relPath))
	return err == nil
}

// Entry describes one descriptor entry for WriteDescriptor.
type Entry struct {
	Name       string
	RepoPath   string
	SystemPath string
	Dir        bool
	Ignore     []string
}

// WriteDescriptor writes a YAML descriptor binding the harness repository
// and system trees and returns its path.
func (h *Harness) WriteDescriptor(entries ...Entry) string {
	h.t.Helper()

	var sb strings.Builder
	sb.WriteString("repo_base: " + h.repo.Base() + "\n")
	sb.WriteString("system_base: " + h.system.Base() + "\n")
	sb.WriteString("directories:\n")
	for _, e := range entries {
		sb.WriteString("  - " + e.Name + ":\n")
		sb.WriteString("      repo_path: " + e.RepoPath + "\n")
		sb.WriteString("      system_path: " + e.SystemPath + "\n")
		if e.Dir {
			sb.WriteString("      sync_type: dir\n")
		}
		if len(e.Ignore) > 0 {
			sb.WriteString("      ignore_files: [" + strings.Join(quoteAll(e.Ignore), ", ") + "]\n")
		}
	}

	return NewFixture(h.t, h.homeDir).WriteFile("dotfiles.yaml", sb.String())
}

// WriteConfig writes an arbitrary file (shell or installer config) into
// the test home and returns its path.
func (h *Harness) WriteConfig(name, content string) string {
	h.t.Helper()
	return NewFixture(h.t, h.homeDir).WriteFile(name, content)
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return quoted
}
