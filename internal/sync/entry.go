package sync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauern/punto/internal/util"
)

// SyncType selects how an entry is mirrored.
type SyncType string

const (
	// SyncFile copies a single file.
	SyncFile SyncType = "file"

	// SyncDir mirrors a directory tree with the external mirroring tool.
	SyncDir SyncType = "dir"
)

// ErrUnknownSyncType is returned by ParseSyncType for unrecognized values.
var ErrUnknownSyncType = errors.New("unknown sync type")

// String returns the string representation of the sync type.
func (t SyncType) String() string {
	return string(t)
}

// IsValid returns true if the sync type is recognized.
func (t SyncType) IsValid() bool {
	return t == SyncFile || t == SyncDir
}

// ParseSyncType parses a sync type from configuration. An empty value
// means SyncFile.
func ParseSyncType(s string) (SyncType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file":
		return SyncFile, nil
	case "dir", "directory":
		return SyncDir, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: file, dir)", ErrUnknownSyncType, s)
	}
}

// Entry is one declared path pair. Paths are stored relative to their base
// directory. An Entry is immutable once built.
type Entry struct {
	name       string
	repoPath   string
	systemPath string
	typ        SyncType
	ignore     []string
}

// NewEntry builds an entry, stripping a leading "/" or "./" from both paths.
// An empty typ means SyncFile.
func NewEntry(name, repoPath, systemPath string, typ SyncType, ignore []string) Entry {
	if typ == "" {
		typ = SyncFile
	}
	return Entry{
		name:       name,
		repoPath:   util.SanitizeRelativePath(repoPath),
		systemPath: util.SanitizeRelativePath(systemPath),
		typ:        typ,
		ignore:     append([]string(nil), ignore...),
	}
}

// Name returns the optional entry name.
func (e Entry) Name() string { return e.name }

// RepoPath returns the path relative to the repository base.
func (e Entry) RepoPath() string { return e.repoPath }

// SystemPath returns the path relative to the system base.
func (e Entry) SystemPath() string { return e.systemPath }

// Type returns the sync type.
func (e Entry) Type() SyncType { return e.typ }

// Ignore returns a copy of the ignore patterns, relative to the entry's
// source root.
func (e Entry) Ignore() []string {
	return append([]string(nil), e.ignore...)
}

// String renders the entry for messages.
func (e Entry) String() string {
	if e.name == "" {
		return fmt.Sprintf("%s -> %s", e.repoPath, e.systemPath)
	}
	return fmt.Sprintf("%s (%s -> %s)", e.name, e.repoPath, e.systemPath)
}
