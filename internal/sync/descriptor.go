package sync

import (
	"fmt"

	"github.com/klauern/punto/internal/util"
)

// Direction selects which tree is the source of a sync.
type Direction int

const (
	// Download copies from the repository tree to the system tree.
	Download Direction = iota
	// Upload copies from the system tree to the repository tree.
	Upload
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Download:
		return "download"
	case Upload:
		return "upload"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Download {
		return Upload
	}
	return Download
}

// Descriptor is the parsed sync configuration: two base directories and the
// ordered entries mirrored between them. It is read-only once built.
type Descriptor struct {
	repoBase   string
	systemBase string
	entries    []Entry
}

// NewDescriptor builds a descriptor. The entries slice is copied.
func NewDescriptor(repoBase, systemBase string, entries []Entry) *Descriptor {
	return &Descriptor{
		repoBase:   repoBase,
		systemBase: systemBase,
		entries:    append([]Entry(nil), entries...),
	}
}

// RepoBase returns the repository base directory.
func (d *Descriptor) RepoBase() string { return d.repoBase }

// SystemBase returns the system base directory.
func (d *Descriptor) SystemBase() string { return d.systemBase }

// Entries returns a copy of the entries in execution order.
func (d *Descriptor) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Len returns the number of entries.
func (d *Descriptor) Len() int { return len(d.entries) }

// Paths returns the absolute source and destination of e for a direction.
func (d *Descriptor) Paths(e Entry, dir Direction) (from, to string) {
	repo := util.JoinPaths(d.repoBase, e.repoPath)
	system := util.JoinPaths(d.systemBase, e.systemPath)
	if dir == Upload {
		return system, repo
	}
	return repo, system
}
