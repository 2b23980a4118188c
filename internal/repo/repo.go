// Package repo reports uncommitted changes in the git worktree that holds the
// repository tree, so an upload can be followed by a commit.
package repo

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when path is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

// Change is one path with uncommitted changes.
type Change struct {
	// Path is relative to the worktree root, slash separated.
	Path     string
	Staging  git.StatusCode
	Worktree git.StatusCode
}

// Code returns the two-letter short status, as in git status --short.
func (c Change) Code() string {
	return string([]byte{byte(c.Staging), byte(c.Worktree)})
}

// Report lists the changes under a directory of a worktree.
type Report struct {
	Root    string
	Changes []Change
}

// Clean returns true if nothing changed.
func (r *Report) Clean() bool {
	return len(r.Changes) == 0
}

// Status returns the uncommitted changes under path. The enclosing worktree
// is found by walking up from path.
func Status(path string) (*Report, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}

	root := wt.Filesystem.Root()
	prefix, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, err
	}
	prefix = filepath.ToSlash(prefix)

	report := &Report{Root: root}
	for file, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		if prefix != "." && file != prefix && !strings.HasPrefix(file, prefix+"/") {
			continue
		}
		report.Changes = append(report.Changes, Change{Path: file, Staging: fs.Staging, Worktree: fs.Worktree})
	}
	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Path < report.Changes[j].Path
	})
	return report, nil
}
