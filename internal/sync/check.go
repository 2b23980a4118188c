package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/klauern/punto/internal/logging"
)

// Checker reports drift between the two trees of a descriptor without
// modifying either.
type Checker struct {
	desc *Descriptor
	fs   afero.Fs
}

// NewChecker creates a Checker. A nil fsys uses the OS filesystem.
func NewChecker(desc *Descriptor, fsys afero.Fs) *Checker {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Checker{desc: desc, fs: fsys}
}

// Check returns, for every entry in order, the destination paths of dir that
// have no counterpart on its source side. Paths are relative to the
// destination base, so for Download they read like .config/nvim/lazy-lock.json
// and name system files that are not in the repository. A directory missing
// from the source is reported once rather than file by file. Paths matching
// the entry's ignore patterns are skipped.
func (c *Checker) Check(dir Direction) ([]string, error) {
	defer logging.Timer("check")()

	var stale []string
	for _, e := range c.desc.entries {
		found, err := c.CheckEntry(e, dir)
		if err != nil {
			return stale, err
		}
		stale = append(stale, found...)
	}
	return stale, nil
}

// CheckEntry runs Check for a single entry.
func (c *Checker) CheckEntry(e Entry, dir Direction) ([]string, error) {
	from, to := c.desc.Paths(e, dir)
	to = filepath.Clean(to)
	base := c.desc.systemBase
	if dir == Upload {
		base = c.desc.repoBase
	}
	prefix, err := filepath.Rel(filepath.Clean(base), to)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", e, err)
	}
	found, err := c.checkEntry(e, filepath.Clean(from), to, prefix)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", e, err)
	}
	logging.Debug("checked entry", logging.Entry(e.String()), logging.Count(len(found)))
	return found, nil
}

// checkEntry walks to and reports what from lacks. Reported paths are
// prefix joined with the path below to.
func (c *Checker) checkEntry(e Entry, from, to, prefix string) ([]string, error) {
	if _, err := c.fs.Stat(to); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	exists, err := c.exists(from)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{prefix}, nil
	}
	if e.typ != SyncDir {
		return nil, nil
	}

	ig := ignore.CompileIgnoreLines(e.ignore...)
	var stale []string
	err = afero.Walk(c.fs, to, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(to, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if shouldIgnore(rel, info.IsDir(), ig) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		ok, err := c.exists(filepath.Join(from, rel))
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		stale = append(stale, filepath.Join(prefix, rel))
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	return stale, err
}

func (c *Checker) exists(path string) (bool, error) {
	_, err := c.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// shouldIgnore matches rel against the entry's ignore patterns. Directories
// get a trailing slash so directory-only patterns apply.
func shouldIgnore(rel string, isDir bool, ig *ignore.GitIgnore) bool {
	if ig == nil {
		return false
	}
	p := filepath.ToSlash(rel)
	if isDir {
		p += "/"
	}
	return ig.MatchesPath(p)
}
