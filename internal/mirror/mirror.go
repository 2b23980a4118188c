// Package mirror performs one-way copies of a single file or a directory
// tree. Files are copied in-process; directory trees are handed to rsync
// through the command package.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/util"
)

// DefaultTool is the mirroring program used for directory trees.
const DefaultTool = "rsync"

// IOError describes a failed copy. Err is either a filesystem error or a
// *command.Error from the mirroring tool.
type IOError struct {
	Op   string
	From string
	To   string
	Err  error
}

// Error returns a message naming both sides of the copy.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.From, e.To, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *IOError) Unwrap() error {
	return e.Err
}

// DirOptions tunes a directory sync.
type DirOptions struct {
	// Delete removes files at the destination that are absent from the
	// source. Ignore patterns never cause deletion on their own.
	Delete bool
	// DryRun asks the tool to report what it would transfer without writing.
	DryRun bool
}

// Mirror copies files and directory trees.
type Mirror struct {
	exec  command.Executor
	tool  string
	quiet bool
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithTool overrides the mirroring program (default rsync).
func WithTool(tool string) Option {
	return func(m *Mirror) {
		if tool != "" {
			m.tool = tool
		}
	}
}

// WithQuiet discards the mirroring tool's standard output.
func WithQuiet(quiet bool) Option {
	return func(m *Mirror) {
		m.quiet = quiet
	}
}

// New returns a Mirror that runs the mirroring tool through exec. A nil exec
// uses command.Default.
func New(exec command.Executor, opts ...Option) *Mirror {
	if exec == nil {
		exec = command.Default
	}
	m := &Mirror{exec: exec, tool: DefaultTool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SyncFile copies the file at from to to, creating to's parent directories
// and overwriting any existing file. The source permissions are kept. A
// missing source fails before anything is created.
func (m *Mirror) SyncFile(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return &IOError{Op: "sync file", From: from, To: to, Err: err}
	}
	if info.IsDir() {
		return &IOError{Op: "sync file", From: from, To: to, Err: fmt.Errorf("%w: %s is a directory", fs.ErrInvalid, from)}
	}

	parent := filepath.Dir(filepath.Clean(to))
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return &IOError{Op: "sync file", From: from, To: to, Err: err}
	}

	if err := copyFile(from, to, info.Mode().Perm()); err != nil {
		return &IOError{Op: "sync file", From: from, To: to, Err: err}
	}

	logging.Debug("synced file", logging.From(from), logging.To(to))
	return nil
}

// SyncDir mirrors the contents of from into to with the mirroring tool.
// Each ignore pattern is passed as an exclude relative to from. Files present
// only at the destination are kept unless opts.Delete is set.
func (m *Mirror) SyncDir(ctx context.Context, from, to string, ignore []string, opts DirOptions) error {
	info, err := os.Stat(from)
	if err != nil {
		return &IOError{Op: "sync dir", From: from, To: to, Err: err}
	}
	if !info.IsDir() {
		return &IOError{Op: "sync dir", From: from, To: to, Err: fmt.Errorf("%w: source is not a directory", fs.ErrInvalid)}
	}

	if !opts.DryRun {
		if err := os.MkdirAll(to, 0o750); err != nil {
			return &IOError{Op: "sync dir", From: from, To: to, Err: err}
		}
	}

	cmd, err := command.NewArgs(m.dirArgs(from, to, ignore, opts), m.quiet, false)
	if err != nil {
		return &IOError{Op: "sync dir", From: from, To: to, Err: err}
	}

	logging.FromContext(ctx).Debug("mirroring directory",
		logging.From(from),
		logging.To(to),
		logging.Count(len(ignore)),
		slog.Bool("delete", opts.Delete),
	)

	if err := m.exec.Execute(ctx, cmd); err != nil {
		return &IOError{Op: "sync dir", From: from, To: to, Err: err}
	}
	return nil
}

// dirArgs builds the rsync argument vector:
//
//	rsync -zaP --mkpath [--delete] [--dry-run] --exclude P ... from/ to/
func (m *Mirror) dirArgs(from, to string, ignore []string, opts DirOptions) []string {
	args := []string{m.tool, "-zaP", "--mkpath"}
	if opts.Delete {
		args = append(args, "--delete")
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	for _, pattern := range ignore {
		if pattern == "" {
			continue
		}
		args = append(args, "--exclude", pattern)
	}
	return append(args, util.EnsureTrailingSlash(from), util.EnsureTrailingSlash(to))
}

// copyFile copies a single regular file from src to dst with mode perm.
func copyFile(src, dst string, perm fs.FileMode) error {
	// #nosec G304 - src comes from the user's sync configuration
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G302 G304 - preserving source permissions, dst is from the sync configuration
	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy content: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	// O_TRUNC keeps the mode of an existing destination.
	if err := os.Chmod(dst, perm); err != nil && !errors.Is(err, fs.ErrPermission) {
		return err
	}
	return nil
}
