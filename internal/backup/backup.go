// Package backup snapshots destination paths before a sync overwrites them.
// Each snapshot is a gzipped tar archive recorded in a JSON index, and can be
// verified, restored or pruned later.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/util"
)

const (
	// DirPerm is the permission for backup directories (rwxr-x---)
	DirPerm = 0o750
	// FilePerm is the permission for backup files (rw-r-----)
	FilePerm = 0o640
)

var (
	// ErrNotFound is returned when no snapshot has the requested ID.
	ErrNotFound = errors.New("backup not found")

	// ErrCorrupted is returned when an archive no longer matches its hash.
	ErrCorrupted = errors.New("backup corrupted")
)

// Store keeps snapshots in one directory.
type Store struct {
	dir string
	now func() time.Time
}

// DefaultDir returns the backups directory under the punto config dir.
func DefaultDir() string {
	return filepath.Join(util.ConfigDir(), "backups")
}

// NewStore returns a store rooted at dir. An empty dir uses DefaultDir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: util.ExpandHome(dir), now: time.Now}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Snapshot archives path, a file or a directory, and records it under entry.
// A missing path returns an error wrapping fs.ErrNotExist.
func (s *Store) Snapshot(path, entry string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if err := os.MkdirAll(s.dir, DirPerm); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "snapshot-*.tar.gz")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hash := sha256.New()
	files, err := writeArchive(io.MultiWriter(tmp, hash), path, info)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to archive %q: %w", path, err)
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	created := s.now()
	id := created.Format("20060102-150405-") + shortID(sum, path)

	backupPath := filepath.Join(s.dir, id+".tar.gz")
	if err := os.Rename(tmp.Name(), backupPath); err != nil {
		return nil, fmt.Errorf("failed to store archive: %w", err)
	}
	if err := os.Chmod(backupPath, FilePerm); err != nil {
		return nil, fmt.Errorf("failed to store archive: %w", err)
	}
	stored, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to store archive: %w", err)
	}

	metadata := &Metadata{
		ID:         id,
		Entry:      entry,
		SourcePath: path,
		BackupPath: backupPath,
		Dir:        info.IsDir(),
		CreatedAt:  created,
		Hash:       sum,
		Size:       stored.Size(),
		Files:      files,
	}

	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	index.Backups[id] = *metadata
	if err := s.saveIndex(index); err != nil {
		return nil, fmt.Errorf("failed to add backup to index: %w", err)
	}

	logging.Debug("snapshot created",
		slog.String("id", id),
		logging.Path(path),
		logging.Count(files),
	)
	return metadata, nil
}

// shortID derives the suffix of a snapshot ID from the archive hash and
// the source path, so equal content from two paths gets distinct IDs.
func shortID(sum, path string) string {
	h := sha256.Sum256([]byte(sum + "\x00" + path))
	return hex.EncodeToString(h[:])[:8]
}

// Get returns the metadata for id.
func (s *Store) Get(id string) (Metadata, error) {
	index, err := s.loadIndex()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, ok := index.Backups[id]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return metadata, nil
}

// List returns all snapshots, newest first.
func (s *Store) List() ([]Metadata, error) {
	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	return index.List(), nil
}

// History returns the snapshots of sourcePath, newest first.
func (s *Store) History(sourcePath string) ([]Metadata, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var history []Metadata
	for _, b := range all {
		if b.SourcePath == sourcePath {
			history = append(history, b)
		}
	}
	return history, nil
}

// Verify checks that the archive for id exists and matches its hash.
func (s *Store) Verify(id string) error {
	metadata, err := s.Get(id)
	if err != nil {
		return err
	}
	return verifyFile(metadata)
}

func verifyFile(metadata Metadata) error {
	// #nosec G304 - BackupPath comes from the store index
	file, err := os.Open(metadata.BackupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	got := hex.EncodeToString(hash.Sum(nil))
	if got != metadata.Hash {
		return fmt.Errorf("%w: %s: hash mismatch (expected %s, got %s)", ErrCorrupted, metadata.ID, metadata.Hash, got)
	}
	return nil
}

// Restore unpacks the snapshot id onto target, or onto its original path
// when target is empty. Files in target that are not in the snapshot are
// left alone.
func (s *Store) Restore(id, target string) (*Metadata, error) {
	metadata, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := verifyFile(metadata); err != nil {
		return nil, err
	}
	if target == "" {
		target = metadata.SourcePath
	}

	// #nosec G304 - BackupPath comes from the store index
	file, err := os.Open(metadata.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	files, err := extractArchive(file, target, metadata.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", id, err)
	}

	logging.Info("snapshot restored",
		slog.String("id", id),
		logging.Path(target),
		logging.Count(files),
	)
	return &metadata, nil
}

// Delete removes the archive for id and drops it from the index.
func (s *Store) Delete(id string) error {
	index, err := s.loadIndex()
	if err != nil {
		return fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, ok := index.Backups[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	if err := os.Remove(metadata.BackupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}

	delete(index.Backups, id)
	if err := s.saveIndex(index); err != nil {
		return fmt.Errorf("failed to remove backup from index: %w", err)
	}
	return nil
}
