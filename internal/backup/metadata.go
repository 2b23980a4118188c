package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Metadata describes a single snapshot.
type Metadata struct {
	ID         string    `json:"id"`              // Timestamp-based identifier
	Entry      string    `json:"entry,omitempty"` // Descriptor entry that triggered the snapshot
	SourcePath string    `json:"source_path"`     // Path that was archived
	BackupPath string    `json:"backup_path"`     // Path to the .tar.gz archive
	Dir        bool      `json:"dir"`             // SourcePath was a directory
	CreatedAt  time.Time `json:"created_at"`
	Hash       string    `json:"hash"` // SHA256 of the archive file
	Size       int64     `json:"size"` // Archive size in bytes
	Files      int       `json:"files"`
}

// Index records every snapshot in a store.
type Index struct {
	Version string              `json:"version"`
	Updated time.Time           `json:"updated"`
	Backups map[string]Metadata `json:"backups"` // Key: backup ID
}

const (
	// IndexVersion is the current version of the index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file inside the store
	IndexFilename = "index.json"
)

// List returns all snapshots, newest first.
func (idx *Index) List() []Metadata {
	backups := make([]Metadata, 0, len(idx.Backups))
	for _, b := range idx.Backups {
		backups = append(backups, b)
	}
	sortNewestFirst(backups)
	return backups
}

func sortNewestFirst(backups []Metadata) {
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].ID > backups[j].ID
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, IndexFilename)
}

// loadIndex reads the index, returning an empty one if none exists yet.
func (s *Store) loadIndex() (*Index, error) {
	// #nosec G304 - the index path is derived from the store directory
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return &Index{
			Version: IndexVersion,
			Updated: s.now(),
			Backups: make(map[string]Metadata),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if idx.Backups == nil {
		idx.Backups = make(map[string]Metadata)
	}
	return &idx, nil
}

// saveIndex writes the index back to the store.
func (s *Store) saveIndex(idx *Index) error {
	if err := os.MkdirAll(s.dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	idx.Updated = s.now()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	// #nosec G306 - index.json is metadata and can be group-readable
	if err := os.WriteFile(s.indexPath(), data, FilePerm); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}
