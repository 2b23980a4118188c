package backup

import (
	"fmt"
	"time"
)

// PruneOptions configures snapshot cleanup.
type PruneOptions struct {
	// MaxBackups limits the number of snapshots kept per source path (0 = unlimited)
	MaxBackups int

	// MaxAge is the maximum age of snapshots to keep (0 = unlimited)
	MaxAge time.Duration

	// KeepAtLeastOne keeps the newest snapshot of every source path
	KeepAtLeastOne bool

	// DryRun reports what would be deleted without deleting
	DryRun bool
}

// DefaultPruneOptions returns the defaults used when settings are absent.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{
		MaxBackups:     10,
		MaxAge:         30 * 24 * time.Hour,
		KeepAtLeastOne: true,
	}
}

// Prune removes old snapshots and returns the IDs it removed (or would
// remove, in a dry run).
func (s *Store) Prune(opts PruneOptions) ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	// List is newest first, so each group is too.
	groups := make(map[string][]Metadata)
	var order []string
	for _, b := range all {
		if _, ok := groups[b.SourcePath]; !ok {
			order = append(order, b.SourcePath)
		}
		groups[b.SourcePath] = append(groups[b.SourcePath], b)
	}

	now := s.now()
	var toDelete []string
	for _, source := range order {
		for i, b := range groups[source] {
			expired := opts.MaxAge > 0 && now.Sub(b.CreatedAt) > opts.MaxAge
			overCount := opts.MaxBackups > 0 && i >= opts.MaxBackups
			if !expired && !overCount {
				continue
			}
			if i == 0 && opts.KeepAtLeastOne {
				continue
			}
			toDelete = append(toDelete, b.ID)
		}
	}

	if opts.DryRun {
		return toDelete, nil
	}

	var deleted []string
	for _, id := range toDelete {
		if err := s.Delete(id); err != nil {
			return deleted, fmt.Errorf("failed to delete backup %q: %w", id, err)
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// Stats summarizes a store.
type Stats struct {
	TotalBackups int
	TotalSize    int64
	Sources      int
	OldestBackup time.Time
	NewestBackup time.Time
}

// Stats returns statistics about the store.
func (s *Store) Stats() (*Stats, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalBackups: len(all)}
	sources := make(map[string]struct{})
	for _, b := range all {
		stats.TotalSize += b.Size
		sources[b.SourcePath] = struct{}{}
		if stats.OldestBackup.IsZero() || b.CreatedAt.Before(stats.OldestBackup) {
			stats.OldestBackup = b.CreatedAt
		}
		if b.CreatedAt.After(stats.NewestBackup) {
			stats.NewestBackup = b.CreatedAt
		}
	}
	stats.Sources = len(sources)
	return stats, nil
}
