package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/klauern/punto/internal/backup"
	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/mirror"
)

// Mirrorer copies one entry. *mirror.Mirror implements it.
type Mirrorer interface {
	SyncFile(from, to string) error
	SyncDir(ctx context.Context, from, to string, ignore []string, opts mirror.DirOptions) error
}

// Snapshotter saves a destination before it is overwritten.
// *backup.Store implements it.
type Snapshotter interface {
	Snapshot(path, entry string) (*backup.Metadata, error)
}

// EventType identifies a progress event.
type EventType string

const (
	// EventEntryStart is emitted before an entry is mirrored.
	EventEntryStart EventType = "entry_start"
	// EventEntryComplete is emitted after an entry is mirrored.
	EventEntryComplete EventType = "entry_complete"
	// EventEntryFailed is emitted when an entry fails.
	EventEntryFailed EventType = "entry_failed"
)

// Event reports progress through a run.
type Event struct {
	Type  EventType
	Index int
	Total int
	Entry Entry
	From  string
	To    string
	Err   error

	// BackupID names the snapshot taken of To, if any.
	BackupID string
}

// Options configures a run.
type Options struct {
	// Delete removes destination files absent from the source in dir
	// entries. Ignore patterns never delete.
	Delete bool

	// DryRun previews the run. File entries are only reported; dir entries
	// ask the mirroring tool for a dry run.
	DryRun bool

	// Backup, when set, snapshots each existing destination before it is
	// mirrored onto. Dry runs take no snapshots.
	Backup Snapshotter

	// OnEntry, when set, receives progress events.
	OnEntry func(Event)
}

// Syncer runs a descriptor's entries in a direction.
type Syncer struct {
	desc   *Descriptor
	mirror Mirrorer
	opts   Options
}

// New creates a Syncer. A nil m uses mirror.New(nil).
func New(desc *Descriptor, m Mirrorer, opts Options) *Syncer {
	if m == nil {
		m = mirror.New(nil)
	}
	return &Syncer{desc: desc, mirror: m, opts: opts}
}

// Download mirrors every entry from the repository tree to the system tree.
func (s *Syncer) Download(ctx context.Context) (*Result, error) {
	return s.run(ctx, Download)
}

// Upload mirrors every entry from the system tree to the repository tree.
func (s *Syncer) Upload(ctx context.Context) (*Result, error) {
	return s.run(ctx, Upload)
}

// run processes entries in order and stops at the first failure.
func (s *Syncer) run(ctx context.Context, dir Direction) (*Result, error) {
	defer logging.Timer(dir.String())()

	log := logging.FromContext(ctx)
	result := &Result{Direction: dir, DryRun: s.opts.DryRun}
	total := s.desc.Len()

	log.Debug("starting sync",
		logging.Direction(dir.String()),
		logging.Count(total),
		slog.Bool("dry_run", s.opts.DryRun),
	)

	for i, e := range s.desc.entries {
		if err := ctx.Err(); err != nil {
			return result, &SyncError{Index: i, Entry: e, Direction: dir, Err: err}
		}

		from, to := s.desc.Paths(e, dir)
		s.emit(Event{Type: EventEntryStart, Index: i, Total: total, Entry: e, From: from, To: to})

		er, err := s.syncEntry(ctx, e, from, to)
		if err != nil {
			log.Error("entry failed",
				logging.Entry(e.String()),
				logging.Direction(dir.String()),
				logging.Err(err),
			)
			s.emit(Event{Type: EventEntryFailed, Index: i, Total: total, Entry: e, From: from, To: to, Err: err})
			return result, &SyncError{Index: i, Entry: e, Direction: dir, Err: err}
		}

		result.Entries = append(result.Entries, er)
		s.emit(Event{Type: EventEntryComplete, Index: i, Total: total, Entry: e, From: from, To: to, BackupID: er.BackupID})
	}

	return result, nil
}

func (s *Syncer) syncEntry(ctx context.Context, e Entry, from, to string) (EntryResult, error) {
	er := EntryResult{Entry: e, From: from, To: to}

	id, err := s.snapshot(ctx, e, to)
	if err != nil {
		return er, err
	}
	er.BackupID = id

	er.Action, err = s.mirrorEntry(ctx, e, from, to)
	return er, err
}

func (s *Syncer) mirrorEntry(ctx context.Context, e Entry, from, to string) (Action, error) {
	if !e.typ.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSyncType, e.typ)
	}
	if e.typ == SyncDir {
		opts := mirror.DirOptions{Delete: s.opts.Delete, DryRun: s.opts.DryRun}
		if err := s.mirror.SyncDir(ctx, from, to, e.ignore, opts); err != nil {
			return "", err
		}
		if s.opts.DryRun {
			return ActionPreviewed, nil
		}
		return ActionSynced, nil
	}

	if s.opts.DryRun {
		logging.FromContext(ctx).Info("would sync file", logging.From(from), logging.To(to))
		return ActionPreviewed, nil
	}
	if err := s.mirror.SyncFile(from, to); err != nil {
		return "", err
	}
	return ActionSynced, nil
}

// snapshot backs up to when a Snapshotter is set. A destination that does
// not exist yet has nothing to back up.
func (s *Syncer) snapshot(ctx context.Context, e Entry, to string) (string, error) {
	if s.opts.Backup == nil || s.opts.DryRun {
		return "", nil
	}

	metadata, err := s.opts.Backup.Snapshot(to, e.name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", to, err)
	}

	logging.FromContext(ctx).Info("destination backed up",
		logging.Path(to),
		slog.String("backup_id", metadata.ID),
	)
	return metadata.ID, nil
}

func (s *Syncer) emit(ev Event) {
	if s.opts.OnEntry != nil {
		s.opts.OnEntry(ev)
	}
}
