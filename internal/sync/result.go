package sync

import (
	"fmt"
	"strings"
)

// Action represents what happened to an entry during a run.
type Action string

const (
	// ActionSynced indicates the entry was mirrored.
	ActionSynced Action = "synced"

	// ActionPreviewed indicates a dry run reported the entry without copying.
	ActionPreviewed Action = "previewed"
)

// EntryResult is the outcome of one completed entry.
type EntryResult struct {
	Entry  Entry
	From   string
	To     string
	Action Action

	// BackupID names the snapshot taken of To before it was overwritten.
	BackupID string
}

// Result lists the entries a run completed, in order. On failure it holds
// the entries that finished before the failing one.
type Result struct {
	Direction Direction
	DryRun    bool
	Entries   []EntryResult
}

// Synced returns entries that were mirrored.
func (r *Result) Synced() []EntryResult {
	return r.filterByAction(ActionSynced)
}

// Previewed returns entries reported by a dry run.
func (r *Result) Previewed() []EntryResult {
	return r.filterByAction(ActionPreviewed)
}

func (r *Result) filterByAction(action Action) []EntryResult {
	var filtered []EntryResult
	for _, er := range r.Entries {
		if er.Action == action {
			filtered = append(filtered, er)
		}
	}
	return filtered
}

// TotalProcessed returns the number of completed entries.
func (r *Result) TotalProcessed() int {
	return len(r.Entries)
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no changes made\n")
	}
	sb.WriteString(fmt.Sprintf("Completed %s of %d entries\n", r.Direction, r.TotalProcessed()))
	for _, er := range r.Entries {
		sb.WriteString(fmt.Sprintf("  %-9s %s -> %s\n", er.Action, er.From, er.To))
	}
	return sb.String()
}
