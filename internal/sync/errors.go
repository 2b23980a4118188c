package sync

import "fmt"

// SyncError identifies the entry that stopped a run. Err is usually a
// *mirror.IOError.
type SyncError struct {
	// Index is the zero-based position of the entry in the descriptor.
	Index     int
	Entry     Entry
	Direction Direction
	Err       error
}

// Error returns a message naming the failing entry.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s failed at entry %d (%s): %v", e.Direction, e.Index+1, e.Entry, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SyncError) Unwrap() error {
	return e.Err
}
