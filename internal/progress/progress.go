// Package progress shows a bar while a command walks the entries of a
// descriptor. Nothing is drawn unless stderr is a colored terminal.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/ui"
)

// Tracker counts entries as they are processed.
type Tracker struct {
	bar   *progressbar.ProgressBar
	op    string
	total int
	done  int
	label string
}

// Entries returns a Tracker for total entries on stderr, labeled op.
func Entries(op string, total int) *Tracker {
	return NewTracker(os.Stderr, op, total)
}

// NewTracker returns a Tracker that draws to w. The bar is skipped when w is
// not a terminal, colors are off, or debug logging would interleave with it.
func NewTracker(w io.Writer, op string, total int) *Tracker {
	t := &Tracker{op: op, total: total}
	if !interactive(w) {
		logging.Debug(op+" started", logging.Count(total))
		return t
	}

	t.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(op),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(w, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
	)
	return t
}

// Start labels the bar with the entry about to be processed.
func (t *Tracker) Start(entry string) {
	t.label = fmt.Sprintf("%s [%d/%d] %s", t.op, t.done+1, t.total, entry)
	if t.bar != nil {
		t.bar.Describe(t.label)
	}
}

// Done marks the current entry finished.
func (t *Tracker) Done() {
	t.done++
	if t.bar != nil {
		_ = t.bar.Add(1)
	}
}

// Finish closes the bar. It is safe to call after an early stop.
func (t *Tracker) Finish() {
	if t.bar == nil {
		logging.Debug(t.op+" finished", logging.Count(t.done))
		return
	}
	_ = t.bar.Finish()
}

// Label returns the description set by the last Start.
func (t *Tracker) Label() string {
	return t.label
}

// Completed returns how many entries were marked Done.
func (t *Tracker) Completed() int {
	return t.done
}

func interactive(w io.Writer) bool {
	if !ui.IsColorEnabled() {
		return false
	}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return !logging.Default().Enabled(context.Background(), logging.LevelDebug)
}
