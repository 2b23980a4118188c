package sync

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/punto/internal/mirror"
	"github.com/klauern/punto/internal/util"
)

// fakeMirror records calls and fails on sources listed in failOn.
type fakeMirror struct {
	calls  []string
	opts   []mirror.DirOptions
	failOn map[string]error
}

func (f *fakeMirror) SyncFile(from, to string) error {
	f.calls = append(f.calls, "file "+from+" "+to)
	return f.failOn[from]
}

func (f *fakeMirror) SyncDir(_ context.Context, from, to string, ignore []string, opts mirror.DirOptions) error {
	f.calls = append(f.calls, "dir "+from+" "+to+" ["+strings.Join(ignore, ",")+"]")
	f.opts = append(f.opts, opts)
	return f.failOn[from]
}

func testDescriptor() *Descriptor {
	return NewDescriptor("/r", "/s", []Entry{
		NewEntry("bash", "bashrc", ".bashrc", SyncFile, nil),
		NewEntry("nvim", "nvim/", ".config/nvim/", SyncDir, []string{"plugin"}),
	})
}

func TestSyncer_Directions(t *testing.T) {
	tests := map[string]struct {
		run  func(*Syncer, context.Context) (*Result, error)
		want []string
	}{
		"download": {
			run: (*Syncer).Download,
			want: []string{
				"file /r/bashrc /s/.bashrc",
				"dir /r/nvim/ /s/.config/nvim/ [plugin]",
			},
		},
		"upload": {
			run: (*Syncer).Upload,
			want: []string{
				"file /s/.bashrc /r/bashrc",
				"dir /s/.config/nvim/ /r/nvim/ [plugin]",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fm := &fakeMirror{}
			result, err := tt.run(New(testDescriptor(), fm, Options{}), context.Background())
			if err != nil {
				t.Fatalf("run error = %v", err)
			}
			if strings.Join(fm.calls, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("calls =\n%s\nwant\n%s", strings.Join(fm.calls, "\n"), strings.Join(tt.want, "\n"))
			}
			if len(result.Synced()) != 2 {
				t.Errorf("Synced() = %d entries, want 2", len(result.Synced()))
			}
		})
	}
}

func TestSyncer_FailFast(t *testing.T) {
	cause := errors.New("boom")
	fm := &fakeMirror{failOn: map[string]error{"/r/bashrc": cause}}

	result, err := New(testDescriptor(), fm, Options{}).Download(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("Download() error = %v, want *SyncError", err)
	}
	if syncErr.Index != 0 || syncErr.Entry.Name() != "bash" || syncErr.Direction != Download {
		t.Errorf("SyncError = %+v", syncErr)
	}
	if !errors.Is(err, cause) {
		t.Error("SyncError does not wrap the mirror error")
	}
	if len(fm.calls) != 1 {
		t.Errorf("mirror called %d times, want 1", len(fm.calls))
	}
	if result.TotalProcessed() != 0 {
		t.Errorf("TotalProcessed() = %d, want 0", result.TotalProcessed())
	}
}

func TestSyncer_UnknownSyncType(t *testing.T) {
	desc := NewDescriptor("/r", "/s", []Entry{
		NewEntry("vim", "vimrc", ".vimrc", SyncType("link"), nil),
	})
	fm := &fakeMirror{}

	_, err := New(desc, fm, Options{}).Download(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) || !errors.Is(err, ErrUnknownSyncType) {
		t.Fatalf("Download() error = %v, want *SyncError wrapping ErrUnknownSyncType", err)
	}
	if len(fm.calls) != 0 {
		t.Errorf("mirror called for an unknown type: %q", fm.calls)
	}
}

func TestSyncer_Options(t *testing.T) {
	fm := &fakeMirror{}
	var events []EventType
	opts := Options{
		Delete:  true,
		DryRun:  true,
		OnEntry: func(ev Event) { events = append(events, ev.Type) },
	}

	result, err := New(testDescriptor(), fm, opts).Download(context.Background())
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	// Dry-run file entries never reach the mirror.
	if len(fm.calls) != 1 || !strings.HasPrefix(fm.calls[0], "dir ") {
		t.Errorf("calls = %q, want only the dir entry", fm.calls)
	}
	if fm.opts[0] != (mirror.DirOptions{Delete: true, DryRun: true}) {
		t.Errorf("DirOptions = %+v", fm.opts[0])
	}
	if len(result.Previewed()) != 2 || !result.DryRun {
		t.Errorf("result = %+v, want two previewed entries", result)
	}

	want := []EventType{EventEntryStart, EventEntryComplete, EventEntryStart, EventEntryComplete}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, events[i], want[i])
		}
	}
}

func TestSyncer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fm := &fakeMirror{}
	_, err := New(testDescriptor(), fm, Options{}).Upload(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Upload() error = %v, want context.Canceled", err)
	}
	if len(fm.calls) != 0 {
		t.Errorf("mirror called %d times after cancel", len(fm.calls))
	}
}

func TestDownload_DirWithIgnore(t *testing.T) {
	util.RequireBinary(t, "rsync")
	if out, _ := exec.Command("rsync", "--help").CombinedOutput(); !strings.Contains(string(out), "--mkpath") {
		t.Skip("rsync does not support --mkpath")
	}

	root := t.TempDir()
	r, s := filepath.Join(root, "R"), filepath.Join(root, "S")
	util.WriteFile(t, filepath.Join(r, "src", "a.txt"), "a")
	util.WriteFile(t, filepath.Join(r, "src", "skip.txt"), "skip")

	desc := NewDescriptor(r, s, []Entry{
		NewEntry("", "src", "dst", SyncDir, []string{"skip.txt"}),
	})
	if _, err := New(desc, mirror.New(nil, mirror.WithQuiet(true)), Options{}).Download(context.Background()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	util.AssertExists(t, filepath.Join(s, "dst", "a.txt"))
	util.AssertNotExists(t, filepath.Join(s, "dst", "skip.txt"))
}

func TestDownload_FailFastOnMissingSource(t *testing.T) {
	root := t.TempDir()
	r, s := filepath.Join(root, "R"), filepath.Join(root, "S")
	util.WriteFile(t, filepath.Join(r, "second"), "2")

	desc := NewDescriptor(r, s, []Entry{
		NewEntry("", "missing", "one/first", SyncFile, nil),
		NewEntry("", "second", "two/second", SyncFile, nil),
	})
	_, err := New(desc, nil, Options{}).Download(context.Background())

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("Download() error = %v, want *SyncError", err)
	}
	if syncErr.Index != 0 || syncErr.Entry.RepoPath() != "missing" {
		t.Errorf("failing entry = %d %s, want entry 0 (missing)", syncErr.Index, syncErr.Entry)
	}
	if !strings.Contains(err.Error(), "entry 1") {
		t.Errorf("error %q does not name entry 1", err)
	}
	var ioErr *mirror.IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error chain = %v, want *mirror.IOError wrapping fs.ErrNotExist", err)
	}
	util.AssertNotExists(t, filepath.Join(s, "two"))
}

func TestDownloadUpload_RoundTrip(t *testing.T) {
	root := t.TempDir()
	r, s := filepath.Join(root, "R"), filepath.Join(root, "S")
	files := map[string]string{
		"bashrc":        "export EDITOR=vim\n",
		"git/config":    "[user]\n\tname = me\n",
		"starship.toml": "add_newline = false\n",
	}
	entries := []Entry{
		NewEntry("bash", "bashrc", ".bashrc", SyncFile, nil),
		NewEntry("git", "/git/config", "./.config/git/config", SyncFile, nil),
		NewEntry("starship", "starship.toml", ".config/starship.toml", SyncFile, nil),
	}
	for name, content := range files {
		util.WriteFile(t, filepath.Join(r, name), content)
	}

	syncer := New(NewDescriptor(r, s, entries), nil, Options{})
	if _, err := syncer.Download(context.Background()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if _, err := syncer.Upload(context.Background()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	for name, content := range files {
		util.AssertEqual(t, util.ReadFile(t, filepath.Join(r, name)), content)
	}
	util.AssertEqual(t, util.ReadFile(t, filepath.Join(s, ".config", "git", "config")), files["git/config"])
}

func TestResultSummary(t *testing.T) {
	result := &Result{
		Direction: Upload,
		DryRun:    true,
		Entries: []EntryResult{
			{Entry: NewEntry("", "a", "b", SyncFile, nil), From: "/s/b", To: "/r/a", Action: ActionPreviewed},
		},
	}

	summary := result.Summary()
	for _, want := range []string{"Dry run", "Completed upload of 1 entries", "/s/b -> /r/a"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() = %q, missing %q", summary, want)
		}
	}
}
