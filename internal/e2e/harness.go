// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running punto commands, repository and system
// tree fixtures, and an isolated home directory per test.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/punto/internal/cli"
	"github.com/klauern/punto/internal/util"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Stderr contains the captured standard error.
	Stderr string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness runs punto against an isolated home, a repository tree and a
// system tree.
type Harness struct {
	t       *testing.T
	homeDir string
	repo    *Fixture
	system  *Fixture
}

// NewHarness creates a harness. PUNTO_HOME points inside the test home so
// settings and backups never touch the real config dir, and colors are off
// so output can be matched as plain text.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()
	h := &Harness{
		t:       t,
		homeDir: homeDir,
		repo:    NewFixture(t, filepath.Join(homeDir, "dotfiles")),
		system:  NewFixture(t, filepath.Join(homeDir, "system")),
	}

	t.Setenv("PUNTO_HOME", filepath.Join(homeDir, ".config", "punto"))
	t.Setenv("PUNTO_OUTPUT_COLOR", "never")
	t.Setenv("PUNTO_MIRROR_QUIET", "true")

	return h
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Repo returns the repository tree fixture.
func (h *Harness) Repo() *Fixture {
	return h.repo
}

// System returns the live system tree fixture.
func (h *Harness) System() *Fixture {
	return h.system
}

// Run executes a CLI command with the given arguments and captures stdout
// and stderr. Both pipes are drained while the command runs so large
// outputs cannot block it.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "punto" {
		args = append([]string{"punto"}, args...)
	}

	oldStdout, oldStderr := os.Stdout, os.Stderr
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stderr pipe: %v", err)
	}
	os.Stdout, os.Stderr = stdoutW, stderrW

	var stdoutBuf, stderrBuf bytes.Buffer
	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(&stdoutBuf, stdoutR)
		done <- err
	}()
	go func() {
		_, err := io.Copy(&stderrBuf, stderrR)
		done <- err
	}()

	cmdErr := cli.Run(context.Background(), args)

	closeErr := stdoutW.Close()
	if err := stderrW.Close(); closeErr == nil {
		closeErr = err
	}
	os.Stdout, os.Stderr = oldStdout, oldStderr
	if closeErr != nil {
		h.t.Fatalf("failed to close pipe writer: %v", closeErr)
	}

	for range 2 {
		if err := <-done; err != nil {
			h.t.Fatalf("failed to read captured output: %v", err)
		}
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

// RequireRsync skips the test unless an rsync with --mkpath is installed.
func RequireRsync(t *testing.T) {
	t.Helper()
	util.RequireBinary(t, "rsync")
	out, _ := exec.Command("rsync", "--help").CombinedOutput()
	if !strings.Contains(string(out), "--mkpath") {
		t.Skip("rsync does not support --mkpath")
	}
}
