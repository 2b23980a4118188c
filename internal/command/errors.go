package command

import (
	"errors"
	"fmt"
)

// Construction errors. A command that fails validation is never run.
var (
	// ErrSudoEmbedded is returned when the command string itself starts with
	// sudo. Privilege elevation is requested with the useSudo flag instead.
	ErrSudoEmbedded = errors.New("command must not start with sudo; set the sudo flag instead")

	// ErrEmptyCommand is returned for a blank command string.
	ErrEmptyCommand = errors.New("command is empty")
)

// Kind classifies why a command did not succeed.
type Kind int

const (
	// KindSpawnFailure means the process could not be started at all
	// (missing binary, permission denied).
	KindSpawnFailure Kind = iota + 1
	// KindSignalTermination means the process ended without a normal exit
	// status, usually because it was killed by a signal.
	KindSignalTermination
	// KindNonZeroExit means the process exited with a status other than 0.
	KindNonZeroExit
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSpawnFailure:
		return "spawn failure"
	case KindSignalTermination:
		return "signal termination"
	case KindNonZeroExit:
		return "non-zero exit"
	default:
		return "unknown"
	}
}

// Error is returned by Run when the command does not exit with status 0.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Command is the full command line that was run, including sudo.
	Command string
	// ExitCode is the exit status for KindNonZeroExit and -1 otherwise.
	ExitCode int
	// Err is the underlying error from os/exec, if any.
	Err error
}

// Error returns a formatted message naming the command.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNonZeroExit:
		return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
	case KindSpawnFailure:
		return fmt.Sprintf("command %q could not be started: %v", e.Command, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("command %q terminated abnormally: %v", e.Command, e.Err)
		}
		return fmt.Sprintf("command %q terminated abnormally", e.Command)
	}
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err wraps a command Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind == kind
	}
	return false
}

// ExitCode returns the exit status carried by err, and false when err is not
// a non-zero exit.
func ExitCode(err error) (int, bool) {
	var cmdErr *Error
	if errors.As(err, &cmdErr) && cmdErr.Kind == KindNonZeroExit {
		return cmdErr.ExitCode, true
	}
	return 0, false
}
