// Package command runs external programs. Every side effect punto has
// outside its own process (rsync, package managers, shell blocks) goes
// through Command.Run, so the failure classification here is what every
// higher layer reports.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/klauern/punto/internal/logging"
)

const sudo = "sudo"

// Command is a single external program invocation.
type Command struct {
	argv  []string
	quiet bool
	sudo  bool
}

// New builds a Command from a command line. The line is trimmed and split on
// whitespace. A line starting with "sudo" is rejected with ErrSudoEmbedded
// whatever the value of useSudo; elevation is only expressed through useSudo.
func New(line string, quiet, useSudo bool) (*Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, ErrEmptyCommand
	}
	if strings.HasPrefix(trimmed, sudo) {
		return nil, fmt.Errorf("%w: %q", ErrSudoEmbedded, trimmed)
	}
	return &Command{argv: strings.Fields(trimmed), quiet: quiet, sudo: useSudo}, nil
}

// NewArgs builds a Command from an already split argument vector. It applies
// the same validation as New to argv[0] and keeps every other argument
// verbatim, so paths containing spaces survive.
func NewArgs(argv []string, quiet, useSudo bool) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, ErrEmptyCommand
	}
	if strings.HasPrefix(strings.TrimSpace(argv[0]), sudo) {
		return nil, fmt.Errorf("%w: %q", ErrSudoEmbedded, strings.Join(argv, " "))
	}
	return &Command{argv: append([]string(nil), argv...), quiet: quiet, sudo: useSudo}, nil
}

// Args returns the argument vector that Run executes, with sudo prepended
// when elevation was requested.
func (c *Command) Args() []string {
	args := make([]string, 0, len(c.argv)+1)
	if c.sudo {
		args = append(args, sudo)
	}
	return append(args, c.argv...)
}

// Quiet reports whether the command's standard output is discarded.
func (c *Command) Quiet() bool { return c.quiet }

// Sudo reports whether the command runs under sudo.
func (c *Command) Sudo() bool { return c.sudo }

// String returns the command line as it will be run.
func (c *Command) String() string {
	return strings.Join(c.Args(), " ")
}

// Streams are the standard streams and environment handed to the child.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env is passed to the child as is. A nil Env makes os/exec inherit
	// the current environment implicitly; DefaultStreams sets it explicitly.
	Env []string
}

// DefaultStreams connects the child to this process: stdin is inherited so
// sudo can prompt for a password, and the environment is copied through
// unmodified.
func DefaultStreams() Streams {
	return Streams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Env:    os.Environ(),
	}
}

// Run executes the command connected to this process's streams and waits for
// it to finish. It returns nil only when the program exits with status 0;
// otherwise the error is a *Error.
func (c *Command) Run(ctx context.Context) error {
	return c.RunWith(ctx, DefaultStreams())
}

// RunWith executes the command with the given streams. Standard output is
// discarded when the command is quiet.
func (c *Command) RunWith(ctx context.Context, s Streams) error {
	argv := c.Args()
	line := c.String()
	logger := logging.FromContext(ctx)

	logger.Debug("running command",
		logging.Command(line),
		slog.Bool("quiet", c.quiet),
	)

	if c.sudo && !isTerminal(s.Stdin) {
		logger.Warn("stdin is not a terminal; sudo may be unable to prompt for a password",
			logging.Command(line),
		)
	}

	// #nosec G204 - argv comes from the user's own configuration files
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = s.Stdin
	cmd.Stderr = s.Stderr
	if !c.quiet {
		cmd.Stdout = s.Stdout
	}
	cmd.Env = s.Env

	if err := cmd.Start(); err != nil {
		return &Error{Kind: KindSpawnFailure, Command: line, ExitCode: -1, Err: err}
	}

	waitErr := cmd.Wait()
	if err := classify(line, cmd.ProcessState, waitErr); err != nil {
		logger.Debug("command failed", logging.Command(line), logging.Err(err))
		return err
	}
	return nil
}

// classify maps the final process state onto the failure kinds. An exit
// status of 0 is success even if copying the child's output failed.
func classify(line string, state *os.ProcessState, waitErr error) error {
	if state == nil || !state.Exited() {
		return &Error{Kind: KindSignalTermination, Command: line, ExitCode: -1, Err: waitErr}
	}
	if code := state.ExitCode(); code != 0 {
		return &Error{Kind: KindNonZeroExit, Command: line, ExitCode: code, Err: waitErr}
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

// Executor runs commands. Packages that shell out accept an Executor so that
// tests can observe invocations without spawning processes.
type Executor interface {
	Execute(ctx context.Context, cmd *Command) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd *Command) error

// Execute calls f(ctx, cmd).
func (f ExecutorFunc) Execute(ctx context.Context, cmd *Command) error {
	return f(ctx, cmd)
}

// Default runs commands against the real process streams.
var Default Executor = ExecutorFunc(func(ctx context.Context, cmd *Command) error {
	return cmd.Run(ctx)
})
