// Package install installs package lists section by section. A failing
// package does not stop the rest of its section.
package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/logging"
)

// ErrUnknownSection is returned by Select when no section has the name.
var ErrUnknownSection = errors.New("unknown installer section")

// Section is one package manager invocation applied to each package.
type Section struct {
	Name           string
	InstallCommand string
	Sudo           bool
	Packages       []string
}

// Failed lists the packages of one section that did not install.
type Failed struct {
	Section  string
	Packages []string
	Errors   []error
}

// Empty returns true if nothing failed.
func (f Failed) Empty() bool {
	return len(f.Packages) == 0
}

// Command builds the command that installs pkg.
func (s *Section) Command(pkg string) (*command.Command, error) {
	return command.New(s.InstallCommand+" "+pkg, false, s.Sudo)
}

// Install installs every package in order, recording failures instead of
// stopping. report, when set, is called after each package.
func (s *Section) Install(ctx context.Context, exec command.Executor, report func(pkg string, err error)) Failed {
	if exec == nil {
		exec = command.Default
	}
	failed := Failed{Section: s.Name}

	for _, pkg := range s.Packages {
		err := s.install(ctx, exec, pkg)
		if err != nil {
			logging.FromContext(ctx).Warn("package failed to install",
				logging.Entry(s.Name),
				slog.String("package", pkg),
				logging.Err(err),
			)
			failed.Packages = append(failed.Packages, pkg)
			failed.Errors = append(failed.Errors, err)
		}
		if report != nil {
			report(pkg, err)
		}
	}
	return failed
}

func (s *Section) install(ctx context.Context, exec command.Executor, pkg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd, err := s.Command(pkg)
	if err != nil {
		return err
	}
	return exec.Execute(ctx, cmd)
}

// InstallAll installs every section in order and returns the sections that
// had failures.
func InstallAll(ctx context.Context, exec command.Executor, sections []Section, report func(section, pkg string, err error)) []Failed {
	defer logging.Timer("install")()

	var failures []Failed
	for i := range sections {
		s := &sections[i]
		var fn func(string, error)
		if report != nil {
			fn = func(pkg string, err error) { report(s.Name, pkg, err) }
		}
		if f := s.Install(ctx, exec, fn); !f.Empty() {
			failures = append(failures, f)
		}
	}
	return failures
}

// Select returns the section with the given name.
func Select(sections []Section, name string) (Section, error) {
	for _, s := range sections {
		if s.Name == name {
			return s, nil
		}
	}
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	return Section{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownSection, name, strings.Join(names, ", "))
}

// TotalPackages counts the packages across sections.
func TotalPackages(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Packages)
	}
	return n
}
