package command

import (
	"context"
	"sync"
)

// Recorder is an Executor that records commands instead of running them.
// Fail, when set, decides the error returned for each command.
type Recorder struct {
	mu       sync.Mutex
	commands []*Command
	Fail     func(cmd *Command) error
}

// Execute records cmd and returns the result of Fail, if any.
func (r *Recorder) Execute(_ context.Context, cmd *Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail(cmd)
	}
	return nil
}

// Commands returns the recorded commands in call order.
func (r *Recorder) Commands() []*Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Command(nil), r.commands...)
}

// Lines returns the recorded command lines in call order.
func (r *Recorder) Lines() []string {
	cmds := r.Commands()
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		lines = append(lines, c.String())
	}
	return lines
}
