// Package shell runs named blocks of commands from a shell file.
package shell

import (
	"context"
	"fmt"

	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/logging"
)

// Block is a named sequence of commands run in order.
type Block struct {
	Name        string
	Description string
	Commands    []*command.Command
}

// Title returns the description, or the name when there is none.
func (b *Block) Title() string {
	if b.Description != "" {
		return b.Description
	}
	return b.Name
}

// Execute runs the block's commands in order and stops at the first failure.
func (b *Block) Execute(ctx context.Context, exec command.Executor) error {
	if exec == nil {
		exec = command.Default
	}
	for i, cmd := range b.Commands {
		logging.FromContext(ctx).Debug("running shell command",
			logging.Entry(b.Name),
			logging.Command(cmd.String()),
		)
		if err := exec.Execute(ctx, cmd); err != nil {
			return fmt.Errorf("command %d of %d: %w", i+1, len(b.Commands), err)
		}
	}
	return nil
}

// RunBlocks executes blocks in order and stops at the first failing block.
// announce, when set, is called before each block starts.
func RunBlocks(ctx context.Context, exec command.Executor, blocks []Block, announce func(*Block)) error {
	defer logging.Timer("shell")()

	for i := range blocks {
		b := &blocks[i]
		if announce != nil {
			announce(b)
		}
		if err := b.Execute(ctx, exec); err != nil {
			return fmt.Errorf("shell block %q: %w", b.Name, err)
		}
	}
	return nil
}
