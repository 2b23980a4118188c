package config

import (
	"fmt"

	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/shell"
)

// blockFile is one named block of a shell file.
type blockFile struct {
	Description string   `yaml:"description" toml:"description"`
	Quiet       bool     `yaml:"quiet" toml:"quiet"`
	Sudo        bool     `yaml:"sudo" toml:"sudo"`
	Commands    []string `yaml:"commands" toml:"commands"`
}

// LoadShellBlocks reads a shell file: a map of block name to block, run in
// document order. Commands that start with sudo are rejected here.
func LoadShellBlocks(path string) ([]shell.Block, error) {
	data, p, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseShellBlocks(p, path, data)
}

// ParseShellBlocks decodes a shell file with p.
func ParseShellBlocks(p Parser, path string, data []byte) ([]shell.Block, error) {
	var raw map[string]blockFile
	if err := p.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	keys, err := p.Keys(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	blocks := make([]shell.Block, 0, len(keys))
	for _, name := range keys {
		b := raw[name]
		if len(b.Commands) == 0 {
			return nil, &Error{Path: path, Field: name + ".commands", Err: ErrMissingField}
		}

		block := shell.Block{Name: name, Description: b.Description}
		for i, line := range b.Commands {
			cmd, err := command.New(line, b.Quiet, b.Sudo)
			if err != nil {
				return nil, &Error{Path: path, Field: fmt.Sprintf("%s.commands[%d]", name, i), Err: err}
			}
			block.Commands = append(block.Commands, cmd)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
