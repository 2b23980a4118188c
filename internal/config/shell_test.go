package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/util"
)

const shellYAML = `
rust:
  description: Install the rust toolchain
  quiet: true
  commands:
    - rustup default stable
    - rustup component add clippy
paru:
  description: Build paru
  sudo: true
  commands:
    - pacman -S --needed base-devel
`

const shellTOML = `
[rust]
description = "Install the rust toolchain"
quiet = true
commands = ["rustup default stable", "rustup component add clippy"]

[paru]
description = "Build paru"
sudo = true
commands = ["pacman -S --needed base-devel"]
`

func TestParseShellBlocks(t *testing.T) {
	tests := map[string]struct {
		parser Parser
		data   string
	}{
		"yaml": {parser: YAMLParser{}, data: shellYAML},
		"toml": {parser: TOMLParser{}, data: shellTOML},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			blocks, err := ParseShellBlocks(tt.parser, "shell", []byte(tt.data))
			if err != nil {
				t.Fatalf("ParseShellBlocks() error = %v", err)
			}
			if len(blocks) != 2 {
				t.Fatalf("got %d blocks, want 2", len(blocks))
			}

			rust, paru := blocks[0], blocks[1]
			if rust.Name != "rust" || paru.Name != "paru" {
				t.Errorf("order = %q, %q, want rust then paru", rust.Name, paru.Name)
			}
			if rust.Description != "Install the rust toolchain" {
				t.Errorf("Description = %q", rust.Description)
			}
			if len(rust.Commands) != 2 || !rust.Commands[0].Quiet() || rust.Commands[0].Sudo() {
				t.Errorf("rust commands = %v", rust.Commands)
			}
			if got := paru.Commands[0].String(); got != "sudo pacman -S --needed base-devel" {
				t.Errorf("paru command = %q", got)
			}
		})
	}
}

func TestParseShellBlocks_Errors(t *testing.T) {
	tests := map[string]struct {
		data      string
		wantField string
		wantErr   error
	}{
		"sudo in command": {
			data:      "setup:\n  commands:\n    - echo ok\n    - sudo systemctl enable sshd\n",
			wantField: "setup.commands[1]",
			wantErr:   command.ErrSudoEmbedded,
		},
		"no commands": {
			data:      "setup:\n  description: nothing here\n",
			wantField: "setup.commands",
			wantErr:   ErrMissingField,
		},
		"blank command": {
			data:      "setup:\n  commands:\n    - \"  \"\n",
			wantField: "setup.commands[0]",
			wantErr:   command.ErrEmptyCommand,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseShellBlocks(YAMLParser{}, "shell.yaml", []byte(tt.data))
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ParseShellBlocks() error = %v, want *Error", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadShellBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.yml")
	util.WriteFile(t, path, shellYAML)

	blocks, err := LoadShellBlocks(path)
	if err != nil {
		t.Fatalf("LoadShellBlocks() error = %v", err)
	}
	var names []string
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	if strings.Join(names, ",") != "rust,paru" {
		t.Errorf("blocks = %v", names)
	}
}
