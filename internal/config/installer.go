package config

import (
	"github.com/klauern/punto/internal/command"
	"github.com/klauern/punto/internal/install"
)

// sectionFile is one named section of an installer file.
type sectionFile struct {
	InstallCommand string   `yaml:"install_command" toml:"install_command"`
	Sudo           bool     `yaml:"sudo" toml:"sudo"`
	Packages       []string `yaml:"packages" toml:"packages"`
}

// LoadInstallSections reads an installer file: a map of section name to
// section, installed in document order.
func LoadInstallSections(path string) ([]install.Section, error) {
	data, p, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseInstallSections(p, path, data)
}

// ParseInstallSections decodes an installer file with p.
func ParseInstallSections(p Parser, path string, data []byte) ([]install.Section, error) {
	var raw map[string]sectionFile
	if err := p.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	keys, err := p.Keys(data)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	sections := make([]install.Section, 0, len(keys))
	for _, name := range keys {
		s := raw[name]
		if s.InstallCommand == "" {
			return nil, &Error{Path: path, Field: name + ".install_command", Err: ErrMissingField}
		}
		// The package name is appended later; validate the command part now.
		if _, err := command.New(s.InstallCommand, false, s.Sudo); err != nil {
			return nil, &Error{Path: path, Field: name + ".install_command", Err: err}
		}
		sections = append(sections, install.Section{
			Name:           name,
			InstallCommand: s.InstallCommand,
			Sudo:           s.Sudo,
			Packages:       s.Packages,
		})
	}
	return sections, nil
}
