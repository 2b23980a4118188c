package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/klauern/punto/internal/sync"
	"github.com/klauern/punto/internal/util"
)

// descriptorFile is the on-disk layout of a sync descriptor.
type descriptorFile struct {
	RepoBase    string      `yaml:"repo_base" toml:"repo_base"`
	SystemBase  string      `yaml:"system_base" toml:"system_base"`
	Directories []entryFile `yaml:"directories" toml:"directories"`
}

// UnmarshalYAML keeps a bare ~ in repo_base or system_base as the home
// directory marker. YAML reads it as null, which would otherwise decode to
// an empty string.
func (d *descriptorFile) UnmarshalYAML(node *yaml.Node) error {
	type plain descriptorFile
	if err := node.Decode((*plain)(d)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		value := node.Content[i+1]
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!null" || value.Value != "~" {
			continue
		}
		switch node.Content[i].Value {
		case "repo_base":
			d.RepoBase = "~"
		case "system_base":
			d.SystemBase = "~"
		}
	}
	return nil
}

// entryFile is one item of the directories list.
type entryFile struct {
	Name        string   `yaml:"name" toml:"name"`
	RepoPath    string   `yaml:"repo_path" toml:"repo_path"`
	SystemPath  string   `yaml:"system_path" toml:"system_path"`
	SyncType    string   `yaml:"sync_type" toml:"sync_type"`
	IgnoreFiles []string `yaml:"ignore_files" toml:"ignore_files"`
}

// UnmarshalYAML accepts both the flat form and the named form
//
//	- nvim:
//	    repo_path: nvim
//	    system_path: .config/nvim
func (e *entryFile) UnmarshalYAML(node *yaml.Node) error {
	type plain entryFile
	if node.Kind == yaml.MappingNode && len(node.Content) == 2 && node.Content[1].Kind == yaml.MappingNode {
		var p plain
		if err := node.Content[1].Decode(&p); err != nil {
			return err
		}
		*e = entryFile(p)
		if e.Name == "" {
			e.Name = node.Content[0].Value
		}
		return nil
	}
	return node.Decode((*plain)(e))
}

// LoadDescriptor reads a sync descriptor from a YAML or TOML file. Non-empty
// base paths in s replace the file's bases; s may be nil.
func LoadDescriptor(path string, s *Settings) (*sync.Descriptor, error) {
	data, p, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDescriptor(p, path, data, s)
}

// ParseDescriptor decodes data with p and validates the result. path is
// used in error messages only.
func ParseDescriptor(p Parser, path string, data []byte, s *Settings) (*sync.Descriptor, error) {
	var raw descriptorFile
	if err := p.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	if s != nil {
		if s.Paths.RepoBase != "" {
			raw.RepoBase = s.Paths.RepoBase
		}
		if s.Paths.SystemBase != "" {
			raw.SystemBase = s.Paths.SystemBase
		}
	}
	if raw.RepoBase == "" {
		return nil, &Error{Path: path, Field: "repo_base", Err: ErrMissingField}
	}
	if raw.SystemBase == "" {
		return nil, &Error{Path: path, Field: "system_base", Err: ErrMissingField}
	}

	entries := make([]sync.Entry, 0, len(raw.Directories))
	for i, d := range raw.Directories {
		field := fmt.Sprintf("directories[%d]", i)
		if d.RepoPath == "" {
			return nil, &Error{Path: path, Field: field + ".repo_path", Err: ErrMissingField}
		}
		if d.SystemPath == "" {
			return nil, &Error{Path: path, Field: field + ".system_path", Err: ErrMissingField}
		}
		typ, err := sync.ParseSyncType(d.SyncType)
		if err != nil {
			return nil, &Error{Path: path, Field: field + ".sync_type", Err: err}
		}
		entries = append(entries, sync.NewEntry(d.Name, d.RepoPath, d.SystemPath, typ, d.IgnoreFiles))
	}

	return sync.NewDescriptor(util.ExpandHome(raw.RepoBase), util.ExpandHome(raw.SystemBase), entries), nil
}
