package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Parser decodes one configuration format.
type Parser interface {
	// Name returns the format name.
	Name() string
	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
	// Keys returns the top-level keys of data in document order.
	Keys(data []byte) ([]string, error)
}

// YAMLParser decodes YAML files.
type YAMLParser struct{}

// Name returns "yaml".
func (YAMLParser) Name() string { return "yaml" }

// Unmarshal decodes YAML data into v.
func (YAMLParser) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// Keys returns the keys of the top-level mapping in document order.
func (YAMLParser) Keys(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level is not a mapping (line %d)", root.Line)
	}
	keys := make([]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
	}
	return keys, nil
}

// TOMLParser decodes TOML files.
type TOMLParser struct{}

// Name returns "toml".
func (TOMLParser) Name() string { return "toml" }

// Unmarshal decodes TOML data into v.
func (TOMLParser) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

// Keys returns the top-level keys and table names in document order.
func (TOMLParser) Keys(data []byte) ([]string, error) {
	var doc map[string]any
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range md.Keys() {
		if len(k) == 1 {
			keys = append(keys, k[0])
		}
	}
	return keys, nil
}

// ParserFor selects a parser from the file extension.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLParser{}, nil
	case ".toml":
		return TOMLParser{}, nil
	default:
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %q (use .yaml, .yml or .toml)", ErrUnsupportedFormat, filepath.Ext(path))}
	}
}

// readFile reads path and picks its parser.
func readFile(path string) ([]byte, Parser, error) {
	p, err := ParserFor(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := readBytes(path)
	if err != nil {
		return nil, nil, &Error{Path: path, Err: err}
	}
	return data, p, nil
}
