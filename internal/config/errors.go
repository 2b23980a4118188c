package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped when a required field is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrUnsupportedFormat is wrapped when no parser handles a file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Error reports a problem with a configuration file. Field is empty when the
// problem concerns the whole file.
type Error struct {
	Path  string
	Field string
	Err   error
}

// Error returns a message naming the file and, when known, the field.
func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
