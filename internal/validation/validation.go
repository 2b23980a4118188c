// Package validation checks a sync descriptor against the filesystem before
// it is run, so problems in later entries surface without copying anything.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/klauern/punto/internal/sync"
)

var (
	// ErrSameBase is reported when repo_base and system_base are one directory.
	ErrSameBase = errors.New("repo_base and system_base are the same directory")

	// ErrMissingSource is reported when an entry's source does not exist.
	ErrMissingSource = errors.New("source does not exist")

	// ErrTypeMismatch is reported when sync_type disagrees with the source.
	ErrTypeMismatch = errors.New("sync_type does not match source")

	// ErrDuplicateDestination is reported when two entries write one path.
	ErrDuplicateDestination = errors.New("destination written by more than one entry")
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the descriptor field or entry that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Unwrap exposes every collected error to errors.Is/As.
func (ve Errors) Unwrap() []error {
	return ve
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that would stop a sync
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge appends the errors and warnings of other to r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for _, err := range other.Errors {
		r.AddError(err)
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = fmt.Sprintf("Validation failed (%d error(s))", len(r.Errors))
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}

// Descriptor checks every entry of desc as a run in dir would see it. A nil
// fsys uses the OS filesystem.
func Descriptor(desc *sync.Descriptor, dir sync.Direction, fsys afero.Fs) *Result {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	result := &Result{Valid: true}

	if filepath.Clean(desc.RepoBase()) == filepath.Clean(desc.SystemBase()) {
		result.AddError(&Error{Field: "repo_base", Message: desc.RepoBase(), Err: ErrSameBase})
	}

	seen := make(map[string]int)
	var dirDests []string
	for i, e := range desc.Entries() {
		field := fmt.Sprintf("directories[%d]", i)
		if e.Name() != "" {
			field += " (" + e.Name() + ")"
		}
		from, to := desc.Paths(e, dir)

		if !e.Type().IsValid() {
			result.AddError(&Error{Field: field + ".sync_type", Message: e.Type().String(), Err: sync.ErrUnknownSyncType})
		} else if err := checkSource(fsys, e, from); err != nil {
			result.AddError(&Error{Field: field, Message: from, Err: err})
		}

		dest := filepath.Clean(to)
		if prev, ok := seen[dest]; ok {
			result.AddError(&Error{
				Field:   field,
				Message: fmt.Sprintf("%s (also directories[%d])", dest, prev),
				Err:     ErrDuplicateDestination,
			})
		} else {
			seen[dest] = i
		}

		for _, parent := range dirDests {
			if within(dest, parent) {
				result.AddWarning(fmt.Sprintf("%s: %s is inside another dir entry's destination %s", field, dest, parent))
			}
		}
		if e.Type() == sync.SyncDir {
			dirDests = append(dirDests, dest)
		}

		if e.Type() == sync.SyncFile && len(e.Ignore()) > 0 {
			result.AddWarning(fmt.Sprintf("%s: ignore_files has no effect on file entries", field))
		}
	}

	return result
}

// checkSource verifies from exists and matches the entry's sync_type.
func checkSource(fsys afero.Fs, e sync.Entry, from string) error {
	info, err := fsys.Stat(from)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrMissingSource
		}
		return err
	}
	switch {
	case e.Type() == sync.SyncDir && !info.IsDir():
		return fmt.Errorf("%w: dir entry but source is a file", ErrTypeMismatch)
	case e.Type() == sync.SyncFile && info.IsDir():
		return fmt.Errorf("%w: file entry but source is a directory", ErrTypeMismatch)
	}
	return nil
}

// within reports whether path lies strictly under dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
