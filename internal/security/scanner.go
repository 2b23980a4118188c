// Package security finds credentials in files a sync would copy, so secrets
// on the system side are caught before an upload commits them to the
// dotfiles repository.
package security

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/klauern/punto/internal/logging"
	"github.com/klauern/punto/internal/sync"
	"github.com/klauern/punto/internal/validation"
)

// ErrSecretFound wraps every error-severity finding.
var ErrSecretFound = errors.New("secret found")

// Severity of a finding.
type Severity string

const (
	// SeverityError fails validation.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail validation.
	SeverityWarning Severity = "warning"
)

// maxFileSize bounds the files that are read; larger files are skipped.
const maxFileSize = 1 << 20

// Pattern is one kind of secret to look for.
type Pattern struct {
	Name        string
	Regexp      *regexp.Regexp
	Description string
	Severity    Severity
}

// DefaultPatterns returns the built-in credential patterns.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:        "api-key",
			Regexp:      regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{16,}['"]?`),
			Description: "API key",
			Severity:    SeverityWarning,
		},
		{
			Name:        "token",
			Regexp:      regexp.MustCompile(`(?i)(token|access[_-]?token|auth[_-]?token)\s*[:=]\s*['"]?[a-zA-Z0-9_\-\.]{16,}['"]?`),
			Description: "authentication token",
			Severity:    SeverityWarning,
		},
		{
			Name:        "password",
			Regexp:      regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?[a-zA-Z0-9_\-@!#$%^&*()]{8,}['"]?`),
			Description: "password",
			Severity:    SeverityWarning,
		},
		{
			Name:        "aws-access-key",
			Regexp:      regexp.MustCompile(`(?i)(aws[_-]?access[_-]?key[_-]?id|aws[_-]?key)\s*[:=]\s*['"]?AKIA[A-Z0-9]{16}['"]?`),
			Description: "AWS access key",
			Severity:    SeverityError,
		},
		{
			Name:        "aws-secret-key",
			Regexp:      regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key|aws[_-]?secret)\s*[:=]\s*['"]?[a-zA-Z0-9/+]{40}['"]?`),
			Description: "AWS secret key",
			Severity:    SeverityError,
		},
		{
			Name:        "github-token",
			Regexp:      regexp.MustCompile(`\b(ghp|gho|ghu|ghs|ghr)_[a-zA-Z0-9]{36,}\b`),
			Description: "GitHub token",
			Severity:    SeverityError,
		},
		{
			Name:        "private-key",
			Regexp:      regexp.MustCompile(`-----BEGIN\s+((RSA|EC|DSA|OPENSSH)\s+)?PRIVATE\s+KEY-----`),
			Description: "private key",
			Severity:    SeverityError,
		},
		{
			Name:        "bearer",
			Regexp:      regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.]{20,}`),
			Description: "bearer token",
			Severity:    SeverityWarning,
		},
		{
			Name:        "connection-string",
			Regexp:      regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb|redis|amqp)://[^:\s]+:[^@\s]+@`),
			Description: "connection string with credentials",
			Severity:    SeverityError,
		},
	}
}

// Finding is one match in one file.
type Finding struct {
	Path     string
	Line     int
	Pattern  Pattern
	Redacted string
}

// String formats a finding as "path:line: description: excerpt".
func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", f.Path, f.Line, f.Pattern.Description, f.Redacted)
}

// Scanner searches files for credential patterns.
type Scanner struct {
	patterns []Pattern
	fs       afero.Fs
}

// NewScanner creates a Scanner. Empty patterns use DefaultPatterns and a nil
// fsys uses the OS filesystem.
func NewScanner(patterns []Pattern, fsys afero.Fs) *Scanner {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Scanner{patterns: patterns, fs: fsys}
}

// ScanContent returns the findings in content, attributed to path. Lines
// that are comments or whose value is an obvious placeholder are skipped.
func (s *Scanner) ScanContent(path, content string) []Finding {
	var findings []Finding
	for i, line := range strings.Split(content, "\n") {
		if isFalsePositive(line) {
			continue
		}
		for _, p := range s.patterns {
			loc := p.Regexp.FindStringIndex(line)
			if loc == nil {
				continue
			}
			findings = append(findings, Finding{
				Path:     path,
				Line:     i + 1,
				Pattern:  p,
				Redacted: redact(line, loc),
			})
		}
	}
	return findings
}

// ScanFile scans a single file. Binary files and files over 1 MiB are
// skipped.
func (s *Scanner) ScanFile(path string) ([]Finding, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		logging.Debug("skipping large file", logging.Path(path))
		return nil, nil
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, nil
	}
	return s.ScanContent(path, string(data)), nil
}

// ScanEntry scans the source side of e for a sync in dir, honoring the
// entry's ignore patterns. A missing source yields no findings.
func (s *Scanner) ScanEntry(desc *sync.Descriptor, e sync.Entry, dir sync.Direction) ([]Finding, error) {
	from, _ := desc.Paths(e, dir)
	from = filepath.Clean(from)

	info, err := s.fs.Stat(from)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return s.ScanFile(from)
	}

	ig := ignore.CompileIgnoreLines(e.Ignore()...)
	var findings []Finding
	err = afero.Walk(s.fs, from, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(from, path)
		if err != nil || rel == "." {
			return err
		}
		match := filepath.ToSlash(rel)
		if info.IsDir() {
			match += "/"
		}
		if ig.MatchesPath(match) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		found, err := s.ScanFile(path)
		if err != nil {
			return err
		}
		findings = append(findings, found...)
		return nil
	})
	return findings, err
}

// ScanDescriptor scans every entry's source for a sync in dir. Error
// severity findings become validation errors wrapping ErrSecretFound;
// the rest become warnings.
func (s *Scanner) ScanDescriptor(desc *sync.Descriptor, dir sync.Direction) (*validation.Result, error) {
	defer logging.Timer("secret scan")()

	result := &validation.Result{Valid: true}
	for _, e := range desc.Entries() {
		findings, err := s.ScanEntry(desc, e, dir)
		if err != nil {
			return result, fmt.Errorf("scan %s: %w", e, err)
		}
		for _, f := range findings {
			if f.Pattern.Severity == SeverityError {
				result.AddError(&validation.Error{
					Field:   fmt.Sprintf("%s:%d", f.Path, f.Line),
					Message: f.Pattern.Description + ": " + f.Redacted,
					Err:     ErrSecretFound,
				})
				continue
			}
			result.AddWarning("possible " + f.String())
		}
	}
	return result, nil
}

// redact trims line and masks the match at loc past its first few bytes.
func redact(line string, loc []int) string {
	const keep = 6
	match := line[loc[0]:loc[1]]
	if len(match) > keep {
		match = match[:keep] + "****"
	}
	out := strings.TrimSpace(line[:loc[0]] + match + line[loc[1]:])
	if len(out) > 80 {
		out = out[:77] + "..."
	}
	return out
}

// isFalsePositive reports comment lines and lines whose value is a
// placeholder.
func isFalsePositive(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"#", "//", ";"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}

	idx := strings.IndexAny(trimmed, ":=")
	if idx < 0 {
		return false
	}
	value := strings.ToLower(strings.TrimSpace(trimmed[idx+1:]))
	for _, marker := range []string{"your_", "<your", "placeholder", "example_", "changeme"} {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return strings.HasPrefix(strings.Trim(value, `'"`), "xxxx")
}
