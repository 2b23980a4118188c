// Package config loads punto's configuration: the sync descriptor, shell and
// installer files given on the command line, and the optional user settings
// file. Descriptor, shell and installer files may be YAML or TOML.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/punto/internal/util"
)

// Settings holds user preferences from $XDG_CONFIG_HOME/punto/config.yaml.
type Settings struct {
	// Mirror configures directory mirroring
	Mirror MirrorSettings `yaml:"mirror"`

	// Output configures display preferences
	Output OutputSettings `yaml:"output"`

	// Paths overrides the bases of every descriptor
	Paths PathSettings `yaml:"paths"`

	// Backup configures snapshots taken before a sync overwrites files
	Backup BackupSettings `yaml:"backup"`
}

// MirrorSettings holds mirroring defaults.
type MirrorSettings struct {
	// Tool is the directory mirroring program
	Tool string `yaml:"tool"`
	// Delete removes destination files missing from the source by default
	Delete bool `yaml:"delete"`
	// Quiet hides the mirroring tool's progress output
	Quiet bool `yaml:"quiet"`
}

// OutputSettings holds display preferences.
type OutputSettings struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
}

// PathSettings overrides descriptor base directories when set.
type PathSettings struct {
	RepoBase   string `yaml:"repo_base,omitempty"`
	SystemBase string `yaml:"system_base,omitempty"`
}

// BackupSettings holds snapshot preferences.
type BackupSettings struct {
	// Enabled snapshots destinations on every download and upload
	Enabled bool `yaml:"enabled"`
	// Location is the backup directory (defaults to <config dir>/backups)
	Location string `yaml:"location,omitempty"`
	// MaxBackups is the number of snapshots kept per path (0 = unlimited)
	MaxBackups int `yaml:"max_backups"`
	// RetentionDays is how long snapshots are kept (0 = unlimited)
	RetentionDays int `yaml:"retention_days"`
	// CleanupOnSync prunes old snapshots after each sync that took one
	CleanupOnSync bool `yaml:"cleanup_on_sync"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		Mirror: MirrorSettings{
			Tool:   "rsync",
			Delete: false,
			Quiet:  false,
		},
		Output: OutputSettings{
			Color: "auto",
		},
		Backup: BackupSettings{
			Enabled:       false,
			MaxBackups:    10,
			RetentionDays: 30,
			CleanupOnSync: true,
		},
	}
}

// configFileName is the name of the settings file.
const configFileName = "config.yaml"

// FilePath returns the path to the settings file.
func FilePath() string {
	return filepath.Join(util.ConfigDir(), configFileName)
}

// Load loads settings from FilePath, merged over defaults. A missing file
// yields the defaults with environment overrides applied.
func Load() (*Settings, error) {
	s, err := LoadFromPath(FilePath())
	if err != nil && os.IsNotExist(err) {
		s = Default()
		s.applyEnvironment()
		return s, nil
	}
	return s, err
}

// LoadFromPath loads settings from a specific path.
func LoadFromPath(path string) (*Settings, error) {
	s := Default()

	data, err := readBytes(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	s.applyEnvironment()
	return s, nil
}

// Exists returns true if a settings file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern PUNTO_<SECTION>_<KEY>.
func (s *Settings) applyEnvironment() {
	// Mirror settings
	if v := os.Getenv("PUNTO_MIRROR_TOOL"); v != "" {
		s.Mirror.Tool = v
	}
	if v := os.Getenv("PUNTO_MIRROR_DELETE"); v != "" {
		s.Mirror.Delete = parseBool(v)
	}
	if v := os.Getenv("PUNTO_MIRROR_QUIET"); v != "" {
		s.Mirror.Quiet = parseBool(v)
	}

	// Output settings
	if v := os.Getenv("PUNTO_OUTPUT_COLOR"); v != "" {
		s.Output.Color = v
	}

	// Backup settings
	if v := os.Getenv("PUNTO_BACKUP_ENABLED"); v != "" {
		s.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("PUNTO_BACKUP_LOCATION"); v != "" {
		s.Backup.Location = v
	}
	if v := os.Getenv("PUNTO_BACKUP_MAX_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Backup.MaxBackups = n
		}
	}

	// Base directories
	if v := os.Getenv("PUNTO_REPO_BASE"); v != "" {
		s.Paths.RepoBase = v
	}
	if v := os.Getenv("PUNTO_SYSTEM_BASE"); v != "" {
		s.Paths.SystemBase = v
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// readBytes reads a configuration file.
func readBytes(path string) ([]byte, error) {
	// #nosec G304 - path is provided by the user on the command line
	return os.ReadFile(path)
}
