// Package config manages the authoring CLI's on-disk configuration
// file, stored next to the executable (spec.md §6's `config`
// subcommand): the League installation path, mod storage overrides,
// and anything else the CLI needs across invocations.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// FileName is the config file's name, relative to the executable's
// directory.
const FileName = "league-mod.config.json"

// Error is returned by every fallible operation in this package.
type Error struct {
	Kind errkind.Kind
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.msg + ": " + e.Err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind exposes the error's category for the GUI IPC code mapping.
func (e *Error) ErrKind() errkind.Kind { return e.Kind }

func newErr(kind errkind.Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, Err: cause}
}

// Config is the CLI's persisted, per-install configuration.
type Config struct {
	LeaguePath     string `json:"leaguePath,omitempty"`
	ModStoragePath string `json:"modStoragePath,omitempty"`
}

// pathOverride lets tests point Path at a scratch directory instead of
// the real executable's directory.
var pathOverride string

// Path returns the config file's path, next to the running
// executable, or falling back to the current directory if the
// executable's own path can't be resolved.
func Path() string {
	if pathOverride != "" {
		return pathOverride
	}
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// Load reads the config file, returning a zero-value Config (not an
// error) if it does not yet exist.
func Load() (*Config, error) {
	b, err := os.ReadFile(Path())
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read config file", err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, newErr(errkind.Format, "failed to parse config file", err)
	}
	return &c, nil
}

// Save writes c as pretty-printed JSON to the config file.
func Save(c *Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return newErr(errkind.Internal, "failed to encode config", err)
	}
	if err := os.WriteFile(Path(), b, 0o644); err != nil {
		return newErr(errkind.IO, "failed to write config file", err)
	}
	return nil
}

// Reset removes the config file, restoring defaults.
func Reset() error {
	err := os.Remove(Path())
	if err != nil && !os.IsNotExist(err) {
		return newErr(errkind.IO, "failed to remove config file", err)
	}
	return nil
}
