// Package overlay builds and maintains the patched-WAD tree ("overlay")
// that sits alongside a League of Legends installation: one pass over
// the enabled mods' content, distributed across every game WAD that
// needs patching, with state persisted so unchanged inputs skip the
// rebuild entirely.
package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// CurrentSchemaVersion is the only overlay.json schema version this
// package writes, and the one it requires on load for state to be
// considered reusable.
const CurrentSchemaVersion = 1

// StateFileName is the overlay state file's name, relative to the
// overlay root.
const StateFileName = "overlay.json"

// State is the persisted record of the last successful overlay build.
type State struct {
	SchemaVersion   int               `json:"schemaVersion"`
	EnabledMods     []string          `json:"enabledMods"`
	GameFingerprint uint64            `json:"gameFingerprint"`
	WadFingerprints map[string]uint64 `json:"wadFingerprints,omitempty"`
}

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

// LoadState reads overlay_root/overlay.json. A missing file returns
// (nil, nil); a present file with a mismatched schema version is
// treated as absent, per the same rule.
func LoadState(overlayRoot string) (*State, error) {
	b, err := os.ReadFile(filepath.Join(overlayRoot, StateFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read overlay state", err)
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		// A corrupt state file is treated as absent rather than fatal:
		// the caller simply rebuilds.
		return nil, nil
	}
	if s.SchemaVersion != CurrentSchemaVersion {
		return nil, nil
	}
	return &s, nil
}

// SaveState performs a whole-file rewrite of overlay_root/overlay.json.
func SaveState(overlayRoot string, s *State) error {
	s.SchemaVersion = CurrentSchemaVersion
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return newErr(errkind.Internal, "failed to encode overlay state", err)
	}
	if err := os.WriteFile(filepath.Join(overlayRoot, StateFileName), b, 0o644); err != nil {
		return newErr(errkind.IO, "failed to write overlay state", err)
	}
	return nil
}

// sameEnabledMods reports whether a and b contain the same mod ids in
// the same order, per the order-sensitive reuse rule.
func sameEnabledMods(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
