// Package library implements the installed-mod index: library.json at
// the mod storage root, the archives/metadata/profiles layout beside
// it, and the install/uninstall/toggle/reorder/profile operations that
// mutate it under a process-wide mutex.
package library

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/overlay"
)

// ArchiveFormat discriminates the two archive kinds a library can hold.
type ArchiveFormat string

const (
	Modpkg  ArchiveFormat = "modpkg"
	Fantome ArchiveFormat = "fantome"
)

// DefaultProfileName is the reserved profile that always exists and
// can never be deleted or renamed.
const DefaultProfileName = "Default"

// CurrentSchemaVersion is the library.json schema version this package
// reads and writes.
const CurrentSchemaVersion = 1

// InstalledMod is one record in the installed-mods list.
type InstalledMod struct {
	ID               string        `json:"id"`
	Format           ArchiveFormat `json:"format"`
	InstallTimestamp int64         `json:"installTimestamp"`
}

// Profile groups a display order and an enabled subset of installed
// mods.
type Profile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedAt int64    `json:"createdAt"`
	LastUsed  int64    `json:"lastUsed"`
	ModOrder  []string `json:"modOrder"`
	Enabled   []string `json:"enabledMods"`
}

// Index is the full library.json document.
type Index struct {
	SchemaVersion   int            `json:"schemaVersion"`
	Installed       []InstalledMod `json:"installed"`
	Profiles        []Profile      `json:"profiles"`
	ActiveProfileID string         `json:"activeProfileId"`
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

// Store guards library.json (and the archives/metadata directories
// beside it) with a process-wide mutex: every mutation is a
// load-mutate-save-invalidate cycle, and two mutations never interleave.
type Store struct {
	root        string
	overlayRoot string
	mu          sync.Mutex

	// buildInProgress is set by whoever runs the overlay build (via
	// BeginBuild / EndBuild) so profile switches are refused while a
	// build runs.
	buildInProgress bool
}

// NewStore opens a library store rooted at storageRoot, invalidating
// overlayRoot's state on every successful mutation.
func NewStore(storageRoot, overlayRoot string) *Store {
	return &Store{root: storageRoot, overlayRoot: overlayRoot}
}

func (s *Store) indexPath() string      { return filepath.Join(s.root, "library.json") }
func (s *Store) archivesDir() string    { return filepath.Join(s.root, "archives") }
func (s *Store) metadataDir(id string) string { return filepath.Join(s.root, "metadata", id) }

func (s *Store) load() (*Index, error) {
	b, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return newDefaultIndex(), nil
	}
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read library.json", err)
	}
	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, newErr(errkind.Format, "failed to parse library.json", err)
	}
	return &idx, nil
}

func (s *Store) save(idx *Index) error {
	idx.SchemaVersion = CurrentSchemaVersion
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return newErr(errkind.IO, "failed to create library storage root", err)
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return newErr(errkind.Internal, "failed to encode library.json", err)
	}
	if err := os.WriteFile(s.indexPath(), b, 0o644); err != nil {
		return newErr(errkind.IO, "failed to write library.json", err)
	}
	return nil
}

// invalidateOverlay removes overlay.json so the next build redoes all
// WAD work. Failure is logged by the caller, never fatal: the worst
// outcome of a missed invalidation is an unnecessary rebuild.
func (s *Store) invalidateOverlay() error {
	if s.overlayRoot == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.overlayRoot, overlay.StateFileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func newDefaultIndex() *Index {
	now := nowUnix()
	defaultID := uuid.NewString()
	return &Index{
		SchemaVersion:   CurrentSchemaVersion,
		ActiveProfileID: defaultID,
		Profiles: []Profile{{
			ID:        defaultID,
			Name:      DefaultProfileName,
			CreatedAt: now,
			LastUsed:  now,
		}},
	}
}

// nowUnix is the package's only time source, isolated so tests can
// observe monotonically increasing but deterministic-enough values.
func nowUnix() int64 { return time.Now().Unix() }

func (idx *Index) activeProfile() *Profile {
	for i := range idx.Profiles {
		if idx.Profiles[i].ID == idx.ActiveProfileID {
			return &idx.Profiles[i]
		}
	}
	return nil
}

func (idx *Index) profileByID(id string) *Profile {
	for i := range idx.Profiles {
		if idx.Profiles[i].ID == id {
			return &idx.Profiles[i]
		}
	}
	return nil
}

func inferFormat(path string) ArchiveFormat {
	if strings.EqualFold(filepath.Ext(path), ".fantome") {
		return Fantome
	}
	return Modpkg
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
