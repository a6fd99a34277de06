package library

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/LeagueToolkit/league-mod-sub000/internal/content"
	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// BeginBuild marks an overlay build as in progress, so SwitchProfile
// refuses concurrent calls. The overlay builder's caller is
// responsible for calling EndBuild when the build finishes or aborts.
func (s *Store) BeginBuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildInProgress = true
}

// EndBuild clears the in-progress flag set by BeginBuild.
func (s *Store) EndBuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildInProgress = false
}

// mutate loads the index, runs fn, and on success saves it and
// invalidates the overlay. fn returning an error aborts the whole
// cycle with no write.
func (s *Store) mutate(fn func(*Index) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(idx); err != nil {
		return err
	}
	if err := s.save(idx); err != nil {
		return err
	}
	if err := s.invalidateOverlay(); err != nil {
		corelog.WithField("error", err).Warn("failed to invalidate overlay after library mutation")
	}
	return nil
}

// Install copies an archive into the store, extracts its project
// metadata, and enables it at the front of the active profile.
func (s *Store) Install(filePath string) (InstalledMod, error) {
	var mod InstalledMod
	err := s.mutate(func(idx *Index) error {
		m, err := s.installOne(idx, filePath)
		if err != nil {
			return err
		}
		mod = m
		return nil
	})
	return mod, err
}

// InstallMany installs every archive under one load/save/invalidate
// cycle.
func (s *Store) InstallMany(filePaths []string) ([]InstalledMod, error) {
	var mods []InstalledMod
	err := s.mutate(func(idx *Index) error {
		for _, fp := range filePaths {
			m, err := s.installOne(idx, fp)
			if err != nil {
				return err
			}
			mods = append(mods, m)
		}
		return nil
	})
	return mods, err
}

func (s *Store) installOne(idx *Index, filePath string) (InstalledMod, error) {
	id := uuid.NewString()
	format := inferFormat(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		return InstalledMod{}, newErr(errkind.IO, "failed to read archive "+filePath, err)
	}

	if err := os.MkdirAll(s.archivesDir(), 0o755); err != nil {
		return InstalledMod{}, newErr(errkind.IO, "failed to create archives directory", err)
	}
	ext := filepath.Ext(filePath)
	archivePath := filepath.Join(s.archivesDir(), id+ext)
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		return InstalledMod{}, newErr(errkind.IO, "failed to copy archive into store", err)
	}

	proj, err := s.extractProject(format, data)
	if err != nil {
		return InstalledMod{}, err
	}
	if err := s.writeMetadata(id, proj); err != nil {
		return InstalledMod{}, err
	}

	mod := InstalledMod{ID: id, Format: format, InstallTimestamp: nowUnix()}
	idx.Installed = append(idx.Installed, mod)

	active := idx.activeProfile()
	if active != nil {
		active.ModOrder = append([]string{id}, active.ModOrder...)
		active.Enabled = append([]string{id}, active.Enabled...)
	}
	return mod, nil
}

func (s *Store) extractProject(format ArchiveFormat, data []byte) (*project.ModProject, error) {
	var provider content.Provider
	switch format {
	case Fantome:
		p, err := content.NewLegacyZipProvider(data)
		if err != nil {
			return nil, newErr(errkind.Format, "failed to open legacy archive for metadata extraction", err)
		}
		provider = p
	default:
		reader, err := modpkg.Mount(bytes.NewReader(data))
		if err != nil {
			return nil, newErr(errkind.Format, "failed to mount modpkg for metadata extraction", err)
		}
		provider = content.NewModpkgProvider(reader)
	}
	defer provider.Close()
	return provider.ModProject()
}

func (s *Store) writeMetadata(id string, proj *project.ModProject) error {
	dir := s.metadataDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newErr(errkind.IO, "failed to create metadata directory", err)
	}
	if proj == nil {
		return nil
	}
	return project.SaveJSON(dir, proj)
}

// Uninstall removes a mod from the installed list, every profile's
// mod_order/enabled_mods, and its on-disk archive and metadata.
func (s *Store) Uninstall(id string) error {
	return s.mutate(func(idx *Index) error {
		found := false
		kept := idx.Installed[:0]
		for _, m := range idx.Installed {
			if m.ID == id {
				found = true
				continue
			}
			kept = append(kept, m)
		}
		if !found {
			return newErr(errkind.MissingResource, "mod not installed: "+id, nil)
		}
		idx.Installed = kept

		for i := range idx.Profiles {
			idx.Profiles[i].ModOrder = removeString(idx.Profiles[i].ModOrder, id)
			idx.Profiles[i].Enabled = removeString(idx.Profiles[i].Enabled, id)
		}

		_ = os.RemoveAll(s.metadataDir(id))
		matches, _ := filepath.Glob(filepath.Join(s.archivesDir(), id+".*"))
		for _, m := range matches {
			_ = os.Remove(m)
		}
		return nil
	})
}

// Toggle enables or disables a mod in the active profile, preserving
// its mod_order position.
func (s *Store) Toggle(id string, enabled bool) error {
	return s.mutate(func(idx *Index) error {
		active := idx.activeProfile()
		if active == nil {
			return newErr(errkind.Internal, "no active profile", nil)
		}
		if enabled {
			if !containsString(active.Enabled, id) {
				rank := make(map[string]int, len(active.ModOrder))
				for i, m := range active.ModOrder {
					rank[m] = i
				}
				pos := len(active.Enabled)
				if r, ok := rank[id]; ok {
					for i, e := range active.Enabled {
						if er, ok := rank[e]; ok && er > r {
							pos = i
							break
						}
					}
				}
				active.Enabled = append(active.Enabled[:pos], append([]string{id}, active.Enabled[pos:]...)...)
			}
		} else {
			active.Enabled = removeString(active.Enabled, id)
		}
		return nil
	})
}

// Reorder replaces the active profile's mod_order, rejecting any list
// whose multiset of ids doesn't match the installed set, and derives a
// new enabled_mods by filtering the new order through the previous
// enabled set.
func (s *Store) Reorder(ids []string) error {
	return s.mutate(func(idx *Index) error {
		active := idx.activeProfile()
		if active == nil {
			return newErr(errkind.Internal, "no active profile", nil)
		}
		if !sameMultiset(ids, installedIDs(idx)) {
			return newErr(errkind.Validation, "reorder list does not match the installed mod set", nil)
		}
		prevEnabled := map[string]bool{}
		for _, id := range active.Enabled {
			prevEnabled[id] = true
		}
		var newEnabled []string
		for _, id := range ids {
			if prevEnabled[id] {
				newEnabled = append(newEnabled, id)
			}
		}
		active.ModOrder = ids
		active.Enabled = newEnabled
		return nil
	})
}

// CreateProfile adds a new profile, rejecting duplicate or empty
// names. The new profile inherits mod_order from the installed list
// and starts with nothing enabled.
func (s *Store) CreateProfile(name string) (Profile, error) {
	var created Profile
	err := s.mutate(func(idx *Index) error {
		if name == "" {
			return newErr(errkind.Validation, "profile name must not be empty", nil)
		}
		for _, p := range idx.Profiles {
			if p.Name == name {
				return newErr(errkind.Validation, "duplicate profile name: "+name, nil)
			}
		}
		now := nowUnix()
		p := Profile{ID: uuid.NewString(), Name: name, CreatedAt: now, LastUsed: now, ModOrder: installedIDs(idx)}
		idx.Profiles = append(idx.Profiles, p)
		created = p
		return nil
	})
	return created, err
}

// SwitchProfile makes id the active profile and touches its
// last_used, refusing to run while an overlay build is in progress.
func (s *Store) SwitchProfile(id string) error {
	s.mu.Lock()
	if s.buildInProgress {
		s.mu.Unlock()
		return newErr(errkind.Validation, "cannot switch profile while the patcher is running", nil)
	}
	s.mu.Unlock()

	return s.mutate(func(idx *Index) error {
		p := idx.profileByID(id)
		if p == nil {
			return newErr(errkind.MissingResource, "unknown profile: "+id, nil)
		}
		p.LastUsed = nowUnix()
		idx.ActiveProfileID = id
		return nil
	})
}

// DeleteProfile removes a profile, rejecting the active profile and
// the reserved "Default" profile.
func (s *Store) DeleteProfile(id string) error {
	return s.mutate(func(idx *Index) error {
		p := idx.profileByID(id)
		if p == nil {
			return newErr(errkind.MissingResource, "unknown profile: "+id, nil)
		}
		if p.Name == DefaultProfileName {
			return newErr(errkind.Validation, "the Default profile cannot be deleted", nil)
		}
		if idx.ActiveProfileID == id {
			return newErr(errkind.Validation, "cannot delete the active profile", nil)
		}
		kept := idx.Profiles[:0]
		for _, pr := range idx.Profiles {
			if pr.ID != id {
				kept = append(kept, pr)
			}
		}
		idx.Profiles = kept
		return nil
	})
}

func installedIDs(idx *Index) []string {
	ids := make([]string, len(idx.Installed))
	for i, m := range idx.Installed {
		ids[i] = m.ID
	}
	return ids
}

func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
