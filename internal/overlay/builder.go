package overlay

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/LeagueToolkit/league-mod-sub000/internal/content"
	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/gameindex"
	"github.com/LeagueToolkit/league-mod-sub000/internal/wad"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// Stage identifies a phase of the overlay build, in the order the
// builder always emits them.
type Stage int

const (
	Indexing Stage = iota
	CollectingOverrides
	PatchingWad
	Complete
)

func (s Stage) String() string {
	switch s {
	case Indexing:
		return "indexing"
	case CollectingOverrides:
		return "collecting_overrides"
	case PatchingWad:
		return "patching_wad"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// ProgressFunc receives stage transitions. current/total/wadName are
// only meaningful for PatchingWad; callers must tolerate zero values
// otherwise. It may be called from a goroutine other than the caller's
// and must be safe to invoke concurrently with caller code that reads
// its captured state.
type ProgressFunc func(stage Stage, current, total int, wadName string)

// EnabledMod is one mod contributing content to the build, in the
// order it should be processed (last-writer-wins for colliding chunk
// hashes across mods).
type EnabledMod struct {
	ID       string
	Provider content.Provider
}

// Aborted is returned when a build observes its stop flag set.
type Aborted struct{}

func (e *Aborted) Error() string { return "overlay build aborted" }

// Builder drives one overlay build. A single *Builder instance is
// meant for one build; cancellation is external via atomic.Bool so a
// UI thread can request a stop from outside the build goroutine.
type Builder struct {
	GameDir     string
	OverlayRoot string
	EnabledMods []EnabledMod
	Progress    ProgressFunc

	stop atomic.Bool
}

// RequestStop asks a concurrently-running Build to abort at its next
// polling point. Safe to call from any goroutine.
func (b *Builder) RequestStop() { b.stop.Store(true) }

func (b *Builder) emit(stage Stage, current, total int, wadName string) {
	if b.Progress != nil {
		b.Progress(stage, current, total, wadName)
	}
}

func (b *Builder) checkStop() error {
	if b.stop.Load() {
		return &Aborted{}
	}
	return nil
}

// Build runs the full algorithm: validate the game dir, index it,
// check for a reusable prior state, or else wipe and rebuild the
// overlay tree, distributing overrides across every affected WAD.
func (b *Builder) Build() error {
	finalDir := filepath.Join(b.GameDir, filepath.FromSlash(gameindex.FinalSubpath))
	if info, err := os.Stat(finalDir); err != nil || !info.IsDir() {
		return newErr(errkind.Validation, "InvalidGameDir: "+finalDir+" does not exist", nil)
	}

	idx, err := gameindex.Build(b.GameDir)
	if err != nil {
		return err
	}
	b.emit(Indexing, 0, 0, "")
	if err := b.checkStop(); err != nil {
		return err
	}

	enabledIDs := make([]string, len(b.EnabledMods))
	for i, m := range b.EnabledMods {
		enabledIDs[i] = m.ID
	}

	if prior, err := LoadState(b.OverlayRoot); err == nil && prior != nil {
		if prior.GameFingerprint == idx.GameFingerprint() &&
			sameEnabledMods(prior.EnabledMods, enabledIDs) &&
			b.validateOverlayOutputs() {
			b.emit(Complete, 0, 0, "")
			return nil
		}
	}

	if err := os.RemoveAll(b.OverlayRoot); err != nil {
		return newErr(errkind.IO, "failed to wipe overlay root", err)
	}
	if err := os.MkdirAll(b.OverlayRoot, 0o755); err != nil {
		return newErr(errkind.IO, "failed to recreate overlay root", err)
	}

	b.emit(CollectingOverrides, 0, 0, "")
	if err := b.checkStop(); err != nil {
		return err
	}

	allOverrides, err := b.collectOverrides(idx)
	if err != nil {
		return err
	}

	perWad := map[string]map[uint64][]byte{}
	for hash, data := range allOverrides {
		for _, relWad := range idx.FindWadsWithHash(hash) {
			if perWad[relWad] == nil {
				perWad[relWad] = map[uint64][]byte{}
			}
			perWad[relWad][hash] = data
		}
	}

	relPaths := make([]string, 0, len(perWad))
	for rel := range perWad {
		relPaths = append(relPaths, rel)
	}
	sort.Strings(relPaths)

	wadFingerprints := map[string]uint64{}
	for i, rel := range relPaths {
		if err := b.checkStop(); err != nil {
			return err
		}
		b.emit(PatchingWad, i+1, len(relPaths), rel)

		srcPath := filepath.Join(b.GameDir, filepath.FromSlash(rel))
		dstPath := filepath.Join(b.OverlayRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			return newErr(errkind.IO, "failed to create overlay directory for "+rel, err)
		}
		if _, err := wad.BuildPatchedWad(srcPath, dstPath, perWad[rel]); err != nil {
			return newErr(errkind.Internal, "failed to patch "+rel, err)
		}
		wadFingerprints[rel] = overrideFingerprint(perWad[rel])
	}

	if err := SaveState(b.OverlayRoot, &State{
		EnabledMods:     enabledIDs,
		GameFingerprint: idx.GameFingerprint(),
		WadFingerprints: wadFingerprints,
	}); err != nil {
		return err
	}

	b.emit(Complete, 0, 0, "")
	return nil
}

// collectOverrides builds the flat path_hash -> bytes map across every
// enabled mod, processed in order, later mods winning on collision.
func (b *Builder) collectOverrides(idx *gameindex.Index) (map[uint64][]byte, error) {
	all := map[uint64][]byte{}
	for _, mod := range b.EnabledMods {
		if err := b.checkStop(); err != nil {
			return nil, err
		}
		proj, err := mod.Provider.ModProject()
		if err != nil {
			corelog.WithField("mod", mod.ID).WithField("error", err).Warn("skipping mod with unreadable project descriptor")
			continue
		}
		for _, layer := range proj.SortedLayers() {
			wads, err := mod.Provider.ListLayerWads(layer.Name)
			if err != nil {
				corelog.WithField("mod", mod.ID).WithField("layer", layer.Name).WithField("error", err).Warn("failed to list layer WADs")
				continue
			}
			for _, wadName := range wads {
				if _, err := idx.FindWad(wadName); err != nil {
					corelog.WithField("mod", mod.ID).WithField("wad", wadName).WithField("error", err).Warn("WAD target not resolvable, skipping")
					continue
				}

				overrides, err := mod.Provider.ReadWadOverrides(layer.Name, wadName)
				if err != nil {
					corelog.WithField("mod", mod.ID).WithField("wad", wadName).WithField("error", err).Warn("failed to read WAD overrides")
					continue
				}
				for _, ov := range overrides {
					hash, ok := resolveOverrideHash(ov.RelPath)
					if !ok {
						continue
					}
					all[hash] = ov.Bytes
				}
			}
		}
	}
	return all, nil
}

// resolveOverrideHash implements the chunk-hash resolution rule for an
// override's in-WAD relative path: a bare 16-hex-digit stem is parsed
// directly, otherwise the normalized path is hashed.
func resolveOverrideHash(relPath string) (uint64, bool) {
	base := relPath
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	stem := base
	if dot := strings.IndexByte(stem, '.'); dot >= 0 {
		stem = stem[:dot]
	}
	if v, ok := xhash.ParseHexChunkName(stem); ok {
		return v, true
	}
	return xhash.HashChunkName(normalizeRelPathForHash(relPath)), true
}

// normalizeRelPathForHash lowercases a path, normalizes separators to
// '/', and strips a trailing ".ltk" suffix or an embedded ".ltk.<ext>"
// segment some extractors introduce. Idempotent: applying it twice
// yields the same result as applying it once.
func normalizeRelPathForHash(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	for {
		next := strings.ReplaceAll(strings.TrimSuffix(p, ".ltk"), ".ltk.", ".")
		if next == p {
			return p
		}
		p = next
	}
}

func overrideFingerprint(overrides map[uint64][]byte) uint64 {
	hashes := make([]uint64, 0, len(overrides))
	for h := range overrides {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	var buf []byte
	for _, h := range hashes {
		buf = append(buf, byte(h), byte(h>>8), byte(h>>16), byte(h>>24), byte(h>>32), byte(h>>40), byte(h>>48), byte(h>>56))
		buf = append(buf, overrides[h]...)
	}
	return xhash.Checksum64(buf)
}

// validateOverlayOutputs reports whether every .wad.client file under
// overlay_root/DATA mounts cleanly, the condition required for a prior
// build's state to be considered reusable.
func (b *Builder) validateOverlayOutputs() bool {
	dataDir := filepath.Join(b.OverlayRoot, "DATA")
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return true
	}
	ok := true
	_ = filepath.Walk(dataDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(strings.ToLower(p), ".wad.client") {
			return nil
		}
		f, openErr := os.Open(p)
		if openErr != nil {
			ok = false
			return nil
		}
		defer f.Close()
		if _, mountErr := wad.Mount(f); mountErr != nil {
			ok = false
		}
		return nil
	})
	return ok
}
