package overlay

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeagueToolkit/league-mod-sub000/internal/content"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// fakeProvider is an in-memory content.Provider for overlay tests.
type fakeProvider struct {
	proj      *project.ModProject
	wads      map[string][]content.Override // layer -> wad -> overrides, keyed "layer/wad"
	wadsByLyr map[string][]string
}

func newFakeProvider(proj *project.ModProject) *fakeProvider {
	return &fakeProvider{proj: proj, wads: map[string][]content.Override{}, wadsByLyr: map[string][]string{}}
}

func (f *fakeProvider) addOverride(layer, wadName string, ov content.Override) {
	key := layer + "/" + wadName
	if _, ok := f.wads[key]; !ok {
		f.wadsByLyr[layer] = append(f.wadsByLyr[layer], wadName)
	}
	f.wads[key] = append(f.wads[key], ov)
}

func (f *fakeProvider) ModProject() (*project.ModProject, error) { return f.proj, nil }

func (f *fakeProvider) ListLayerWads(layer string) ([]string, error) {
	return f.wadsByLyr[layer], nil
}

func (f *fakeProvider) ReadWadOverrides(layer, wadName string) ([]content.Override, error) {
	return f.wads[layer+"/"+wadName], nil
}

func (f *fakeProvider) Close() error { return nil }

func writeMinimalWad(t *testing.T, path string, pathHash uint64, payload []byte) {
	t.Helper()
	const headerSize = 4 + 256 + 8 + 4
	const tocEntrySize = 32
	buf := make([]byte, headerSize)
	buf[0], buf[1], buf[2], buf[3] = 'R', 'W', 3, 4
	binary.LittleEndian.PutUint32(buf[headerSize-4:headerSize], 1)

	toc := make([]byte, tocEntrySize)
	binary.LittleEndian.PutUint64(toc[0:8], pathHash)
	binary.LittleEndian.PutUint32(toc[8:12], uint32(headerSize+tocEntrySize))
	binary.LittleEndian.PutUint32(toc[12:16], uint32(len(payload)))
	binary.LittleEndian.PutUint32(toc[16:20], uint32(len(payload)))

	out := append(buf, toc...)
	out = append(out, payload...)
	require.NoError(t, os.WriteFile(path, out, 0o644))
}

func TestBuildDistributesOverrideAcrossTwoWads(t *testing.T) {
	gameDir := t.TempDir()
	finalDir := filepath.Join(gameDir, "DATA", "FINAL")
	require.NoError(t, os.MkdirAll(finalDir, 0o755))

	h := uint64(0x0123456789abcdef)
	writeMinimalWad(t, filepath.Join(finalDir, "W1.wad.client"), h, []byte("orig1"))
	writeMinimalWad(t, filepath.Join(finalDir, "W2.wad.client"), h, []byte("orig2"))

	proj := &project.ModProject{Name: "test-mod", Version: "1.0.0", Layers: []project.Layer{{Name: "base", Priority: 0}}}
	p := newFakeProvider(proj)
	p.addOverride("base", "W1.wad.client", content.Override{RelPath: "0123456789abcdef.dds", Bytes: []byte("new bytes")})
	p.addOverride("base", "W2.wad.client", content.Override{RelPath: "0123456789abcdef.dds", Bytes: []byte("new bytes")})

	overlayRoot := filepath.Join(t.TempDir(), "overlay")
	var events []Stage
	b := &Builder{
		GameDir:     gameDir,
		OverlayRoot: overlayRoot,
		EnabledMods: []EnabledMod{{ID: "mod-1", Provider: p}},
		Progress: func(stage Stage, current, total int, wadName string) {
			events = append(events, stage)
		},
	}
	require.NoError(t, b.Build())

	_, err := os.Stat(filepath.Join(overlayRoot, "DATA", "FINAL", "W1.wad.client"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(overlayRoot, "DATA", "FINAL", "W2.wad.client"))
	require.NoError(t, err)

	assert.Contains(t, events, Indexing)
	assert.Contains(t, events, CollectingOverrides)
	assert.Contains(t, events, PatchingWad)
	assert.Contains(t, events, Complete)
}

func TestBuildIsStateReusableOnSecondCall(t *testing.T) {
	gameDir := t.TempDir()
	finalDir := filepath.Join(gameDir, "DATA", "FINAL")
	require.NoError(t, os.MkdirAll(finalDir, 0o755))

	h := xhash.HashChunkName("file.bin")
	writeMinimalWad(t, filepath.Join(finalDir, "W1.wad.client"), h, []byte("orig"))

	proj := &project.ModProject{Name: "test-mod", Version: "1.0.0", Layers: []project.Layer{{Name: "base", Priority: 0}}}
	p := newFakeProvider(proj)
	p.addOverride("base", "W1.wad.client", content.Override{RelPath: "file.bin", Bytes: []byte("patched")})

	overlayRoot := filepath.Join(t.TempDir(), "overlay")
	b := &Builder{GameDir: gameDir, OverlayRoot: overlayRoot, EnabledMods: []EnabledMod{{ID: "mod-1", Provider: p}}}
	require.NoError(t, b.Build())

	patched := filepath.Join(overlayRoot, "DATA", "FINAL", "W1.wad.client")
	before, err := os.Stat(patched)
	require.NoError(t, err)

	var events []Stage
	b2 := &Builder{
		GameDir:     gameDir,
		OverlayRoot: overlayRoot,
		EnabledMods: []EnabledMod{{ID: "mod-1", Provider: p}},
		Progress:    func(stage Stage, current, total int, wadName string) { events = append(events, stage) },
	}
	require.NoError(t, b2.Build())

	after, err := os.Stat(patched)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())

	for _, e := range events {
		assert.NotEqual(t, PatchingWad, e)
	}
}

func TestBuildRejectsMissingGameDir(t *testing.T) {
	b := &Builder{GameDir: t.TempDir(), OverlayRoot: t.TempDir()}
	err := b.Build()
	require.Error(t, err)
}

func TestBuildAbortsOnStopFlag(t *testing.T) {
	gameDir := t.TempDir()
	finalDir := filepath.Join(gameDir, "DATA", "FINAL")
	require.NoError(t, os.MkdirAll(finalDir, 0o755))

	b := &Builder{GameDir: gameDir, OverlayRoot: filepath.Join(t.TempDir(), "overlay")}
	b.RequestStop()
	err := b.Build()
	require.Error(t, err)
	var aborted *Aborted
	require.ErrorAs(t, err, &aborted)
}

func TestResolveOverrideHashHexStemVsNormalizedPath(t *testing.T) {
	h, ok := resolveOverrideHash("0123456789abcdef.dds")
	require.True(t, ok)
	assert.Equal(t, uint64(0x0123456789abcdef), h)

	h2, ok := resolveOverrideHash("Data/Characters/Aatrox/Aatrox.bin")
	require.True(t, ok)
	assert.Equal(t, xhash.HashChunkName("data/characters/aatrox/aatrox.bin"), h2)
}

func TestNormalizeRelPathForHashIsIdempotent(t *testing.T) {
	p := `Data\Characters\Foo.bin.ltk`
	once := normalizeRelPathForHash(p)
	twice := normalizeRelPathForHash(once)
	assert.Equal(t, once, twice)
}
