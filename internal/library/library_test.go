package library

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
)

type seekBuf struct {
	buf []byte
	pos int64
}

func (s *seekBuf) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuf) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func buildTestModpkg(t *testing.T) []byte {
	t.Helper()
	b := modpkg.NewBuilder().WithBaseLayer()
	b.WithMetadata(modpkg.Metadata{Name: "test-mod", DisplayName: "Test Mod", Version: "1.0.0"})
	b.WithChunk("data/x.bin", codec.None, "base", "")

	sink := &seekBuf{}
	err := b.BuildToWriter(sink, func(spec modpkg.ChunkSpec, cursor io.Writer) error {
		_, e := cursor.Write([]byte("x"))
		return e
	})
	require.NoError(t, err)
	return sink.buf
}

func writeTestArchive(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "test-mod_1.0.0.modpkg")
	require.NoError(t, os.WriteFile(p, buildTestModpkg(t), 0o644))
	return p
}

func TestInstallAddsToInstalledAndEnablesInActiveProfile(t *testing.T) {
	storeDir := t.TempDir()
	archiveDir := t.TempDir()
	store := NewStore(storeDir, "")

	archive := writeTestArchive(t, archiveDir)
	mod, err := store.Install(archive)
	require.NoError(t, err)
	assert.Equal(t, Modpkg, mod.Format)

	idx, err := store.load()
	require.NoError(t, err)
	require.Len(t, idx.Installed, 1)
	assert.Equal(t, mod.ID, idx.Installed[0].ID)

	active := idx.activeProfile()
	require.NotNil(t, active)
	assert.Equal(t, []string{mod.ID}, active.ModOrder)
	assert.Equal(t, []string{mod.ID}, active.Enabled)

	_, err = os.Stat(filepath.Join(storeDir, "metadata", mod.ID, "mod.config.json"))
	require.NoError(t, err)
}

func TestUninstallRemovesFromEveryProfile(t *testing.T) {
	storeDir := t.TempDir()
	archiveDir := t.TempDir()
	store := NewStore(storeDir, "")

	archive := writeTestArchive(t, archiveDir)
	mod, err := store.Install(archive)
	require.NoError(t, err)

	_, err = store.CreateProfile("Alt")
	require.NoError(t, err)

	require.NoError(t, store.Uninstall(mod.ID))

	idx, err := store.load()
	require.NoError(t, err)
	assert.Empty(t, idx.Installed)
	for _, p := range idx.Profiles {
		assert.NotContains(t, p.ModOrder, mod.ID)
		assert.NotContains(t, p.Enabled, mod.ID)
	}

	matches, _ := filepath.Glob(filepath.Join(storeDir, "archives", mod.ID+".*"))
	assert.Empty(t, matches)
}

func TestToggleAndReorder(t *testing.T) {
	storeDir := t.TempDir()
	archiveDir := t.TempDir()
	store := NewStore(storeDir, "")

	a1 := writeArchiveNamed(t, archiveDir, "a")
	a2 := writeArchiveNamed(t, archiveDir, "b")
	mod1, err := store.Install(a1)
	require.NoError(t, err)
	mod2, err := store.Install(a2)
	require.NoError(t, err)

	require.NoError(t, store.Toggle(mod1.ID, false))
	idx, err := store.load()
	require.NoError(t, err)
	active := idx.activeProfile()
	assert.NotContains(t, active.Enabled, mod1.ID)
	assert.Contains(t, active.Enabled, mod2.ID)

	require.NoError(t, store.Reorder([]string{mod1.ID, mod2.ID}))
	idx, err = store.load()
	require.NoError(t, err)
	active = idx.activeProfile()
	assert.Equal(t, []string{mod1.ID, mod2.ID}, active.ModOrder)
	assert.Equal(t, []string{mod2.ID}, active.Enabled)

	err = store.Reorder([]string{mod1.ID})
	require.Error(t, err)
}

func writeArchiveNamed(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name+".modpkg")
	var buf bytes.Buffer
	buf.Write(buildTestModpkg(t))
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestProfileLifecycle(t *testing.T) {
	storeDir := t.TempDir()
	store := NewStore(storeDir, "")

	p, err := store.CreateProfile("Alt")
	require.NoError(t, err)

	_, err = store.CreateProfile("Alt")
	require.Error(t, err)

	_, err = store.CreateProfile("")
	require.Error(t, err)

	require.NoError(t, store.SwitchProfile(p.ID))
	idx, err := store.load()
	require.NoError(t, err)
	assert.Equal(t, p.ID, idx.ActiveProfileID)

	err = store.DeleteProfile(p.ID)
	require.Error(t, err) // active profile cannot be deleted

	require.NoError(t, store.SwitchProfile(idx.Profiles[0].ID))
	err = store.DeleteProfile(idx.Profiles[0].ID)
	require.Error(t, err) // Default cannot be deleted
}

func TestSwitchProfileRefusedDuringBuild(t *testing.T) {
	storeDir := t.TempDir()
	store := NewStore(storeDir, "")
	p, err := store.CreateProfile("Alt")
	require.NoError(t, err)

	store.BeginBuild()
	err = store.SwitchProfile(p.ID)
	require.Error(t, err)
	store.EndBuild()

	require.NoError(t, store.SwitchProfile(p.ID))
}
