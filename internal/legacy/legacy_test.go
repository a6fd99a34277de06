package legacy

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPackDropsNonBaseLayers(t *testing.T) {
	root := t.TempDir()
	proj := &project.ModProject{
		Name:        "sample-mod",
		DisplayName: "Sample Mod",
		Version:     "1.0.0",
		Authors:     []project.Author{{Name: "ncow"}},
		Layers: []project.Layer{
			{Name: "base", Priority: 0},
			{Name: "alt", Priority: 1},
		},
	}
	require.NoError(t, project.SaveJSON(root, proj))
	writeFile(t, filepath.Join(root, "content", "base", "Map11.wad.client", "data", "a.bin"), []byte("base content"))
	writeFile(t, filepath.Join(root, "content", "alt", "Map11.wad.client", "data", "a.bin"), []byte("alt content"))
	writeFile(t, filepath.Join(root, "thumb.png"), tinyPNG(t))
	proj.Thumbnail = "thumb.png"
	require.NoError(t, project.SaveJSON(root, proj))

	outPath := filepath.Join(root, "sample-mod.fantome")
	result, err := Pack(root, outPath)
	require.NoError(t, err)
	require.Equal(t, 1, result.FileCount)
	require.Equal(t, []string{"alt"}, result.DroppedLayers)

	zr, err := zip.OpenReader(outPath)
	require.NoError(t, err)
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	require.True(t, names["META/info.json"])
	require.True(t, names["META/image.png"])
	require.True(t, names["WAD/Map11.wad.client/data/a.bin"])
	require.Len(t, zr.File, 3)
}

func TestPackThenExtractRoundTrip(t *testing.T) {
	root := t.TempDir()
	proj := &project.ModProject{
		Name:        "sample-mod",
		DisplayName: "Sample Mod",
		Version:     "2.0.0",
		Description: "desc",
		Authors:     []project.Author{{Name: "ncow"}},
		Layers:      []project.Layer{{Name: "base", Priority: 0}},
	}
	require.NoError(t, project.SaveJSON(root, proj))
	writeFile(t, filepath.Join(root, "content", "base", "Map11.wad.client", "data", "a.bin"), []byte("base content"))

	outPath := filepath.Join(root, "sample-mod.fantome")
	_, err := Pack(root, outPath)
	require.NoError(t, err)

	extractDir := t.TempDir()
	extractResult, err := Extract(outPath, extractDir)
	require.NoError(t, err)
	require.Equal(t, 1, extractResult.FileCount)

	gotProj, err := project.Load(extractDir)
	require.NoError(t, err)
	require.Equal(t, "sample-mod", gotProj.Name)
	require.True(t, gotProj.HasBaseLayer())

	got, err := os.ReadFile(filepath.Join(extractDir, "content", "base", "Map11.wad.client", "data", "a.bin"))
	require.NoError(t, err)
	require.Equal(t, "base content", string(got))
}
