package packer

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

func writeProject(t *testing.T, root string, proj *project.ModProject) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, project.SaveJSON(root, proj))
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestPackRejectsMissingLayerDirectory(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, &project.ModProject{
		Name:    "sample-mod",
		Version: "1.0.0",
		Layers:  []project.Layer{{Name: "base", Priority: 0}},
	})

	_, err := Pack(root, filepath.Join(root, "out.modpkg"))
	require.Error(t, err)
}

func TestPackAndExtractRoundTrip(t *testing.T) {
	root := t.TempDir()
	proj := &project.ModProject{
		Name:        "sample-mod",
		DisplayName: "Sample Mod",
		Version:     "1.2.3",
		Description: "a test mod",
		Authors:     []project.Author{{Name: "ncow"}},
		Layers: []project.Layer{
			{Name: "base", Priority: 0},
			{Name: "alt", Priority: 1, Description: "alternate skin"},
		},
	}
	writeProject(t, root, proj)

	writeFile(t, filepath.Join(root, "content", "base", "Map11.wad.client", "data", "a.bin"), []byte("hello base"))
	writeFile(t, filepath.Join(root, "content", "alt", "Map11.wad.client", "data", "a.bin"), []byte("hello alt"))
	writeFile(t, filepath.Join(root, "README.md"), []byte("# Sample Mod"))

	outPath := filepath.Join(root, "build", DefaultFileName(proj))
	result, err := Pack(root, outPath)
	require.NoError(t, err)
	require.Equal(t, 2, result.ChunkCount)

	info, err := Info(outPath)
	require.NoError(t, err)
	require.Equal(t, "sample-mod", info.Metadata.Name)
	require.Equal(t, "1.2.3", info.Metadata.Version)
	require.True(t, info.HasReadme)
	require.False(t, info.HasThumbnail)
	require.Len(t, info.Layers, 2)

	extractDir := t.TempDir()
	extractResult, err := Extract(outPath, extractDir)
	require.NoError(t, err)
	require.Equal(t, 2, extractResult.FileCount)
	require.True(t, extractResult.HasReadme)

	gotProj, err := project.Load(extractDir)
	require.NoError(t, err)
	require.Equal(t, proj.Name, gotProj.Name)
	require.Equal(t, proj.Version, gotProj.Version)

	base, err := os.ReadFile(filepath.Join(extractDir, "content", "base", "Map11.wad.client", "data", "a.bin"))
	require.NoError(t, err)
	require.Equal(t, "hello base", string(base))

	alt, err := os.ReadFile(filepath.Join(extractDir, "content", "alt", "Map11.wad.client", "data", "a.bin"))
	require.NoError(t, err)
	require.Equal(t, "hello alt", string(alt))
}

func TestConvertThumbnailRejectsUnrecognizedFormat(t *testing.T) {
	_, err := convertThumbnail([]byte("not an image at all"))
	require.Error(t, err)
}

func TestConvertThumbnailRejectsOversizeWebp(t *testing.T) {
	big := make([]byte, 6*1024*1024)
	copy(big, "RIFF")
	copy(big[8:], "WEBP")
	_, err := convertThumbnail(big)
	require.Error(t, err)
}

func TestConvertThumbnailReencodesStaticPNG(t *testing.T) {
	out, err := convertThumbnail(tinyPNG(t, color.RGBA{R: 200, G: 40, B: 40, A: 255}))
	require.NoError(t, err)
	require.True(t, isWebp(out), "re-encoded thumbnail must be a WebP container")
}

func TestConvertThumbnailConvertsAnimatedGIF(t *testing.T) {
	out, err := convertThumbnail(tinyAnimatedGIF(t))
	require.NoError(t, err)
	require.True(t, isWebp(out), "converted animated thumbnail must be a WebP container")
}

func tinyPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tinyAnimatedGIF(t *testing.T) []byte {
	t.Helper()
	palette := []color.Color{color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}}
	frame1 := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	frame2 := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
	for i := range frame2.Pix {
		frame2.Pix[i] = 1
	}
	g := &gif.GIF{
		Image:     []*image.Paletted{frame1, frame2},
		Delay:     []int{10, 20},
		LoopCount: 0,
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}
