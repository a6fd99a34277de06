package modpkg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
)

// memSink adapts a bytes.Buffer into the Write+Seek sink BuildToWriter
// needs, backed by a plain growable byte slice.
type memSink struct {
	buf []byte
	pos int64
}

func (m *memSink) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memSink) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func constantProvider(data []byte) PayloadProvider {
	return func(spec ChunkSpec, cursor io.Writer) error {
		_, err := cursor.Write(data)
		return err
	}
}

func TestBuildAndMountSingleChunkRoundTrip(t *testing.T) {
	b := NewBuilder().WithBaseLayer()
	b.WithChunk("data/characters/aatrox/aatrox.bin", codec.None, "base", "")

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider([]byte("hello world")))
	require.NoError(t, err)

	r, err := Mount(bytes.NewReader(sink.buf))
	require.NoError(t, err)

	layer := "base"
	out, err := r.LoadChunkDecompressedByPath("data/characters/aatrox/aatrox.bin", &layer)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), out)

	c, err := r.GetChunk("data/characters/aatrox/aatrox.bin", &layer)
	require.NoError(t, err)
	assert.False(t, c.IsMeta())
	path, ok := r.PathOf(c)
	assert.True(t, ok)
	assert.Equal(t, "data/characters/aatrox/aatrox.bin", path)
	wad, ok := r.WadOf(c)
	assert.False(t, ok)
	assert.Equal(t, "", wad)
}

func TestBuildWithHashedChunkRoundTrip(t *testing.T) {
	b := NewBuilder().WithBaseLayer()
	require.NoError(t, b.WithHashedChunk("0123456789abcdef.dds", codec.Zstd, "base", "Map22.wad.client"))

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider(bytes.Repeat([]byte{0xAB}, 256)))
	require.NoError(t, err)

	r, err := Mount(bytes.NewReader(sink.buf))
	require.NoError(t, err)

	layer := "base"
	out, err := r.LoadChunkDecompressedByPath("0123456789abcdef.dds", &layer)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 256), out)
}

func TestBuildWithMetadataReadmeThumbnail(t *testing.T) {
	b := NewBuilder().WithBaseLayer()
	b.WithMetadata(Metadata{Name: "aatrox-redux", DisplayName: "Aatrox Redux", Version: "1.0.0"})
	b.WithReadme("# Aatrox Redux\n")
	require.NoError(t, b.WithThumbnail([]byte("RIFF....WEBPVP8 ")))
	b.WithChunk("data/characters/aatrox/aatrox.bin", codec.None, "base", "")

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider([]byte("payload")))
	require.NoError(t, err)

	r, err := Mount(bytes.NewReader(sink.buf))
	require.NoError(t, err)

	meta, err := r.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, "aatrox-redux", meta.Name)
	assert.Equal(t, "Aatrox Redux", meta.DisplayName)

	readme, err := r.LoadReadme()
	require.NoError(t, err)
	assert.Equal(t, "# Aatrox Redux\n", string(readme))

	thumb, err := r.LoadThumbnail()
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WEBPVP8 "), thumb)
}

func TestBuildEmptyModpkgHasNoChunks(t *testing.T) {
	b := NewBuilder().WithBaseLayer()

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider(nil))
	require.NoError(t, err)

	r, err := Mount(bytes.NewReader(sink.buf))
	require.NoError(t, err)
	assert.Empty(t, r.Chunks())
}

func TestBuildRejectsMissingBaseLayer(t *testing.T) {
	b := NewBuilder()
	b.WithChunk("foo.bin", codec.None, "", "")

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider([]byte("x")))
	require.Error(t, err)
}

func TestBuildRejectsUndeclaredLayer(t *testing.T) {
	b := NewBuilder().WithBaseLayer()
	b.WithChunk("foo.bin", codec.None, "skins", "")

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider([]byte("x")))
	require.Error(t, err)
}

func TestBuildPreservesDeclarationOrderInPathTable(t *testing.T) {
	b := NewBuilder().WithBaseLayer()
	b.WithChunk("zzz.bin", codec.None, "base", "")
	b.WithChunk("aaa.bin", codec.None, "base", "")

	var sink memSink
	err := b.BuildToWriter(&sink, constantProvider([]byte("x")))
	require.NoError(t, err)

	r, err := Mount(bytes.NewReader(sink.buf))
	require.NoError(t, err)
	require.Len(t, r.ChunkPathIndices, 2)
	assert.Equal(t, "zzz.bin", r.ChunkPaths[r.ChunkPathIndices[0]])
	assert.Equal(t, "aaa.bin", r.ChunkPaths[r.ChunkPathIndices[1]])
}
