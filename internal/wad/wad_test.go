package wad

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// buildTestWad hand-assembles a minimal WAD file for test fixtures,
// mirroring the byte layout BuildPatchedWad itself produces.
func buildTestWad(t *testing.T, entries []ChunkEntry, payloads map[uint64][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := make([]byte, headerSize)
	encodeMagic(header[0:4])
	binary.LittleEndian.PutUint32(header[headerSize-4:headerSize], uint32(len(entries)))
	buf.Write(header)

	tocOffset := buf.Len()
	buf.Write(make([]byte, len(entries)*tocEntrySize))

	finalEntries := make([]ChunkEntry, len(entries))
	copy(finalEntries, entries)
	for i := range finalEntries {
		e := &finalEntries[i]
		data := payloads[e.PathHash]
		e.DataOffset = uint32(buf.Len())
		e.CompressedSize = uint32(len(data))
		e.Checksum = xhash.Checksum64(data)
		buf.Write(data)
	}

	out := buf.Bytes()
	tocBuf := make([]byte, len(finalEntries)*tocEntrySize)
	for i, e := range finalEntries {
		e.marshal(tocBuf[i*tocEntrySize : (i+1)*tocEntrySize])
	}
	copy(out[tocOffset:], tocBuf)
	return out
}

func TestMountAndLoadChunk(t *testing.T) {
	data1 := bytes.Repeat([]byte{0x11}, 50)
	stored1, err := codec.EncodeZstd(data1)
	if err != nil {
		t.Fatal(err)
	}
	data2 := []byte("raw bytes")

	h1 := xhash.HashChunkName("data/one.bin")
	h2 := xhash.HashChunkName("data/two.bin")

	wadBytes := buildTestWad(t, []ChunkEntry{
		{PathHash: h1, UncompressedSize: uint32(len(data1)), Compression: codec.Zstd},
		{PathHash: h2, UncompressedSize: uint32(len(data2)), Compression: codec.None},
	}, map[uint64][]byte{h1: stored1, h2: data2})

	r, err := Mount(bytes.NewReader(wadBytes))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks()) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(r.Chunks()))
	}

	c1, ok := r.Chunk(h1)
	if !ok {
		t.Fatal("missing chunk 1")
	}
	out, err := r.LoadChunkDecompressed(c1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data1) {
		t.Fatal("decompressed mismatch")
	}

	c2, _ := r.Chunk(h2)
	out2, err := r.LoadChunkDecompressed(c2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out2, data2) {
		t.Fatal("raw chunk mismatch")
	}
}

func TestMountRejectsBadMagic(t *testing.T) {
	bad := make([]byte, headerSize)
	if _, err := Mount(bytes.NewReader(bad)); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

// TestBuildPatchedWadPreservesSortAndUntouched exercises end-to-end
// scenario 3 from the testable-properties list: a source WAD with two
// chunks, one overridden, must retain the same key set, leave the
// untouched chunk bitwise identical, and keep TOC entries sorted by
// path hash.
func TestBuildPatchedWadPreservesSortAndUntouched(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.wad.client")
	dstPath := filepath.Join(dir, "dst.wad.client")

	bytes1 := bytes.Repeat([]byte{0x42}, 40)
	stored1, err := codec.EncodeZstd(bytes1)
	if err != nil {
		t.Fatal(err)
	}
	bytes2 := []byte("untouched chunk payload")

	h1 := xhash.HashChunkName("a.bin")
	h2 := xhash.HashChunkName("b.bin")

	wadBytes := buildTestWad(t, []ChunkEntry{
		{PathHash: h1, UncompressedSize: uint32(len(bytes1)), Compression: codec.Zstd},
		{PathHash: h2, UncompressedSize: uint32(len(bytes2)), Compression: codec.None},
	}, map[uint64][]byte{h1: stored1, h2: bytes2})

	if err := os.WriteFile(srcPath, wadBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	newBytes1 := bytes.Repeat([]byte{0x99}, 40)
	stats, err := BuildPatchedWad(srcPath, dstPath, map[uint64][]byte{h1: newBytes1})
	if err != nil {
		t.Fatal(err)
	}
	if stats.OverridesApplied != 1 || stats.ChunksWritten != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out, err := os.Open(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	r, err := Mount(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks()) != 2 {
		t.Fatalf("expected 2 chunks in output, got %d", len(r.Chunks()))
	}

	sorted := r.SortedPathHashes()
	expectedOrder := []uint64{h1, h2}
	if h2 < h1 {
		expectedOrder = []uint64{h2, h1}
	}
	if sorted[0] != expectedOrder[0] || sorted[1] != expectedOrder[1] {
		t.Fatalf("expected sorted order %v, got %v", expectedOrder, sorted)
	}

	c2, _ := r.Chunk(h2)
	raw2, err := r.LoadChunkRaw(c2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw2, bytes2) {
		t.Fatal("untouched chunk should be bitwise identical to source")
	}

	c1, _ := r.Chunk(h1)
	dec1, err := r.LoadChunkDecompressed(c1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec1, newBytes1) {
		t.Fatal("overridden chunk should decompress to the new bytes")
	}
}

func TestBuildPatchedWadDiscardsUnmatchedOverride(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.wad.client")
	dstPath := filepath.Join(dir, "dst.wad.client")

	data := []byte("only chunk")
	h := xhash.HashChunkName("only.bin")
	wadBytes := buildTestWad(t, []ChunkEntry{
		{PathHash: h, UncompressedSize: uint32(len(data)), Compression: codec.None},
	}, map[uint64][]byte{h: data})
	if err := os.WriteFile(srcPath, wadBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	unmatched := xhash.HashChunkName("nonexistent.bin")
	stats, err := BuildPatchedWad(srcPath, dstPath, map[uint64][]byte{unmatched: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	if stats.OverridesApplied != 0 || stats.ChunksWritten != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestZstdMultiSpliceAndFallback(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.wad.client")
	dstPath := filepath.Join(dir, "dst.wad.client")

	prefix := []byte("uncompressed-header-bytes")
	tail, err := codec.EncodeZstd([]byte("original tail payload"))
	if err != nil {
		t.Fatal(err)
	}
	origStored := append(append([]byte(nil), prefix...), tail...)
	h := xhash.HashChunkName("multi.bin")

	wadBytes := buildTestWad(t, []ChunkEntry{
		{
			PathHash:         h,
			UncompressedSize: uint32(len(prefix) + len("original tail payload")),
			Compression:      codec.ZstdMulti,
			FrameCount:       1,
			StartFrame:       0,
		},
	}, map[uint64][]byte{h: origStored})
	if err := os.WriteFile(srcPath, wadBytes, 0o644); err != nil {
		t.Fatal(err)
	}

	// Override long enough to cover the prefix: splice should preserve it.
	overrideLong := append(append([]byte(nil), prefix...), []byte("new tail data")...)
	if _, err := BuildPatchedWad(srcPath, dstPath, map[uint64][]byte{h: overrideLong}); err != nil {
		t.Fatal(err)
	}
	outFile, err := os.Open(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Mount(outFile)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := r.Chunk(h)
	if c.Compression != codec.ZstdMulti {
		t.Fatalf("expected ZstdMulti preserved, got %s", c.Compression)
	}
	raw, err := r.LoadChunkRaw(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw[:len(prefix)], prefix) {
		t.Fatal("expected prefix preserved bitwise")
	}
	outFile.Close()

	// Override shorter than the prefix: must fall back to plain Zstd.
	shortOverride := []byte("short")
	if _, err := BuildPatchedWad(srcPath, dstPath, map[uint64][]byte{h: shortOverride}); err != nil {
		t.Fatal(err)
	}
	outFile2, err := os.Open(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	defer outFile2.Close()
	r2, err := Mount(outFile2)
	if err != nil {
		t.Fatal(err)
	}
	c2, _ := r2.Chunk(h)
	if c2.Compression != codec.Zstd {
		t.Fatalf("expected fallback to Zstd, got %s", c2.Compression)
	}
	dec, err := r2.LoadChunkDecompressed(c2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, shortOverride) {
		t.Fatal("expected decompressed override bytes")
	}
}
