// Package modpkg implements the modpkg archive format: a signed,
// content-addressed, layered binary container for mod data. It
// provides both a reader (mounting an existing .modpkg for random
// access) and a builder (streaming a new one to a writer).
package modpkg

import (
	"encoding/binary"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
)

// Magic is the 8-byte file magic at the start of every modpkg.
const Magic = "_modpkg_"

// FormatVersion is the only version this package reads or writes.
const FormatVersion uint32 = 1

// BaseLayerName is the reserved name every modpkg must declare at
// priority 0.
const BaseLayerName = "base"

// MetadataFolder is the path prefix reserved for meta chunks.
const MetadataFolder = "_meta_"

// Well-known meta chunk paths.
const (
	MetaInfoPath      = MetadataFolder + "/info.msgpack"
	MetaReadmePath    = MetadataFolder + "/readme.md"
	MetaThumbnailPath = MetadataFolder + "/thumbnail.webp"
)

// MaxThumbnailSize is the maximum allowed size of the thumbnail meta
// chunk, in bytes.
const MaxThumbnailSize = 5 * 1024 * 1024

// NoLayerHash is the sentinel layer hash used as the key for chunks
// that have no layer (layer_index == -1 on disk): the three reserved
// meta chunks.
const NoLayerHash uint64 = ^uint64(0)

// NoIndex is the on-disk sentinel for an absent path/layer/wad index.
const NoIndex int32 = -1

// chunkTocEntrySize is the fixed size of one packed chunk entry: path
// hash (8) + data offset (4) + compression (1) + compressed size (8) +
// uncompressed size (8) + compressed checksum (8) + uncompressed
// checksum (8) + path index (4) + layer index (4) + wad index (4).
const chunkTocEntrySize = 57

// Compression is a closed alias restricting modpkg chunks to the
// subset of codec.Variant this format allows: None and Zstd.
type Compression = codec.Variant

// Layer describes one named, prioritized stratum inside a modpkg.
type Layer struct {
	Name     string
	Priority int32
}

// ChunkEntry is one packed TOC entry as read from or written to disk.
// PathIndex/LayerIndex/WadIndex are -1 ("no value") as on disk; use
// Reader.PathOf/LayerOf/WadOf to resolve them.
type ChunkEntry struct {
	PathHash         uint64
	DataOffset       uint32
	Compression      Compression
	CompressedSize   uint64
	UncompressedSize uint64
	CompressedSum    uint64
	UncompressedSum  uint64
	PathIndex        int32
	LayerIndex       int32
	WadIndex         int32
}

func (c *ChunkEntry) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], c.PathHash)
	binary.LittleEndian.PutUint32(buf[8:12], c.DataOffset)
	buf[12] = byte(c.Compression)
	binary.LittleEndian.PutUint64(buf[13:21], c.CompressedSize)
	binary.LittleEndian.PutUint64(buf[21:29], c.UncompressedSize)
	binary.LittleEndian.PutUint64(buf[29:37], c.CompressedSum)
	binary.LittleEndian.PutUint64(buf[37:45], c.UncompressedSum)
	binary.LittleEndian.PutUint32(buf[45:49], uint32(c.PathIndex))
	binary.LittleEndian.PutUint32(buf[49:53], uint32(c.LayerIndex))
	binary.LittleEndian.PutUint32(buf[53:57], uint32(c.WadIndex))
}

func unmarshalChunkEntry(buf []byte) ChunkEntry {
	return ChunkEntry{
		PathHash:         binary.LittleEndian.Uint64(buf[0:8]),
		DataOffset:       binary.LittleEndian.Uint32(buf[8:12]),
		Compression:      Compression(buf[12]),
		CompressedSize:   binary.LittleEndian.Uint64(buf[13:21]),
		UncompressedSize: binary.LittleEndian.Uint64(buf[21:29]),
		CompressedSum:    binary.LittleEndian.Uint64(buf[29:37]),
		UncompressedSum:  binary.LittleEndian.Uint64(buf[37:45]),
		PathIndex:        int32(binary.LittleEndian.Uint32(buf[45:49])),
		LayerIndex:       int32(binary.LittleEndian.Uint32(buf[49:53])),
		WadIndex:         int32(binary.LittleEndian.Uint32(buf[53:57])),
	}
}

func align8(n int64) int64 {
	if rem := n % 8; rem != 0 {
		return n + (8 - rem)
	}
	return n
}
