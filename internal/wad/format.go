// Package wad implements the reader and writer for the game's WAD
// archive container (format version 3.4): mounting an existing WAD to
// stream its chunks, and rewriting one with a mix of original and
// mod-overridden chunk bytes while preserving per-chunk compression
// semantics, including the compound "uncompressed-prefix + zstd"
// variant.
package wad

import (
	"encoding/binary"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
)

const (
	// magicR/magicW are the "RW" magic bytes; the header stores them
	// followed by the major and minor version bytes, four bytes in all.
	magicR     = 'R'
	magicW     = 'W'
	VersionMajor byte = 3
	VersionMinor byte = 4

	signatureSize = 256

	// headerSize is magic+major+minor (4 bytes) + signature (256) +
	// payload checksum (8) + chunk count (4).
	headerSize = 4 + signatureSize + 8 + 4

	// tocEntrySize is the fixed size of one packed chunk entry: path
	// hash (8) + data offset (4) + compressed size (4) + uncompressed
	// size (4) + compression (1) + flags (1) + frame data (2) +
	// checksum (8) = 32 bytes.
	tocEntrySize = 32

	flagDuplicated = 1 << 0
)

// Header is the fixed-size WAD v3.4 header.
type Header struct {
	Signature [signatureSize]byte
	Checksum  uint64
	ChunkCount uint32
}

func encodeMagic(buf []byte) {
	buf[0] = magicR
	buf[1] = magicW
	buf[2] = VersionMajor
	buf[3] = VersionMinor
}

func decodeMagic(buf []byte) (major, minor byte, ok bool) {
	if buf[0] != magicR || buf[1] != magicW {
		return 0, 0, false
	}
	return buf[2], buf[3], true
}

// ChunkEntry is one packed TOC entry: a chunk's identity, location,
// size, compression and integrity metadata.
type ChunkEntry struct {
	PathHash         uint64
	DataOffset       uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Compression      codec.Variant
	Duplicated       bool
	FrameCount       uint8
	StartFrame       uint8
	Checksum         uint64
}

func (c *ChunkEntry) marshal(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], c.PathHash)
	binary.LittleEndian.PutUint32(buf[8:12], c.DataOffset)
	binary.LittleEndian.PutUint32(buf[12:16], c.CompressedSize)
	binary.LittleEndian.PutUint32(buf[16:20], c.UncompressedSize)
	buf[20] = byte(c.Compression)
	var flags byte
	if c.Duplicated {
		flags |= flagDuplicated
	}
	buf[21] = flags
	buf[22] = c.FrameCount
	buf[23] = c.StartFrame
	binary.LittleEndian.PutUint64(buf[24:32], c.Checksum)
}

func unmarshalChunkEntry(buf []byte) ChunkEntry {
	return ChunkEntry{
		PathHash:         binary.LittleEndian.Uint64(buf[0:8]),
		DataOffset:       binary.LittleEndian.Uint32(buf[8:12]),
		CompressedSize:   binary.LittleEndian.Uint32(buf[12:16]),
		UncompressedSize: binary.LittleEndian.Uint32(buf[16:20]),
		Compression:      codec.Variant(buf[20]),
		Duplicated:       buf[21]&flagDuplicated != 0,
		FrameCount:       buf[22],
		StartFrame:       buf[23],
		Checksum:         binary.LittleEndian.Uint64(buf[24:32]),
	}
}
