package wad

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// Stats summarizes one BuildPatchedWad call.
type Stats struct {
	ChunksWritten      int
	OverridesApplied   int
	AudioUncompressed  int
	ChunksDeduplicated int
	BytesSavedDedup    int64
	WallTime           time.Duration
}

// BuildPatchedWad mounts srcWadPath, applies overrides (keyed by path
// hash) and writes a new v3.4 WAD to dstWadPath whose chunks are a mix
// of original and overridden bytes, in ascending path-hash order.
func BuildPatchedWad(srcWadPath, dstWadPath string, overrides map[uint64][]byte) (Stats, error) {
	start := time.Now()

	srcFile, err := os.Open(srcWadPath)
	if err != nil {
		return Stats{}, newErr(errkind.IO, "failed to open source WAD", err)
	}
	defer srcFile.Close()

	reader, err := Mount(srcFile)
	if err != nil {
		return Stats{}, err
	}

	sortedHashes := reader.SortedPathHashes()

	// Discard overrides that don't correspond to any chunk in this WAD.
	applicable := make(map[uint64][]byte, len(overrides))
	for h, b := range overrides {
		if _, ok := reader.Chunk(h); ok {
			applicable[h] = b
		}
	}
	for h := range overrides {
		if _, ok := applicable[h]; !ok {
			corelog.WithField("path_hash", h).Warn("override does not match any chunk in source WAD; discarding")
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstWadPath), 0o755); err != nil {
		return Stats{}, newErr(errkind.IO, "failed to create destination directory", err)
	}
	dstFile, err := os.Create(dstWadPath)
	if err != nil {
		return Stats{}, newErr(errkind.IO, "failed to create destination WAD", err)
	}
	defer dstFile.Close()

	stats := Stats{}

	// 1. header with zeroed signature/checksum placeholders.
	header := make([]byte, headerSize)
	encodeMagic(header[0:4])
	binary.LittleEndian.PutUint32(header[headerSize-4:headerSize], uint32(len(sortedHashes)))
	if _, err := dstFile.Write(header); err != nil {
		return Stats{}, newErr(errkind.IO, "failed to write header", err)
	}

	// 2. reserve TOC space.
	tocOffset := int64(headerSize)
	tocPlaceholder := make([]byte, int64(len(sortedHashes))*tocEntrySize)
	if _, err := dstFile.Write(tocPlaceholder); err != nil {
		return Stats{}, newErr(errkind.IO, "failed to reserve TOC space", err)
	}

	payloadStart := tocOffset + int64(len(tocPlaceholder))
	cursor := payloadStart

	entries := make([]ChunkEntry, 0, len(sortedHashes))
	dedup := make(map[uint64]uint32, len(sortedHashes)) // stored-bytes checksum -> data offset

	for _, h := range sortedHashes {
		orig, _ := reader.Chunk(h)
		stored, entry, err := buildOutputChunk(reader, orig, applicable[h], &stats)
		if err != nil {
			return Stats{}, err
		}

		checksum := xhash.Checksum64(stored)
		entry.Checksum = checksum

		if existingOffset, ok := dedup[checksum]; ok {
			entry.DataOffset = existingOffset
			entry.Duplicated = true
			stats.ChunksDeduplicated++
			stats.BytesSavedDedup += int64(len(stored))
		} else {
			entry.DataOffset = uint32(cursor)
			if _, err := dstFile.Write(stored); err != nil {
				return Stats{}, newErr(errkind.IO, "failed to write chunk payload", err)
			}
			dedup[checksum] = entry.DataOffset
			cursor += int64(len(stored))
		}

		entries = append(entries, entry)
		stats.ChunksWritten++
	}

	// 3. seek back and write the TOC in path-hash-sorted order.
	tocBuf := make([]byte, len(entries)*tocEntrySize)
	for i, e := range entries {
		e.marshal(tocBuf[i*tocEntrySize : (i+1)*tocEntrySize])
	}
	if _, err := dstFile.WriteAt(tocBuf, tocOffset); err != nil {
		return Stats{}, newErr(errkind.IO, "failed to write TOC", err)
	}

	stats.WallTime = time.Since(start)
	return stats, nil
}

// buildOutputChunk decides the stored bytes and TOC entry (minus
// offset/checksum, filled in by the caller) for one output chunk.
func buildOutputChunk(reader *Reader, orig ChunkEntry, override []byte, stats *Stats) ([]byte, ChunkEntry, error) {
	if override == nil {
		raw, err := reader.LoadChunkRaw(orig)
		if err != nil {
			return nil, ChunkEntry{}, err
		}
		entry := orig
		entry.Duplicated = false
		return raw, entry, nil
	}

	stats.OverridesApplied++

	if !codec.ShouldCompress(override) {
		stats.AudioUncompressed++
		entry := ChunkEntry{
			PathHash:         orig.PathHash,
			CompressedSize:   uint32(len(override)),
			UncompressedSize: uint32(len(override)),
			Compression:      codec.None,
		}
		return override, entry, nil
	}

	switch orig.Compression {
	case codec.None:
		entry := ChunkEntry{
			PathHash:         orig.PathHash,
			CompressedSize:   uint32(len(override)),
			UncompressedSize: uint32(len(override)),
			Compression:      codec.None,
		}
		return override, entry, nil

	case codec.Zstd:
		stored, err := codec.EncodeZstd(override)
		if err != nil {
			return nil, ChunkEntry{}, newErr(errkind.Internal, "failed to zstd-encode override", err)
		}
		entry := ChunkEntry{
			PathHash:         orig.PathHash,
			CompressedSize:   uint32(len(stored)),
			UncompressedSize: uint32(len(override)),
			Compression:      codec.Zstd,
		}
		return stored, entry, nil

	case codec.ZstdMulti:
		origRaw, err := reader.LoadChunkRaw(orig)
		if err != nil {
			return nil, ChunkEntry{}, err
		}
		p := bytes.Index(origRaw, codec.ZstdMagic())
		if p > 0 && len(override) >= p {
			tail, err := codec.EncodeZstd(override[p:])
			if err != nil {
				return nil, ChunkEntry{}, newErr(errkind.Internal, "failed to zstd-encode spliced tail", err)
			}
			stored := append(append([]byte(nil), override[:p]...), tail...)
			entry := ChunkEntry{
				PathHash:         orig.PathHash,
				CompressedSize:   uint32(len(stored)),
				UncompressedSize: uint32(len(override)),
				Compression:      codec.ZstdMulti,
				FrameCount:       orig.FrameCount,
				StartFrame:       orig.StartFrame,
			}
			return stored, entry, nil
		}
		// Fall back to plain Zstd, clearing frame metadata.
		stored, err := codec.EncodeZstd(override)
		if err != nil {
			return nil, ChunkEntry{}, newErr(errkind.Internal, "failed to zstd-encode override", err)
		}
		entry := ChunkEntry{
			PathHash:         orig.PathHash,
			CompressedSize:   uint32(len(stored)),
			UncompressedSize: uint32(len(override)),
			Compression:      codec.Zstd,
		}
		return stored, entry, nil

	default:
		corelog.WithField("path_hash", orig.PathHash).
			WithField("variant", orig.Compression).
			Warn("overriding chunk with unsupported source compression; re-encoding as zstd")
		stored, err := codec.EncodeZstd(override)
		if err != nil {
			return nil, ChunkEntry{}, newErr(errkind.Internal, "failed to zstd-encode override", err)
		}
		entry := ChunkEntry{
			PathHash:         orig.PathHash,
			CompressedSize:   uint32(len(stored)),
			UncompressedSize: uint32(len(override)),
			Compression:      codec.Zstd,
		}
		return stored, entry, nil
	}
}

