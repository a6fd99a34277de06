package wad

import (
	"encoding/binary"
	"io"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// Source is the random-access byte source a Reader mounts. *os.File
// and *bytes.Reader both satisfy it; callers needing cross-thread
// access should wrap their source so each call gets its own read
// cursor (io.ReaderAt makes no position guarantees, which is exactly
// the property we want here).
type Source interface {
	io.ReaderAt
}

// Reader mounts a WAD archive for read-only access: its header, its
// parsed chunk table of contents, and on-demand chunk loading.
type Reader struct {
	header Header
	chunks map[uint64]ChunkEntry
	src    Source
}

// Mount reads and validates a WAD header and TOC from src.
func Mount(src Source) (*Reader, error) {
	head := make([]byte, headerSize)
	if _, err := src.ReadAt(head, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errTruncatedToc()
		}
		return nil, newErr(errkind.IO, "failed to read WAD header", err)
	}

	major, minor, ok := decodeMagic(head[0:4])
	if !ok {
		return nil, errBadMagic()
	}
	if major != VersionMajor || minor != VersionMinor {
		return nil, errBadVersion(major, minor)
	}

	var h Header
	copy(h.Signature[:], head[4:4+signatureSize])
	off := 4 + signatureSize
	h.Checksum = binary.LittleEndian.Uint64(head[off : off+8])
	off += 8
	h.ChunkCount = binary.LittleEndian.Uint32(head[off : off+4])

	tocSize := int64(h.ChunkCount) * tocEntrySize
	tocBuf := make([]byte, tocSize)
	if tocSize > 0 {
		if _, err := src.ReadAt(tocBuf, int64(headerSize)); err != nil {
			return nil, errTruncatedToc()
		}
	}

	chunks := make(map[uint64]ChunkEntry, h.ChunkCount)
	for i := uint32(0); i < h.ChunkCount; i++ {
		entry := unmarshalChunkEntry(tocBuf[i*tocEntrySize : (i+1)*tocEntrySize])
		chunks[entry.PathHash] = entry
	}

	return &Reader{header: h, chunks: chunks, src: src}, nil
}

// Header returns the mounted WAD's header.
func (r *Reader) Header() Header { return r.header }

// Chunks returns the full chunk index keyed by path hash. The
// returned map must not be mutated by callers.
func (r *Reader) Chunks() map[uint64]ChunkEntry { return r.chunks }

// Chunk returns the TOC entry for a path hash.
func (r *Reader) Chunk(pathHash uint64) (ChunkEntry, bool) {
	c, ok := r.chunks[pathHash]
	return c, ok
}

// SortedPathHashes returns every chunk's path hash in ascending order,
// the output chunk order the WAD writer relies on for deterministic
// rewrites.
func (r *Reader) SortedPathHashes() []uint64 {
	hashes := make([]uint64, 0, len(r.chunks))
	for h := range r.chunks {
		hashes = append(hashes, h)
	}
	sortUint64s(hashes)
	return hashes
}

// LoadChunkRaw reads a chunk's stored (possibly compressed) bytes
// without decompressing them.
func (r *Reader) LoadChunkRaw(c ChunkEntry) ([]byte, error) {
	buf := make([]byte, c.CompressedSize)
	if c.CompressedSize > 0 {
		if _, err := r.src.ReadAt(buf, int64(c.DataOffset)); err != nil {
			return nil, errTruncatedPayload()
		}
	}
	return buf, nil
}

// LoadChunkDecompressed reads and decompresses a chunk's bytes
// according to its recorded compression variant. This package does
// not verify payload checksums or the ECDSA signature field, and
// neither does the patcher in internal/overlay; mounting does not
// depend on either check.
func (r *Reader) LoadChunkDecompressed(c ChunkEntry) ([]byte, error) {
	raw, err := r.LoadChunkRaw(c)
	if err != nil {
		return nil, err
	}
	switch c.Compression {
	case codec.None, codec.Zstd, codec.ZstdMulti:
		out, err := codec.Decode(raw, c.Compression, uint64(c.UncompressedSize))
		if err != nil {
			return nil, newErr(errkind.Format, "failed to decompress chunk", err)
		}
		return out, nil
	default:
		return nil, errUnknownCompression(byte(c.Compression))
	}
}
