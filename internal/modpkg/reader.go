package modpkg

import (
	"encoding/binary"
	"io"
	"path"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// Source is the random-access byte source a Reader mounts.
type Source interface {
	io.ReaderAt
}

// chunkKey is the (path_hash, layer_hash) identity of a modpkg chunk.
type chunkKey struct {
	PathHash  uint64
	LayerHash uint64
}

// Reader mounts a modpkg archive for read-only access.
type Reader struct {
	signature []byte

	LayerIndices []uint64
	Layers       map[uint64]Layer

	ChunkPathIndices []uint64
	ChunkPaths       map[uint64]string

	WadIndices []uint64
	Wads       map[uint64]string

	chunks map[chunkKey]ChunkEntry

	src Source
}

// Mount reads and validates a modpkg's header and side tables from
// src, building the chunk index keyed by (path_hash, layer_hash).
func Mount(src Source) (*Reader, error) {
	var off int64

	magic := make([]byte, 8)
	if _, err := src.ReadAt(magic, off); err != nil {
		return nil, newErr(errkind.Format, "failed to read magic", err)
	}
	off += 8
	if string(magic) != Magic {
		return nil, newErr(errkind.Format, "BadMagic: not a modpkg file", nil)
	}

	version, off2, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off2
	if version != FormatVersion {
		return nil, newErr(errkind.Format, "BadVersion: unsupported modpkg version", nil)
	}

	sigSize, off3, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off3

	chunkCount, off4, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off4

	signature := make([]byte, sigSize)
	if sigSize > 0 {
		if _, err := src.ReadAt(signature, off); err != nil {
			return nil, newErr(errkind.Format, "truncated signature block", err)
		}
	}
	off += int64(sigSize)

	layerCount, off5, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off5

	layerIndices := make([]uint64, 0, layerCount)
	layers := make(map[uint64]Layer, layerCount)
	for i := uint32(0); i < layerCount; i++ {
		nameLen, o, err := readU32(src, off)
		if err != nil {
			return nil, err
		}
		off = o
		nameBuf := make([]byte, nameLen)
		if nameLen > 0 {
			if _, err := src.ReadAt(nameBuf, off); err != nil {
				return nil, newErr(errkind.Format, "truncated layer table", err)
			}
		}
		off += int64(nameLen)
		priority, o2, err := readI32(src, off)
		if err != nil {
			return nil, err
		}
		off = o2

		name := string(nameBuf)
		h := xhash.HashLayerName(name)
		layerIndices = append(layerIndices, h)
		layers[h] = Layer{Name: name, Priority: priority}
	}

	pathCount, off6, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off6
	pathIndices := make([]uint64, 0, pathCount)
	chunkPaths := make(map[uint64]string, pathCount)
	for i := uint32(0); i < pathCount; i++ {
		s, o, err := readCString(src, off)
		if err != nil {
			return nil, err
		}
		off = o
		h := xhash.HashChunkName(s)
		pathIndices = append(pathIndices, h)
		chunkPaths[h] = s
	}

	wadCount, off7, err := readU32(src, off)
	if err != nil {
		return nil, err
	}
	off = off7
	wadIndices := make([]uint64, 0, wadCount)
	wads := make(map[uint64]string, wadCount)
	for i := uint32(0); i < wadCount; i++ {
		s, o, err := readCString(src, off)
		if err != nil {
			return nil, err
		}
		off = o
		h := xhash.HashWadName(s)
		wadIndices = append(wadIndices, h)
		wads[h] = s
	}

	off = align8(off)

	tocSize := int64(chunkCount) * chunkTocEntrySize
	tocBuf := make([]byte, tocSize)
	if tocSize > 0 {
		if _, err := src.ReadAt(tocBuf, off); err != nil {
			return nil, newErr(errkind.Format, "truncated chunk TOC", err)
		}
	}

	chunks := make(map[chunkKey]ChunkEntry, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		e := unmarshalChunkEntry(tocBuf[int64(i)*chunkTocEntrySize : int64(i+1)*chunkTocEntrySize])

		layerHash := NoLayerHash
		if e.LayerIndex != NoIndex && int(e.LayerIndex) < len(layerIndices) {
			layerHash = layerIndices[e.LayerIndex]
		}

		chunks[chunkKey{PathHash: e.PathHash, LayerHash: layerHash}] = e
	}

	return &Reader{
		signature:        signature,
		LayerIndices:     layerIndices,
		Layers:           layers,
		ChunkPathIndices: pathIndices,
		ChunkPaths:       chunkPaths,
		WadIndices:       wadIndices,
		Wads:             wads,
		chunks:           chunks,
		src:              src,
	}, nil
}

// Chunks exposes the full chunk index, keyed by (path hash, layer
// hash). Callers must not mutate the returned map.
func (r *Reader) Chunks() map[chunkKey]ChunkEntry { return r.chunks }

// candidatePathHashes returns the literal hash of path, and -- if its
// base file name is a 16-hex-digit string -- the hash parsed directly
// from those hex digits.
func candidatePathHashes(p string) (literal uint64, hex uint64, hasHex bool) {
	literal = xhash.HashChunkName(p)
	base := strings.ToLower(path.Base(p))
	if v, ok := xhash.ParseHexChunkName(base); ok {
		return literal, v, true
	}
	return literal, 0, false
}

func layerHashOf(layer *string) uint64 {
	if layer == nil {
		return NoLayerHash
	}
	return xhash.HashLayerName(*layer)
}

// GetChunk looks up a chunk by logical path and optional layer name,
// trying the literal path hash first and then -- if the base file
// name is a 16-hex-digit string -- the hash parsed from those digits.
func (r *Reader) GetChunk(p string, layer *string) (ChunkEntry, error) {
	literal, hex, hasHex := candidatePathHashes(p)
	layerHash := layerHashOf(layer)

	if c, ok := r.chunks[chunkKey{PathHash: literal, LayerHash: layerHash}]; ok {
		return c, nil
	}
	if hasHex {
		if c, ok := r.chunks[chunkKey{PathHash: hex, LayerHash: layerHash}]; ok {
			return c, nil
		}
	}
	return ChunkEntry{}, errMissingChunk(literal)
}

// HasChunk reports whether a chunk exists by path and optional layer.
func (r *Reader) HasChunk(p string, layer *string) bool {
	_, err := r.GetChunk(p, layer)
	return err == nil
}

// LoadChunkRaw reads a chunk's stored (possibly compressed) bytes by
// path hash and layer hash.
func (r *Reader) LoadChunkRaw(pathHash, layerHash uint64) ([]byte, error) {
	c, ok := r.chunks[chunkKey{PathHash: pathHash, LayerHash: layerHash}]
	if !ok {
		return nil, errMissingChunk(pathHash)
	}
	return r.loadChunkRawEntry(c)
}

func (r *Reader) loadChunkRawEntry(c ChunkEntry) ([]byte, error) {
	buf := make([]byte, c.CompressedSize)
	if c.CompressedSize > 0 {
		if _, err := r.src.ReadAt(buf, int64(c.DataOffset)); err != nil {
			return nil, newErr(errkind.Format, "TruncatedPayload", err)
		}
	}
	return buf, nil
}

// LoadChunkDecompressedByHash reads and decompresses a chunk by path
// hash and layer hash.
func (r *Reader) LoadChunkDecompressedByHash(pathHash, layerHash uint64) ([]byte, error) {
	c, ok := r.chunks[chunkKey{PathHash: pathHash, LayerHash: layerHash}]
	if !ok {
		return nil, errMissingChunk(pathHash)
	}
	return r.loadChunkDecompressedEntry(c)
}

func (r *Reader) loadChunkDecompressedEntry(c ChunkEntry) ([]byte, error) {
	raw, err := r.loadChunkRawEntry(c)
	if err != nil {
		return nil, err
	}
	switch c.Compression {
	case codec.None, codec.Zstd:
		out, err := codec.Decode(raw, c.Compression, c.UncompressedSize)
		if err != nil {
			return nil, newErr(errkind.Format, "failed to decompress chunk", err)
		}
		return out, nil
	default:
		return nil, newErr(errkind.Format, "UnknownCompression", nil)
	}
}

// LoadChunkRawByPath resolves path+layer to a chunk (trying the hex
// fallback) and loads its raw stored bytes.
func (r *Reader) LoadChunkRawByPath(p string, layer *string) ([]byte, error) {
	c, err := r.GetChunk(p, layer)
	if err != nil {
		return nil, err
	}
	return r.loadChunkRawEntry(c)
}

// LoadChunkDecompressedByPath resolves path+layer to a chunk and
// loads its decompressed bytes.
func (r *Reader) LoadChunkDecompressedByPath(p string, layer *string) ([]byte, error) {
	c, err := r.GetChunk(p, layer)
	if err != nil {
		return nil, err
	}
	return r.loadChunkDecompressedEntry(c)
}

// metaChunk loads a reserved _meta_/ chunk, rejecting one that has a
// non-sentinel layer or wad index.
func (r *Reader) metaChunk(p string) (ChunkEntry, error) {
	c, err := r.GetChunk(p, nil)
	if err != nil {
		return ChunkEntry{}, err
	}
	if c.LayerIndex != NoIndex || c.WadIndex != NoIndex {
		return ChunkEntry{}, errInvalidMetaChunk(p)
	}
	return c, nil
}

// LoadMetadata decodes the reserved _meta_/info.msgpack chunk.
func (r *Reader) LoadMetadata() (Metadata, error) {
	c, err := r.metaChunk(MetaInfoPath)
	if err != nil {
		return Metadata{}, err
	}
	raw, err := r.loadChunkDecompressedEntry(c)
	if err != nil {
		return Metadata{}, err
	}
	return DecodeMetadata(raw)
}

// LoadReadme decodes the reserved _meta_/readme.md chunk.
func (r *Reader) LoadReadme() ([]byte, error) {
	c, err := r.metaChunk(MetaReadmePath)
	if err != nil {
		return nil, err
	}
	return r.loadChunkDecompressedEntry(c)
}

// LoadThumbnail decodes the reserved _meta_/thumbnail.webp chunk.
func (r *Reader) LoadThumbnail() ([]byte, error) {
	c, err := r.metaChunk(MetaThumbnailPath)
	if err != nil {
		return nil, err
	}
	return r.loadChunkDecompressedEntry(c)
}

func readU32(src Source, off int64) (uint32, int64, error) {
	buf := make([]byte, 4)
	if _, err := src.ReadAt(buf, off); err != nil {
		return 0, off, newErr(errkind.Format, "truncated header", err)
	}
	return binary.LittleEndian.Uint32(buf), off + 4, nil
}

func readI32(src Source, off int64) (int32, int64, error) {
	v, o, err := readU32(src, off)
	return int32(v), o, err
}

func readCString(src Source, off int64) (string, int64, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	cur := off
	for {
		if _, err := src.ReadAt(buf, cur); err != nil {
			return "", cur, newErr(errkind.Format, "truncated string table", err)
		}
		cur++
		if buf[0] == 0 {
			break
		}
		sb.WriteByte(buf[0])
	}
	return sb.String(), cur, nil
}
