package modpkg

import (
	"io"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// ChunkSpec describes one chunk a builder has been asked to write;
// it is handed to the PayloadProvider callback so the caller can
// locate the source bytes for it.
type ChunkSpec struct {
	PathHash    uint64
	Path        string // display path; empty for hash-only chunks
	Compression Compression
	Layer       string // "" means no layer
	Wad         string // "" means no wad
}

func (s ChunkSpec) layerHash() uint64 {
	if s.Layer == "" {
		return NoLayerHash
	}
	return xhash.HashLayerName(s.Layer)
}

func (s ChunkSpec) key() chunkKey {
	return chunkKey{PathHash: s.PathHash, LayerHash: s.layerHash()}
}

// PayloadProvider supplies the uncompressed bytes for one chunk by
// writing them into cursor. It is the only place the builder touches
// mod source data; all other file I/O lives in the caller.
type PayloadProvider func(spec ChunkSpec, cursor io.Writer) error

// metaValue holds the in-memory payload for one pending reserved meta
// chunk, to be serialized when Build runs.
type metaValue struct {
	metadata  *Metadata
	readme    *string
	thumbnail []byte
}

// Builder accumulates layers, chunks and metadata, then streams a
// valid modpkg to a writer.
type Builder struct {
	layers   []Layer
	layerSet map[string]bool

	chunks     map[chunkKey]ChunkSpec
	chunkOrder []chunkKey

	metaChunks     map[string]ChunkSpec
	metaValues     map[string]metaValue
	metaChunkOrder []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		layerSet:   map[string]bool{},
		chunks:     map[chunkKey]ChunkSpec{},
		metaChunks: map[string]ChunkSpec{},
		metaValues: map[string]metaValue{},
	}
}

// WithLayer declares a layer. The base layer must be added before
// Build is called.
func (b *Builder) WithLayer(name string, priority int32) *Builder {
	if !b.layerSet[name] {
		b.layerSet[name] = true
		b.layers = append(b.layers, Layer{Name: name, Priority: priority})
	}
	return b
}

// WithBaseLayer is a convenience for WithLayer(BaseLayerName, 0).
func (b *Builder) WithBaseLayer() *Builder {
	return b.WithLayer(BaseLayerName, 0)
}

// WithChunk declares a chunk at a literal path. Idempotent on key
// collision: the last call for a given (path_hash, layer_hash) wins.
func (b *Builder) WithChunk(p string, compression Compression, layer, wad string) *Builder {
	spec := ChunkSpec{PathHash: xhash.HashChunkName(p), Path: p, Compression: compression, Layer: layer, Wad: wad}
	b.insertChunk(spec)
	return b
}

// WithHashedChunk declares a chunk whose path hash is parsed directly
// from a 16-hex-digit name (used when the original logical path has
// been lost). Returns an error if name is not a valid hex chunk name.
func (b *Builder) WithHashedChunk(hexName string, compression Compression, layer, wad string) error {
	v, ok := xhash.ParseHexChunkName(hexName)
	if !ok {
		return newErr(errkind.Validation, "invalid hashed chunk name: "+hexName, nil)
	}
	b.insertChunk(ChunkSpec{PathHash: v, Compression: compression, Layer: layer, Wad: wad})
	return nil
}

func (b *Builder) insertChunk(spec ChunkSpec) {
	k := spec.key()
	if _, exists := b.chunks[k]; !exists {
		b.chunkOrder = append(b.chunkOrder, k)
	}
	b.chunks[k] = spec
}

func (b *Builder) insertMeta(path string, v metaValue) {
	if _, exists := b.metaChunks[path]; !exists {
		b.metaChunkOrder = append(b.metaChunkOrder, path)
	}
	b.metaChunks[path] = ChunkSpec{
		PathHash:    xhash.HashChunkName(path),
		Path:        path,
		Compression: codec.None,
	}
	b.metaValues[path] = v
}

// WithMetadata installs the pending _meta_/info.msgpack chunk.
func (b *Builder) WithMetadata(m Metadata) *Builder {
	b.insertMeta(MetaInfoPath, metaValue{metadata: &m})
	return b
}

// WithReadme installs the pending _meta_/readme.md chunk.
func (b *Builder) WithReadme(text string) *Builder {
	b.insertMeta(MetaReadmePath, metaValue{readme: &text})
	return b
}

// WithThumbnail installs the pending _meta_/thumbnail.webp chunk.
// Rejects thumbnails larger than MaxThumbnailSize.
func (b *Builder) WithThumbnail(webpBytes []byte) error {
	if len(webpBytes) > MaxThumbnailSize {
		return newErr(errkind.Validation, "thumbnail exceeds maximum size of 5 MiB", nil)
	}
	b.insertMeta(MetaThumbnailPath, metaValue{thumbnail: webpBytes})
	return nil
}
