package modpkg

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// sink is the subset of io.Writer+io.Seeker BuildToWriter needs.
type sink interface {
	io.Writer
	io.Seeker
}

// BuildToWriter streams a complete modpkg to w, calling provide for
// every chunk's uncompressed payload (meta chunks first, in the order
// metadata/readme/thumbnail, then user chunks in declaration order).
func (b *Builder) BuildToWriter(w sink, provide PayloadProvider) error {
	if !b.layerSet[BaseLayerName] {
		return errMissingBaseLayer()
	}
	for _, l := range b.layers {
		if l.Name == BaseLayerName && l.Priority != 0 {
			return newErr(errkind.Validation, "base layer must have priority 0", nil)
		}
	}

	// 1. collect unique paths (insertion order), layers, wads.
	pathOrder, pathIndex := b.collectPaths()
	if err := b.validateLayers(); err != nil {
		return err
	}
	wadOrder, wadIndex := b.collectWads()
	layerIndex := b.layerIndexMap()

	totalChunks := len(b.chunkOrder) + len(b.metaChunkOrder)

	// 2. header + side tables.
	if err := writeHeader(w, totalChunks); err != nil {
		return err
	}
	if err := writeLayers(w, b.layers); err != nil {
		return err
	}
	if err := writeStrings(w, pathOrder); err != nil {
		return err
	}
	if err := writeStrings(w, wadOrder); err != nil {
		return err
	}
	if err := writeAlignment(w); err != nil {
		return err
	}

	// 3. reserve TOC space.
	tocOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return newErr(errkind.IO, "failed to determine TOC offset", err)
	}
	if _, err := w.Write(make([]byte, totalChunks*chunkTocEntrySize)); err != nil {
		return newErr(errkind.IO, "failed to reserve chunk TOC", err)
	}

	entries := make([]ChunkEntry, 0, totalChunks)

	// Meta chunks first, in the fixed order info, readme, thumbnail
	// (whichever are installed).
	for _, path := range []string{MetaInfoPath, MetaReadmePath, MetaThumbnailPath} {
		spec, ok := b.metaChunks[path]
		if !ok {
			continue
		}
		payload, err := b.metaPayload(path)
		if err != nil {
			return err
		}
		entry, err := writeChunk(w, spec, payload, pathIndex, layerIndex, wadIndex)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	// Then user chunks, in declaration order.
	for _, key := range b.chunkOrder {
		spec := b.chunks[key]
		var buf bytes.Buffer
		if err := provide(spec, &buf); err != nil {
			return newErr(errkind.IO, "payload provider failed for "+spec.Path, err)
		}
		entry, err := writeChunk(w, spec, buf.Bytes(), pathIndex, layerIndex, wadIndex)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	// 4. seek back and write the TOC.
	if _, err := w.Seek(tocOffset, io.SeekStart); err != nil {
		return newErr(errkind.IO, "failed to seek to TOC offset", err)
	}
	tocBuf := make([]byte, len(entries)*chunkTocEntrySize)
	for i, e := range entries {
		e.marshal(tocBuf[i*chunkTocEntrySize : (i+1)*chunkTocEntrySize])
	}
	if _, err := w.Write(tocBuf); err != nil {
		return newErr(errkind.IO, "failed to write chunk TOC", err)
	}
	return nil
}

func (b *Builder) metaPayload(path string) ([]byte, error) {
	v := b.metaValues[path]
	switch path {
	case MetaInfoPath:
		return EncodeMetadata(*v.metadata)
	case MetaReadmePath:
		return []byte(*v.readme), nil
	case MetaThumbnailPath:
		return v.thumbnail, nil
	default:
		return nil, newErr(errkind.Internal, "unknown meta chunk path "+path, nil)
	}
}

// writeChunk encodes payload per spec.Compression, appends it to w at
// the current position, and returns its fully-resolved TOC entry
// (offset included). The caller is responsible for seeking w back to
// the TOC region afterward.
func writeChunk(w sink, spec ChunkSpec, payload []byte, pathIndex map[uint64]int32, layerIndex map[string]int32, wadIndex map[string]int32) (ChunkEntry, error) {
	stored, variant, err := codec.Encode(payload, spec.Compression)
	if err != nil {
		return ChunkEntry{}, newErr(errkind.Internal, "failed to encode chunk "+spec.Path, err)
	}

	offset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return ChunkEntry{}, newErr(errkind.IO, "failed to determine chunk offset", err)
	}
	if _, err := w.Write(stored); err != nil {
		return ChunkEntry{}, newErr(errkind.IO, "failed to write chunk payload", err)
	}

	pIdx, ok := pathIndex[spec.PathHash]
	if !ok {
		pIdx = NoIndex
	}
	lIdx := NoIndex
	if spec.Layer != "" {
		if v, ok := layerIndex[spec.Layer]; ok {
			lIdx = v
		}
	}
	wIdx := NoIndex
	if spec.Wad != "" {
		if v, ok := wadIndex[spec.Wad]; ok {
			wIdx = v
		}
	}

	return ChunkEntry{
		PathHash:         spec.PathHash,
		DataOffset:       uint32(offset),
		Compression:      variant,
		CompressedSize:   uint64(len(stored)),
		UncompressedSize: uint64(len(payload)),
		CompressedSum:    xhash.Checksum64(stored),
		UncompressedSum:  xhash.Checksum64(payload),
		PathIndex:        pIdx,
		LayerIndex:       lIdx,
		WadIndex:         wIdx,
	}, nil
}

func (b *Builder) collectPaths() ([]string, map[uint64]int32) {
	var order []string
	index := map[uint64]int32{}
	add := func(hash uint64, path string) {
		if _, ok := index[hash]; ok {
			return
		}
		index[hash] = int32(len(order))
		order = append(order, path)
	}
	for _, path := range b.metaChunkOrder {
		spec := b.metaChunks[path]
		add(spec.PathHash, spec.Path)
	}
	for _, key := range b.chunkOrder {
		spec := b.chunks[key]
		add(spec.PathHash, spec.Path)
	}
	return order, index
}

func (b *Builder) collectWads() ([]string, map[string]int32) {
	var order []string
	index := map[string]int32{}
	add := func(wad string) {
		if wad == "" {
			return
		}
		if _, ok := index[wad]; ok {
			return
		}
		index[wad] = int32(len(order))
		order = append(order, wad)
	}
	for _, path := range b.metaChunkOrder {
		add(b.metaChunks[path].Wad)
	}
	for _, key := range b.chunkOrder {
		add(b.chunks[key].Wad)
	}
	return order, index
}

func (b *Builder) layerIndexMap() map[string]int32 {
	m := make(map[string]int32, len(b.layers))
	for i, l := range b.layers {
		m[l.Name] = int32(i)
	}
	return m
}

func (b *Builder) validateLayers() error {
	seen := map[string]bool{}
	check := func(layer string) error {
		if layer == "" || seen[layer] {
			return nil
		}
		seen[layer] = true
		if !b.layerSet[layer] {
			return errLayerNotFound(layer)
		}
		return nil
	}
	for _, path := range b.metaChunkOrder {
		if err := check(b.metaChunks[path].Layer); err != nil {
			return err
		}
	}
	for _, key := range b.chunkOrder {
		if err := check(b.chunks[key].Layer); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, totalChunks int) error {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	writeU32(&buf, FormatVersion)
	writeU32(&buf, 0) // signature size placeholder; signing is out of scope (§4.F)
	writeU32(&buf, uint32(totalChunks))
	if _, err := w.Write(buf.Bytes()); err != nil {
		return newErr(errkind.IO, "failed to write header", err)
	}
	return nil
}

func writeLayers(w io.Writer, layers []Layer) error {
	var buf bytes.Buffer
	writeU32(&buf, uint32(len(layers)))
	for _, l := range layers {
		writeU32(&buf, uint32(len(l.Name)))
		buf.WriteString(l.Name)
		writeI32(&buf, l.Priority)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return newErr(errkind.IO, "failed to write layer table", err)
	}
	return nil
}

func writeStrings(w io.Writer, values []string) error {
	var buf bytes.Buffer
	writeU32(&buf, uint32(len(values)))
	for _, v := range values {
		buf.WriteString(v)
		buf.WriteByte(0)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return newErr(errkind.IO, "failed to write string table", err)
	}
	return nil
}

func writeAlignment(w sink) error {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return newErr(errkind.IO, "failed to determine alignment position", err)
	}
	padded := align8(pos)
	if padded == pos {
		return nil
	}
	if _, err := w.Write(make([]byte, padded-pos)); err != nil {
		return newErr(errkind.IO, "failed to write alignment padding", err)
	}
	return nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeI32(buf *bytes.Buffer, v int32) {
	writeU32(buf, uint32(v))
}
