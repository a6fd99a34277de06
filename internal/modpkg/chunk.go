package modpkg

// PathOf resolves a chunk entry's display path via the reader's path
// table, returning ok=false if the entry has no path index.
func (r *Reader) PathOf(c ChunkEntry) (string, bool) {
	if c.PathIndex == NoIndex || int(c.PathIndex) >= len(r.ChunkPathIndices) {
		return "", false
	}
	hash := r.ChunkPathIndices[c.PathIndex]
	p, ok := r.ChunkPaths[hash]
	return p, ok
}

// LayerOf resolves a chunk entry's layer via the reader's layer table.
func (r *Reader) LayerOf(c ChunkEntry) (Layer, bool) {
	if c.LayerIndex == NoIndex || int(c.LayerIndex) >= len(r.LayerIndices) {
		return Layer{}, false
	}
	hash := r.LayerIndices[c.LayerIndex]
	l, ok := r.Layers[hash]
	return l, ok
}

// WadOf resolves a chunk entry's owning WAD name, if any.
func (r *Reader) WadOf(c ChunkEntry) (string, bool) {
	if c.WadIndex == NoIndex || int(c.WadIndex) >= len(r.WadIndices) {
		return "", false
	}
	hash := r.WadIndices[c.WadIndex]
	w, ok := r.Wads[hash]
	return w, ok
}

// IsMeta reports whether a chunk is a reserved meta chunk (outside
// every layer and WAD).
func (c ChunkEntry) IsMeta() bool {
	return c.LayerIndex == NoIndex && c.WadIndex == NoIndex
}
