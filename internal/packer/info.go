package packer

import (
	"os"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
)

// Summary is the inspectable surface of a mounted modpkg: its
// metadata plus whether the optional readme/thumbnail meta chunks are
// present (their bytes are loaded on demand, not eagerly).
type Summary struct {
	Metadata     modpkg.Metadata
	Layers       []modpkg.Layer
	HasReadme    bool
	HasThumbnail bool
}

// Info mounts the modpkg at path and returns its metadata summary.
func Info(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to open "+path, err)
	}
	defer f.Close()

	r, err := modpkg.Mount(f)
	if err != nil {
		return nil, err
	}
	meta, err := r.LoadMetadata()
	if err != nil {
		return nil, err
	}

	layers := make([]modpkg.Layer, 0, len(r.LayerIndices))
	for _, hash := range r.LayerIndices {
		layers = append(layers, r.Layers[hash])
	}

	return &Summary{
		Metadata:     meta,
		Layers:       layers,
		HasReadme:    r.HasChunk(modpkg.MetaReadmePath, nil),
		HasThumbnail: r.HasChunk(modpkg.MetaThumbnailPath, nil),
	}, nil
}
