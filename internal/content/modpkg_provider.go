package content

import (
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
	"github.com/LeagueToolkit/league-mod-sub000/internal/xhash"
)

// ModpkgProvider reads override content directly out of a mounted
// .modpkg archive: chunks whose layer hash matches the requested layer,
// with the chunk's display path split on its first '/' into owning WAD
// name and in-WAD relative path.
type ModpkgProvider struct {
	reader *modpkg.Reader
}

// NewModpkgProvider wraps an already-mounted modpkg reader.
func NewModpkgProvider(r *modpkg.Reader) *ModpkgProvider {
	return &ModpkgProvider{reader: r}
}

func (p *ModpkgProvider) ModProject() (*project.ModProject, error) {
	meta, err := p.reader.LoadMetadata()
	if err != nil {
		return nil, newErr(errkind.MissingResource, "modpkg has no metadata chunk", err)
	}

	proj := &project.ModProject{
		Name:        meta.Name,
		DisplayName: meta.DisplayName,
		Description: meta.Description,
		Version:     meta.Version,
		Distributor: meta.Distributor,
	}
	for _, a := range meta.Authors {
		proj.Authors = append(proj.Authors, project.Author{Name: a.Name, Role: a.Role})
	}
	if meta.License != nil {
		proj.License = &project.License{SPDX: meta.License.SPDX, Name: meta.License.Name, URL: meta.License.URL}
	}
	for _, l := range p.reader.LayerIndices {
		layer := p.reader.Layers[l]
		lm := meta.Layers[layer.Name]
		proj.Layers = append(proj.Layers, project.Layer{
			Name:            layer.Name,
			Priority:        layer.Priority,
			Description:     lm.Description,
			StringOverrides: lm.StringOverrides,
		})
	}
	return proj, nil
}

// splitWadPath splits a chunk's display path on its first '/' into
// owning WAD name and the remaining in-WAD relative path.
func splitWadPath(displayPath string) (wadName, relPath string, ok bool) {
	idx := strings.IndexByte(displayPath, '/')
	if idx < 0 {
		return "", "", false
	}
	return displayPath[:idx], displayPath[idx+1:], true
}

func (p *ModpkgProvider) ListLayerWads(layerName string) ([]string, error) {
	layerHash := xhash.HashLayerName(layerName)
	seen := map[string]bool{}
	var names []string
	for key, entry := range p.reader.Chunks() {
		if key.LayerHash != layerHash || entry.IsMeta() {
			continue
		}
		displayPath, ok := p.reader.PathOf(entry)
		if !ok {
			continue
		}
		wadName, _, ok := splitWadPath(displayPath)
		if !ok || seen[wadName] {
			continue
		}
		seen[wadName] = true
		names = append(names, wadName)
	}
	return names, nil
}

func (p *ModpkgProvider) ReadWadOverrides(layerName, wadName string) ([]Override, error) {
	layerHash := xhash.HashLayerName(layerName)
	var overrides []Override
	for key, entry := range p.reader.Chunks() {
		if key.LayerHash != layerHash || entry.IsMeta() {
			continue
		}
		displayPath, ok := p.reader.PathOf(entry)
		if !ok {
			continue
		}
		wad, rel, ok := splitWadPath(displayPath)
		if !ok || wad != wadName {
			continue
		}
		b, err := p.reader.LoadChunkDecompressedByHash(key.PathHash, key.LayerHash)
		if err != nil {
			return nil, newErr(errkind.Format, "failed to read override "+displayPath, err)
		}
		overrides = append(overrides, Override{RelPath: rel, Bytes: b})
	}
	return overrides, nil
}

func (p *ModpkgProvider) Close() error { return nil }
