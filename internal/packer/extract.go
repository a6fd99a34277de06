package packer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// ExtractResult summarizes a completed extract operation.
type ExtractResult struct {
	OutputDir    string
	FileCount    int
	HasReadme    bool
	HasThumbnail bool
}

// Extract mounts the modpkg at path and lays its contents out under
// outputDir as an unpacked project directory: mod.config.json,
// optional README.md/thumbnail, and content/<layer>/<wad>/<path> for
// every user chunk.
func Extract(modpkgPath, outputDir string) (*ExtractResult, error) {
	f, err := os.Open(modpkgPath)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to open "+modpkgPath, err)
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

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, newErr(errkind.IO, "failed to create "+outputDir, err)
	}

	proj := metadataToProject(meta, r)

	result := &ExtractResult{OutputDir: outputDir}

	if readme, err := r.LoadReadme(); err == nil {
		if err := os.WriteFile(filepath.Join(outputDir, "README.md"), readme, 0o644); err != nil {
			return nil, newErr(errkind.IO, "failed to write README.md", err)
		}
		result.HasReadme = true
	}

	if thumb, err := r.LoadThumbnail(); err == nil {
		if err := os.WriteFile(filepath.Join(outputDir, "thumbnail.webp"), thumb, 0o644); err != nil {
			return nil, newErr(errkind.IO, "failed to write thumbnail.webp", err)
		}
		result.HasThumbnail = true
		proj.Thumbnail = "thumbnail.webp"
	}

	if err := project.SaveJSON(outputDir, proj); err != nil {
		return nil, err
	}

	fileCount := 0
	for key, entry := range r.Chunks() {
		if entry.IsMeta() {
			continue
		}
		displayPath, ok := r.PathOf(entry)
		if !ok {
			continue
		}
		layer, ok := r.LayerOf(entry)
		if !ok {
			continue
		}
		wadName, ok := r.WadOf(entry)
		if !ok {
			continue
		}
		relPath := strings.TrimPrefix(displayPath, wadName+"/")

		b, err := r.LoadChunkDecompressedByHash(key.PathHash, key.LayerHash)
		if err != nil {
			return nil, err
		}

		dest := filepath.Join(outputDir, "content", layer.Name, wadName, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, newErr(errkind.IO, "failed to create "+filepath.Dir(dest), err)
		}
		if err := os.WriteFile(dest, b, 0o644); err != nil {
			return nil, newErr(errkind.IO, "failed to write "+dest, err)
		}
		fileCount++
	}

	result.FileCount = fileCount
	return result, nil
}

// metadataToProject derives a ModProject from a mounted modpkg's
// metadata chunk and layer table (priority lives in the layer table,
// description/overrides live in the metadata).
func metadataToProject(meta modpkg.Metadata, r *modpkg.Reader) *project.ModProject {
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
	for _, hash := range r.LayerIndices {
		l := r.Layers[hash]
		lm := meta.Layers[l.Name]
		proj.Layers = append(proj.Layers, project.Layer{
			Name:            l.Name,
			Priority:        l.Priority,
			Description:     lm.Description,
			StringOverrides: lm.StringOverrides,
		})
	}
	return proj
}
