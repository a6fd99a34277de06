// Package packer implements the authoring-side pack/info/extract
// operations over the modpkg format (spec §4.L): turning a project
// directory into a .modpkg, inspecting one, and reversing the process.
// It is glue the CLI's pack/info/extract subcommands share, not a new
// domain concern -- the actual archive format lives in internal/modpkg.
package packer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/codec"
	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// Error is returned by every fallible operation in this package.
type Error struct {
	Kind errkind.Kind
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.msg + ": " + e.Err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind exposes the error's category for the GUI IPC code mapping.
func (e *Error) ErrKind() errkind.Kind { return e.Kind }

func newErr(kind errkind.Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, Err: cause}
}

// DefaultFileName returns the conventional output file name for a
// project: "<name>_<semver>.modpkg".
func DefaultFileName(p *project.ModProject) string {
	return fmt.Sprintf("%s_%s.modpkg", p.Name, p.Version)
}

// PackResult summarizes a completed pack operation.
type PackResult struct {
	OutputPath string
	ChunkCount int
}

// layerFile is one regular file discovered under a layer's content
// tree, already split into its owning WAD and in-WAD relative path.
type layerFile struct {
	wadName string
	relPath string
	absPath string
}

// Pack reads the ModProject at projectRoot, validates it, and streams
// a modpkg archive to outputPath.
func Pack(projectRoot, outputPath string) (*PackResult, error) {
	proj, err := project.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}

	layers := proj.SortedLayers()
	filesByLayer := make(map[string][]layerFile, len(layers))
	for _, l := range layers {
		layerDir := filepath.Join(projectRoot, "content", l.Name)
		info, err := os.Stat(layerDir)
		if err != nil || !info.IsDir() {
			return nil, newErr(errkind.Validation, "layer \""+l.Name+"\" has no content/"+l.Name+" directory", err)
		}
		files, err := collectLayerFiles(layerDir)
		if err != nil {
			return nil, err
		}
		filesByLayer[l.Name] = files
	}

	b := modpkg.NewBuilder()
	// Base first, then the rest in declaration order (proj.Layers is
	// already in authoring order; SortedLayers reorders by priority
	// for validation purposes only -- the builder keys chunks by
	// (path, layer) so declaration order here only affects header
	// layout, not semantics).
	b.WithBaseLayer()
	for _, l := range proj.Layers {
		b.WithLayer(l.Name, l.Priority)
	}

	b.WithMetadata(buildMetadata(proj))

	if readme, err := os.ReadFile(filepath.Join(projectRoot, "README.md")); err == nil {
		b.WithReadme(string(readme))
	} else if !os.IsNotExist(err) {
		return nil, newErr(errkind.IO, "failed to read README.md", err)
	}

	if proj.Thumbnail != "" {
		thumbBytes, err := os.ReadFile(filepath.Join(projectRoot, proj.Thumbnail))
		if err != nil {
			return nil, newErr(errkind.IO, "failed to read thumbnail "+proj.Thumbnail, err)
		}
		webpBytes, err := convertThumbnail(thumbBytes)
		if err != nil {
			return nil, err
		}
		if err := b.WithThumbnail(webpBytes); err != nil {
			return nil, err
		}
	}

	pathToAbs := map[[2]string]string{}
	chunkCount := 0
	chunkLayers := []string{project.BaseLayerName}
	for _, l := range proj.Layers {
		if l.Name != project.BaseLayerName {
			chunkLayers = append(chunkLayers, l.Name)
		}
	}
	for _, name := range chunkLayers {
		for _, f := range filesByLayer[name] {
			displayPath := f.wadName + "/" + f.relPath
			pathToAbs[[2]string{name, displayPath}] = f.absPath
			b.WithChunk(displayPath, codec.Zstd, name, f.wadName)
			chunkCount++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, newErr(errkind.IO, "failed to create output directory", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to create "+outputPath, err)
	}
	defer out.Close()

	err = b.BuildToWriter(out, func(spec modpkg.ChunkSpec, cursor io.Writer) error {
		abs, ok := pathToAbs[[2]string{spec.Layer, spec.Path}]
		if !ok {
			// meta chunks are provided from in-memory values already
			// installed on the builder; BuildToWriter never calls this
			// provider for them.
			return newErr(errkind.Internal, "no source file for chunk "+spec.Path, nil)
		}
		f, err := os.Open(abs)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(cursor, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	corelog.WithField("output", outputPath).WithField("chunks", chunkCount).Info("packed modpkg")
	return &PackResult{OutputPath: outputPath, ChunkCount: chunkCount}, nil
}

// collectLayerFiles walks layerDir (content/<layer>), which is a flat
// list of <WadName>.wad.client directories, and returns every regular
// file found inside them as a (wad, relative path) pair.
func collectLayerFiles(layerDir string) ([]layerFile, error) {
	entries, err := os.ReadDir(layerDir)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read "+layerDir, err)
	}
	var files []layerFile
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".wad.client") {
			continue
		}
		wadName := e.Name()
		wadDir := filepath.Join(layerDir, wadName)
		err := filepath.Walk(wadDir, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(wadDir, p)
			if err != nil {
				return err
			}
			files = append(files, layerFile{wadName: wadName, relPath: filepath.ToSlash(rel), absPath: p})
			return nil
		})
		if err != nil {
			return nil, newErr(errkind.IO, "failed to walk "+wadDir, err)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].wadName != files[j].wadName {
			return files[i].wadName < files[j].wadName
		}
		return files[i].relPath < files[j].relPath
	})
	return files, nil
}

func buildMetadata(p *project.ModProject) modpkg.Metadata {
	m := modpkg.Metadata{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Version:     p.Version,
		Distributor: p.Distributor,
	}
	for _, a := range p.Authors {
		m.Authors = append(m.Authors, modpkg.Author{Name: a.Name, Role: a.Role})
	}
	if p.License != nil {
		m.License = &modpkg.License{SPDX: p.License.SPDX, Name: p.License.Name, URL: p.License.URL}
	}
	if len(p.Layers) > 0 {
		m.Layers = make(map[string]modpkg.LayerMetadata, len(p.Layers))
		for _, l := range p.Layers {
			m.Layers[l.Name] = modpkg.LayerMetadata{Description: l.Description, StringOverrides: l.StringOverrides}
		}
	}
	return m
}
