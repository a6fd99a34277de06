// Package legacy implements the Fantome zip archive format's write
// side (spec §4.M): packing a project into a .fantome zip, and
// extracting one back into an unpacked project directory. The read
// abstraction over an already-open Fantome zip lives in
// internal/content (LegacyZipProvider); this package is the CLI-facing
// complement that drives it for extraction and owns packing outright.
package legacy

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/content"
	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
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

// info is META/info.json's shape, matching the field names
// internal/content's reader already expects.
type info struct {
	Name        string `json:"Name"`
	Author      string `json:"Author"`
	Version     string `json:"Version"`
	Description string `json:"Description"`
}

// PackResult summarizes a completed legacy pack operation.
type PackResult struct {
	OutputPath    string
	FileCount     int
	DroppedLayers []string
}

// Pack reads the ModProject at projectRoot and writes a Fantome-style
// zip to outputPath. Only the base layer is representable; any other
// declared layer is dropped with a logged warning.
func Pack(projectRoot, outputPath string) (*PackResult, error) {
	proj, err := project.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}

	var dropped []string
	for _, l := range proj.Layers {
		if l.Name != project.BaseLayerName {
			dropped = append(dropped, l.Name)
		}
	}
	if len(dropped) > 0 {
		corelog.WithField("layers", strings.Join(dropped, ",")).Warn("legacy archive format cannot represent non-base layers, dropping")
	}

	baseDir := filepath.Join(projectRoot, "content", project.BaseLayerName)
	if info, err := os.Stat(baseDir); err != nil || !info.IsDir() {
		return nil, newErr(errkind.Validation, "project has no content/base directory", err)
	}
	files, err := collectLayerFiles(baseDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, newErr(errkind.IO, "failed to create output directory", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to create "+outputPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	var authorName string
	if len(proj.Authors) > 0 {
		authorName = proj.Authors[0].Name
	}
	infoBytes, err := json.MarshalIndent(info{
		Name:        proj.DisplayName,
		Author:      authorName,
		Version:     proj.Version,
		Description: proj.Description,
	}, "", "  ")
	if err != nil {
		return nil, newErr(errkind.Internal, "failed to encode META/info.json", err)
	}
	if err := writeZipEntry(zw, "META/info.json", infoBytes); err != nil {
		return nil, err
	}

	if readme, err := os.ReadFile(filepath.Join(projectRoot, "README.md")); err == nil {
		if err := writeZipEntry(zw, "META/README.md", readme); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, newErr(errkind.IO, "failed to read README.md", err)
	}

	if proj.Thumbnail != "" {
		src, err := os.ReadFile(filepath.Join(projectRoot, proj.Thumbnail))
		if err != nil {
			return nil, newErr(errkind.IO, "failed to read thumbnail "+proj.Thumbnail, err)
		}
		png, err := convertToPNG(src)
		if err != nil {
			return nil, err
		}
		if err := writeZipEntry(zw, "META/image.png", png); err != nil {
			return nil, err
		}
	}

	fileCount := 0
	for _, f := range files {
		entryName := fmt.Sprintf("WAD/%s/%s", f.wadName, f.relPath)
		b, err := os.ReadFile(f.absPath)
		if err != nil {
			return nil, newErr(errkind.IO, "failed to read "+f.absPath, err)
		}
		if err := writeZipEntry(zw, entryName, b); err != nil {
			return nil, err
		}
		fileCount++
	}

	if err := zw.Close(); err != nil {
		return nil, newErr(errkind.IO, "failed to finalize zip archive", err)
	}

	return &PackResult{OutputPath: outputPath, FileCount: fileCount, DroppedLayers: dropped}, nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return newErr(errkind.IO, "failed to create zip entry "+name, err)
	}
	if _, err := w.Write(data); err != nil {
		return newErr(errkind.IO, "failed to write zip entry "+name, err)
	}
	return nil
}

// convertToPNG decodes src as PNG, JPEG or GIF (first frame only for
// animated sources -- the legacy image.png slot has no provision for
// animation) and re-encodes it as PNG.
func convertToPNG(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, newErr(errkind.Validation, "thumbnail is not a decodable PNG, JPEG or GIF image", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, newErr(errkind.Internal, "failed to encode thumbnail as PNG", err)
	}
	return buf.Bytes(), nil
}

type layerFile struct {
	wadName string
	relPath string
	absPath string
}

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
		err := filepath.Walk(wadDir, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
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

// ExtractResult summarizes a completed legacy extract operation.
type ExtractResult struct {
	OutputDir string
	FileCount int
}

// Extract reads the Fantome zip at zipPath via internal/content's
// LegacyZipProvider and lays it out under outputDir as a single-base-layer
// project directory.
func Extract(zipPath, outputDir string) (*ExtractResult, error) {
	data, err := os.ReadFile(zipPath)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read "+zipPath, err)
	}

	provider, err := content.NewLegacyZipProvider(data)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	proj, err := provider.ModProject()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, newErr(errkind.IO, "failed to create "+outputDir, err)
	}
	if err := project.SaveJSON(outputDir, proj); err != nil {
		return nil, err
	}

	wadNames, err := provider.ListLayerWads(project.BaseLayerName)
	if err != nil {
		return nil, err
	}

	fileCount := 0
	for _, wadName := range wadNames {
		overrides, err := provider.ReadWadOverrides(project.BaseLayerName, wadName)
		if err != nil {
			return nil, err
		}
		for _, o := range overrides {
			dest := filepath.Join(outputDir, "content", project.BaseLayerName, wadName, filepath.FromSlash(o.RelPath))
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return nil, newErr(errkind.IO, "failed to create "+filepath.Dir(dest), err)
			}
			if err := os.WriteFile(dest, o.Bytes, 0o644); err != nil {
				return nil, newErr(errkind.IO, "failed to write "+dest, err)
			}
			fileCount++
		}
	}

	return &ExtractResult{OutputDir: outputDir, FileCount: fileCount}, nil
}
