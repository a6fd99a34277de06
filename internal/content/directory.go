package content

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// DirectoryProvider reads an unpacked mod project directly off disk:
// <root>/mod.config.json (or .toml) and
// <root>/content/<layer>/<WadName>.wad.client/<path>.
type DirectoryProvider struct {
	root string
}

// NewDirectoryProvider opens root as a filesystem-directory content
// provider. It does not itself validate that mod.config exists; that
// surfaces the first time ModProject is called.
func NewDirectoryProvider(root string) *DirectoryProvider {
	return &DirectoryProvider{root: root}
}

func (p *DirectoryProvider) ModProject() (*project.ModProject, error) {
	return project.Load(p.root)
}

func (p *DirectoryProvider) layerDir(layerName string) string {
	return filepath.Join(p.root, "content", layerName)
}

func (p *DirectoryProvider) ListLayerWads(layerName string) ([]string, error) {
	entries, err := os.ReadDir(p.layerDir(layerName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, newErr(errkind.IO, "failed to list layer directory", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".wad.client") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (p *DirectoryProvider) ReadWadOverrides(layerName, wadName string) ([]Override, error) {
	wadDir := filepath.Join(p.layerDir(layerName), wadName)
	var overrides []Override
	err := filepath.Walk(wadDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(wadDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !isValidUTF8(rel) {
			corelog.WithField("path", path).Warn("skipping non-UTF-8 override path")
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		overrides = append(overrides, Override{RelPath: rel, Bytes: b})
		return nil
	})
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read overrides for "+wadName, err)
	}
	return overrides, nil
}

func (p *DirectoryProvider) Close() error { return nil }

func isValidUTF8(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
