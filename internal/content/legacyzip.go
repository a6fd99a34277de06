package content

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
	"github.com/LeagueToolkit/league-mod-sub000/internal/wad"
)

func decodeLegacyInfo(b []byte) (legacyInfo, error) {
	var info legacyInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return legacyInfo{}, newErr(errkind.Format, "failed to parse META/info.json", err)
	}
	return info, nil
}

const legacyWadPrefix = "WAD/"

// LegacyZipProvider reads override content out of a Fantome-style zip
// archive. Only the base layer is representable; ListLayerWads and
// ReadWadOverrides return nothing for any other layer name.
type LegacyZipProvider struct {
	archive *zip.Reader
	info    legacyInfo
}

type legacyInfo struct {
	Name        string `json:"Name"`
	Author      string `json:"Author"`
	Version     string `json:"Version"`
	Description string `json:"Description"`
}

// NewLegacyZipProvider opens a Fantome zip already read into memory.
func NewLegacyZipProvider(data []byte) (*LegacyZipProvider, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newErr(errkind.Format, "failed to open legacy zip archive", err)
	}
	return &LegacyZipProvider{archive: r}, nil
}

func (p *LegacyZipProvider) findFile(name string) *zip.File {
	for _, f := range p.archive.File {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

func (p *LegacyZipProvider) ModProject() (*project.ModProject, error) {
	f := p.findFile("META/info.json")
	if f == nil {
		return nil, newErr(errkind.MissingResource, "legacy archive is missing META/info.json", nil)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, newErr(errkind.IO, "failed to open META/info.json", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read META/info.json", err)
	}

	info, err := decodeLegacyInfo(b)
	if err != nil {
		return nil, err
	}

	proj := &project.ModProject{
		Name:        slugify(info.Name),
		DisplayName: info.Name,
		Version:     orDefault(info.Version, "1.0.0"),
		Description: info.Description,
		Layers:      []project.Layer{{Name: project.BaseLayerName, Priority: 0}},
	}
	if info.Author != "" {
		proj.Authors = []project.Author{{Name: info.Author}}
	}
	return proj, nil
}

// ListLayerWads returns the .wad.client directories packed under WAD/
// for the base layer; any other layer name yields nothing, since the
// legacy format cannot represent non-base layers.
func (p *LegacyZipProvider) ListLayerWads(layerName string) ([]string, error) {
	if layerName != project.BaseLayerName {
		return nil, nil
	}
	seen := map[string]bool{}
	var names []string
	for _, f := range p.archive.File {
		if !strings.HasPrefix(f.Name, legacyWadPrefix) {
			continue
		}
		rest := f.Name[len(legacyWadPrefix):]
		idx := strings.IndexByte(rest, '/')
		var wadName string
		if idx < 0 {
			// A packed WAD file sitting directly at WAD/<name>.
			wadName = rest
		} else {
			wadName = rest[:idx]
		}
		if wadName == "" || seen[wadName] {
			continue
		}
		seen[wadName] = true
		names = append(names, wadName)
	}
	return names, nil
}

// ReadWadOverrides handles both legacy layouts: an unpacked
// WAD/<WadName>.wad.client/<path> subtree, and a packed
// WAD/<WadName>.wad.client entry mounted in memory via internal/wad,
// whose chunks surface as <16-hex-hash>.bin overrides.
func (p *LegacyZipProvider) ReadWadOverrides(layerName, wadName string) ([]Override, error) {
	if layerName != project.BaseLayerName {
		return nil, nil
	}

	dirPrefix := legacyWadPrefix + wadName + "/"
	packedName := legacyWadPrefix + wadName

	var overrides []Override
	for _, f := range p.archive.File {
		switch {
		case strings.HasPrefix(f.Name, dirPrefix):
			rel := f.Name[len(dirPrefix):]
			if rel == "" || f.FileInfo().IsDir() {
				continue
			}
			b, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			overrides = append(overrides, Override{RelPath: rel, Bytes: b})

		case strings.EqualFold(f.Name, packedName) && !f.FileInfo().IsDir():
			b, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			packed, err := wad.Mount(bytes.NewReader(b))
			if err != nil {
				corelog.WithField("wad", f.Name).WithField("error", err).Warn("failed to mount packed legacy WAD, skipping")
				continue
			}
			for hash, entry := range packed.Chunks() {
				decoded, err := packed.LoadChunkDecompressed(entry)
				if err != nil {
					continue
				}
				overrides = append(overrides, Override{RelPath: hexChunkName(hash) + ".bin", Bytes: decoded})
			}
		}
	}
	return overrides, nil
}

func (p *LegacyZipProvider) Close() error { return nil }

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, newErr(errkind.IO, "failed to open "+f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, newErr(errkind.IO, "failed to read "+f.Name, err)
	}
	return b, nil
}

func hexChunkName(h uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xF]
		h >>= 4
	}
	return string(buf)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastHyphen := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
