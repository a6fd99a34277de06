package project

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
)

// ConfigFileNames are the project root file names Load searches for,
// in preference order.
var ConfigFileNames = []string{"mod.config.json", "mod.config.toml"}

// Load reads mod.config.json or mod.config.toml from root, preferring
// JSON if both are present, and applies Defaults.
func Load(root string) (*ModProject, error) {
	for _, name := range ConfigFileNames {
		p := filepath.Join(root, name)
		b, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, newErr(errkind.IO, "failed to read "+p, err)
		}
		proj, err := decode(b, filepath.Ext(name))
		if err != nil {
			return nil, err
		}
		proj.Defaults()
		return proj, nil
	}
	return nil, newErr(errkind.MissingResource, "no mod.config.json or mod.config.toml found in "+root, nil)
}

func decode(b []byte, ext string) (*ModProject, error) {
	var p ModProject
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, newErr(errkind.Format, "failed to parse mod.config.json", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &p); err != nil {
			return nil, newErr(errkind.Format, "failed to parse mod.config.toml", err)
		}
	default:
		return nil, newErr(errkind.Internal, "unknown project config extension "+ext, nil)
	}
	return &p, nil
}

// SaveJSON writes p as pretty-printed mod.config.json under root.
func SaveJSON(root string, p *ModProject) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return newErr(errkind.Internal, "failed to encode mod.config.json", err)
	}
	if err := os.WriteFile(filepath.Join(root, "mod.config.json"), buf.Bytes(), 0o644); err != nil {
		return newErr(errkind.IO, "failed to write mod.config.json", err)
	}
	return nil
}

// SaveTOML writes p as mod.config.toml under root.
func SaveTOML(root string, p *ModProject) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return newErr(errkind.Internal, "failed to encode mod.config.toml", err)
	}
	if err := os.WriteFile(filepath.Join(root, "mod.config.toml"), buf.Bytes(), 0o644); err != nil {
		return newErr(errkind.IO, "failed to write mod.config.toml", err)
	}
	return nil
}
