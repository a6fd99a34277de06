package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
	"github.com/LeagueToolkit/league-mod-sub000/internal/legacy"
	"github.com/LeagueToolkit/league-mod-sub000/internal/packer"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// PackCmd reads a project directory and emits either a modpkg or a
// legacy Fantome zip archive.
type PackCmd struct{}

func (PackCmd) Name() string { return "pack" }

func (PackCmd) Description() string { return "build a distributable archive from a project" }

func (PackCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("pack", 0).
		SupportsString("config-path", "c", "path", "project root directory (default: .)").
		SupportsString("file-name", "f", "name", "output file name (default: <name>_<version>.<ext>)").
		SupportsString("output-dir", "o", "path", "output directory (default: build)").
		SupportsString("format", "t", "modpkg|fantome", "archive format (default: modpkg)")
}

func (c PackCmd) Exec(ctx context.Context, commandStr string, args []string) int {
	ap := c.ArgParser()
	res, err := ap.Parse(args)
	if err != nil {
		return reportUsageError(commandStr, ap, err)
	}

	configPath := res.GetValueOrDefault("config-path", ".")
	outputDir := res.GetValueOrDefault("output-dir", "build")
	format := res.GetValueOrDefault("format", "modpkg")

	proj, err := project.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var outPath string
	var fileCount int

	switch format {
	case "modpkg":
		fileName := res.GetValueOrDefault("file-name", packer.DefaultFileName(proj))
		outPath = filepath.Join(outputDir, fileName)
		result, err := packer.Pack(configPath, outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fileCount = result.ChunkCount

	case "fantome":
		fileName := res.GetValueOrDefault("file-name", fmt.Sprintf("%s_%s.fantome", proj.Name, proj.Version))
		outPath = filepath.Join(outputDir, fileName)
		result, err := legacy.Pack(configPath, outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fileCount = result.FileCount
		for _, l := range result.DroppedLayers {
			color.Yellow("warning: layer %q dropped (fantome archives can only represent the base layer)\n", l)
		}

	default:
		fmt.Fprintf(os.Stderr, "error: unknown format %q (want modpkg or fantome)\n", format)
		return 1
	}

	size := "unknown size"
	if info, err := os.Stat(outPath); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	color.Green("packed %s (%d files, %s)\n", outPath, fileCount, size)
	return 0
}
