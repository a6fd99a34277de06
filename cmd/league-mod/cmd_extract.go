package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
	"github.com/LeagueToolkit/league-mod-sub000/internal/legacy"
	"github.com/LeagueToolkit/league-mod-sub000/internal/packer"
)

// ExtractCmd unpacks a modpkg or legacy fantome archive into a project
// directory, inferring the format from the file extension.
type ExtractCmd struct{}

func (ExtractCmd) Name() string { return "extract" }

func (ExtractCmd) Description() string { return "unpack an archive into a project directory" }

func (ExtractCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("extract", 0).
		SupportsString("file-path", "f", "path", "archive file to extract").
		SupportsString("output-dir", "o", "path", "output directory (default: extracted)")
}

func (c ExtractCmd) Exec(ctx context.Context, commandStr string, args []string) int {
	ap := c.ArgParser()
	res, err := ap.Parse(args)
	if err != nil {
		return reportUsageError(commandStr, ap, err)
	}

	filePath, ok := res.GetValue("file-path")
	if !ok {
		fmt.Fprintln(os.Stderr, "error: --file-path is required")
		return 1
	}
	outputDir := res.GetValueOrDefault("output-dir", "extracted")

	var fileCount int
	if strings.EqualFold(fileExt(filePath), ".fantome") {
		result, err := legacy.Extract(filePath, outputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fileCount = result.FileCount
	} else {
		result, err := packer.Extract(filePath, outputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fileCount = result.FileCount
	}

	color.Green("extracted %d files to %s\n", fileCount, outputDir)
	return 0
}

func fileExt(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}
