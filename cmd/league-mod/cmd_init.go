package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
	"github.com/LeagueToolkit/league-mod-sub000/internal/project"
)

// InitCmd scaffolds a new mod project: a mod.config.json and an empty
// content/base/ tree.
type InitCmd struct{}

func (InitCmd) Name() string { return "init" }

func (InitCmd) Description() string { return "scaffold a new mod project" }

func (InitCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("init", 0).
		SupportsString("name", "n", "slug", "project slug, lowercase-hyphenated (prompted if omitted)").
		SupportsString("display-name", "d", "name", "human-readable display name (default: the slug)").
		SupportsString("output-dir", "o", "path", "directory to scaffold into (default: ./<name>)")
}

func (c InitCmd) Exec(ctx context.Context, commandStr string, args []string) int {
	ap := c.ArgParser()
	res, err := ap.Parse(args)
	if err != nil {
		return reportUsageError(commandStr, ap, err)
	}

	name := res.GetValueOrDefault("name", "")
	if name == "" {
		name = promptLine("project name (slug): ")
	}
	if !project.ValidateSlug(name) {
		fmt.Fprintf(os.Stderr, "error: %q is not a valid project slug (lowercase alphanumeric segments joined by hyphens)\n", name)
		return 1
	}

	displayName := res.GetValueOrDefault("display-name", name)
	outputDir := res.GetValueOrDefault("output-dir", name)

	proj := &project.ModProject{
		Name:        name,
		DisplayName: displayName,
		Version:     "1.0.0",
		Layers:      []project.Layer{{Name: project.BaseLayerName, Priority: 0}},
	}

	if err := os.MkdirAll(filepath.Join(outputDir, "content", project.BaseLayerName), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := project.SaveJSON(outputDir, proj); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	color.Green("scaffolded %s\n", outputDir)
	return 0
}

func promptLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}
