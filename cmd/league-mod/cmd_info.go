package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
	"github.com/LeagueToolkit/league-mod-sub000/internal/packer"
)

// InfoCmd prints a modpkg's metadata and layer list as JSON.
type InfoCmd struct{}

func (InfoCmd) Name() string { return "info" }

func (InfoCmd) Description() string { return "print a modpkg's metadata" }

func (InfoCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("info", 0).
		SupportsString("file-path", "f", "path", "modpkg file to inspect")
}

func (c InfoCmd) Exec(ctx context.Context, commandStr string, args []string) int {
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

	summary, err := packer.Info(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
