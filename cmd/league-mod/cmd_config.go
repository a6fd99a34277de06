package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
	"github.com/LeagueToolkit/league-mod-sub000/internal/config"
)

// ConfigCmd manipulates the CLI's saved configuration file: the
// League install path and a mod storage override.
type ConfigCmd struct{}

func (ConfigCmd) Name() string { return "config" }

func (ConfigCmd) Description() string { return "view or edit the saved configuration" }

func (ConfigCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithVariableArgs("config")
}

func (c ConfigCmd) Exec(ctx context.Context, commandStr string, args []string) int {
	ap := c.ArgParser()
	res, err := ap.Parse(args)
	if err != nil {
		return reportUsageError(commandStr, ap, err)
	}
	if res.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "error: expected one of: show, set-league-path, auto-detect, reset")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	switch res.Arg(0) {
	case "show":
		fmt.Printf("league path:      %s\n", orNotSet(cfg.LeaguePath))
		fmt.Printf("mod storage path: %s\n", orNotSet(cfg.ModStoragePath))
		return 0

	case "set-league-path":
		if res.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "error: set-league-path requires a path argument")
			return 1
		}
		cfg.LeaguePath = res.Arg(1)
		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		color.Green("league path set to %s\n", cfg.LeaguePath)
		return 0

	case "auto-detect":
		// Installation auto-detection (registry/path probing) is an
		// explicit non-goal of the core; this names the manual
		// fallback rather than guessing at a path.
		fmt.Fprintln(os.Stderr, "auto-detect is not implemented; use 'config set-league-path <path>' instead")
		return 1

	case "reset":
		if err := config.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		color.Green("configuration reset\n")
		return 0

	default:
		fmt.Fprintf(os.Stderr, "error: unknown config action %q\n", res.Arg(0))
		return 1
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
