package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/LeagueToolkit/league-mod-sub000/internal/corelog"
)

func main() {
	color.NoColor = !isTerminal(os.Stderr)
	corelog.SetVerbose(os.Getenv("LEAGUE_MOD_VERBOSE") != "")

	root := NewSubCommandHandler("league-mod", "League of Legends mod authoring tool", []Command{
		InitCmd{},
		PackCmd{},
		InfoCmd{},
		ExtractCmd{},
		ConfigCmd{},
	})

	os.Exit(root.Exec(context.Background(), "league-mod", os.Args[1:]))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
