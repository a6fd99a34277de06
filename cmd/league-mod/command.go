// Command line entrypoint for the mod authoring tool: init/pack/info/
// extract/config, the CLI surface spec.md calls out by name. The
// dispatch shape (Command interface, SubCommandHandler, help-flag
// scan) is grounded on the teacher's own cmd/dolt/cli package.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
)

// Command is one CLI subcommand: a name, a one-line description, its
// own argument parser, and an Exec that returns a process exit code.
type Command interface {
	Name() string
	Description() string
	ArgParser() *argparser.ArgParser
	Exec(ctx context.Context, commandStr string, args []string) int
}

// reportUsageError renders a Parse error: the parser's help text for
// ErrHelp, or a one-line diagnostic for anything else.
func reportUsageError(commandStr string, ap *argparser.ArgParser, err error) int {
	if err == argparser.ErrHelp {
		fmt.Print(ap.HelpText())
		return 0
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", commandStr, err)
	return 1
}

// hasHelpFlag reports whether any token in args is a help flag.
func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return true
		}
	}
	return false
}
