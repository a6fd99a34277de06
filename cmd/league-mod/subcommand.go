package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/LeagueToolkit/league-mod-sub000/internal/argparser"
)

// SubCommandHandler dispatches a command line's first token to one of
// a fixed set of child commands, printing a usage listing when no
// token is given or none match.
type SubCommandHandler struct {
	name        string
	description string
	commands    []Command
}

// NewSubCommandHandler builds a dispatcher over commands, in listed
// order (the order HelpText/usage output shows them).
func NewSubCommandHandler(name, description string, commands []Command) *SubCommandHandler {
	return &SubCommandHandler{name: name, description: description, commands: commands}
}

func (h *SubCommandHandler) Name() string { return h.name }

func (h *SubCommandHandler) Description() string { return h.description }

func (h *SubCommandHandler) ArgParser() *argparser.ArgParser { return nil }

func (h *SubCommandHandler) Exec(ctx context.Context, commandStr string, args []string) int {
	if len(args) == 0 {
		h.printUsage(commandStr)
		return 1
	}
	if hasHelpFlag(args[:1]) {
		h.printUsage(commandStr)
		return 0
	}
	for _, c := range h.commands {
		if c.Name() == args[0] {
			return c.Exec(ctx, commandStr+" "+c.Name(), args[1:])
		}
	}
	fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", commandStr, args[0])
	h.printUsage(commandStr)
	return 1
}

func (h *SubCommandHandler) printUsage(commandStr string) {
	bold := color.New(color.Bold)
	bold.Fprintf(os.Stderr, "usage: %s <command> [args]\n\n", commandStr)
	fmt.Fprintln(os.Stderr, h.description)
	fmt.Fprintln(os.Stderr)
	for _, c := range h.commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.Name(), c.Description())
	}
}
