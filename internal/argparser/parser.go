package argparser

import (
	"sort"
	"strconv"
	"strings"
)

// ArgParser holds the set of options a command supports and parses
// argument lists against them.
type ArgParser struct {
	name    string
	maxArgs int // NoPositionalArgsLimit for unlimited

	options  []*Option
	byName   map[string]*Option
	byAbbrev map[string]*Option
}

// NewArgParserWithVariableArgs creates a parser for name that accepts
// any number of positional arguments.
func NewArgParserWithVariableArgs(name string) *ArgParser {
	return NewArgParserWithMaxArgs(name, NoPositionalArgsLimit)
}

// NewArgParserWithMaxArgs creates a parser for name that rejects more
// than maxArgs positional arguments.
func NewArgParserWithMaxArgs(name string, maxArgs int) *ArgParser {
	return &ArgParser{
		name:     name,
		maxArgs:  maxArgs,
		byName:   map[string]*Option{},
		byAbbrev: map[string]*Option{},
	}
}

// SupportOption registers an already-constructed Option.
func (ap *ArgParser) SupportOption(opt *Option) *ArgParser {
	ap.options = append(ap.options, opt)
	ap.byName[opt.Name] = opt
	if opt.Abbrev != "" {
		ap.byAbbrev[opt.Abbrev] = opt
	}
	return ap
}

// SupportsFlag registers a bare flag (present/absent, no value).
func (ap *ArgParser) SupportsFlag(name, abbrev, desc string) *ArgParser {
	return ap.SupportOption(&Option{Name: name, Abbrev: abbrev, OptType: OptionalFlag, Desc: desc})
}

// SupportsString registers a single-valued string option.
func (ap *ArgParser) SupportsString(name, abbrev, valDesc, desc string) *ArgParser {
	return ap.SupportOption(&Option{Name: name, Abbrev: abbrev, ValDesc: valDesc, OptType: OptionalValue, Desc: desc})
}

// SupportsInt registers a single-valued integer option.
func (ap *ArgParser) SupportsInt(name, abbrev, valDesc, desc string) *ArgParser {
	return ap.SupportOption(&Option{
		Name: name, Abbrev: abbrev, ValDesc: valDesc, OptType: OptionalValue, Desc: desc,
		Validator: func(s string) error {
			_, err := strconv.Atoi(s)
			return err
		},
	})
}

// ArgParseResults is the outcome of a successful Parse: the resolved
// option values, the remaining positional arguments, and a back
// reference to the parser that produced them (so DropValue can build
// a derived result without losing SupportOption metadata).
type ArgParseResults struct {
	options map[string]string
	Args    []string
	parser  *ArgParser
}

func (ap *ArgParser) abbrevOption(c byte) (*Option, bool) {
	o, ok := ap.byAbbrev[string(c)]
	return o, ok
}

// Parse parses args against ap's registered options. The -h/--help
// flags return ErrHelp regardless of position. An unrecognized option
// name returns UnknownArgumentParam. Too many positional arguments
// (when ap was built with NewArgParserWithMaxArgs) returns an error
// naming the offending extras.
func (ap *ArgParser) Parse(argsIn []string) (*ArgParseResults, error) {
	args := make([]string, len(argsIn))
	copy(args, argsIn)

	options := map[string]string{}
	positional := []string{}

	for i := 0; i < len(args); i++ {
		a := args[i]

		switch {
		case a == "--help" || a == "-h":
			return nil, ErrHelp

		case strings.HasPrefix(a, "--"):
			rest := a[2:]
			name := rest
			value := ""
			hasSep := false
			if idx := strings.IndexAny(rest, "=:"); idx >= 0 {
				name = rest[:idx]
				value = rest[idx+1:]
				hasSep = true
			}
			opt, ok := ap.byName[name]
			if !ok {
				return nil, UnknownArgumentParam{Name: name}
			}
			if opt.OptType == OptionalFlag {
				if err := setOnce(options, opt.Name, ""); err != nil {
					return nil, err
				}
				continue
			}
			if !hasSep {
				var consumed bool
				value, consumed, i = nextArgValue(args, i)
				if !consumed {
					return nil, noValueError{name: opt.Name}
				}
			}
			if opt.IsList {
				var tail []string
				tail, i = collectListValues(args, i)
				if len(tail) > 0 {
					value = value + "," + strings.Join(tail, ",")
				}
			}
			if err := setOnce(options, opt.Name, value); err != nil {
				return nil, err
			}

		case strings.HasPrefix(a, "-") && len(a) > 1:
			consumed, err := ap.parseShortCombo(a[1:], args, &i, options)
			if err != nil {
				return nil, err
			}
			if !consumed {
				positional = append(positional, a)
			}

		default:
			positional = append(positional, a)
		}
	}

	if ap.maxArgs != NoPositionalArgsLimit && len(positional) > ap.maxArgs {
		return nil, tooManyArgsError{name: ap.name, max: ap.maxArgs, found: len(positional), args: positional}
	}

	return &ArgParseResults{options: options, Args: positional, parser: ap}, nil
}

// parseShortCombo parses a "-xyz..." token's letters left to right:
// flag-type letters combine, a value-type letter consumes the rest of
// the token (trimmed of leading whitespace) or the next top-level
// argument, and an unrecognized or already-seen letter stops the scan
// and pushes the remainder back as a new positional argument (an
// error only if it's the very first letter in the token).
func (ap *ArgParser) parseShortCombo(body string, args []string, i *int, options map[string]string) (bool, error) {
	seen := map[byte]bool{}
	for pos := 0; pos < len(body); pos++ {
		c := body[pos]
		opt, ok := ap.abbrevOption(c)
		if !ok || seen[c] {
			if pos == 0 {
				return false, UnknownArgumentParam{Name: body}
			}
			args[*i] = body[pos:]
			*i--
			return true, nil
		}
		seen[c] = true

		if opt.OptType == OptionalFlag {
			if err := setOnce(options, opt.Name, ""); err != nil {
				return true, err
			}
			continue
		}

		value := strings.TrimLeft(body[pos+1:], " ")
		if value == "" {
			var consumed bool
			value, consumed, *i = nextArgValue(args, *i)
			if !consumed {
				return true, noValueError{name: opt.Name}
			}
		}
		if opt.IsList {
			var tail []string
			tail, *i = collectListValues(args, *i)
			if len(tail) > 0 {
				value = value + "," + strings.Join(tail, ",")
			}
		}
		if err := setOnce(options, opt.Name, value); err != nil {
			return true, err
		}
		return true, nil
	}
	return true, nil
}

// nextArgValue consumes args[i+1] as a flag's value, returning the
// advanced index. consumed is false if no further argument exists.
func nextArgValue(args []string, i int) (value string, consumed bool, newIndex int) {
	if i+1 >= len(args) {
		return "", false, i
	}
	return args[i+1], true, i + 1
}

// collectListValues consumes every remaining top-level argument that
// doesn't look like a flag, for a list-valued option.
func collectListValues(args []string, i int) ([]string, int) {
	var out []string
	for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
		i++
		out = append(out, args[i])
	}
	return out, i
}

func setOnce(options map[string]string, name, value string) error {
	if _, exists := options[name]; exists {
		return duplicateValueError{name: name}
	}
	options[name] = value
	return nil
}

// GetValue returns an option's resolved value.
func (apr *ArgParseResults) GetValue(name string) (string, bool) {
	v, ok := apr.options[name]
	return v, ok
}

// MustGetValue returns an option's resolved value, or "" if absent.
func (apr *ArgParseResults) MustGetValue(name string) string {
	return apr.options[name]
}

// GetValueOrDefault returns an option's resolved value, or def if
// absent.
func (apr *ArgParseResults) GetValueOrDefault(name, def string) string {
	if v, ok := apr.options[name]; ok {
		return v
	}
	return def
}

// GetInt returns an option's resolved value parsed as an integer.
func (apr *ArgParseResults) GetInt(name string) (int, bool) {
	v, ok := apr.options[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetIntOrDefault returns an option's resolved integer value, or def
// if absent or unparseable.
func (apr *ArgParseResults) GetIntOrDefault(name string, def int) int {
	if n, ok := apr.GetInt(name); ok {
		return n
	}
	return def
}

// ContainsAll reports whether every named option was supplied.
func (apr *ArgParseResults) ContainsAll(names ...string) bool {
	for _, n := range names {
		if _, ok := apr.options[n]; !ok {
			return false
		}
	}
	return true
}

// ContainsAny reports whether any named option was supplied.
func (apr *ArgParseResults) ContainsAny(names ...string) bool {
	for _, n := range names {
		if _, ok := apr.options[n]; ok {
			return true
		}
	}
	return false
}

// NArg returns the number of positional arguments.
func (apr *ArgParseResults) NArg() int { return len(apr.Args) }

// Arg returns the i'th positional argument.
func (apr *ArgParseResults) Arg(i int) string { return apr.Args[i] }

// Set is a small string set returned by the flag-membership queries.
type Set map[string]bool

// Size returns the number of elements in the set.
func (s Set) Size() int { return len(s) }

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool { return s[name] }

// AnyFlagsEqualTo returns every registered flag-type option whose
// presence (true) or absence (false) matches want.
func (apr *ArgParseResults) AnyFlagsEqualTo(want bool) Set {
	var names []string
	for _, o := range apr.parser.options {
		if o.OptType == OptionalFlag {
			names = append(names, o.Name)
		}
	}
	return apr.FlagsEqualTo(names, want)
}

// FlagsEqualTo filters names down to those whose presence matches
// want.
func (apr *ArgParseResults) FlagsEqualTo(names []string, want bool) Set {
	out := Set{}
	for _, n := range names {
		_, present := apr.options[n]
		if present == want {
			out[n] = true
		}
	}
	return out
}

// DropValue returns a new ArgParseResults with name removed, leaving
// apr untouched.
func (apr *ArgParseResults) DropValue(name string) *ArgParseResults {
	next := make(map[string]string, len(apr.options))
	for k, v := range apr.options {
		if k != name {
			next[k] = v
		}
	}
	return &ArgParseResults{options: next, Args: apr.Args, parser: apr.parser}
}

// HelpText renders a simple usage listing, sorted by option name, for
// CLI commands to print on -h/--help or a usage error.
func (ap *ArgParser) HelpText() string {
	var b strings.Builder
	b.WriteString(ap.name)
	b.WriteString("\n")
	sorted := make([]*Option, len(ap.options))
	copy(sorted, ap.options)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, o := range sorted {
		b.WriteString("  --")
		b.WriteString(o.Name)
		if o.Abbrev != "" {
			b.WriteString(", -")
			b.WriteString(o.Abbrev)
		}
		if o.OptType == OptionalValue {
			b.WriteString(" <")
			b.WriteString(o.ValDesc)
			b.WriteString(">")
		}
		b.WriteString("\t")
		b.WriteString(o.Desc)
		b.WriteString("\n")
	}
	return b.String()
}
