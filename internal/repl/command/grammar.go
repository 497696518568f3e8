// Package command defines the closed set of kpsh commands and parses input
// lines against it.
//
// Parsing is a pure function of the line and the grammar. It never touches the
// vault, so the same grammar backs validation, completion and execution.
package command

import (
	"fmt"
	"strings"
)

// ArgKind tells the completion engine where candidates for a positional
// operand come from.
type ArgKind int

const (
	// ArgOpaque is free text with no completion.
	ArgOpaque ArgKind = iota
	// ArgNodePath is a group or entry path, completed from the vault tree.
	ArgNodePath
	// ArgFile is a path on the local filesystem.
	ArgFile
	// ArgCommand is the name of another command.
	ArgCommand
)

// FlagSpec describes a boolean flag. Long is required; Short is optional.
type FlagSpec struct {
	// Name identifies the flag in a Binding.
	Name string
	// Short is the single-letter spelling without the dash, e.g. "s".
	Short string
	// Long is the spelling without the leading dashes, e.g. "show-hidden".
	Long string
	Help string
}

// Spellings returns the flag as it is typed on the command line.
func (f FlagSpec) Spellings() []string {
	var out []string
	if f.Short != "" {
		out = append(out, "-"+f.Short)
	}
	if f.Long != "" {
		out = append(out, "--"+f.Long)
	}
	return out
}

// ArgSpec describes one positional operand.
type ArgSpec struct {
	Name     string
	Kind     ArgKind
	Required bool
	Help     string
}

// Spec is the shape of one command.
type Spec struct {
	Name  string
	Help  string
	Flags []FlagSpec
	Args  []ArgSpec

	build func(Binding) Command
}

// Usage renders a one-line synopsis, e.g. "show [-s] [--totp] <entry>".
func (s *Spec) Usage() string {
	parts := []string{s.Name}
	for _, f := range s.Flags {
		parts = append(parts, "["+f.Spellings()[0]+"]")
	}
	for _, a := range s.Args {
		if a.Required {
			parts = append(parts, "<"+a.Name+">")
		} else {
			parts = append(parts, "["+a.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// LongFlag looks up a flag by its long spelling.
func (s *Spec) LongFlag(long string) (FlagSpec, bool) {
	for _, f := range s.Flags {
		if f.Long != "" && f.Long == long {
			return f, true
		}
	}
	return FlagSpec{}, false
}

// Binding holds the flags and positional operands matched for one command.
type Binding struct {
	flags map[string]bool
	args  []string
}

// Flag reports whether the named flag was given.
func (b Binding) Flag(name string) bool {
	return b.flags[name]
}

// Arg returns the i-th positional operand, or "" when it was omitted.
func (b Binding) Arg(i int) string {
	if i < len(b.args) {
		return b.args[i]
	}
	return ""
}

// HasArg reports whether the i-th positional operand was given.
func (b Binding) HasArg(i int) bool {
	return i < len(b.args)
}

// Grammar is an ordered, closed set of command specs.
type Grammar struct {
	specs  []*Spec
	byName map[string]*Spec
}

// NewGrammar builds a grammar from specs. Command names must be unique and
// every flag needs a long spelling.
func NewGrammar(specs ...*Spec) *Grammar {
	g := &Grammar{byName: make(map[string]*Spec, len(specs))}
	for _, s := range specs {
		if _, dup := g.byName[s.Name]; dup {
			panic(fmt.Sprintf("duplicate command %q", s.Name))
		}
		for _, f := range s.Flags {
			if f.Long == "" || len(f.Short) > 1 {
				panic(fmt.Sprintf("command %q: bad flag spelling %q/%q", s.Name, f.Short, f.Long))
			}
		}
		g.specs = append(g.specs, s)
		g.byName[s.Name] = s
	}
	return g
}

// Specs returns the command specs in declaration order.
func (g *Grammar) Specs() []*Spec {
	return g.specs
}

// Names returns the command names in declaration order.
func (g *Grammar) Names() []string {
	names := make([]string, len(g.specs))
	for i, s := range g.specs {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the spec for a command name.
func (g *Grammar) Lookup(name string) (*Spec, bool) {
	s, ok := g.byName[name]
	return s, ok
}

var (
	entryArg = ArgSpec{Name: "entry", Kind: ArgNodePath, Required: true, Help: "path to an entry"}
	pathArg  = ArgSpec{Name: "path", Kind: ArgNodePath, Help: "path to a group or entry"}
)

// Default returns the kpsh command set.
func Default() *Grammar {
	return NewGrammar(
		&Spec{
			Name:  "ls",
			Help:  "List nodes in a group, or print an entry's title.",
			Args:  []ArgSpec{pathArg},
			build: func(b Binding) Command { return ListDir{Path: b.Arg(0)} },
		},
		&Spec{
			Name: "cd",
			Help: "Change the current group.",
			Args: []ArgSpec{{Name: "group", Kind: ArgNodePath, Help: "path to a group"}},
			build: func(b Binding) Command {
				return ChangeDir{Path: b.Arg(0)}
			},
		},
		&Spec{
			Name: "show",
			Help: "Show an entry's fields. Secret values are masked unless -s is given.",
			Flags: []FlagSpec{
				{Name: "show-hidden", Short: "s", Long: "show-hidden", Help: "show secret values"},
				{Name: "totp", Long: "totp", Help: "print only the current TOTP code"},
			},
			Args: []ArgSpec{entryArg},
			build: func(b Binding) Command {
				return Show{Entry: b.Arg(0), ShowHidden: b.Flag("show-hidden"), TOTP: b.Flag("totp")}
			},
		},
		&Spec{
			Name:  "cp",
			Help:  "Copy an entry's password to the clipboard.",
			Args:  []ArgSpec{entryArg},
			build: func(b Binding) Command { return Copy{Entry: b.Arg(0), Field: FieldPassword} },
		},
		&Spec{
			Name:  "cu",
			Help:  "Copy an entry's username to the clipboard.",
			Args:  []ArgSpec{entryArg},
			build: func(b Binding) Command { return Copy{Entry: b.Arg(0), Field: FieldUserName} },
		},
		&Spec{
			Name:  "cw",
			Help:  "Copy an entry's URL to the clipboard.",
			Args:  []ArgSpec{entryArg},
			build: func(b Binding) Command { return Copy{Entry: b.Arg(0), Field: FieldURL} },
		},
		&Spec{
			Name:  "cx",
			Help:  "Clear the clipboard.",
			build: func(Binding) Command { return ClearClipboard{} },
		},
		&Spec{
			Name: "open",
			Help: "Open a KeePass database. Prompts for the password when it is omitted.",
			Args: []ArgSpec{
				{Name: "file", Kind: ArgFile, Required: true, Help: "path to a .kdbx file"},
				{Name: "password", Kind: ArgOpaque, Help: "database password"},
			},
			build: func(b Binding) Command {
				return Open{Path: b.Arg(0), Password: b.Arg(1), HasPassword: b.HasArg(1)}
			},
		},
		&Spec{
			Name:  "close",
			Help:  "Close the open database.",
			build: func(Binding) Command { return Close{} },
		},
		&Spec{
			Name:  "pwd",
			Help:  "Print the current group path.",
			build: func(Binding) Command { return PrintWorkingGroup{} },
		},
		&Spec{
			Name:  "help",
			Help:  "List commands, or describe one command.",
			Args:  []ArgSpec{{Name: "command", Kind: ArgCommand, Help: "command to describe"}},
			build: func(b Binding) Command { return Help{Topic: b.Arg(0)} },
		},
		&Spec{
			Name:  "history",
			Help:  "Show recent commands.",
			build: func(Binding) Command { return History{} },
		},
		&Spec{
			Name:  "exit",
			Help:  "Leave the shell.",
			build: func(Binding) Command { return Exit{} },
		},
	)
}
