package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/syntax"
)

// Token is one shell word of an input line after quote removal.
// Start and End are byte offsets of the raw word in the line.
type Token struct {
	Value string
	Start int
	End   int
}

// Tokenize splits line into shell words using POSIX-shell quoting and
// escaping rules. Quotes and backslashes are removed but nothing is expanded:
// "$x", "${x}", "$((1+2))" and "~" stay as typed. Operators, command and
// process substitutions, and unterminated quotes are reported as a
// *GrammarError.
func Tokenize(line string) ([]Token, error) {
	var (
		tokens  []Token
		wordErr error
	)
	err := syntax.NewParser().Words(strings.NewReader(line), func(w *syntax.Word) bool {
		if wordErr = checkSubstitutions(w); wordErr != nil {
			return false
		}
		tokens = append(tokens, Token{
			Value: unquote(line, w.Parts),
			Start: int(w.Pos().Offset()),
			End:   int(w.End().Offset()),
		})
		return true
	})
	if err == nil {
		err = wordErr
	}
	if err != nil {
		return nil, &GrammarError{Message: fmt.Sprintf("invalid syntax: %v", err)}
	}
	return tokens, nil
}

func checkSubstitutions(w *syntax.Word) error {
	var err error
	syntax.Walk(w, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.CmdSubst:
			err = errors.New("command substitution is not supported")
		case *syntax.ProcSubst:
			err = errors.New("process substitution is not supported")
		}
		return err == nil
	})
	return err
}

// unquote joins the parts of a word with quoting removed. Parts other than
// literals and plain quotes are copied from line as typed.
func unquote(line string, parts []syntax.WordPart) string {
	var sb strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(p.Value, ""))
		case *syntax.SglQuoted:
			if p.Dollar {
				sb.WriteString(source(line, p))
				continue
			}
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				sb.WriteString(source(line, p))
				continue
			}
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(unescape(lit.Value, "$`\"\\\n"))
				} else {
					sb.WriteString(source(line, inner))
				}
			}
		default:
			sb.WriteString(source(line, part))
		}
	}
	return sb.String()
}

// unescape drops backslash escapes from s. An empty escapable means any
// character may be escaped; otherwise only those listed are, and other
// backslashes are kept. An escaped newline is removed entirely.
func unescape(s, escapable string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		if escapable != "" && strings.IndexByte(escapable, next) < 0 {
			sb.WriteByte(c)
			continue
		}
		i++
		if next != '\n' {
			sb.WriteByte(next)
		}
	}
	return sb.String()
}

func source(line string, node syntax.Node) string {
	return line[node.Pos().Offset():node.End().Offset()]
}

// Parse parses line into a command. A blank line yields a nil command and a
// nil error. Any other failure is a *GrammarError.
func (g *Grammar) Parse(line string) (Command, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	name := tokens[0].Value
	spec, ok := g.Lookup(name)
	if !ok {
		return nil, &GrammarError{Message: fmt.Sprintf("unknown command `%s`", name), Token: name}
	}

	binding, err := spec.Bind(tokens[1:])
	if err != nil {
		return nil, err
	}
	return spec.build(binding), nil
}

// Validate reports whether line parses.
func (g *Grammar) Validate(line string) error {
	_, err := g.Parse(line)
	return err
}

// Bind matches operand tokens against the spec with getopt rules: "--" ends
// options, short flags may be combined ("-ab"), flags take no value and every
// flag may be given once. Flags and positionals may be interleaved.
func (s *Spec) Bind(tokens []Token) (Binding, error) {
	b := Binding{flags: make(map[string]bool)}
	fs := s.flagSet()

	optionsDone := false
	for _, tok := range tokens {
		v := tok.Value
		if !optionsDone && v == "--" {
			optionsDone = true
			continue
		}

		args := []string{v}
		if !optionsDone {
			err := fs.ParseAll(args, func(f *pflag.Flag, _ string) error {
				if strings.Contains(v, "=") {
					return &GrammarError{Message: fmt.Sprintf("%s: flag `%s` does not take a value", s.Name, v), Token: v}
				}
				spec, _ := s.LongFlag(f.Name)
				if b.flags[spec.Name] {
					return &GrammarError{Message: fmt.Sprintf("%s: flag `%s` given more than once", s.Name, v), Token: v}
				}
				b.flags[spec.Name] = true
				return nil
			})
			if err != nil {
				return Binding{}, s.flagError(v, err)
			}
			args = fs.Args()
		}

		for _, arg := range args {
			if len(b.args) >= len(s.Args) {
				return Binding{}, &GrammarError{Message: fmt.Sprintf("%s: unexpected argument `%s`", s.Name, arg), Token: arg}
			}
			b.args = append(b.args, arg)
		}
	}

	for _, a := range s.Args[len(b.args):] {
		if a.Required {
			return Binding{}, &GrammarError{Message: fmt.Sprintf("%s: missing required argument <%s>\nusage: %s", s.Name, a.Name, s.Usage())}
		}
	}
	return b, nil
}

// flagSet builds a fresh pflag set for one parse, keyed by long spelling.
func (s *Spec) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(s.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	for _, f := range s.Flags {
		fs.BoolP(f.Long, f.Short, false, f.Help)
	}
	return fs
}

func (s *Spec) flagError(tok string, err error) error {
	var gerr *GrammarError
	if errors.As(err, &gerr) {
		return gerr
	}
	if errors.Is(err, pflag.ErrHelp) {
		return &GrammarError{Message: fmt.Sprintf("%s: unknown flag `%s` (run help %s)", s.Name, tok, s.Name), Token: tok}
	}
	return &GrammarError{Message: fmt.Sprintf("%s: %v", s.Name, err), Token: tok}
}
