package completion

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/atinylittleshell/kpsh/internal/repl/command"
)

// Source exposes the session state completion reads. Index and Stack must
// come from the same vault; the session swaps them together.
type Source interface {
	// Index returns the current completion index.
	Index() *Index
	// Stack returns the directory stack, root first.
	Stack() []uuid.UUID
}

// Result is the outcome of one completion query. Accepting a candidate
// replaces line[Start:pos].
type Result struct {
	Start      int
	Candidates []string
}

// Provider computes completions for the prompt.
type Provider struct {
	source Source
	getwd  func() (string, error)
}

// NewProvider creates a Provider reading session state from source.
func NewProvider(source Source) *Provider {
	return &Provider{source: source, getwd: os.Getwd}
}

// Complete returns candidates for the token ending at pos. Completion only
// happens at the end of the line; anywhere else but position 0 the result is
// empty.
func (p *Provider) Complete(line string, pos int) Result {
	ix := p.source.Index()
	if pos == 0 {
		return Result{Start: 0, Candidates: ix.Commands().WithPrefix("")}
	}
	if pos != len(line) {
		return Result{Start: pos}
	}

	tokens, ok := tokenizePartial(line)
	if !ok || len(tokens) == 0 {
		return Result{Start: pos}
	}

	last := tokens[len(tokens)-1]
	trailing := pos > last.End

	if len(tokens) == 1 && !trailing {
		return Result{Start: last.Start, Candidates: ix.Commands().WithPrefix(last.Value)}
	}

	spec, ok := ix.Spec(tokens[0].Value)
	if !ok {
		return Result{Start: pos}
	}
	operands := tokens[1:]

	if trailing {
		_, positionals := scanOperands(ix, spec, operands)
		return Result{Start: pos, Candidates: p.positional(spec, positionals, "")}
	}

	before := operands[:len(operands)-1]
	used, positionals := scanOperands(ix, spec, before)
	if strings.HasPrefix(last.Value, "-") && !used[endOfOptions] {
		return Result{Start: pos, Candidates: flagCandidates(spec, used, last.Value)}
	}
	return Result{Start: last.Start, Candidates: p.positional(spec, positionals, last.Value)}
}

func (p *Provider) positional(spec *command.Spec, i int, prefix string) []string {
	if i >= len(spec.Args) {
		return nil
	}

	ix := p.source.Index()
	switch spec.Args[i].Kind {
	case command.ArgNodePath:
		current := ix.Root()
		if stack := p.source.Stack(); len(stack) > 0 {
			current = stack[len(stack)-1]
		}
		children, ok := ix.Children(current)
		if !ok {
			return nil
		}
		return children.WithPrefix(prefix)
	case command.ArgCommand:
		return ix.Commands().WithPrefix(prefix)
	case command.ArgFile:
		pwd, err := p.getwd()
		if err != nil {
			return nil
		}
		return GetFileCompletions(prefix, pwd)
	default:
		return nil
	}
}

// endOfOptions marks in the used-flag set that "--" was seen.
const endOfOptions = "--"

// scanOperands walks operand tokens the way command.Spec.Bind does and
// returns the names of flags already given and the number of positionals.
func scanOperands(ix *Index, spec *command.Spec, tokens []command.Token) (map[string]bool, int) {
	used := make(map[string]bool)
	positionals := 0
	for _, tok := range tokens {
		v := tok.Value
		switch {
		case used[endOfOptions]:
			positionals++
		case v == "--":
			used[endOfOptions] = true
		case strings.HasPrefix(v, "--"):
			if f, ok := ix.Flag(spec.Name, v); ok {
				used[f.Name] = true
			}
		case len(v) > 1 && v[0] == '-':
			for _, c := range v[1:] {
				if f, ok := ix.Flag(spec.Name, "-"+string(c)); ok {
					used[f.Name] = true
				}
			}
		default:
			positionals++
		}
	}
	return used, positionals
}

// flagCandidates returns the text to insert after the typed flag token.
// "-" offers every unused flag in both spellings; "-x" offers nothing since
// short flags are a single letter; "--pre" offers the rest of each matching
// long spelling.
func flagCandidates(spec *command.Spec, used map[string]bool, typed string) []string {
	remaining := lo.Filter(spec.Flags, func(f command.FlagSpec, _ int) bool {
		return !used[f.Name]
	})

	prefix := strings.TrimLeft(typed, "-")
	if !strings.HasPrefix(typed, "--") {
		if prefix != "" {
			return nil
		}
		return lo.FlatMap(remaining, func(f command.FlagSpec, _ int) []string {
			var out []string
			if f.Short != "" {
				out = append(out, f.Short)
			}
			if f.Long != "" {
				out = append(out, "-"+f.Long)
			}
			return out
		})
	}

	return lo.FilterMap(remaining, func(f command.FlagSpec, _ int) (string, bool) {
		if f.Long == "" || !strings.HasPrefix(f.Long, prefix) {
			return "", false
		}
		rest := f.Long[len(prefix):]
		return rest, rest != ""
	})
}

// tokenizePartial tokenizes a line that may end inside an open quote, so
// that `show "My` still completes. The closing quote is synthesized and the
// last token is clamped to the real line.
func tokenizePartial(line string) ([]command.Token, bool) {
	if tokens, err := command.Tokenize(line); err == nil {
		return tokens, true
	}
	for _, quote := range []string{`"`, `'`} {
		tokens, err := command.Tokenize(line + quote)
		if err != nil || len(tokens) == 0 {
			continue
		}
		tokens[len(tokens)-1].End = len(line)
		return tokens, true
	}
	return nil, false
}
