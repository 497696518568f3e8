// Package input connects the kpsh prompt to the line editor.
//
// Helper holds the two callbacks the editor needs, validation and
// completion, and only delegates to the grammar and the completion
// provider. Editor drives github.com/peterh/liner with them.
package input

import (
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"

	"github.com/atinylittleshell/kpsh/internal/repl/completion"
)

// Validator checks the shape of a full input line.
type Validator interface {
	Validate(line string) error
}

// CompletionProvider returns completion candidates for a line and a byte
// offset into it.
type CompletionProvider interface {
	Complete(line string, pos int) completion.Result
}

// Helper adapts the grammar and the completion provider to the editor.
type Helper struct {
	validator Validator
	provider  CompletionProvider
}

// NewHelper creates a Helper.
func NewHelper(validator Validator, provider CompletionProvider) *Helper {
	return &Helper{validator: validator, provider: provider}
}

// Validate reports why line cannot be submitted, or nil when it parses.
// Whether the paths it names exist is checked when the command runs.
func (h *Helper) Validate(line string) error {
	return h.validator.Validate(line)
}

// Complete delegates to the completion provider unchanged.
func (h *Helper) Complete(line string, pos int) completion.Result {
	return h.provider.Complete(line, pos)
}

// WordCompleter implements liner.WordCompleter. liner reports the cursor as
// a rune index; candidates are shell-quoted so that accepting one yields a
// line that tokenizes back to the candidate.
func (h *Helper) WordCompleter(line string, pos int) (head string, completions []string, tail string) {
	bytePos := runeOffset(line, pos)
	res := h.Complete(line, bytePos)

	start := min(res.Start, bytePos)
	completions = make([]string, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		completions = append(completions, Quote(c))
	}
	return line[:start], completions, line[bytePos:]
}

// Quote returns s quoted for the kpsh tokenizer, unchanged when it needs no
// quoting.
func Quote(s string) string {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return quoted
}

func runeOffset(s string, runes int) int {
	offset := 0
	for i := 0; i < runes && offset < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return offset
}
