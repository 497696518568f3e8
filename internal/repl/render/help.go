package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/reflow/wordwrap"

	"github.com/atinylittleshell/kpsh/internal/repl/command"
)

// maxHelpWidth caps wrapped help text so it stays readable on wide terminals.
const maxHelpWidth = 80

// HistoryLine is one row of the history command's output.
type HistoryLine struct {
	Command string
	At      time.Time
}

// RenderHelp prints a table of every command with its usage and summary.
func (r *Renderer) RenderHelp(grammar *command.Grammar) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Command", "Description"})
	for _, spec := range grammar.Specs() {
		t.AppendRow(table.Row{spec.Usage(), spec.Help})
	}
	t.Render()
	fmt.Fprintln(r.out, r.styles.Dim.Render("run help <command> for details"))
}

// RenderCommandHelp prints the usage, description, operands and flags of one
// command, wrapped to the terminal width.
func (r *Renderer) RenderCommandHelp(spec *command.Spec) {
	width := min(r.termWidth(), maxHelpWidth)

	var b strings.Builder
	b.WriteString(r.styles.Accent.Render("usage: "+spec.Usage()) + "\n\n")
	b.WriteString(wordwrap.String(spec.Help, width) + "\n")

	if len(spec.Args) > 0 {
		b.WriteString("\n" + r.styles.Label.Render("arguments:") + "\n")
		for _, a := range spec.Args {
			name := a.Name
			if !a.Required {
				name += " (optional)"
			}
			b.WriteString(indent(wordwrap.String(fmt.Sprintf("%s  %s", name, a.Help), width-2)) + "\n")
		}
	}

	if len(spec.Flags) > 0 {
		b.WriteString("\n" + r.styles.Label.Render("flags:") + "\n")
		for _, f := range spec.Flags {
			line := fmt.Sprintf("%s  %s", strings.Join(f.Spellings(), ", "), f.Help)
			b.WriteString(indent(wordwrap.String(line, width-2)) + "\n")
		}
	}

	fmt.Fprint(r.out, b.String())
}

// RenderHistory prints recent command lines, oldest first, numbered.
func (r *Renderer) RenderHistory(lines []HistoryLine, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "When", "Command"})
	for i, line := range lines {
		t.AppendRow(table.Row{i + 1, humanize.RelTime(line.At, now, "ago", "from now"), line.Command})
	}
	t.Render()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
