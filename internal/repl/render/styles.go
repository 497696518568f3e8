// Package render formats kpsh output for the terminal.
package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ANSI color codes
const (
	ColorCyan   = lipgloss.Color("12") // Groups, headers
	ColorYellow = lipgloss.Color("11") // Logo, prompt accents
	ColorGreen  = lipgloss.Color("10") // Success indicator
	ColorRed    = lipgloss.Color("9")  // Error indicator
	ColorGray   = lipgloss.Color("8")  // Dim/secondary (labels, masked values)
)

// Symbols
const (
	SymbolSuccess       = "✓"
	SymbolError         = "✗"
	SymbolSystemMessage = "→"
)

// Color modes understood by NewStyles.
const (
	ColorModeAuto   = "auto"
	ColorModeAlways = "always"
	ColorModeNever  = "never"
)

// Styles is the set of styles used for one output stream.
type Styles struct {
	// Group is used for group names in listings
	Group lipgloss.Style
	// Label is used for field names in entry display
	Label lipgloss.Style
	// Masked is used for placeholders standing in for hidden or absent values
	Masked lipgloss.Style
	// Success is used for success indicators
	Success lipgloss.Style
	// Error is used for error indicators
	Error lipgloss.Style
	// Dim is used for secondary information
	Dim lipgloss.Style
	// Accent is used for the logo and titles
	Accent lipgloss.Style
}

// NewStyles builds styles for output written to w. In auto mode colors are
// used only when w is a color-capable terminal.
func NewStyles(w io.Writer, mode string) Styles {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorModeAlways:
		r.SetColorProfile(termenv.ANSI256)
	case ColorModeNever:
		r.SetColorProfile(termenv.Ascii)
	}

	return Styles{
		Group:   r.NewStyle().Foreground(ColorCyan).Bold(true),
		Label:   r.NewStyle().Foreground(ColorGray),
		Masked:  r.NewStyle().Foreground(ColorGray).Italic(true),
		Success: r.NewStyle().Foreground(ColorGreen),
		Error:   r.NewStyle().Foreground(ColorRed),
		Dim:     r.NewStyle().Foreground(ColorGray),
		Accent:  r.NewStyle().Foreground(ColorYellow).Bold(true),
	}
}

// StyledSymbol returns a symbol with appropriate styling applied
func (s Styles) StyledSymbol(symbol string) string {
	switch symbol {
	case SymbolSuccess:
		return s.Success.Render(symbol)
	case SymbolError:
		return s.Error.Render(symbol)
	case SymbolSystemMessage:
		return s.Dim.Render(symbol)
	default:
		return symbol
	}
}
