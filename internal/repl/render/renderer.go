package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"

	"github.com/atinylittleshell/kpsh/internal/vault"
)

// fieldNameWidth is the column field names are right-aligned to in entry display.
const fieldNameWidth = 15

// Placeholders shown instead of field values.
const (
	SecretPlaceholder = "*** SECRET ***"
	NoTitle           = "(no title)"
	NoUserName        = "(no username)"
	NoPassword        = "(no password)"
)

// Renderer writes command output. Regular output goes to out, errors to errOut.
type Renderer struct {
	out       io.Writer
	errOut    io.Writer
	styles    Styles
	termWidth func() int
}

// New creates a Renderer. termWidth may be nil, in which case 80 columns are assumed.
func New(out, errOut io.Writer, styles Styles, termWidth func() int) *Renderer {
	if termWidth == nil {
		termWidth = func() int { return 80 }
	}
	return &Renderer{
		out:       out,
		errOut:    errOut,
		styles:    styles,
		termWidth: termWidth,
	}
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Println writes one plain line.
func (r *Renderer) Println(s string) {
	fmt.Fprintln(r.out, s)
}

// RenderError writes an error message to the error stream.
func (r *Renderer) RenderError(msg string) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.styles.StyledSymbol(SymbolError), r.styles.Error.Render(msg))
}

// RenderSuccess writes a success message.
func (r *Renderer) RenderSuccess(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.styles.StyledSymbol(SymbolSuccess), msg)
}

// RenderSystemMessage writes a status message.
func (r *Renderer) RenderSystemMessage(msg string) {
	fmt.Fprintf(r.out, "%s %s\n", r.styles.StyledSymbol(SymbolSystemMessage), r.styles.Dim.Render(msg))
}

// RenderListing prints the children of a group, one per line. Groups get a
// trailing slash; entries print their title.
func (r *Renderer) RenderListing(children []vault.Node) {
	for _, child := range children {
		switch c := child.(type) {
		case *vault.Group:
			fmt.Fprintln(r.out, r.styles.Group.Render(c.Name()+"/"))
		case *vault.Entry:
			r.RenderEntryTitle(c)
		}
	}
}

// RenderEntryTitle prints an entry's title, or a placeholder if it has none.
func (r *Renderer) RenderEntryTitle(e *vault.Entry) {
	if title, ok := e.Title(); ok {
		fmt.Fprintln(r.out, title)
		return
	}
	fmt.Fprintln(r.out, r.styles.Masked.Render(NoTitle))
}

// RenderEntry prints every field of an entry. Title, UserName and Password
// always come first, then URL when set, then the remaining fields in order.
// Secret values are masked unless showHidden is set, in which case an otp
// field is also preceded by the code valid at now.
func (r *Renderer) RenderEntry(e *vault.Entry, showHidden bool, now time.Time) {
	r.renderRequiredField(e, vault.FieldTitle, NoTitle, showHidden)
	r.renderRequiredField(e, vault.FieldUserName, NoUserName, showHidden)
	r.renderRequiredField(e, vault.FieldPassword, NoPassword, showHidden)
	if v, ok := e.Get(vault.FieldURL); ok {
		r.renderField(vault.FieldURL, r.formatValue(v, showHidden))
	}

	for _, f := range e.ExtraFields() {
		if f.Name == vault.FieldOTP && showHidden {
			code, err := e.TOTP(now)
			if err != nil {
				code = err.Error()
			}
			r.renderField("otp code", code)
		}
		r.renderField(f.Name, r.formatValue(f.Value, showHidden))
	}
}

func (r *Renderer) renderRequiredField(e *vault.Entry, name, missing string, showHidden bool) {
	v, ok := e.Get(name)
	if !ok {
		r.renderField(name, r.styles.Masked.Render(missing))
		return
	}
	r.renderField(name, r.formatValue(v, showHidden))
}

func (r *Renderer) renderField(name, value string) {
	padding := max(fieldNameWidth-uniseg.StringWidth(name), 0)
	fmt.Fprintf(r.out, "%s%s: %s\n", strings.Repeat(" ", padding), r.styles.Label.Render(name), value)
}

func (r *Renderer) formatValue(v vault.Value, showHidden bool) string {
	switch {
	case v.Kind() == vault.KindBinary:
		return r.styles.Masked.Render(fmt.Sprintf("(binary, %s)", humanize.Bytes(uint64(len(v.Bytes())))))
	case v.IsSecret() && !showHidden:
		return r.styles.Masked.Render(SecretPlaceholder)
	default:
		return v.Text()
	}
}
