// Package clipboard puts copied field values somewhere the user can paste
// them from: the terminal via OSC 52, or the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Backend names accepted by New.
const (
	BackendOSC52  = "osc52"
	BackendSystem = "system"
)

// ErrUnsupported is returned when the system clipboard is not available.
var ErrUnsupported = errors.New("system clipboard is not available")

// Sink receives copied text.
type Sink interface {
	Copy(text string) error
	Clear() error
}

// New returns the sink for backend. OSC 52 sequences are written to w.
func New(backend string, w io.Writer) (Sink, error) {
	switch backend {
	case "", BackendOSC52:
		return NewOSC52(w), nil
	case BackendSystem:
		if clipboard.Unsupported {
			return nil, ErrUnsupported
		}
		return System{}, nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", backend)
	}
}

// OSC52 asks the terminal emulator to set its clipboard. Not every terminal
// supports it; inside tmux or screen the sequence is wrapped for
// passthrough.
type OSC52 struct {
	w      io.Writer
	getenv func(string) string
}

// NewOSC52 creates an OSC52 sink writing to w.
func NewOSC52(w io.Writer) *OSC52 {
	return &OSC52{w: w, getenv: os.Getenv}
}

func (o *OSC52) Copy(text string) error {
	return o.write(osc52.New(text))
}

func (o *OSC52) Clear() error {
	return o.write(osc52.Clear())
}

func (o *OSC52) write(seq osc52.Sequence) error {
	switch {
	case o.getenv("TMUX") != "":
		seq = seq.Tmux()
	case o.getenv("STY") != "":
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(o.w); err != nil {
		return fmt.Errorf("error writing clipboard sequence: %w", err)
	}
	return nil
}

// System uses the platform clipboard (pbcopy, xclip, wl-copy, ...).
type System struct{}

func (System) Copy(text string) error {
	return clipboard.WriteAll(text)
}

func (System) Clear() error {
	return clipboard.WriteAll("")
}
