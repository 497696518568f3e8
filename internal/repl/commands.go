package repl

import (
	"errors"
	"time"

	"github.com/atinylittleshell/kpsh/internal/core"
	"github.com/atinylittleshell/kpsh/internal/repl/command"
	"github.com/atinylittleshell/kpsh/internal/repl/render"
)

// ErrExit is returned when the user requests to exit the REPL.
var ErrExit = errors.New("exit requested")

// handleBuiltinCommand handles commands that act on the REPL itself rather
// than the session. It reports whether cmd was handled.
func (r *REPL) handleBuiltinCommand(cmd command.Command) (bool, error) {
	switch cmd.(type) {
	case command.Exit:
		return true, ErrExit
	default:
		return false, nil
	}
}

// showWelcomeScreen displays the welcome screen with configuration info.
func (r *REPL) showWelcomeScreen() {
	r.renderer.RenderWelcome(render.WelcomeInfo{
		Version:   r.buildVersion,
		Database:  r.dbFile,
		Clipboard: r.config.Clipboard,
	}, time.Now())
}

func defaultHistoryPath() string {
	return core.HistoryFile()
}
