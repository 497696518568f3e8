package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"
)

// ErrInterrupt is returned by ReadLine when the user presses Ctrl+C.
var ErrInterrupt = errors.New("interrupted")

// Config holds configuration for creating an Editor.
type Config struct {
	// Helper provides validation and completion. Required.
	Helper *Helper

	// History seeds the in-memory history, oldest first.
	History []string

	// ErrOut receives validation messages. Defaults to os.Stderr.
	ErrOut io.Writer

	// FormatError styles validation messages. Defaults to identity.
	FormatError func(string) string

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Editor reads validated command lines from the terminal.
type Editor struct {
	state       *liner.State
	helper      *Helper
	errOut      io.Writer
	formatError func(string) string
	logger      *zap.Logger
}

// NewEditor puts the terminal in line-editing mode. Call Close to restore it.
func NewEditor(cfg Config) *Editor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errOut := cfg.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	formatError := cfg.FormatError
	if formatError == nil {
		formatError = func(s string) string { return s }
	}

	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetWordCompleter(cfg.Helper.WordCompleter)
	for _, line := range cfg.History {
		state.AppendHistory(line)
	}

	return &Editor{
		state:       state,
		helper:      cfg.Helper,
		errOut:      errOut,
		formatError: formatError,
		logger:      logger,
	}
}

// ReadLine prompts until the user submits a line that validates. An invalid
// line is reported and offered again for editing. It returns io.EOF on
// Ctrl+D and ErrInterrupt on Ctrl+C.
func (e *Editor) ReadLine(prompt string) (string, error) {
	pending := ""
	for {
		var (
			line string
			err  error
		)
		if pending == "" {
			line, err = e.state.Prompt(prompt)
		} else {
			line, err = e.state.PromptWithSuggestion(prompt, pending, -1)
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrInterrupt
		}
		if err != nil {
			return "", err
		}

		if verr := e.helper.Validate(line); verr != nil {
			e.logger.Debug("rejected input line", zap.Error(verr))
			fmt.Fprintln(e.errOut, e.formatError(verr.Error()))
			pending = line
			continue
		}
		return line, nil
	}
}

// ReadPassword prompts without echo.
func (e *Editor) ReadPassword(prompt string) (string, error) {
	password, err := e.state.PasswordPrompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupt
	}
	return password, err
}

// AppendHistory adds a submitted line to the in-memory history.
func (e *Editor) AppendHistory(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	e.state.AppendHistory(line)
}

// Close restores the terminal.
func (e *Editor) Close() error {
	return e.state.Close()
}
