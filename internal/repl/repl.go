// Package repl provides the interactive kpsh shell. It ties the line editor,
// the command grammar, the completion engine and the executor together into
// a read-validate-execute loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinylittleshell/kpsh/internal/clipboard"
	"github.com/atinylittleshell/kpsh/internal/history"
	"github.com/atinylittleshell/kpsh/internal/repl/command"
	"github.com/atinylittleshell/kpsh/internal/repl/completion"
	"github.com/atinylittleshell/kpsh/internal/repl/config"
	"github.com/atinylittleshell/kpsh/internal/repl/executor"
	"github.com/atinylittleshell/kpsh/internal/repl/input"
	"github.com/atinylittleshell/kpsh/internal/repl/render"
)

// LineReader reads lines from the user. *input.Editor implements it.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// Options configures a REPL.
type Options struct {
	// Config is used as is when set; ConfigPath is then ignored.
	Config *config.Config

	// ConfigPath is the config file. Empty means the default location.
	ConfigPath string

	// HistoryPath is the history database. Empty means the default location.
	HistoryPath string

	// DBFile is opened before the first prompt when set.
	DBFile string
	// Password for DBFile. When HasPassword is false the user is prompted.
	Password    string
	HasPassword bool

	// BuildVersion is shown in the welcome screen.
	BuildVersion string

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// TermWidth reports the terminal width. Defaults to 80 columns.
	TermWidth func() int

	// NewReader creates the line reader. Defaults to an *input.Editor.
	NewReader func(input.Config) LineReader

	// Open decodes vault files. Defaults to vault.Open.
	Open executor.Opener

	Logger *zap.Logger
}

// REPL is the interactive shell.
type REPL struct {
	config       *config.Config
	session      *executor.Session
	history      *history.HistoryManager
	renderer     *render.Renderer
	helper       *input.Helper
	newReader    func(input.Config) LineReader
	reader       LineReader
	stderr       io.Writer
	logger       *zap.Logger
	buildVersion string

	dbFile      string
	password    string
	hasPassword bool
}

// NewREPL loads configuration, opens the history database and builds the
// session. It does not touch the terminal; Run does.
func NewREPL(opts Options) (*REPL, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = LoadConfig(opts.ConfigPath, stderr, logger); err != nil {
			return nil, err
		}
	}

	r := &REPL{
		config:       cfg,
		stderr:       stderr,
		logger:       logger,
		buildVersion: opts.BuildVersion,
		newReader:    opts.NewReader,
		dbFile:       opts.DBFile,
		password:     opts.Password,
		hasPassword:  opts.HasPassword,
	}
	if r.newReader == nil {
		r.newReader = func(c input.Config) LineReader { return input.NewEditor(c) }
	}

	var (
		historyLister executor.HistoryLister
		err           error
	)
	if cfg.History.Enabled {
		historyPath := opts.HistoryPath
		if historyPath == "" {
			historyPath = defaultHistoryPath()
		}
		r.history, err = history.NewHistoryManager(historyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		historyLister = r.listHistory
	}

	sink, err := clipboard.New(cfg.Clipboard, stdout)
	if err != nil {
		logger.Warn("falling back to osc52 clipboard", zap.String("backend", cfg.Clipboard), zap.Error(err))
		sink = clipboard.NewOSC52(stdout)
	}

	r.renderer = render.New(stdout, stderr, render.NewStyles(stdout, cfg.Color), opts.TermWidth)
	r.session = executor.NewSession(executor.Options{
		Grammar:        command.Default(),
		Renderer:       r.renderer,
		Clipboard:      sink,
		Open:           opts.Open,
		PromptPassword: r.readPassword,
		History:        historyLister,
		HistorySize:    cfg.History.Size,
		Logger:         logger,
	})
	r.helper = input.NewHelper(r.session.Grammar(), completion.NewProvider(r.session))

	return r, nil
}

// LoadConfig reads the config file at path, or the default location when path
// is empty. Non-fatal problems are reported on w and logged; the affected
// settings keep their defaults.
func LoadConfig(path string, w io.Writer, logger *zap.Logger) (*config.Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := config.NewLoader(logger)
	var (
		result *config.LoadResult
		err    error
	)
	if path != "" {
		result, err = loader.LoadFromFile(path)
	} else {
		result, err = loader.LoadDefaultConfigPath()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, cfgErr := range result.Errors {
		logger.Warn("config error", zap.Error(cfgErr))
		fmt.Fprintf(w, "kpsh: config: %v\n", cfgErr)
	}
	return result.Config, nil
}

// Config returns the loaded configuration.
func (r *REPL) Config() *config.Config {
	return r.config
}

// Session returns the command executor.
func (r *REPL) Session() *executor.Session {
	return r.session
}

// History returns the history manager, or nil when history is disabled.
func (r *REPL) History() *history.HistoryManager {
	return r.history
}

// Run reads and executes commands until the user exits, Ctrl+D is pressed or
// ctx is canceled.
func (r *REPL) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.reader = r.newReader(input.Config{
		Helper:      r.helper,
		History:     r.getHistoryValues(),
		ErrOut:      r.stderr,
		FormatError: r.formatError,
		Logger:      r.logger,
	})

	if r.config.Welcome {
		r.showWelcomeScreen()
	}

	if r.dbFile != "" {
		open := command.Open{Path: r.dbFile, Password: r.password, HasPassword: r.hasPassword}
		if err := r.session.Execute(ctx, open); err != nil {
			r.renderer.RenderError(err.Error())
		}
		r.password = ""
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := r.reader.ReadLine(r.getPrompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, input.ErrInterrupt) {
			continue
		}
		if err != nil {
			return err
		}

		if err := r.processCommand(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			return err
		}
	}
}

// processCommand parses and executes one submitted line. Command failures are
// reported and swallowed; only ErrExit and context errors are returned.
func (r *REPL) processCommand(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cmd, err := r.session.Grammar().Parse(line)
	if err != nil {
		r.renderer.RenderError(err.Error())
		return nil
	}
	r.recordHistory(line)

	if handled, err := r.handleBuiltinCommand(cmd); handled {
		return err
	}

	start := time.Now()
	err = r.session.Execute(ctx, cmd)
	r.logger.Debug("command finished",
		zap.String("command", cmd.Name()),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		r.renderer.RenderError(err.Error())
	}
	return nil
}

func (r *REPL) recordHistory(line string) {
	redacted := history.Redact(line)
	if r.reader != nil {
		r.reader.AppendHistory(redacted)
	}
	if r.history == nil {
		return
	}
	if _, err := r.history.Record(line, r.session.GroupPath()); err != nil {
		r.logger.Warn("failed to record history", zap.Error(err))
	}
}

// getHistoryValues returns recent lines to preload into the editor.
func (r *REPL) getHistoryValues() []string {
	if r.history == nil {
		return nil
	}
	entries, err := r.history.GetRecentEntries(r.config.History.Size)
	if err != nil {
		r.logger.Warn("failed to load history", zap.Error(err))
		return nil
	}
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Command)
	}
	return values
}

func (r *REPL) listHistory(limit int) ([]render.HistoryLine, error) {
	entries, err := r.history.GetRecentEntries(limit)
	if err != nil {
		return nil, err
	}
	lines := make([]render.HistoryLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, render.HistoryLine{Command: e.Command, At: e.CreatedAt})
	}
	return lines, nil
}

func (r *REPL) readPassword(prompt string) (string, error) {
	if r.reader == nil {
		return "", errors.New("no terminal to read a password from")
	}
	return r.reader.ReadPassword(prompt)
}

func (r *REPL) getPrompt() string {
	return r.config.RenderPrompt(r.session.GroupPath())
}

func (r *REPL) formatError(msg string) string {
	styles := r.renderer.Styles()
	return styles.StyledSymbol(render.SymbolError) + " " + styles.Error.Render(msg)
}

// Close releases the line editor and the history database.
func (r *REPL) Close() error {
	var errs []error
	if r.reader != nil {
		errs = append(errs, r.reader.Close())
		r.reader = nil
	}
	if r.history != nil {
		errs = append(errs, r.history.Close())
		r.history = nil
	}
	return errors.Join(errs...)
}
