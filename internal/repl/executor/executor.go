// Package executor runs parsed kpsh commands against the session's vault.
//
// A Session owns the open vault together with the navigation state and the
// completion index derived from it. The three are swapped as one workspace
// value on open and close, so a reader never sees one updated and the others
// stale.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinylittleshell/kpsh/internal/clipboard"
	"github.com/atinylittleshell/kpsh/internal/repl/command"
	"github.com/atinylittleshell/kpsh/internal/repl/completion"
	"github.com/atinylittleshell/kpsh/internal/repl/navigation"
	"github.com/atinylittleshell/kpsh/internal/repl/render"
	"github.com/atinylittleshell/kpsh/internal/vault"
)

var (
	// ErrNoVault is returned by commands that need an open vault.
	ErrNoVault = errors.New("no vault is open")

	// ErrVaultOpen is returned when opening a vault while another one is open.
	ErrVaultOpen = errors.New("a vault is already open")
)

// Opener decodes a vault file.
type Opener func(path, password string, logger *zap.Logger) (*vault.Vault, error)

// PasswordPrompt reads a password without echoing it.
type PasswordPrompt func(prompt string) (string, error)

// HistoryLister returns up to limit recent command lines, oldest first.
type HistoryLister func(limit int) ([]render.HistoryLine, error)

// Options configures a Session. Renderer is required; everything else has a
// usable default.
type Options struct {
	Grammar        *command.Grammar
	Renderer       *render.Renderer
	Clipboard      clipboard.Sink
	Open           Opener
	PromptPassword PasswordPrompt
	History        HistoryLister
	HistorySize    int
	Now            func() time.Time
	Logger         *zap.Logger
}

type workspace struct {
	vault *vault.Vault
	nav   *navigation.State
	index *completion.Index
}

// Session executes commands for one interactive shell.
type Session struct {
	grammar        *command.Grammar
	renderer       *render.Renderer
	clipboard      clipboard.Sink
	open           Opener
	promptPassword PasswordPrompt
	history        HistoryLister
	historySize    int
	now            func() time.Time
	logger         *zap.Logger

	ws *workspace
}

// NewSession creates a session with no vault open.
func NewSession(opts Options) *Session {
	s := &Session{
		grammar:        opts.Grammar,
		renderer:       opts.Renderer,
		clipboard:      opts.Clipboard,
		open:           opts.Open,
		promptPassword: opts.PromptPassword,
		history:        opts.History,
		historySize:    opts.HistorySize,
		now:            opts.Now,
		logger:         opts.Logger,
	}
	if s.grammar == nil {
		s.grammar = command.Default()
	}
	if s.open == nil {
		s.open = vault.Open
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.historySize <= 0 {
		s.historySize = 20
	}
	s.ws = s.newWorkspace(nil)
	return s
}

func (s *Session) newWorkspace(v *vault.Vault) *workspace {
	if v == nil {
		return &workspace{index: completion.NewIndex(s.grammar, nil)}
	}
	return &workspace{
		vault: v,
		nav:   navigation.New(v.Root()),
		index: completion.NewIndex(s.grammar, v.Root()),
	}
}

// Grammar returns the command grammar the session executes.
func (s *Session) Grammar() *command.Grammar {
	return s.grammar
}

// Index returns the completion index for the current workspace.
func (s *Session) Index() *completion.Index {
	return s.ws.index
}

// Stack returns the directory stack, or nil when no vault is open.
func (s *Session) Stack() []uuid.UUID {
	if s.ws.nav == nil {
		return nil
	}
	return s.ws.nav.Stack()
}

// Vault returns the open vault, or nil.
func (s *Session) Vault() *vault.Vault {
	return s.ws.vault
}

// GroupPath returns the absolute path of the current group, or "" when no
// vault is open.
func (s *Session) GroupPath() string {
	if s.ws.nav == nil {
		return ""
	}
	return s.ws.nav.Path()
}

// Execute runs one command. Returned errors are meant to be shown to the user;
// the session stays usable after any of them.
func (s *Session) Execute(ctx context.Context, cmd command.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("executing command", zap.String("command", cmd.Name()))

	switch c := cmd.(type) {
	case command.ListDir:
		return s.listDir(c)
	case command.ChangeDir:
		return s.changeDir(c)
	case command.Show:
		return s.show(c)
	case command.Copy:
		return s.copy(c)
	case command.ClearClipboard:
		return s.clearClipboard()
	case command.Open:
		return s.openVault(c)
	case command.Close:
		return s.closeVault()
	case command.PrintWorkingGroup:
		return s.printWorkingGroup()
	case command.Help:
		return s.help(c)
	case command.History:
		return s.showHistory()
	case command.Exit:
		return nil
	default:
		return fmt.Errorf("unsupported command %s", cmd.Name())
	}
}

func (s *Session) nav() (*navigation.State, error) {
	if s.ws.nav == nil {
		return nil, ErrNoVault
	}
	return s.ws.nav, nil
}

func (s *Session) listDir(c command.ListDir) error {
	nav, err := s.nav()
	if err != nil {
		return err
	}
	node, err := nav.Resolve(c.Path)
	if err != nil {
		return notFound(c.Path, err)
	}

	switch n := node.(type) {
	case *vault.Group:
		s.renderer.RenderListing(n.Children())
	case *vault.Entry:
		s.renderer.RenderEntryTitle(n)
	}
	return nil
}

func (s *Session) changeDir(c command.ChangeDir) error {
	nav, err := s.nav()
	if err != nil {
		return err
	}
	if c.Path == "" {
		return nil
	}
	if nav.ChangeCurrentGroup(c.Path) {
		return nil
	}

	msg := fmt.Sprintf("`%s` is not a group or doesn't exist", c.Path)
	if _, err := nav.Resolve(c.Path); err != nil {
		msg += hint(err)
	}
	return errors.New(msg)
}

func (s *Session) show(c command.Show) error {
	nav, err := s.nav()
	if err != nil {
		return err
	}
	node, err := nav.Resolve(c.Entry)
	if err != nil {
		return notFound(c.Entry, err)
	}

	switch n := node.(type) {
	case *vault.Group:
		if c.TOTP {
			return errors.New("can't show totp for a group")
		}
		s.renderer.Println("")
	case *vault.Entry:
		if c.TOTP {
			code, err := n.TOTP(s.now())
			if err != nil {
				return err
			}
			s.renderer.Println(code)
			return nil
		}
		s.renderer.RenderEntry(n, c.ShowHidden, s.now())
	}
	return nil
}

func (s *Session) copy(c command.Copy) error {
	nav, err := s.nav()
	if err != nil {
		return err
	}
	if s.clipboard == nil {
		return errors.New("no clipboard is configured")
	}

	node, err := nav.Resolve(c.Entry)
	if err != nil {
		return notFoundAs(c.Entry, "an entry", err)
	}
	entry, ok := node.(*vault.Entry)
	if !ok {
		return fmt.Errorf("`%s` is not an entry or doesn't exist", c.Entry)
	}

	value, ok := entry.Get(c.Field)
	if !ok {
		return fmt.Errorf("`%s` is not set", c.Field)
	}
	if err := s.clipboard.Copy(string(value.Bytes())); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	s.renderer.RenderSuccess(fmt.Sprintf("%s copied to clipboard", c.Field))
	return nil
}

func (s *Session) clearClipboard() error {
	if s.clipboard == nil {
		return errors.New("no clipboard is configured")
	}
	if err := s.clipboard.Clear(); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	s.renderer.RenderSuccess("clipboard cleared")
	return nil
}

func (s *Session) openVault(c command.Open) error {
	if s.ws.vault != nil {
		return ErrVaultOpen
	}

	path := expandHome(c.Path)
	password := c.Password
	if !c.HasPassword {
		if s.promptPassword == nil {
			return errors.New("a password is required")
		}
		var err error
		if password, err = s.promptPassword("password: "); err != nil {
			return err
		}
	}

	v, err := s.open(path, password, s.logger)
	if err != nil {
		s.logger.Warn("failed to open vault", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	s.ws = s.newWorkspace(v)
	s.logger.Info("vault opened", zap.String("path", path))
	s.renderer.RenderSuccess(fmt.Sprintf("%s successfully opened", path))
	return nil
}

func (s *Session) closeVault() error {
	if s.ws.vault == nil {
		return ErrNoVault
	}
	s.ws = s.newWorkspace(nil)
	s.logger.Info("vault closed")
	s.renderer.RenderSystemMessage("vault closed")
	return nil
}

func (s *Session) printWorkingGroup() error {
	nav, err := s.nav()
	if err != nil {
		return err
	}
	s.renderer.Println(nav.Path())
	return nil
}

func (s *Session) help(c command.Help) error {
	if c.Topic == "" {
		s.renderer.RenderHelp(s.grammar)
		return nil
	}
	spec, ok := s.grammar.Lookup(c.Topic)
	if !ok {
		return fmt.Errorf("unknown command `%s`%s", c.Topic, suggest(c.Topic, s.grammar.Names()))
	}
	s.renderer.RenderCommandHelp(spec)
	return nil
}

func (s *Session) showHistory() error {
	if s.history == nil {
		return errors.New("history is disabled")
	}
	lines, err := s.history(s.historySize)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	s.renderer.RenderHistory(lines, s.now())
	return nil
}

// notFound turns a resolution error into the message shown to the user.
func notFound(path string, err error) error {
	var pathErr *vault.PathError
	if !errors.As(err, &pathErr) {
		return err
	}
	return fmt.Errorf("`%s` does not exist%s", path, hint(err))
}

func notFoundAs(path, kind string, err error) error {
	var pathErr *vault.PathError
	if !errors.As(err, &pathErr) {
		return err
	}
	return fmt.Errorf("`%s` is not %s or doesn't exist%s", path, kind, hint(err))
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
