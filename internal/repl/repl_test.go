package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/atinylittleshell/kpsh/internal/repl/input"
	"github.com/atinylittleshell/kpsh/internal/vault"
)

// scriptedReader replays lines and then reports io.EOF.
type scriptedReader struct {
	lines     []string
	passwords []string
	prompts   []string
	history   []string
	preloaded []string
	closed    bool
}

func (s *scriptedReader) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", input.ErrInterrupt
	}
	return line, nil
}

func (s *scriptedReader) ReadPassword(string) (string, error) {
	if len(s.passwords) == 0 {
		return "", input.ErrInterrupt
	}
	pw := s.passwords[0]
	s.passwords = s.passwords[1:]
	return pw, nil
}

func (s *scriptedReader) AppendHistory(line string) {
	s.history = append(s.history, line)
}

func (s *scriptedReader) Close() error {
	s.closed = true
	return nil
}

type testREPL struct {
	repl   *REPL
	reader *scriptedReader
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func testOpener(path, password string, _ *zap.Logger) (*vault.Vault, error) {
	if password != "secret" {
		return nil, errors.New("wrong password")
	}
	root := vault.NewGroup(uuid.New(), "Root",
		vault.NewGroup(uuid.New(), "Work",
			vault.NewEntry(uuid.New(),
				vault.Field{Name: vault.FieldTitle, Value: vault.PlainText("MyLogin")},
				vault.Field{Name: vault.FieldPassword, Value: vault.Secret("hunter2")},
			),
		),
	)
	return vault.New(path, root), nil
}

func newTestREPL(t *testing.T, config string, mutate func(*Options)) *testREPL {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if config != "" {
		require.NoError(t, os.WriteFile(configPath, []byte(config), 0600))
	}

	tr := &testREPL{reader: &scriptedReader{}, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	opts := Options{
		ConfigPath:  configPath,
		HistoryPath: filepath.Join(dir, "history.db"),
		Stdout:      tr.out,
		Stderr:      tr.errOut,
		Open:        testOpener,
		NewReader: func(c input.Config) LineReader {
			tr.reader.preloaded = c.History
			return tr.reader
		},
		Logger: zaptest.NewLogger(t),
	}
	if mutate != nil {
		mutate(&opts)
	}

	r, err := NewREPL(opts)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	tr.repl = r
	return tr
}

const quietConfig = "welcome: false\ncolor: never\n"

func TestNewREPL_DefaultOptions(t *testing.T) {
	tr := newTestREPL(t, "", nil)

	assert.Equal(t, "kpsh:{group}> ", tr.repl.Config().Prompt)
	assert.Equal(t, "info", tr.repl.Config().LogLevel)
	assert.NotNil(t, tr.repl.Session())
	assert.NotNil(t, tr.repl.History())
}

func TestNewREPL_WithConfig(t *testing.T) {
	tr := newTestREPL(t, "prompt: \"test {group}> \"\nlogLevel: debug\nhistory:\n  enabled: false\n", nil)

	assert.Equal(t, "test {group}> ", tr.repl.Config().Prompt)
	assert.Equal(t, "debug", tr.repl.Config().LogLevel)
	assert.Nil(t, tr.repl.History())
}

func TestNewREPL_ConfigErrorsAreReported(t *testing.T) {
	tr := newTestREPL(t, "color: sometimes\n", nil)

	assert.Contains(t, tr.errOut.String(), "kpsh: config:")
	assert.Equal(t, "auto", tr.repl.Config().Color)
}

func TestNewREPL_NilLogger(t *testing.T) {
	tr := newTestREPL(t, quietConfig, func(o *Options) { o.Logger = nil })
	assert.NotNil(t, tr.repl.logger)
}

func TestREPL_HandleBuiltinCommand(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)

	cmd, err := tr.repl.Session().Grammar().Parse("exit")
	require.NoError(t, err)
	handled, err := tr.repl.handleBuiltinCommand(cmd)
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrExit)

	cmd, err = tr.repl.Session().Grammar().Parse("ls")
	require.NoError(t, err)
	handled, err = tr.repl.handleBuiltinCommand(cmd)
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestREPL_ProcessCommand_Empty(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	ctx := context.Background()

	assert.NoError(t, tr.repl.processCommand(ctx, ""))
	assert.NoError(t, tr.repl.processCommand(ctx, "   "))

	entries, err := tr.repl.History().GetRecentEntries(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestREPL_ProcessCommand_ReportsErrors(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	ctx := context.Background()

	require.NoError(t, tr.repl.processCommand(ctx, "frobnicate"))
	assert.Contains(t, tr.errOut.String(), "unknown command `frobnicate`")

	tr.errOut.Reset()
	require.NoError(t, tr.repl.processCommand(ctx, "ls"))
	assert.Contains(t, tr.errOut.String(), "no vault is open")
}

func TestREPL_ProcessCommand_RecordsRedactedHistory(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	ctx := context.Background()

	require.NoError(t, tr.repl.processCommand(ctx, "open db.kdbx secret"))
	require.NoError(t, tr.repl.processCommand(ctx, "cd Work"))

	entries, err := tr.repl.History().GetRecentEntries(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "open db.kdbx", entries[0].Command)
	assert.Equal(t, "cd Work", entries[1].Command)
	assert.Equal(t, "/", entries[1].Group)
}

func TestREPL_ProcessCommand_Exit(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	assert.ErrorIs(t, tr.repl.processCommand(context.Background(), "exit"), ErrExit)
}

func TestREPL_GetPrompt(t *testing.T) {
	tr := newTestREPL(t, quietConfig+"prompt: \"db:{group}$ \"\n", nil)
	ctx := context.Background()

	assert.Equal(t, "db:$ ", tr.repl.getPrompt())
	require.NoError(t, tr.repl.processCommand(ctx, "open db.kdbx secret"))
	require.NoError(t, tr.repl.processCommand(ctx, "cd Work"))
	assert.Equal(t, "db:/Work$ ", tr.repl.getPrompt())
}

func TestREPL_Run(t *testing.T) {
	tr := newTestREPL(t, quietConfig, func(o *Options) {
		o.DBFile = "db.kdbx"
		o.Password = "secret"
		o.HasPassword = true
	})
	tr.reader.lines = []string{"cd Work", "^C", "show -s MyLogin", "exit", "ls"}

	require.NoError(t, tr.repl.Run(context.Background()))

	assert.Contains(t, tr.out.String(), "db.kdbx successfully opened")
	assert.Contains(t, tr.out.String(), "Password: hunter2")
	assert.Equal(t, []string{"kpsh:/> ", "kpsh:/Work> ", "kpsh:/Work> ", "kpsh:/Work> "}, tr.reader.prompts)
	assert.Equal(t, []string{"ls"}, tr.reader.lines)
	assert.Equal(t, []string{"cd Work", "show -s MyLogin", "exit"}, tr.reader.history)
}

func TestREPL_Run_PromptsForPassword(t *testing.T) {
	tr := newTestREPL(t, quietConfig, func(o *Options) { o.DBFile = "db.kdbx" })
	tr.reader.passwords = []string{"secret"}

	require.NoError(t, tr.repl.Run(context.Background()))
	assert.NotNil(t, tr.repl.Session().Vault())
}

func TestREPL_Run_PreloadsHistory(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	require.NoError(t, tr.repl.processCommand(context.Background(), "help"))
	require.NoError(t, tr.repl.processCommand(context.Background(), "pwd"))

	require.NoError(t, tr.repl.Run(context.Background()))
	assert.Equal(t, []string{"help", "pwd"}, tr.reader.preloaded)
}

func TestREPL_Run_Welcome(t *testing.T) {
	tr := newTestREPL(t, "color: never\n", func(o *Options) { o.BuildVersion = "1.0.0" })

	require.NoError(t, tr.repl.Run(context.Background()))
	assert.Contains(t, tr.out.String(), "The KeePass Shell")
	assert.Contains(t, tr.out.String(), "1.0.0")
}

func TestREPL_Run_ContextCancellation(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.repl.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.reader.prompts)
}

func TestREPL_Close(t *testing.T) {
	tr := newTestREPL(t, quietConfig, nil)
	require.NoError(t, tr.repl.Run(context.Background()))

	require.NoError(t, tr.repl.Close())
	assert.True(t, tr.reader.closed)
	assert.Nil(t, tr.repl.History())
	assert.NoError(t, tr.repl.Close())
}
