package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/atinylittleshell/kpsh/internal/core"
	"github.com/atinylittleshell/kpsh/internal/repl"
	"github.com/atinylittleshell/kpsh/internal/repl/config"
)

var BUILD_VERSION = "dev"

// passwordEnv is read when no --password flag is given.
const passwordEnv = "DB_PASSWORD"

type rootOptions struct {
	dbFile     string
	password   string
	configPath string
	logLevel   string
	version    bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "kpsh [db-file]",
		Short: "kpsh - an interactive shell for KeePass databases",
		Long: `kpsh browses a KeePass (kdbx) database like a filesystem.

Groups are directories and entries are files: use ls and cd to move around,
show to print an entry, and cp, cu or cw to copy its password, username or
URL to the clipboard. Run help inside the shell for the full command list.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
				return nil
			}
			if len(args) == 1 {
				if opts.dbFile != "" && opts.dbFile != args[0] {
					return fmt.Errorf("database given both as argument (%s) and --db-file (%s)", args[0], opts.dbFile)
				}
				opts.dbFile = args[0]
			}

			password, hasPassword := resolvePassword(cmd, opts.password)
			return run(cmd.Context(), opts, password, hasPassword)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.dbFile, "db-file", "f", "", "KeePass database to open at startup")
	flags.StringVarP(&opts.password, "password", "p", "", "database password (or set "+passwordEnv+")")
	flags.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/kpsh/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.version, "version", false, "display build version")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kpsh: %v\n", err)
		os.Exit(1)
	}
}

// resolvePassword picks the password from the flag, then the environment.
func resolvePassword(cmd *cobra.Command, flagValue string) (string, bool) {
	if cmd.Flags().Changed("password") {
		return flagValue, true
	}
	return os.LookupEnv(passwordEnv)
}

func run(ctx context.Context, opts rootOptions, password string, hasPassword bool) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("kpsh needs an interactive terminal")
	}

	cfg, err := repl.LoadConfig(opts.configPath, os.Stderr, nil)
	if err != nil {
		return err
	}

	logger, err := initializeLogger(opts.logLevel, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("-------- new kpsh session --------", zap.String("version", BUILD_VERSION))

	r, err := repl.NewREPL(repl.Options{
		Config:       cfg,
		DBFile:       opts.dbFile,
		Password:     password,
		HasPassword:  hasPassword,
		BuildVersion: BUILD_VERSION,
		TermWidth:    terminalWidth(os.Stdout),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer r.Close()

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("unhandled error", zap.Error(err))
		return err
	}
	return nil
}

// logLevel resolves the effective level: the flag wins over the config file,
// and dev builds always log at debug.
func logLevel(flagValue string, cfg *config.Config) (zap.AtomicLevel, error) {
	if BUILD_VERSION == "dev" {
		return zap.NewAtomicLevelAt(zap.DebugLevel), nil
	}
	level := cfg.LogLevel
	if flagValue != "" {
		level = flagValue
	}
	return zap.ParseAtomicLevel(level)
}

func initializeLogger(flagValue string, cfg *config.Config) (*zap.Logger, error) {
	level, err := logLevel(flagValue, cfg)
	if err != nil {
		return nil, err
	}

	// Logs only go to a file so they never interleave with the prompt.
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}
	loggerConfig.ErrorOutputPaths = []string{
		core.LogFile(),
	}

	return loggerConfig.Build()
}

// terminalWidth reports the width of w when it is a terminal, 80 otherwise.
func terminalWidth(w io.Writer) func() int {
	return func() int {
		f, ok := w.(*os.File)
		if !ok {
			return 80
		}
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil || width <= 0 {
			return 80
		}
		return width
	}
}
