package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/config"
	"github.com/roach88/gocavy/internal/session"
)

// DefaultConfigFile is loaded from the working directory when --config is
// not given.
const DefaultConfigFile = "gocavy.cue"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a CUE config file

	registry *capability.Registry // nil means capability.Default()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the gocavy CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gocavy",
		Short: "Compile, run and decode Cavy programs",
		Long: `gocavy drives the Cavy compiler and decodes the measurement results of
compiled programs back into program-level values.

Object files carry a JSON header of typed bindings on their first line and
an OpenQASM body after it. Every shot of a run is decoded against those
bindings; runs can be stored in SQLite and replayed later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "session config file (default ./"+DefaultConfigFile+" if present)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewDiagramCommand(opts))
	cmd.AddCommand(NewCapabilitiesCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for cmd. Diagnostics go to stderr
// so JSON on stdout stays parseable.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a console logger on stderr when --verbose is set and a
// no-op logger otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) zerolog.Logger {
	if !o.Verbose {
		return zerolog.Nop()
	}
	return newConsoleLogger(cmd.ErrOrStderr())
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: color.NoColor}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// commandContext returns a context carrying the command's logger, for packages
// that log through zerolog.Ctx.
func (o *RootOptions) commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return o.logger(cmd).WithContext(ctx)
}

// capabilities returns the registry used to find external tools.
func (o *RootOptions) capabilities() *capability.Registry {
	if o.registry == nil {
		o.registry = capability.Default()
	}
	return o.registry
}

// loadConfig resolves the session config: --config if given, else
// ./gocavy.cue if it exists, else the defaults.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	path := o.Config
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return config.Default(), nil
			}
			return nil, err
		}
		path = DefaultConfigFile
	}
	return config.Load(path)
}

// configError reports a config that failed to load or validate.
func configError(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeConfig, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid config", err)
}

// openSession creates a session for cfg with the command's logger. Failures
// are reported through f.
func (o *RootOptions) openSession(cmd *cobra.Command, f *OutputFormatter, cfg *config.Config, opts ...session.Option) (*session.Session, error) {
	opts = append([]session.Option{
		session.WithLogger(o.logger(cmd)),
		session.WithRegistry(o.capabilities()),
	}, opts...)
	sess, err := session.New(cfg, opts...)
	if err != nil {
		code := ErrCodeConfig
		if cfg.DB != "" && !isConfigError(err) {
			code = ErrCodeStore
		}
		_ = f.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to start session", err)
	}
	return sess, nil
}

func isConfigError(err error) bool {
	var ce *config.Error
	return errors.As(err, &ce)
}

// openStoredSession opens a session over an existing database. A missing
// file is reported instead of being created empty.
func (o *RootOptions) openStoredSession(cmd *cobra.Command, f *OutputFormatter, db string) (*session.Session, error) {
	if _, err := os.Stat(db); err != nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", db), nil)
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, configError(f, err)
	}
	cfg.DB = db
	return o.openSession(cmd, f, cfg)
}
