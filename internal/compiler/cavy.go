// Package compiler runs the external Cavy compiler.
//
// The compiler is a separate program. Compile writes the source to a
// scratch directory, invokes
//
//	<command> <src> -o <obj> -O <opt> [arch flags]
//
// and parses the object file it writes. The scratch directory is removed
// on every path.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/config"
	"github.com/roach88/gocavy/internal/objfile"
)

// ErrInvalidOpt is returned for optimization levels outside 0..3.
var ErrInvalidOpt = errors.New("optimization level must be between 0 and 3")

// Options are the per-compilation settings passed to the compiler.
type Options struct {
	Opt   int
	Debug bool

	// Architecture. Zero values are the compiler's own defaults.
	QbCount  *int
	QramSize int
	MeasMode string
	Feedback bool
}

// OptionsFromConfig extracts compiler options from a session config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Opt:      cfg.Opt,
		Debug:    cfg.Debug,
		QbCount:  cfg.QbCount,
		QramSize: cfg.QramSize,
		MeasMode: cfg.MeasMode,
		Feedback: cfg.Feedback,
	}
}

// args returns the flags following the source path.
func (o Options) args(objPath string) []string {
	args := []string{"-o", objPath, "-O", strconv.Itoa(o.Opt)}
	if o.Debug {
		args = append(args, "--debug")
	}
	if o.QbCount != nil {
		args = append(args, "--qb-count", strconv.Itoa(*o.QbCount))
	}
	if o.QramSize > 0 {
		args = append(args, "--qram-size", strconv.Itoa(o.QramSize))
	}
	if o.MeasMode != "" && o.MeasMode != config.MeasNondemolition {
		args = append(args, "--meas-mode", o.MeasMode)
	}
	if o.Feedback {
		args = append(args, "--feedback")
	}
	return args
}

// Compiler invokes one compiler command.
type Compiler struct {
	command  []string
	registry *capability.Registry
	logger   zerolog.Logger
	tempDir  string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry resolves the compiler through a capability registry, so a
// missing binary is reported as *capability.UnavailableError.
func WithRegistry(r *capability.Registry) Option {
	return func(c *Compiler) {
		c.registry = r
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithTempDir sets the parent of the scratch directory. The default is
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(c *Compiler) {
		c.tempDir = dir
	}
}

// New creates a compiler for command, which may carry leading arguments
// ("cavy --color=never"). With a registry, the command's program is
// recorded as the cavy capability.
func New(command string, opts ...Option) *Compiler {
	c := &Compiler{
		command: strings.Fields(command),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry != nil && len(c.command) > 0 {
		spec, _ := c.registry.Lookup(capability.Compiler)
		spec.Name = capability.Compiler
		spec.Kind = capability.KindExecutable
		spec.Command = c.command[0]
		c.registry.Register(spec)
	}
	return c
}

// Compile compiles src and returns the parsed object file. A non-zero exit
// yields *Failure carrying the compiler's stderr.
func (c *Compiler) Compile(ctx context.Context, src string, opts Options) (*objfile.ObjectFile, error) {
	if opts.Opt < 0 || opts.Opt > config.MaxOpt {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOpt, opts.Opt)
	}
	if len(c.command) == 0 {
		return nil, errors.New("compiler command is empty")
	}

	prog := c.command[0]
	if c.registry != nil {
		path, err := c.registry.Path(capability.Compiler)
		if err != nil {
			return nil, err
		}
		prog = path
	}

	dir, err := os.MkdirTemp(c.tempDir, "gocavy-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "main.cavy")
	objPath := filepath.Join(dir, "main.qasm")
	if err := os.WriteFile(srcPath, []byte(src), 0o600); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}

	args := append([]string{}, c.command[1:]...)
	args = append(args, srcPath)
	args = append(args, opts.args(objPath)...)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	c.logger.Debug().Str("cmd", prog).Strs("args", args).Msg("invoking compiler")
	runErr := cmd.Run()
	c.logger.Debug().Dur("elapsed", time.Since(start)).Err(runErr).Msg("compiler finished")

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("compile: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &Failure{
				ExitCode:   exitErr.ExitCode(),
				Diagnostic: strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("run compiler: %w", runErr)
	}

	data, err := os.ReadFile(objPath)
	if err != nil {
		return nil, fmt.Errorf("read object file: %w", err)
	}
	obj, err := objfile.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("compiler output: %w", err)
	}

	c.logger.Info().Int("bindings", len(obj.Names())).Int("opt", opts.Opt).Msg("compiled")
	return obj, nil
}

// Failure is a compilation rejected by the compiler. Diagnostic is the
// compiler's stderr with surrounding whitespace removed.
type Failure struct {
	ExitCode   int
	Diagnostic string
}

func (f *Failure) Error() string {
	if f.Diagnostic == "" {
		return fmt.Sprintf("compilation failed (exit %d)", f.ExitCode)
	}
	return f.Diagnostic
}

// IsFailure reports whether err wraps a *Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
