package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/ir"
)

// Command samples by running an external program. The body is written to
// its stdin and "--shots N" is appended to its arguments. It must print N
// lines, each a JSON object of qubit → bool:
//
//	{"0":true,"1":false}
type Command struct {
	argv     []string
	registry *capability.Registry
	logger   zerolog.Logger
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithCommandRegistry resolves the program through the qasm-sampler
// capability.
func WithCommandRegistry(r *capability.Registry) CommandOption {
	return func(c *Command) {
		c.registry = r
	}
}

// WithCommandLogger sets the logger. The default discards.
func WithCommandLogger(l zerolog.Logger) CommandOption {
	return func(c *Command) {
		c.logger = l
	}
}

// NewCommand creates a command sampler. argv[0] is the program.
func NewCommand(argv []string, opts ...CommandOption) *Command {
	c := &Command{
		argv:   append([]string{}, argv...),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry != nil && len(c.argv) > 0 {
		spec, _ := c.registry.Lookup(capability.Sampler)
		spec.Name = capability.Sampler
		spec.Kind = capability.KindExecutable
		spec.Command = c.argv[0]
		c.registry.Register(spec)
	}
	return c
}

func (c *Command) name() string {
	if len(c.argv) == 0 {
		return "<empty>"
	}
	return c.argv[0]
}

// Sample runs the program once for all shots.
func (c *Command) Sample(ctx context.Context, body string, shots int) ([]ir.MeasurementMap, error) {
	if err := checkShots(c.name(), shots); err != nil {
		return nil, err
	}
	if len(c.argv) == 0 {
		return nil, &SampleError{Sampler: c.name(), Shot: -1, Reason: "no sampler command configured"}
	}

	prog := c.argv[0]
	if c.registry != nil {
		path, err := c.registry.Path(capability.Sampler)
		if err != nil {
			return nil, err
		}
		prog = path
	}

	args := append(append([]string{}, c.argv[1:]...), "--shots", strconv.Itoa(shots))
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Stdin = strings.NewReader(body)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	c.logger.Debug().Str("cmd", prog).Strs("args", args).Msg("invoking sampler")
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("sample: %w", ctxErr)
		}
		se := &SampleError{Sampler: c.name(), Shot: -1, Reason: strings.TrimSpace(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			se.ExitCode = exitErr.ExitCode()
		}
		if se.Reason == "" {
			se.Reason = "sampler failed"
		}
		return nil, se
	}

	maps, err := parseShots(c.name(), &stdout)
	if err != nil {
		return nil, err
	}
	if len(maps) != shots {
		return nil, &SampleError{
			Sampler: c.name(),
			Shot:    -1,
			Reason:  fmt.Sprintf("expected %d shots, got %d", shots, len(maps)),
		}
	}
	c.logger.Debug().Int("shots", len(maps)).Msg("sampled")
	return maps, nil
}

// parseShots reads one JSON measurement map per non-blank line.
func parseShots(name string, r *bytes.Buffer) ([]ir.MeasurementMap, error) {
	var maps []ir.MeasurementMap
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var m ir.MeasurementMap
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, &SampleError{Sampler: name, Shot: len(maps), Reason: "invalid measurement map", Err: err}
		}
		maps = append(maps, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, &SampleError{Sampler: name, Shot: -1, Reason: "read output", Err: err}
	}
	return maps, nil
}
