// Package config loads gocavy session configuration from CUE.
//
// A config file is unified with an embedded schema that supplies defaults
// and bounds:
//
//	opt:       2
//	meas_mode: "demolition"
//	backend:   "replay"
//	replay_file: "shots.yaml"
//
// Values built in Go (for example after CLI flag overrides) are checked
// again with Validate.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/go-multierror"
)

//go:embed schema.cue
var schemaSource string

// Measurement modes.
const (
	MeasNondemolition = "nondemolition"
	MeasDemolition    = "demolition"
)

// Backends.
const (
	BackendCommand = "command"
	BackendReplay  = "replay"
)

// MaxOpt is the highest optimization level the compiler accepts.
const MaxOpt = 3

// Config is a resolved session configuration.
type Config struct {
	Compiler    string   `json:"compiler"`
	Opt         int      `json:"opt"`
	Debug       bool     `json:"debug"`
	QbCount     *int     `json:"qb_count,omitempty"`
	QramSize    int      `json:"qram_size"`
	MeasMode    string   `json:"meas_mode"`
	Feedback    bool     `json:"feedback"`
	Backend     string   `json:"backend"`
	Sampler     []string `json:"sampler"`
	ReplayFile  string   `json:"replay_file,omitempty"`
	Shots       int      `json:"shots"`
	StrictWidth bool     `json:"strict_width"`
	DB          string   `json:"db,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Compiler: "cavy",
		Opt:      MaxOpt,
		MeasMode: MeasNondemolition,
		Backend:  BackendCommand,
		Sampler:  []string{"qasm-sampler"},
		Shots:    1,
	}
}

// Load reads and resolves the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes resolves CUE source against the schema. filename is used in
// error positions.
func LoadBytes(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks constraints that span fields, plus the schema bounds for
// values that did not come through LoadBytes. Every violation is reported.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(field, format string, args ...any) {
		result = multierror.Append(result, &Error{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Compiler == "" {
		add("compiler", "must not be empty")
	}
	if c.Opt < 0 || c.Opt > MaxOpt {
		add("opt", "optimization level %d outside 0..%d", c.Opt, MaxOpt)
	}
	if c.QbCount != nil && *c.QbCount < 1 {
		add("qb_count", "must be at least 1, got %d", *c.QbCount)
	}
	if c.QramSize < 0 {
		add("qram_size", "must be non-negative, got %d", c.QramSize)
	}
	if c.MeasMode != MeasNondemolition && c.MeasMode != MeasDemolition {
		add("meas_mode", "unknown measurement mode %q", c.MeasMode)
	}
	if c.Shots < 1 {
		add("shots", "must be at least 1, got %d", c.Shots)
	}

	switch c.Backend {
	case BackendCommand:
		if len(c.Sampler) == 0 || c.Sampler[0] == "" {
			add("sampler", "command backend needs a sampler command")
		}
	case BackendReplay:
		if c.ReplayFile == "" {
			add("replay_file", "replay backend needs replay_file")
		}
	default:
		add("backend", "unknown backend %q", c.Backend)
	}

	return result.ErrorOrNil()
}
