// Package capability catalogues the optional external tools gocavy can use
// and checks for them at call time.
//
// Nothing is probed at startup. An operation that needs a tool calls
// Require just before using it and gets an *UnavailableError naming what to
// install when the tool is missing.
package capability

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies how a capability is satisfied.
type Kind string

const (
	// KindExecutable is satisfied by a program on PATH.
	KindExecutable Kind = "executable"
	// KindUnsatisfiable never loads. It stands in for backends that are
	// catalogued but not implemented.
	KindUnsatisfiable Kind = "unsatisfiable"
)

// Well-known capability names.
const (
	Compiler      = "cavy"
	Sampler       = "qasm-sampler"
	PDFLatex      = "pdflatex"
	Labber        = "labber"
	Unsatisfiable = "__unsatisfiable__"
)

// NotLoaded is reported by Version for capabilities that are unavailable.
const NotLoaded = "not loaded"

// Spec describes one capability.
type Spec struct {
	// Name is the key used with Require.
	Name string
	Kind Kind
	// Command is the program looked up for KindExecutable. Defaults to Name.
	Command string
	URL     string
	Desc    string
	// VersionArgs are passed to Command to print its version.
	VersionArgs []string
}

func (s Spec) command() string {
	if s.Command != "" {
		return s.Command
	}
	return s.Name
}

// Status is the observed state of one capability.
type Status struct {
	Spec      Spec
	Available bool
	Path      string
}

// LookPathFunc resolves a command to an executable path.
type LookPathFunc func(file string) (string, error)

// VersionFunc runs an executable and returns its version output.
type VersionFunc func(ctx context.Context, path string, args ...string) (string, error)

// Registry holds capability specs. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	specs    map[string]Spec
	lookPath LookPathFunc
	version  VersionFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithLookPath replaces exec.LookPath. Tests use it to fake PATH.
func WithLookPath(fn LookPathFunc) Option {
	return func(r *Registry) {
		r.lookPath = fn
	}
}

// WithVersionFunc replaces the process-based version probe.
func WithVersionFunc(fn VersionFunc) Option {
	return func(r *Registry) {
		r.version = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		specs:    make(map[string]Spec),
		lookPath: exec.LookPath,
		version:  runVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns a registry holding every capability gocavy knows about.
func Default(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, s := range DefaultSpecs() {
		r.Register(s)
	}
	return r
}

// DefaultSpecs lists the built-in capabilities.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Name:        Compiler,
			Kind:        KindExecutable,
			Desc:        "The Cavy compiler",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        Sampler,
			Kind:        KindExecutable,
			Desc:        "A QASM sampler printing one JSON measurement map per shot",
			VersionArgs: []string{"--version"},
		},
		{
			Name:        PDFLatex,
			Kind:        KindExecutable,
			URL:         "https://www.latex-project.org/get/",
			Desc:        "LaTeX to PDF renderer with the qcircuit package",
			VersionArgs: []string{"--version"},
		},
		{
			Name: Labber,
			Kind: KindUnsatisfiable,
			URL:  "http://labber.org/online-doc/api/index.html",
			Desc: "The Labber automation toolkit",
		},
		{
			Name: Unsatisfiable,
			Kind: KindUnsatisfiable,
			Desc: "A capability that always fails to load",
		},
	}
}

// Register adds or replaces a spec.
func (r *Registry) Register(s Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[s.Name] = s
}

// Lookup returns the spec for name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path resolves name to an executable. It fails with *UnavailableError when
// the capability is unknown, unsatisfiable or not on PATH.
func (r *Registry) Path(name string) (string, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return "", &UnavailableError{Name: name, Reason: "unknown capability"}
	}
	switch s.Kind {
	case KindExecutable:
		path, err := r.lookPath(s.command())
		if err != nil {
			return "", &UnavailableError{Name: name, Spec: s, Err: err}
		}
		return path, nil
	default:
		return "", &UnavailableError{Name: name, Spec: s}
	}
}

// Require checks every name and reports all that are missing.
func (r *Registry) Require(names ...string) error {
	var result *multierror.Error
	for _, name := range names {
		if _, err := r.Path(name); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result == nil {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result
}

// Available reports whether name can be used now.
func (r *Registry) Available(name string) bool {
	_, err := r.Path(name)
	return err == nil
}

// Version returns the first line printed by the capability's version
// command, or NotLoaded when the capability is unavailable.
func (r *Registry) Version(ctx context.Context, name string) string {
	path, err := r.Path(name)
	if err != nil {
		return NotLoaded
	}
	s, _ := r.Lookup(name)
	if len(s.VersionArgs) == 0 {
		return "no version found"
	}
	out, err := r.version(ctx, path, s.VersionArgs...)
	if err != nil {
		return "no version found"
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	if line == "" {
		return "no version found"
	}
	return line
}

// List returns the status of every registered capability, sorted by name.
func (r *Registry) List() []Status {
	names := r.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		s, _ := r.Lookup(name)
		path, err := r.Path(name)
		out = append(out, Status{Spec: s, Available: err == nil, Path: path})
	}
	return out
}

func runVersion(ctx context.Context, path string, args ...string) (string, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w", path, strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
