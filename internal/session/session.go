// Package session ties compilation, sampling, decoding and persistence
// together.
//
// A Session is configured once from a config.Config. Compile turns Cavy
// source into an object file; Run samples an object file, decodes every
// shot against its bindings and (when a store is configured) records the
// run so it can be listed and replayed later.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/gocavy/internal/backend"
	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/compiler"
	"github.com/roach88/gocavy/internal/config"
	"github.com/roach88/gocavy/internal/decode"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
	"github.com/roach88/gocavy/internal/store"
)

// ErrNoStore is returned by operations that need persisted runs when the
// session has no store.
var ErrNoStore = errors.New("session has no store configured")

// Session compiles and runs Cavy programs under one configuration.
type Session struct {
	cfg         config.Config
	registry    *capability.Registry
	compiler    *compiler.Compiler
	sampler     backend.Sampler
	decoder     *decode.Decoder
	store       *store.Store
	ownsStore   bool
	clock       SeqClock
	ids         RunIDGenerator
	logger      zerolog.Logger
	parallelism int
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry sets the capability registry. The default is
// capability.Default().
func WithRegistry(r *capability.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithCompiler replaces the compiler built from the config.
func WithCompiler(c *compiler.Compiler) Option {
	return func(s *Session) { s.compiler = c }
}

// WithSampler replaces the sampler built from the config.
func WithSampler(b backend.Sampler) Option {
	return func(s *Session) { s.sampler = b }
}

// WithStore persists objects and runs to st. The caller keeps ownership.
func WithStore(st *store.Store) Option {
	return func(s *Session) { s.store = st }
}

// WithClock sets the logical clock. By default the clock resumes from the
// store's last seq, or starts at 0.
func WithClock(c SeqClock) Option {
	return func(s *Session) { s.clock = c }
}

// WithRunIDs sets the run ID generator. The default is UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithParallelism bounds concurrent shot decoding. n < 1 means
// GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(s *Session) { s.parallelism = n }
}

// New creates a session. A nil cfg means config.Default(). When cfg.DB is
// set and no store is given, the session opens and owns that store.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	s := &Session{
		cfg:    *cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = capability.Default()
	}
	if s.compiler == nil {
		s.compiler = compiler.New(cfg.Compiler,
			compiler.WithRegistry(s.registry),
			compiler.WithLogger(s.logger))
	}
	if s.sampler == nil {
		sampler, err := s.defaultSampler()
		if err != nil {
			return nil, err
		}
		s.sampler = sampler
	}
	s.decoder = decode.New(decode.Options{StrictWidth: cfg.StrictWidth})
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	if s.parallelism < 1 {
		s.parallelism = runtime.GOMAXPROCS(0)
	}

	if s.store == nil && cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.store = st
		s.ownsStore = true
	}
	if s.clock == nil {
		start := int64(0)
		if s.store != nil {
			last, err := s.store.LastSeq(context.Background())
			if err != nil {
				s.Close()
				return nil, err
			}
			start = last
		}
		s.clock = NewClockAt(start)
	}

	return s, nil
}

func (s *Session) defaultSampler() (backend.Sampler, error) {
	switch s.cfg.Backend {
	case config.BackendReplay:
		r, err := backend.LoadReplay(s.cfg.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("replay backend: %w", err)
		}
		return r, nil
	default:
		return backend.NewCommand(s.cfg.Sampler,
			backend.WithCommandRegistry(s.registry),
			backend.WithCommandLogger(s.logger)), nil
	}
}

// Close releases the store if the session opened it.
func (s *Session) Close() error {
	if s.ownsStore && s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Config returns a copy of the session configuration.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Registry returns the capability registry.
func (s *Session) Registry() *capability.Registry {
	return s.registry
}

// Compile compiles src with the session's options. With a store, the
// object is recorded.
func (s *Session) Compile(ctx context.Context, src string) (*objfile.ObjectFile, error) {
	obj, err := s.compiler.Compile(ctx, src, compiler.OptionsFromConfig(&s.cfg))
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if _, err := s.saveObject(ctx, obj); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func (s *Session) saveObject(ctx context.Context, obj *objfile.ObjectFile) (string, error) {
	id, err := obj.ID()
	if err != nil {
		return "", err
	}
	inserted, err := s.store.WriteObject(ctx, store.Object{
		ID:       id,
		Bindings: obj.Bindings(),
		Body:     obj.Body(),
		Seq:      s.clock.Next(),
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("object", id).Bool("inserted", inserted).Msg("stored object")
	return id, nil
}

// Run is one execution of an object file with every shot decoded.
type Run struct {
	ir.Run
	Shots []ir.Shot
}

// Run samples obj shots times and decodes every shot. shots < 1 means the
// configured default. Any shot that fails to decode fails the whole run
// with the lowest failing shot's error; no partial run is returned or
// stored.
func (s *Session) Run(ctx context.Context, obj *objfile.ObjectFile, shots int) (*Run, error) {
	if shots < 1 {
		shots = s.cfg.Shots
	}
	objectID, err := obj.ID()
	if err != nil {
		return nil, err
	}

	maps, err := s.sampler.Sample(ctx, obj.Body(), shots)
	if err != nil {
		return nil, err
	}
	if len(maps) != shots {
		return nil, &backend.SampleError{
			Sampler: "session",
			Shot:    -1,
			Reason:  fmt.Sprintf("expected %d shots, got %d", shots, len(maps)),
		}
	}

	decoded, err := s.decodeShots(ctx, obj.Bindings(), maps)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Run: ir.Run{
			ID:          s.ids.Generate(),
			ObjectID:    objectID,
			ShotCount:   shots,
			StrictWidth: s.cfg.StrictWidth,
			ToolVersion: ir.ToolVersion,
		},
		Shots: decoded,
	}
	for i := range run.Shots {
		run.Shots[i].RunID = run.ID
	}

	if s.store != nil {
		if _, err := s.saveObject(ctx, obj); err != nil {
			return nil, err
		}
		run.Seq = s.clock.Next()
		if err := s.store.WriteRunWithShots(ctx, run.Run, run.Shots); err != nil {
			return nil, err
		}
	} else {
		run.Seq = s.clock.Next()
	}

	s.logger.Info().
		Str("run", run.ID).
		Str("object", objectID).
		Int("shots", shots).
		Msg("run complete")
	return run, nil
}

// decodeShots decodes maps in parallel. Decode failures do not cancel the
// other shots, so the reported error is always the lowest failing index.
func (s *Session) decodeShots(ctx context.Context, b ir.Bindings, maps []ir.MeasurementMap) ([]ir.Shot, error) {
	shots := make([]ir.Shot, len(maps))
	errs := make([]error, len(maps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, m := range maps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			shot, err := s.decodeShot(i, b, m)
			if err != nil {
				errs[i] = fmt.Errorf("shot %d: %w", i, err)
				return nil
			}
			shots[i] = shot
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return shots, nil
}

func (s *Session) decodeShot(seq int, b ir.Bindings, m ir.MeasurementMap) (ir.Shot, error) {
	if err := decode.CheckCoverage(b, m); err != nil {
		return ir.Shot{}, err
	}
	result, err := s.decoder.Assemble(b, m)
	if err != nil {
		return ir.Shot{}, err
	}
	hash, err := ir.ResultHash(result)
	if err != nil {
		return ir.Shot{}, err
	}
	return ir.Shot{
		Seq:          seq,
		Measurements: m,
		Result:       result,
		ResultHash:   hash,
	}, nil
}

// Histogram counts the shots of run by decoded result, most frequent first
// and ties broken by result hash.
func Histogram(run *Run) []store.HistogramEntry {
	byHash := make(map[string]*store.HistogramEntry)
	for _, shot := range run.Shots {
		e, ok := byHash[shot.ResultHash]
		if !ok {
			e = &store.HistogramEntry{ResultHash: shot.ResultHash, Result: shot.Result}
			byHash[shot.ResultHash] = e
		}
		e.Count++
	}

	out := make([]store.HistogramEntry, 0, len(byHash))
	for _, e := range byHash {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ResultHash < out[j].ResultHash
	})
	return out
}

// Runs lists stored runs in seq order.
func (s *Session) Runs(ctx context.Context) ([]ir.Run, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListRuns(ctx)
}

// StoredHistogram returns the histogram of a stored run.
func (s *Session) StoredHistogram(ctx context.Context, runID string) ([]store.HistogramEntry, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Histogram(ctx, runID)
}
