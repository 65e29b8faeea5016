package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/backend"
	"github.com/roach88/gocavy/internal/config"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
	"github.com/roach88/gocavy/internal/session"
	"github.com/roach88/gocavy/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Shots       int
	Database    string
	ReplayFile  string
	StrictWidth bool
	Opt         int
}

// HistogramRow is one distinct decoded result of a run.
type HistogramRow struct {
	Count      int          `json:"count"`
	ResultHash string       `json:"result_hash"`
	Result     ir.ResultSet `json:"result"`
}

// RunResult summarizes a completed run.
type RunResult struct {
	RunID       string         `json:"run_id"`
	ObjectID    string         `json:"object_id"`
	Shots       int            `json:"shots"`
	Seq         int64          `json:"seq"`
	StrictWidth bool           `json:"strict_width"`
	Stored      bool           `json:"stored"`
	Histogram   []HistogramRow `json:"histogram"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <object-file|src.cavy>",
		Short: "Sample a program and decode every shot",
		Long: `Sample an object file with the configured backend and decode every shot
against its header bindings. A .cavy argument is compiled first.

Any shot that fails to decode fails the whole run; nothing is stored.
With --db the object, the run and every shot are recorded for replay.

Exit codes:
  0 - Every shot decoded
  1 - Compile, sampling or decode failure
  2 - Command error (file not found, bad config, database error, etc.)

Examples:
  gocavy run teleport.qasm --shots 1000
  gocavy run teleport.cavy --db ./runs.db
  gocavy run teleport.qasm --replay shots.yaml --strict-width`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Shots, "shots", 0, "number of shots (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.ReplayFile, "replay", "", "sample from recorded shots in a YAML/JSON file")
	cmd.Flags().BoolVar(&opts.StrictWidth, "strict-width", false, "reject Q_U* bindings wider than their tag")
	cmd.Flags().IntVarP(&opts.Opt, "opt", "O", 0, "optimization level when compiling .cavy input")

	return cmd
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := opts.commandContext(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return configError(formatter, err)
	}
	if opts.Database != "" {
		cfg.DB = opts.Database
	}
	if cmd.Flags().Changed("strict-width") {
		cfg.StrictWidth = opts.StrictWidth
	}
	if cmd.Flags().Changed("opt") {
		cfg.Opt = opts.Opt
	}

	shots := cfg.Shots
	if cmd.Flags().Changed("shots") {
		shots = opts.Shots
	}

	var sessOpts []session.Option
	if opts.ReplayFile != "" {
		replay, err := backend.LoadReplay(opts.ReplayFile)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "loading replay file", err)
		}
		cfg.Backend = config.BackendReplay
		cfg.ReplayFile = opts.ReplayFile
		if !cmd.Flags().Changed("shots") {
			shots = replay.Len()
		}
		sessOpts = append(sessOpts, session.WithSampler(replay))
	}

	sess, err := opts.openSession(cmd, formatter, cfg, sessOpts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	var obj *objfile.ObjectFile
	if filepath.Ext(path) == ".cavy" {
		src, err := os.ReadFile(path)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading source: %v", err), nil)
			return WrapExitError(ExitCommandError, "reading source", err)
		}
		formatter.VerboseLog("Compiling %s", path)
		obj, err = sess.Compile(ctx, string(src))
		if err != nil {
			return formatter.Fail(ExitFailure, "compilation failed", err)
		}
	} else {
		obj, err = readObject(formatter, path)
		if err != nil {
			return err
		}
	}

	formatter.VerboseLog("Sampling %d shot(s)", shots)
	run, err := sess.Run(ctx, obj, shots)
	if err != nil {
		return formatter.Fail(ExitFailure, "run failed", err)
	}

	hist := histogramRows(session.Histogram(run))
	result := RunResult{
		RunID:       run.ID,
		ObjectID:    run.ObjectID,
		Shots:       run.ShotCount,
		Seq:         run.Seq,
		StrictWidth: run.StrictWidth,
		Stored:      cfg.DB != "",
		Histogram:   hist,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s Run %s\n", okMark(), result.RunID)
	fmt.Fprintf(w, "  Object: %s\n", result.ObjectID)
	fmt.Fprintf(w, "  Shots:  %d\n", result.Shots)
	if result.Stored {
		fmt.Fprintf(w, "  Stored: %s (seq %d)\n", cfg.DB, result.Seq)
	}
	fmt.Fprintln(w)
	writeHistogram(w, hist, result.Shots)
	return nil
}

func histogramRows(entries []store.HistogramEntry) []HistogramRow {
	rows := make([]HistogramRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HistogramRow{
			Count:      e.Count,
			ResultHash: e.ResultHash,
			Result:     e.Result,
		})
	}
	return rows
}

func writeHistogram(w io.Writer, rows []HistogramRow, total int) {
	fmt.Fprintf(w, "Histogram (%d distinct result(s)):\n", len(rows))
	for _, row := range rows {
		data, err := ir.MarshalCanonical(row.Result)
		if err != nil {
			data = []byte("?")
		}
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(row.Count) / float64(total)
		}
		fmt.Fprintf(w, "  %6d  %5.1f%%  %s\n", row.Count, pct, data)
	}
}
