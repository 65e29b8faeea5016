package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/errcode"
	"github.com/roach88/gocavy/internal/session"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayMismatch is one shot whose replayed result differs from the record.
type ReplayMismatch struct {
	Seq        int             `json:"seq"`
	StoredHash string          `json:"stored_hash"`
	ReplayHash string          `json:"replay_hash,omitempty"`
	Error      *errcode.Detail `json:"error,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// ReplayResult is the outcome of replaying one run.
type ReplayResult struct {
	RunID         string           `json:"run_id"`
	ObjectID      string           `json:"object_id"`
	ObjectIDOK    bool             `json:"object_id_ok"`
	Shots         int              `json:"shots"`
	Replayed      int              `json:"replayed"`
	MissingShots  []int            `json:"missing_shots,omitempty"`
	Mismatches    []ReplayMismatch `json:"mismatches,omitempty"`
	Deterministic bool             `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-decode a stored run and verify its results",
		Long: `Re-decode every stored shot of a run from its recorded measurements and
compare the result hashes against the ones stored with the run.

The sampler is not invoked. Shots are decoded with the strict-width
setting the run was recorded under.

Exit codes:
  0 - Every shot replayed to its recorded result
  1 - Verification failed (mismatched hashes, missing shots, changed object)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  gocavy replay 0192f3c4-... --db ./runs.db
  gocavy replay 0192f3c4-... --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := opts.openStoredSession(cmd, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer sess.Close()

	report, err := sess.Replay(opts.commandContext(cmd), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	result := replayResult(report)

	if formatter.Format == "json" {
		if result.Deterministic {
			return formatter.Success(result)
		}
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeReplay,
				Message: "replay verification failed",
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "replay verification failed")
	}

	return outputReplayText(formatter, result)
}

func replayResult(report *session.ReplayReport) ReplayResult {
	result := ReplayResult{
		RunID:         report.Run.ID,
		ObjectID:      report.Run.ObjectID,
		ObjectIDOK:    report.ObjectIDOK,
		Shots:         report.Run.ShotCount,
		Replayed:      report.Replayed,
		MissingShots:  report.MissingShots,
		Deterministic: report.OK(),
	}
	for _, m := range report.Mismatches {
		rm := ReplayMismatch{
			Seq:        m.Seq,
			StoredHash: m.StoredHash,
			ReplayHash: m.ReplayHash,
		}
		if m.Err != nil {
			rm.Error = errcode.Describe(m.Err)
			rm.Message = m.Err.Error()
		}
		result.Mismatches = append(result.Mismatches, rm)
	}
	return result
}

func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	fmt.Fprintf(w, "Replay: run %s\n", result.RunID)
	fmt.Fprintf(w, "  Object:   %s\n", result.ObjectID)
	fmt.Fprintf(w, "  Replayed: %d of %d shot(s)\n", result.Replayed, result.Shots)

	if !result.ObjectIDOK {
		fmt.Fprintln(w, "  Warning: stored object no longer hashes to its recorded ID")
	}
	if len(result.MissingShots) > 0 {
		fmt.Fprintf(w, "  Missing shots: %s\n", joinInts(result.MissingShots))
	}
	for _, m := range result.Mismatches {
		if m.Error != nil {
			fmt.Fprintf(w, "  %s shot %d: [%s] %s\n", failMark(), m.Seq, codeText(m.Error.Code), m.Message)
			continue
		}
		fmt.Fprintf(w, "  %s shot %d: stored %s, replayed %s\n", failMark(), m.Seq, shortID(m.StoredHash), shortID(m.ReplayHash))
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintf(w, "%s Run verified deterministic\n", okMark())
		return nil
	}
	fmt.Fprintf(w, "%s Replay verification failed\n", failMark())
	return NewExitError(ExitFailure, "replay verification failed")
}
