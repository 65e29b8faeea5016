package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/ir"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunsResult lists stored runs.
type RunsResult struct {
	Runs  []ir.Run `json:"runs"`
	Total int      `json:"total"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a database",
		Long: `List the runs recorded in a SQLite database in the order they were made.

Exit codes:
  0 - Listed
  2 - Command error (database not found, etc.)

Examples:
  gocavy runs --db ./runs.db
  gocavy runs --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := opts.openStoredSession(cmd, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer sess.Close()

	runs, err := sess.Runs(opts.commandContext(cmd))
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing runs", err)
	}
	if runs == nil {
		runs = []ir.Run{}
	}

	if formatter.Format == "json" {
		return formatter.Success(RunsResult{Runs: runs, Total: len(runs)})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	fmt.Fprintf(w, "%-5s  %-36s  %-6s  %-6s  %s\n", "SEQ", "RUN", "SHOTS", "STRICT", "OBJECT")
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d  %-36s  %-6d  %-6v  %s\n", r.Seq, r.ID, r.ShotCount, r.StrictWidth, shortID(r.ObjectID))
	}
	return nil
}

// shortID abbreviates a content hash for tables.
func shortID(id string) string {
	const n = 12
	if len(id) > n {
		return id[:n]
	}
	return id
}
