package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Opt      int    // optimization level, overrides the config
	Database string // record the object in this store
}

// CompileResult describes a compiled object file.
type CompileResult struct {
	ObjectID string   `json:"object_id"`
	Bindings []string `json:"bindings"`
	Qubits   []int    `json:"qubits"`
	Output   string   `json:"output,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <src.cavy>",
		Short: "Compile Cavy source to an object file",
		Long: `Compile a Cavy program with the configured compiler and check the
resulting object file.

Without --output the object file is written to stdout (text format) or
embedded in the response (json format).

Exit codes:
  0 - Compiled
  1 - The compiler rejected the program or produced a malformed object file
  2 - Command error (missing source, bad config, etc.)

Examples:
  gocavy compile teleport.cavy -o teleport.qasm
  gocavy compile teleport.cavy -O 0 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().IntVarP(&opts.Opt, "opt", "O", 0, "optimization level 0-3 (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the object in this SQLite database")

	return cmd
}

func runCompile(opts *CompileOptions, srcPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return configError(formatter, err)
	}
	if cmd.Flags().Changed("opt") {
		cfg.Opt = opts.Opt
	}
	if opts.Database != "" {
		cfg.DB = opts.Database
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("reading source: %v", err), nil)
		return WrapExitError(ExitCommandError, "reading source", err)
	}

	sess, err := opts.openSession(cmd, formatter, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	formatter.VerboseLog("Compiling %s with %s -O %d", srcPath, cfg.Compiler, cfg.Opt)
	obj, err := sess.Compile(opts.commandContext(cmd), string(src))
	if err != nil {
		return formatter.Fail(ExitFailure, "compilation failed", err)
	}

	text, err := obj.Text()
	if err != nil {
		return formatter.Fail(ExitFailure, "encoding object file", err)
	}
	id, err := obj.ID()
	if err != nil {
		return formatter.Fail(ExitFailure, "hashing object file", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	result := CompileResult{
		ObjectID: id,
		Bindings: obj.Names(),
		Qubits:   qubitInts(obj.Qubits()),
		Output:   opts.Output,
	}

	if formatter.Format == "json" {
		if opts.Output == "" {
			result.Text = text
		}
		return formatter.Success(result)
	}

	if opts.Output == "" {
		fmt.Fprint(formatter.Writer, text)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%s Compiled %s → %s (%d binding(s), %d qubit(s))\n",
		okMark(), srcPath, opts.Output, len(result.Bindings), len(result.Qubits))
	return nil
}
