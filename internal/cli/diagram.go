package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/render"
)

// DiagramOptions holds flags for the diagram command.
type DiagramOptions struct {
	*RootOptions
	PDF    string // typeset to this path
	Labels bool   // keep the q_N wire labels
}

// DiagramResult is the rendered circuit.
type DiagramResult struct {
	Latex string `json:"latex"`
	PDF   string `json:"pdf,omitempty"`
}

// NewDiagramCommand creates the diagram command.
func NewDiagramCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiagramOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diagram <object-file>",
		Short: "Render the circuit of an object file as qcircuit LaTeX",
		Long: `Render the OpenQASM body of an object file as a qcircuit LaTeX circuit.

The q_N wire labels are stripped unless --labels is given. With --pdf the
circuit is typeset with pdflatex, which must be installed.

Exit codes:
  0 - Rendered
  1 - Malformed object file, pdflatex missing or failed
  2 - Command error (file not found, etc.)

Examples:
  gocavy diagram teleport.qasm > teleport.tex
  gocavy diagram teleport.qasm --pdf teleport.pdf`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PDF, "pdf", "", "typeset the diagram to this PDF file")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "keep q_N wire labels")

	return cmd
}

func runDiagram(opts *DiagramOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	obj, err := readObject(formatter, path)
	if err != nil {
		return err
	}
	summary, err := obj.Inspect()
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid circuit", err)
	}

	circuit := render.Latex(summary)
	if !opts.Labels {
		circuit = render.FixupLatex(circuit)
	}

	if opts.PDF != "" {
		formatter.VerboseLog("Typesetting %s", opts.PDF)
		if err := render.PDF(opts.commandContext(cmd), opts.capabilities(), circuit, opts.PDF); err != nil {
			return formatter.Fail(ExitFailure, "pdf export failed", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(DiagramResult{Latex: circuit, PDF: opts.PDF})
	}
	if opts.PDF != "" {
		fmt.Fprintf(formatter.Writer, "%s Wrote %s\n", okMark(), opts.PDF)
		return nil
	}
	fmt.Fprintln(formatter.Writer, circuit)
	return nil
}
