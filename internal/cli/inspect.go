package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/errcode"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
	"github.com/roach88/gocavy/internal/qasm"
)

// BindingInfo describes one header binding.
type BindingInfo struct {
	Name   string `json:"name"`
	Tag    string `json:"tag"`
	Shape  string `json:"shape"`
	Qubits []int  `json:"qubits"`
}

// InspectResult is the summary of an object file.
type InspectResult struct {
	ObjectID    string         `json:"object_id"`
	Bindings    []BindingInfo  `json:"bindings"`
	Qubits      []int          `json:"qubits"`
	QASMVersion string         `json:"qasm_version"`
	NumQubits   int            `json:"num_qubits"`
	GateCounts  map[string]int `json:"gate_counts"`
	Measured    []int          `json:"measured"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <object-file>",
		Short: "Show the bindings and circuit summary of an object file",
		Long: `Parse an object file and print its bindings, the qubits they read and a
summary of the OpenQASM body.

Bindings that refer to qubits the body never declares are reported as
warnings; they do not change the exit code.

Exit codes:
  0 - Object file parsed
  1 - Malformed header or body
  2 - Command error (file not found, etc.)

Examples:
  gocavy inspect teleport.qasm
  gocavy inspect teleport.qasm --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	obj, err := readObject(formatter, path)
	if err != nil {
		return err
	}

	result, err := inspectObject(obj)
	if err != nil {
		return formatter.Fail(ExitFailure, "inspect failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writeInspectText(formatter.Writer, result)
	return nil
}

// readObject loads an object file, reporting a missing file as a command
// error and a bad file as a domain failure.
func readObject(f *OutputFormatter, path string) (*objfile.ObjectFile, error) {
	obj, err := objfile.ReadFile(path)
	if err == nil {
		return obj, nil
	}
	if errcode.Of(err) != errcode.Internal {
		return nil, f.Fail(ExitFailure, "invalid object file", err)
	}
	_ = f.Error(ErrCodeNotFound, err.Error(), nil)
	return nil, WrapExitError(ExitCommandError, "reading object file", err)
}

func inspectObject(obj *objfile.ObjectFile) (*InspectResult, error) {
	id, err := obj.ID()
	if err != nil {
		return nil, err
	}
	summary, err := obj.Inspect()
	if err != nil {
		return nil, err
	}

	result := &InspectResult{
		ObjectID:    id,
		Bindings:    make([]BindingInfo, 0, len(obj.Names())),
		Qubits:      qubitInts(obj.Qubits()),
		QASMVersion: summary.Version,
		NumQubits:   summary.NumQubits(),
		GateCounts:  summary.GateCounts(),
		Measured:    qubitInts(summary.Measured()),
	}
	for _, name := range obj.Names() {
		v, _ := obj.Binding(name)
		result.Bindings = append(result.Bindings, BindingInfo{
			Name:   name,
			Tag:    string(v.Tag()),
			Shape:  describeBinding(v),
			Qubits: qubitInts(ir.SortedQubits(ir.QubitsReferenced(v))),
		})
	}

	if err := obj.Validate(); err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				result.Warnings = append(result.Warnings, e.Error())
			}
		} else {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}
	return result, nil
}

func writeInspectText(w io.Writer, r *InspectResult) {
	fmt.Fprintf(w, "Object: %s\n", r.ObjectID)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bindings (%d):\n", len(r.Bindings))
	for _, b := range r.Bindings {
		fmt.Fprintf(w, "  %-12s %s\n", b.Name, b.Shape)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Circuit: OPENQASM %s, %d qubit(s)\n", r.QASMVersion, r.NumQubits)
	for _, name := range qasm.SortedGateNames(r.GateCounts) {
		fmt.Fprintf(w, "  %-12s %d\n", name, r.GateCounts[name])
	}
	fmt.Fprintf(w, "Measured: %s\n", joinInts(r.Measured))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "%s warning: %s\n", failMark(), warning)
	}
}

// describeBinding renders a binding in a compact human form, for example
// "Q_U8 q[0,1,2,3,4,5,6,7]" or "Array[Q_Bool q[0], Bool true]".
func describeBinding(v ir.BindingValue) string {
	switch val := v.(type) {
	case ir.Bool:
		data, err := ir.MarshalCanonical(val.Data)
		if err != nil {
			return "Bool ?"
		}
		return "Bool " + string(data)
	case ir.QBool:
		return fmt.Sprintf("Q_Bool q[%d]", val.Qubit)
	case ir.QUnsigned:
		return fmt.Sprintf("%s q[%s]", val.Tag(), joinInts(qubitInts(val.Qubits)))
	case ir.Array:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = describeBinding(item)
		}
		return "Array[" + strings.Join(items, ", ") + "]"
	case ir.Measured:
		return "Measured " + describeBinding(val.Inner)
	default:
		return "?"
	}
}

func qubitInts(qs []ir.Qubit) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = int(q)
	}
	return out
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
