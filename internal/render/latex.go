// Package render draws the circuit of an object file body as a qcircuit
// LaTeX diagram and, when pdflatex is installed, typesets it to PDF.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/gocavy/internal/qasm"
)

// lstickRegex matches the per-wire input labels emitted by Latex.
var lstickRegex = regexp.MustCompile(`&\\lstick{\\text{q\\_\d+}}& \\qw`)

// FixupLatex removes the "q_N" input labels on the left of every wire.
func FixupLatex(circuit string) string {
	return lstickRegex.ReplaceAllString(circuit, "")
}

// Latex lays out the operations of s on a grid and returns the qcircuit
// body. Each operation goes into the first column free on every wire it
// spans, so multi-qubit gates never cross another gate's vertical line.
func Latex(s *qasm.Summary) string {
	n := s.NumQubits()
	depth := make([]int, n)
	var grid [][]string // grid[col][qubit]

	for _, op := range s.Ops {
		if op.Name == "barrier" || len(op.Qubits) == 0 {
			continue
		}
		lo, hi := span(op)
		col := 0
		for q := lo; q <= hi; q++ {
			col = max(col, depth[q])
		}
		for len(grid) <= col {
			grid = append(grid, make([]string, n))
		}
		for q, cell := range cells(op) {
			grid[col][q] = cell
		}
		for q := lo; q <= hi; q++ {
			depth[q] = col + 1
		}
	}

	var sb strings.Builder
	sb.WriteString("\\Qcircuit @R=1em @C=0.75em {\n \\\\\n")
	for q := 0; q < n; q++ {
		fmt.Fprintf(&sb, " &\\lstick{\\text{q\\_%d}}& \\qw", q)
		for _, column := range grid {
			if cell := column[q]; cell != "" {
				sb.WriteString("&" + cell + " \\qw")
			} else {
				sb.WriteString("&\\qw")
			}
		}
		sb.WriteString("&\\qw\\\\\n")
	}
	sb.WriteString(" \\\\\n}")
	return sb.String()
}

// Document wraps a circuit body in a standalone LaTeX document.
func Document(circuit string) string {
	var sb strings.Builder
	sb.WriteString("\\documentclass{standalone}\n")
	sb.WriteString("\\usepackage{qcircuit}\n")
	sb.WriteString("\\usepackage{physics}\n")
	sb.WriteString("\\usepackage{amsmath}\n")
	sb.WriteString("\\begin{document}\n")
	sb.WriteString(circuit)
	sb.WriteString("\n\\end{document}\n")
	return sb.String()
}

func span(op qasm.Op) (lo, hi int) {
	lo, hi = int(op.Qubits[0]), int(op.Qubits[0])
	for _, q := range op.Qubits[1:] {
		lo = min(lo, int(q))
		hi = max(hi, int(q))
	}
	return lo, hi
}

// cells returns the qcircuit command drawn on each qubit of op.
func cells(op qasm.Op) map[int]string {
	qs := make([]int, len(op.Qubits))
	for i, q := range op.Qubits {
		qs[i] = int(q)
	}
	out := make(map[int]string, len(qs))

	switch {
	case op.Name == "measure":
		for _, q := range qs {
			out[q] = "\\meter"
		}
	case op.Name == "reset":
		for _, q := range qs {
			out[q] = "\\push{\\ket{0}}"
		}
	case op.Name == "cx" && len(qs) == 2:
		out[qs[0]] = fmt.Sprintf("\\ctrl{%d}", qs[1]-qs[0])
		out[qs[1]] = "\\targ"
	case op.Name == "ccx" && len(qs) == 3:
		out[qs[0]] = fmt.Sprintf("\\ctrl{%d}", qs[2]-qs[0])
		out[qs[1]] = fmt.Sprintf("\\ctrl{%d}", qs[2]-qs[1])
		out[qs[2]] = "\\targ"
	case op.Name == "cz" && len(qs) == 2:
		out[qs[0]] = fmt.Sprintf("\\ctrl{%d}", qs[1]-qs[0])
		out[qs[1]] = "\\control"
	case op.Name == "swap" && len(qs) == 2:
		out[qs[0]] = fmt.Sprintf("\\qswap \\qwx[%d]", qs[1]-qs[0])
		out[qs[1]] = "\\qswap"
	default:
		label := gateLabel(op)
		for i, q := range qs {
			if i == 0 && len(qs) > 1 {
				out[q] = fmt.Sprintf("\\gate{%s} \\qwx[%d]", label, qs[len(qs)-1]-q)
				continue
			}
			out[q] = fmt.Sprintf("\\gate{%s}", label)
		}
	}
	return out
}

func gateLabel(op qasm.Op) string {
	name := strings.ReplaceAll(strings.ToUpper(op.Name), "_", "\\_")
	label := "\\text{" + name + "}"
	if base, ok := strings.CutSuffix(name, "DG"); ok && base != "" {
		label = "\\text{" + base + "}^\\dagger"
	}
	if op.Params != "" {
		label += "(" + strings.ReplaceAll(op.Params, "pi", "\\pi") + ")"
	}
	if op.Condition != "" {
		label += "_{" + strings.ReplaceAll(op.Condition, "==", "=") + "}"
	}
	return label
}
