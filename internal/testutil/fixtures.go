package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
)

// BellBody is a two-qubit Bell circuit measuring both qubits.
const BellBody = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

// Body returns a QASM body declaring n qubits, each measured once.
func Body(n int) string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\ninclude \"qelib1.inc\";\n")
	if n == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "qreg q[%d];\ncreg c[%d];\n", n, n)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", i, i)
	}
	return sb.String()
}

// Object builds an object file whose body declares and measures every
// qubit the bindings reference.
func Object(bindings ir.Bindings) *objfile.ObjectFile {
	n := 0
	for _, q := range bindings.Qubits() {
		if int(q)+1 > n {
			n = int(q) + 1
		}
	}
	return objfile.New(bindings, Body(n))
}

// BellObject binds a to qubit 0 and b to qubit 1 of BellBody.
func BellObject() *objfile.ObjectFile {
	return objfile.New(ir.Bindings{
		"a": ir.Measured{Inner: ir.QBool{Qubit: 0}},
		"b": ir.Measured{Inner: ir.QBool{Qubit: 1}},
	}, BellBody)
}

// Bits builds a measurement map from a string of '0'/'1', qubit 0 first.
// Other characters panic.
func Bits(s string) ir.MeasurementMap {
	m := make(ir.MeasurementMap, len(s))
	for i, c := range s {
		switch c {
		case '0':
			m[ir.Qubit(i)] = false
		case '1':
			m[ir.Qubit(i)] = true
		default:
			panic(fmt.Sprintf("testutil.Bits: invalid bit %q", c))
		}
	}
	return m
}
