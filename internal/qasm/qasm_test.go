package qasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gocavy/internal/ir"
)

const bell = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

func TestInspectBell(t *testing.T) {
	s, err := Inspect(bell)
	require.NoError(t, err)

	assert.Equal(t, "2.0", s.Version)
	assert.Equal(t, []string{"qelib1.inc"}, s.Includes)
	assert.Equal(t, []Register{{Name: "q", Size: 2}}, s.QRegs)
	assert.Equal(t, []Register{{Name: "c", Size: 2}}, s.CRegs)
	assert.Equal(t, 2, s.NumQubits())
	assert.Equal(t, map[string]int{"h": 1, "cx": 1, "measure": 2}, s.GateCounts())
	assert.Equal(t, []ir.Qubit{0, 1}, s.Measured())

	require.Len(t, s.Ops, 4)
	assert.Equal(t, []ir.Qubit{0, 1}, s.Ops[1].Qubits)
	assert.Equal(t, 6, s.Ops[1].Line)
}

func TestInspectHeaderOnly(t *testing.T) {
	s, err := Inspect("OPENQASM 2.0;")
	require.NoError(t, err)
	assert.Equal(t, "2.0", s.Version)
	assert.Zero(t, s.NumQubits())
	assert.Empty(t, s.Measured())
}

func TestInspectRegistersAreFlattened(t *testing.T) {
	body := `qreg a[2];
qreg b[3];
creg c[1];
x b[2];
measure b[2] -> c[0];`

	s, err := Inspect(body)
	require.NoError(t, err)
	assert.Equal(t, 5, s.NumQubits())
	assert.Equal(t, Register{Name: "b", Size: 3, Offset: 2}, s.QRegs[1])
	assert.Equal(t, []ir.Qubit{4}, s.Measured())
	assert.True(t, s.Declares(4))
	assert.False(t, s.Declares(5))
}

func TestInspectBroadcast(t *testing.T) {
	body := `qreg q[3];
creg c[3];
h q;
measure q -> c;`

	s, err := Inspect(body)
	require.NoError(t, err)
	assert.Equal(t, 3, s.GateCounts()["h"])
	assert.Equal(t, 1, s.GateCounts()["measure"])
	assert.Equal(t, []ir.Qubit{0, 1, 2}, s.Measured())
}

func TestInspectSkipsCommentsAndGateDefinitions(t *testing.T) {
	body := `OPENQASM 2.0; // header
qreg q[1];
gate mygate a
{
  h a;
}
// h q[0];
t q[0]; tdg q[0];
u3(0.1, 0.2, 0.3) q[0];`

	s, err := Inspect(body)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t": 1, "tdg": 1, "u3": 1}, s.GateCounts())
	assert.Equal(t, "0.1, 0.2, 0.3", s.Ops[2].Params)
}

func TestInspectConditional(t *testing.T) {
	body := `qreg q[1];
creg c[1];
measure q[0] -> c[0];
if (c == 1) x q[0];`

	s, err := Inspect(body)
	require.NoError(t, err)
	require.Len(t, s.Ops, 2)
	assert.Equal(t, "x", s.Ops[1].Name)
	assert.Equal(t, "c==1", s.Ops[1].Condition)
}

func TestInspectErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		line int
	}{
		{"unknown register", "qreg q[1];\nh r[0];", 2},
		{"index out of range", "qreg q[2];\nx q[2];", 2},
		{"duplicate register", "qreg q[1];\ncreg q[1];", 2},
		{"zero size", "qreg q[0];", 1},
		{"measure size mismatch", "qreg q[2];\ncreg c[1];\nmeasure q -> c;", 3},
		{"unknown condition register", "qreg q[1];\nif (c == 1) x q[0];", 2},
		{"garbage", "qreg q[1];\n!!;", 2},
		{"unterminated gate", "gate g a {\n h a;", 2},
		{"unbalanced brace", "}", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inspect(tt.body)
			var qe *Error
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.line, qe.Line)
		})
	}
}

func TestSortedGateNames(t *testing.T) {
	assert.Equal(t, []string{"cx", "h", "measure"},
		SortedGateNames(map[string]int{"measure": 2, "h": 1, "cx": 1}))
}
