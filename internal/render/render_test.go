package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/qasm"
	"github.com/roach88/gocavy/internal/testutil"
)

func inspect(t *testing.T, body string) *qasm.Summary {
	t.Helper()
	s, err := qasm.Inspect(body)
	require.NoError(t, err)
	return s
}

func TestLatexBell(t *testing.T) {
	got := Latex(inspect(t, testutil.BellBody))

	want := `\Qcircuit @R=1em @C=0.75em {
 \\
 &\lstick{\text{q\_0}}& \qw&\gate{\text{H}} \qw&\ctrl{1} \qw&\meter \qw&\qw\\
 &\lstick{\text{q\_1}}& \qw&\qw&\targ \qw&\meter \qw&\qw\\
 \\
}`
	assert.Equal(t, want, got)
}

func TestLatexSchedulesAroundVerticalWires(t *testing.T) {
	body := `OPENQASM 2.0;
qreg q[3];
cx q[0],q[2];
x q[1];
`
	got := Latex(inspect(t, body))

	// x on q[1] cannot share the column crossed by the cx wire.
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, ` &\lstick{\text{q\_0}}& \qw&\ctrl{2} \qw&\qw&\qw\\`, lines[2])
	assert.Equal(t, ` &\lstick{\text{q\_1}}& \qw&\qw&\gate{\text{X}} \qw&\qw\\`, lines[3])
	assert.Equal(t, ` &\lstick{\text{q\_2}}& \qw&\targ \qw&\qw&\qw\\`, lines[4])
}

func TestLatexLabels(t *testing.T) {
	body := `OPENQASM 2.0;
qreg q[2];
creg c[1];
tdg q[0];
rz(pi/2) q[1];
if (c==1) x q[0];
`
	got := Latex(inspect(t, body))

	assert.Contains(t, got, `\gate{\text{T}^\dagger}`)
	assert.Contains(t, got, `\gate{\text{RZ}(\pi/2)}`)
	assert.Contains(t, got, `\gate{\text{X}_{c=1}}`)
}

func TestLatexBroadcastMeasure(t *testing.T) {
	body := `OPENQASM 2.0;
qreg q[2];
creg c[2];
measure q -> c;
`
	got := Latex(inspect(t, body))
	assert.Equal(t, 2, strings.Count(got, `\meter`))
}

func TestLatexEmpty(t *testing.T) {
	got := Latex(inspect(t, "OPENQASM 2.0;\n"))
	assert.Equal(t, "\\Qcircuit @R=1em @C=0.75em {\n \\\\\n \\\\\n}", got)
}

func TestFixupLatex(t *testing.T) {
	got := FixupLatex(Latex(inspect(t, testutil.BellBody)))

	assert.NotContains(t, got, `\lstick`)
	assert.Contains(t, got, ` &\gate{\text{H}} \qw&\ctrl{1} \qw&\meter \qw&\qw\\`)
	assert.Contains(t, got, ` &\qw&\targ \qw&\meter \qw&\qw\\`)
}

func TestFixupLatexLeavesOtherLabels(t *testing.T) {
	in := `&\lstick{\text{anc}}& \qw&\qw\\`
	assert.Equal(t, in, FixupLatex(in))
}

func TestDocument(t *testing.T) {
	doc := Document("CIRCUIT")
	assert.True(t, strings.HasPrefix(doc, "\\documentclass{standalone}\n"))
	assert.Contains(t, doc, "\\usepackage{qcircuit}")
	assert.Contains(t, doc, "\\begin{document}\nCIRCUIT\n\\end{document}")
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-pdflatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func registryFor(path string) *capability.Registry {
	return capability.Default(capability.WithLookPath(func(file string) (string, error) {
		if file == capability.PDFLatex && path != "" {
			return path, nil
		}
		return "", errors.New("not found")
	}))
}

func TestPDF(t *testing.T) {
	script := writeScript(t, `
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -output-directory) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf '%%PDF-1.4 fake' > "$out/diagram.pdf"
`)
	dest := filepath.Join(t.TempDir(), "bell.pdf")

	err := PDF(context.Background(), registryFor(script), "CIRCUIT", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestPDFFailureIncludesLog(t *testing.T) {
	script := writeScript(t, `
echo "This is pdfTeX"
echo "! LaTeX Error: File qcircuit.sty not found."
exit 1
`)
	dest := filepath.Join(t.TempDir(), "bell.pdf")

	err := PDF(context.Background(), registryFor(script), "CIRCUIT", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qcircuit.sty not found")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPDFRequiresCapability(t *testing.T) {
	err := PDF(context.Background(), registryFor(""), "CIRCUIT", filepath.Join(t.TempDir(), "x.pdf"))
	require.Error(t, err)
	assert.True(t, capability.IsUnavailable(err))
}
