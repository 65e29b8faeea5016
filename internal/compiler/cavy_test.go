package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gocavy/internal/capability"
	"github.com/roach88/gocavy/internal/config"
	"github.com/roach88/gocavy/internal/ir"
)

// writeScript creates an executable shell script standing in for cavy.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-cavy")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// okScript records its arguments next to itself and writes a fixed object.
const okScript = `
echo "$@" > "$(dirname "$0")/args"
src=""
obj=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) obj="$2"; shift 2 ;;
    -*) shift ;;
    *) [ -z "$src" ] && src="$1"; shift ;;
  esac
done
cp "$src" "$(dirname "$0")/seen-src"
printf '//{"x":{"Bool":true}}\nOPENQASM 2.0;\n' > "$obj"
`

func TestCompileSuccess(t *testing.T) {
	script := writeScript(t, okScript)
	scratch := t.TempDir()
	c := New(script, WithTempDir(scratch))

	obj, err := c.Compile(context.Background(), "let x = true;", Options{Opt: 2})
	require.NoError(t, err)

	assert.Equal(t, ir.Bindings{"x": ir.Bool{Data: ir.IRBool(true)}}, obj.Bindings())
	assert.Equal(t, "OPENQASM 2.0;\n", obj.Body())

	src, err := os.ReadFile(filepath.Join(filepath.Dir(script), "seen-src"))
	require.NoError(t, err)
	assert.Equal(t, "let x = true;", string(src))

	args, err := os.ReadFile(filepath.Join(filepath.Dir(script), "args"))
	require.NoError(t, err)
	fields := strings.Fields(string(args))
	require.Len(t, fields, 5)
	assert.Equal(t, "main.cavy", filepath.Base(fields[0]))
	assert.Equal(t, []string{"-o"}, fields[1:2])
	assert.Equal(t, "main.qasm", filepath.Base(fields[2]))
	assert.Equal(t, []string{"-O", "2"}, fields[3:])

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}

func TestCompileFailure(t *testing.T) {
	script := writeScript(t, "printf '\\n  error: expected `;`\\n  --> main.cavy:1:13\\n\\n' >&2\nexit 3\n")
	scratch := t.TempDir()
	c := New(script, WithTempDir(scratch))

	obj, err := c.Compile(context.Background(), "let x = true", Options{Opt: 0})
	assert.Nil(t, obj)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 3, f.ExitCode)
	assert.Equal(t, "error: expected `;`\n  --> main.cavy:1:13", f.Diagnostic)
	assert.Equal(t, f.Diagnostic, err.Error())
	assert.True(t, IsFailure(err))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileFailureWithoutStderr(t *testing.T) {
	script := writeScript(t, "exit 1\n")
	_, err := New(script).Compile(context.Background(), "", Options{})
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "compilation failed (exit 1)", f.Error())
}

func TestCompileRejectsOpt(t *testing.T) {
	script := writeScript(t, okScript)
	c := New(script)

	for _, opt := range []int{-1, 4, 10} {
		_, err := c.Compile(context.Background(), "", Options{Opt: opt})
		assert.ErrorIs(t, err, ErrInvalidOpt)
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(script), "args"))
	assert.ErrorIs(t, err, os.ErrNotExist, "compiler must not run")
}

func TestCompileMalformedOutput(t *testing.T) {
	script := writeScript(t, "printf 'OPENQASM 2.0;\\n' > \"$3\"\n")
	_, err := New(script).Compile(context.Background(), "", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler output")
	assert.Contains(t, err.Error(), "malformed object file")
}

func TestCompileArchFlags(t *testing.T) {
	script := writeScript(t, okScript)
	qb := 16
	opts := OptionsFromConfig(&config.Config{
		Opt:      1,
		Debug:    true,
		QbCount:  &qb,
		QramSize: 8,
		MeasMode: config.MeasDemolition,
		Feedback: true,
	})

	_, err := New(script+" --color=never").Compile(context.Background(), "", opts)
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(script), "args"))
	require.NoError(t, err)
	fields := strings.Fields(string(args))
	assert.Equal(t, "--color=never", fields[0])
	assert.Equal(t, []string{
		"-O", "1", "--debug", "--qb-count", "16", "--qram-size", "8",
		"--meas-mode", "demolition", "--feedback",
	}, fields[4:])
}

func TestCompileDefaultArchOmitsFlags(t *testing.T) {
	args := OptionsFromConfig(config.Default()).args("out.qasm")
	assert.Equal(t, []string{"-o", "out.qasm", "-O", "3"}, args)
}

func TestCompileMissingCapability(t *testing.T) {
	reg := capability.Default(capability.WithLookPath(func(string) (string, error) {
		return "", os.ErrNotExist
	}))
	c := New("cavy", WithRegistry(reg))

	_, err := c.Compile(context.Background(), "", Options{Opt: 3})
	assert.True(t, capability.IsUnavailable(err))
}

func TestCompileRegistersCommand(t *testing.T) {
	script := writeScript(t, okScript)
	reg := capability.Default()
	New(script, WithRegistry(reg))

	spec, ok := reg.Lookup(capability.Compiler)
	require.True(t, ok)
	assert.Equal(t, script, spec.Command)
	assert.Equal(t, "The Cavy compiler", spec.Desc)
}

func TestCompileContextCancelled(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(script).Compile(ctx, "", Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
