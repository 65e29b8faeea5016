package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gocavy/internal/ir"
)

func TestBits(t *testing.T) {
	assert.Equal(t, ir.MeasurementMap{0: true, 1: false, 2: true}, Bits("101"))
	assert.Empty(t, Bits(""))
	assert.Panics(t, func() { Bits("12") })
}

func TestObjectDeclaresReferencedQubits(t *testing.T) {
	obj := Object(ir.Bindings{"n": ir.QU8(0, 3)})
	require.NoError(t, obj.Validate())

	s, err := obj.Inspect()
	require.NoError(t, err)
	assert.Equal(t, 4, s.NumQubits())
	assert.Equal(t, []ir.Qubit{0, 1, 2, 3}, s.Measured())
}

func TestObjectWithoutQubits(t *testing.T) {
	obj := Object(ir.Bindings{"x": ir.Bool{Data: ir.IRBool(true)}})
	require.NoError(t, obj.Validate())
}

func TestBellObject(t *testing.T) {
	obj := BellObject()
	require.NoError(t, obj.Validate())
	assert.Equal(t, []string{"a", "b"}, obj.Names())
}
