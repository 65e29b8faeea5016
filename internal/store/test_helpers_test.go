package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/gocavy/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pragma reads a single pragma value as text.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s failed: %v", name, err)
	}
	return value
}

// createTestObject builds an object with one Q_Bool binding.
func createTestObject(id string, seq int64) Object {
	return Object{
		ID:       id,
		Bindings: ir.Bindings{"b": ir.QBool{Qubit: 0}},
		Body:     "OPENQASM 2.0;\nqreg q[1];\n",
		Seq:      seq,
	}
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, objectID string, shots int, seq int64) ir.Run {
	return ir.Run{
		ID:          id,
		ObjectID:    objectID,
		ShotCount:   shots,
		Seq:         seq,
		ToolVersion: ir.ToolVersion,
	}
}

// createTestShot decodes b from one qubit.
func createTestShot(runID string, seq int, bit bool) ir.Shot {
	result := ir.ResultSet{"b": ir.IRBool(bit)}
	return ir.Shot{
		RunID:        runID,
		Seq:          seq,
		Measurements: ir.MeasurementMap{0: bit},
		Result:       result,
		ResultHash:   ir.MustResultHash(result),
	}
}

// seedRun writes an object, a run and its shots.
func seedRun(t *testing.T, s *Store, runID string, bits ...bool) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.WriteObject(ctx, createTestObject("obj-1", 1)); err != nil {
		t.Fatalf("WriteObject() failed: %v", err)
	}
	if err := s.WriteRun(ctx, createTestRun(runID, "obj-1", len(bits), 2)); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	shots := make([]ir.Shot, len(bits))
	for i, bit := range bits {
		shots[i] = createTestShot(runID, i, bit)
	}
	if err := s.WriteShots(ctx, shots); err != nil {
		t.Fatalf("WriteShots() failed: %v", err)
	}
}
