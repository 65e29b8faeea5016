package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// Object is a stored object file.
type Object struct {
	ID       string
	Bindings ir.Bindings
	Body     string
	Seq      int64
}

// WriteObject inserts an object. Objects are content-addressed, so writing
// the same ID twice keeps the first row and reports inserted=false.
func (s *Store) WriteObject(ctx context.Context, obj Object) (inserted bool, err error) {
	bindingsJSON, err := marshalBindings(obj.Bindings)
	if err != nil {
		return false, fmt.Errorf("write object: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (id, bindings, body, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		obj.ID,
		bindingsJSON,
		obj.Body,
		obj.Seq,
	)
	if err != nil {
		return false, fmt.Errorf("write object: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write object: rows affected: %w", err)
	}
	return n > 0, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRun inserts a run record. Duplicate IDs are silently ignored.
//
// Note: The object referenced by ObjectID must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	return insertRun(ctx, s.db, run)
}

// WriteShot inserts one shot. Writing the same (run, seq) twice is a no-op.
func (s *Store) WriteShot(ctx context.Context, shot ir.Shot) error {
	return s.WriteShots(ctx, []ir.Shot{shot})
}

// WriteShots inserts shots in one transaction: either all are stored or
// none are.
func (s *Store) WriteShots(ctx context.Context, shots []ir.Shot) error {
	return s.inTx(ctx, "write shots", func(tx *sql.Tx) error {
		return insertShots(ctx, tx, shots)
	})
}

// WriteRunWithShots stores a run together with its shots in one
// transaction. If any shot fails, the run row is not stored either.
func (s *Store) WriteRunWithShots(ctx context.Context, run ir.Run, shots []ir.Shot) error {
	return s.inTx(ctx, "write run "+run.ID, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		return insertShots(ctx, tx, shots)
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func insertRun(ctx context.Context, db execer, run ir.Run) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, object_id, shots, seq, strict_width, tool_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ObjectID,
		run.ShotCount,
		run.Seq,
		run.StrictWidth,
		run.ToolVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func insertShots(ctx context.Context, tx *sql.Tx, shots []ir.Shot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shots (run_id, seq, measurements, result, result_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write shots: prepare: %w", err)
	}
	defer stmt.Close()

	for _, shot := range shots {
		measJSON, err := marshalMeasurements(shot.Measurements)
		if err != nil {
			return fmt.Errorf("write shot %d: %w", shot.Seq, err)
		}
		resultJSON, err := marshalResult(shot.Result)
		if err != nil {
			return fmt.Errorf("write shot %d: %w", shot.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx, shot.RunID, shot.Seq, measJSON, resultJSON, shot.ResultHash); err != nil {
			return fmt.Errorf("write shot %d: %w", shot.Seq, err)
		}
	}
	return nil
}
