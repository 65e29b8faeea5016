package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// ReadObject returns the object with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadObject(ctx context.Context, id string) (Object, error) {
	var (
		obj          Object
		bindingsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bindings, body, seq FROM objects WHERE id = ?
	`, id).Scan(&obj.ID, &bindingsJSON, &obj.Body, &obj.Seq)
	if err == sql.ErrNoRows {
		return Object{}, err
	}
	if err != nil {
		return Object{}, fmt.Errorf("read object: %w", err)
	}

	obj.Bindings, err = unmarshalBindings(bindingsJSON)
	if err != nil {
		return Object{}, fmt.Errorf("read object %s: %w", id, err)
	}
	return obj, nil
}

// ReadRun returns the run with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, object_id, shots, seq, strict_width, tool_version
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return ir.Run{}, err
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object_id, shots, seq, strict_width, tool_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadShots returns the shots of a run ordered by shot index.
// Returns an empty slice (not nil) if the run has no shots.
func (s *Store) ReadShots(ctx context.Context, runID string) ([]ir.Shot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, measurements, result, result_hash
		FROM shots
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query shots: %w", err)
	}
	defer rows.Close()

	shots := []ir.Shot{}
	for rows.Next() {
		var (
			shot       ir.Shot
			measJSON   string
			resultJSON string
		)
		if err := rows.Scan(&shot.RunID, &shot.Seq, &measJSON, &resultJSON, &shot.ResultHash); err != nil {
			return nil, fmt.Errorf("scan shot: %w", err)
		}
		if shot.Measurements, err = unmarshalMeasurements(measJSON); err != nil {
			return nil, fmt.Errorf("shot %d: %w", shot.Seq, err)
		}
		if shot.Result, err = unmarshalResult(resultJSON); err != nil {
			return nil, fmt.Errorf("shot %d: %w", shot.Seq, err)
		}
		shots = append(shots, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shots: %w", err)
	}
	return shots, nil
}

// HistogramEntry counts the shots of a run that decoded to one result.
type HistogramEntry struct {
	ResultHash string
	Result     ir.ResultSet
	Count      int
}

// Histogram groups a run's shots by result hash, most frequent first and
// ties broken by hash.
func (s *Store) Histogram(ctx context.Context, runID string) ([]HistogramEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT result_hash, MIN(result), COUNT(*) AS n
		FROM shots
		WHERE run_id = ?
		GROUP BY result_hash
		ORDER BY n DESC, result_hash COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query histogram: %w", err)
	}
	defer rows.Close()

	entries := []HistogramEntry{}
	for rows.Next() {
		var (
			e          HistogramEntry
			resultJSON string
		)
		if err := rows.Scan(&e.ResultHash, &resultJSON, &e.Count); err != nil {
			return nil, fmt.Errorf("scan histogram: %w", err)
		}
		if e.Result, err = unmarshalResult(resultJSON); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate histogram: %w", err)
	}
	return entries, nil
}

// LastSeq returns the highest seq stored for objects or runs, or 0 for an
// empty store. A session resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM objects
			UNION ALL
			SELECT seq FROM runs
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (ir.Run, error) {
	var run ir.Run
	err := row.Scan(&run.ID, &run.ObjectID, &run.ShotCount, &run.Seq, &run.StrictWidth, &run.ToolVersion)
	return run, err
}
