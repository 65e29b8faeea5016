package store

import (
	"context"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// RunState is everything stored about one run, with a completeness check.
type RunState struct {
	Run    ir.Run
	Object Object
	Shots  []ir.Shot
	// MissingShots lists shot indices in [0, ShotCount) with no row.
	MissingShots []int
	IsComplete   bool
}

// GetRunState loads a run, its object and its shots for replay.
// Returns sql.ErrNoRows (wrapped) when the run does not exist.
func (s *Store) GetRunState(ctx context.Context, runID string) (RunState, error) {
	var state RunState

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.Run = run

	obj, err := s.ReadObject(ctx, run.ObjectID)
	if err != nil {
		return state, fmt.Errorf("get run state: object %s: %w", run.ObjectID, err)
	}
	state.Object = obj

	shots, err := s.ReadShots(ctx, runID)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.Shots = shots

	seen := make(map[int]bool, len(shots))
	for _, shot := range shots {
		seen[shot.Seq] = true
	}
	for i := 0; i < run.ShotCount; i++ {
		if !seen[i] {
			state.MissingShots = append(state.MissingShots, i)
		}
	}
	state.IsComplete = len(state.MissingShots) == 0

	return state, nil
}
