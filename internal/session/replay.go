package session

import (
	"context"
	"fmt"

	"github.com/roach88/gocavy/internal/decode"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
)

// Mismatch is a stored shot that no longer decodes to its recorded result.
type Mismatch struct {
	Seq        int
	StoredHash string
	ReplayHash string
	Err        error
}

// ReplayReport is the outcome of re-decoding a stored run.
type ReplayReport struct {
	Run          ir.Run
	ObjectIDOK   bool
	Replayed     int
	MissingShots []int
	Mismatches   []Mismatch
}

// OK reports whether the run replayed identically and completely.
func (r *ReplayReport) OK() bool {
	return r.ObjectIDOK && len(r.MissingShots) == 0 && len(r.Mismatches) == 0
}

// Replay re-decodes every stored shot of a run from its stored
// measurements and compares result hashes. The sampler is not invoked.
func (s *Session) Replay(ctx context.Context, runID string) (*ReplayReport, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	state, err := s.store.GetRunState(ctx, runID)
	if err != nil {
		return nil, err
	}

	obj := objfile.New(state.Object.Bindings, state.Object.Body)
	objectID, err := obj.ID()
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	report := &ReplayReport{
		Run:          state.Run,
		ObjectIDOK:   objectID == state.Run.ObjectID,
		MissingShots: state.MissingShots,
	}

	// Decode with the options the run was recorded under.
	d := decode.New(decode.Options{StrictWidth: state.Run.StrictWidth})
	bindings := obj.Bindings()
	for _, shot := range state.Shots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Replayed++

		result, err := d.Assemble(bindings, shot.Measurements)
		if err != nil {
			report.Mismatches = append(report.Mismatches, Mismatch{Seq: shot.Seq, StoredHash: shot.ResultHash, Err: err})
			continue
		}
		hash, err := ir.ResultHash(result)
		if err != nil {
			return nil, fmt.Errorf("replay shot %d: %w", shot.Seq, err)
		}
		if hash != shot.ResultHash {
			report.Mismatches = append(report.Mismatches, Mismatch{Seq: shot.Seq, StoredHash: shot.ResultHash, ReplayHash: hash})
		}
	}

	s.logger.Info().
		Str("run", runID).
		Int("replayed", report.Replayed).
		Int("mismatches", len(report.Mismatches)).
		Msg("replay complete")
	return report, nil
}
