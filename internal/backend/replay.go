package backend

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gocavy/internal/ir"
)

// Replay serves previously recorded measurement maps. The body is ignored.
type Replay struct {
	name  string
	shots []ir.MeasurementMap
}

// NewReplay creates a replay sampler over the given shots.
func NewReplay(shots ...ir.MeasurementMap) *Replay {
	return &Replay{name: "replay", shots: cloneMaps(shots)}
}

// replayFile is the on-disk form. JSON files parse too.
//
//	shots:
//	  - {0: true, 1: false}
//	  - {q_0: false, q_1: true}
type replayFile struct {
	Shots []map[any]bool `yaml:"shots"`
}

// LoadReplay reads shots from a YAML or JSON file.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	r, err := ParseReplay(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.name = path
	return r, nil
}

// ParseReplay decodes the replay file format.
func ParseReplay(data []byte) (*Replay, error) {
	var f replayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse replay: %w", err)
	}

	shots := make([]ir.MeasurementMap, len(f.Shots))
	for i, raw := range f.Shots {
		m, err := ir.MeasurementMapFromLabels(raw)
		if err != nil {
			return nil, fmt.Errorf("shot %d: %w", i, err)
		}
		shots[i] = m
	}
	return &Replay{name: "replay", shots: shots}, nil
}

// Len returns the number of recorded shots.
func (r *Replay) Len() int {
	return len(r.shots)
}

// Sample returns the first shots recorded maps.
func (r *Replay) Sample(ctx context.Context, _ string, shots int) ([]ir.MeasurementMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkShots(r.name, shots); err != nil {
		return nil, err
	}
	if shots > len(r.shots) {
		return nil, &SampleError{
			Sampler: r.name,
			Shot:    -1,
			Reason:  fmt.Sprintf("requested %d shots, only %d recorded", shots, len(r.shots)),
		}
	}
	return cloneMaps(r.shots[:shots]), nil
}

func cloneMaps(maps []ir.MeasurementMap) []ir.MeasurementMap {
	out := make([]ir.MeasurementMap, len(maps))
	for i, m := range maps {
		c := make(ir.MeasurementMap, len(m))
		for q, b := range m {
			c[q] = b
		}
		out[i] = c
	}
	return out
}
