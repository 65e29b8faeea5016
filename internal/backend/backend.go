// Package backend produces measurement maps for a QASM body.
//
// A Sampler executes (or pretends to execute) a circuit and returns one
// ir.MeasurementMap per shot. Samplers know nothing about bindings; the
// decode package turns their output into program values.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// Sampler runs a QASM body and returns one measurement map per shot.
type Sampler interface {
	Sample(ctx context.Context, body string, shots int) ([]ir.MeasurementMap, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context, body string, shots int) ([]ir.MeasurementMap, error)

// Sample calls f.
func (f SamplerFunc) Sample(ctx context.Context, body string, shots int) ([]ir.MeasurementMap, error) {
	return f(ctx, body, shots)
}

// SampleError reports a sampler that failed or produced unusable output.
// Shot is the zero-based shot index, or -1 when the failure is not tied to
// one shot.
type SampleError struct {
	Sampler  string
	Shot     int
	ExitCode int
	Reason   string
	Err      error
}

func (e *SampleError) Error() string {
	msg := fmt.Sprintf("sampler %s", e.Sampler)
	if e.Shot >= 0 {
		msg += fmt.Sprintf(": shot %d", e.Shot)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// IsSampleError reports whether err wraps a *SampleError.
func IsSampleError(err error) bool {
	var se *SampleError
	return errors.As(err, &se)
}

func checkShots(name string, shots int) error {
	if shots < 1 {
		return &SampleError{Sampler: name, Shot: -1, Reason: fmt.Sprintf("shots must be at least 1, got %d", shots)}
	}
	return nil
}
