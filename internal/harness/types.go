package harness

import (
	"strconv"

	"github.com/roach88/gocavy/internal/errcode"
	"github.com/roach88/gocavy/internal/ir"
)

// Trace event types.
const (
	EventParse = "parse"
	EventShot  = "shot"
)

// TraceEvent records one step of a scenario run: parsing the object file
// or decoding one shot.
type TraceEvent struct {
	Type         string            `json:"type"`
	Seq          int64             `json:"seq"`
	Shot         int               `json:"shot"`
	Bindings     []string          `json:"bindings,omitempty"`
	Measurements ir.MeasurementMap `json:"measurements,omitempty"`
	Result       ir.ResultSet      `json:"result,omitempty"`
	Error        *errcode.Detail   `json:"error,omitempty"`
}

// canonical converts the event to the plain shapes ir.MarshalCanonical
// accepts. Shot is only meaningful for shot events.
func (e TraceEvent) canonical() map[string]any {
	out := map[string]any{
		"type": e.Type,
		"seq":  e.Seq,
	}
	if e.Type == EventShot {
		out["shot"] = e.Shot
		m := make(map[string]any, len(e.Measurements))
		for q, bit := range e.Measurements {
			m[strconv.Itoa(int(q))] = bit
		}
		out["measurements"] = m
	}
	if e.Type == EventParse && e.Error == nil {
		names := make([]any, len(e.Bindings))
		for i, n := range e.Bindings {
			names[i] = n
		}
		out["bindings"] = names
	}
	if e.Result != nil {
		out["result"] = e.Result
	}
	if e.Error != nil {
		out["error"] = e.Error.Fields()
	}
	return out
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Trace holds the parse event followed by one event per decoded shot.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddParseTrace records the outcome of parsing the object file.
func (r *Result) AddParseTrace(bindings []string, detail *errcode.Detail, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:     EventParse,
		Seq:      seq,
		Bindings: bindings,
		Error:    detail,
	})
}

// AddShotTrace records the outcome of decoding one shot.
func (r *Result) AddShotTrace(shot int, m ir.MeasurementMap, result ir.ResultSet, detail *errcode.Detail, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:         EventShot,
		Seq:          seq,
		Shot:         shot,
		Measurements: m,
		Result:       result,
		Error:        detail,
	})
}
