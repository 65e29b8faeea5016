package harness

import (
	"bytes"
	"fmt"

	"github.com/roach88/gocavy/internal/decode"
	"github.com/roach88/gocavy/internal/errcode"
	"github.com/roach88/gocavy/internal/ir"
	"github.com/roach88/gocavy/internal/objfile"
	"github.com/roach88/gocavy/internal/testutil"
)

// Harness executes one scenario with a deterministic clock so traces are
// byte-stable across runs.
type Harness struct {
	decoder *decode.Decoder
	clock   *testutil.DeterministicClock
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Parse the object file and record a parse event
//  2. If parsing failed, match the failure against the single expectation
//  3. Otherwise decode each shot, record a shot event and match it
//
// The returned error covers only failures to execute (an unreadable
// object file); expectation mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	text, err := scenario.objectText()
	if err != nil {
		return nil, err
	}

	shots := make([]ir.MeasurementMap, len(scenario.Shots))
	for i, raw := range scenario.Shots {
		m, err := ir.MeasurementMapFromLabels(raw)
		if err != nil {
			return nil, fmt.Errorf("shot %d: %w", i, err)
		}
		shots[i] = m
	}

	h := &Harness{
		decoder: decode.New(decode.Options{StrictWidth: scenario.Config.StrictWidth}),
		clock:   testutil.NewDeterministicClock(),
	}

	result := NewResult()
	obj, err := objfile.Parse(text)
	if err != nil {
		detail := errcode.Describe(err)
		result.AddParseTrace(nil, detail, h.clock.Next())
		h.expectParseFailure(scenario.Expect, err, detail, result)
		return result, nil
	}

	bindings := obj.Bindings()
	result.AddParseTrace(bindings.Names(), nil, h.clock.Next())

	if len(scenario.Expect) != len(shots) {
		result.AddError(fmt.Sprintf("expect has %d entries but %d shots are given", len(scenario.Expect), len(shots)))
	}

	for i, m := range shots {
		res, err := h.decodeShot(bindings, m)
		detail := errcode.Describe(err)
		result.AddShotTrace(i, m, res, detail, h.clock.Next())
		if i < len(scenario.Expect) {
			matchExpectation(fmt.Sprintf("shot %d", i), scenario.Expect[i], res, err, detail, result)
		}
	}

	return result, nil
}

// decodeShot mirrors a session run: coverage first, then assembly.
func (h *Harness) decodeShot(b ir.Bindings, m ir.MeasurementMap) (ir.ResultSet, error) {
	if err := decode.CheckCoverage(b, m); err != nil {
		return nil, err
	}
	return h.decoder.Assemble(b, m)
}

func (h *Harness) expectParseFailure(expect []Expectation, err error, detail *errcode.Detail, result *Result) {
	if len(expect) != 1 || expect[0].Error == nil {
		result.AddError(fmt.Sprintf("parse: unexpected error %s: %v", detail.Code, err))
		return
	}
	matchError("parse", *expect[0].Error, err, detail, result)
}

func matchExpectation(step string, want Expectation, got ir.ResultSet, err error, detail *errcode.Detail, result *Result) {
	if want.Error != nil {
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got result", step, want.Error.Code))
			return
		}
		matchError(step, *want.Error, err, detail, result)
		return
	}

	if err != nil {
		result.AddError(fmt.Sprintf("%s: unexpected error %s: %v", step, detail.Code, err))
		return
	}
	if err := matchResult(want.Result, got); err != nil {
		result.AddError(fmt.Sprintf("%s: %v", step, err))
	}
}

func matchError(step string, want ErrorExpectation, err error, detail *errcode.Detail, result *Result) {
	if detail.Code != want.Code {
		result.AddError(fmt.Sprintf("%s: expected error %s, got %s: %v", step, want.Code, detail.Code, err))
		return
	}
	if want.Qubit != nil && (detail.Qubit == nil || *detail.Qubit != *want.Qubit) {
		result.AddError(fmt.Sprintf("%s: expected qubit %d in error: %v", step, *want.Qubit, err))
	}
	if want.Binding != "" && detail.Binding != want.Binding {
		result.AddError(fmt.Sprintf("%s: expected binding %q, got %q", step, want.Binding, detail.Binding))
	}
}

// matchResult compares canonical encodings, so key order and integer
// representation do not matter.
func matchResult(want map[string]any, got ir.ResultSet) error {
	wantValue, err := ir.ClassicalFromGo(want)
	if err != nil {
		return fmt.Errorf("invalid expected result: %w", err)
	}
	wantJSON, err := ir.MarshalCanonical(wantValue)
	if err != nil {
		return fmt.Errorf("invalid expected result: %w", err)
	}
	gotJSON, err := ir.MarshalCanonical(got)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if !bytes.Equal(wantJSON, gotJSON) {
		return fmt.Errorf("result mismatch: expected %s, got %s", wantJSON, gotJSON)
	}
	return nil
}
