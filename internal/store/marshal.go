package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// marshalBindings converts bindings to canonical JSON TEXT for storage.
func marshalBindings(b ir.Bindings) (string, error) {
	if b == nil {
		b = ir.Bindings{}
	}
	data, err := ir.MarshalCanonical(b)
	if err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	return string(data), nil
}

// unmarshalBindings parses stored bindings.
func unmarshalBindings(data string) (ir.Bindings, error) {
	b, err := ir.UnmarshalBindings([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal bindings: %w", err)
	}
	return b, nil
}

// marshalResult converts a result set to canonical JSON TEXT for storage.
func marshalResult(result ir.ResultSet) (string, error) {
	if result == nil {
		result = ir.ResultSet{}
	}
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalResult parses canonical JSON TEXT to a result set.
// Uses ir.IRObject.UnmarshalJSON which keeps large integers exact via
// json.Number.
func unmarshalResult(data string) (ir.ResultSet, error) {
	if data == "" || data == "{}" {
		return ir.ResultSet{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return obj, nil
}

// marshalMeasurements encodes a measurement map with ascending qubit keys.
func marshalMeasurements(m ir.MeasurementMap) (string, error) {
	if m == nil {
		m = ir.MeasurementMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal measurements: %w", err)
	}
	return string(data), nil
}

func unmarshalMeasurements(data string) (ir.MeasurementMap, error) {
	var m ir.MeasurementMap
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal measurements: %w", err)
	}
	return m, nil
}
