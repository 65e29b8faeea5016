package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MeasurementMap is the outcome of one shot: qubit index to observed bit.
// Decoders treat it as read-only.
type MeasurementMap map[Qubit]bool

// Qubits returns the measured qubits in ascending order.
func (m MeasurementMap) Qubits() []Qubit {
	set := make(map[Qubit]struct{}, len(m))
	for q := range m {
		set[q] = struct{}{}
	}
	return SortedQubits(set)
}

// MarshalJSON encodes the map with qubit indices as decimal keys, in
// ascending numeric order.
func (m MeasurementMap) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, q := range m.Qubits() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%q:%t", strconv.Itoa(int(q)), m[q])
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// UnmarshalJSON decodes an object whose keys are qubit labels. Labels are
// either plain indices ("3") or sampler register names ending in an index
// ("q_3").
func (m *MeasurementMap) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MeasurementMap, len(raw))
	for label, bit := range raw {
		q, err := ParseQubitLabel(label)
		if err != nil {
			return err
		}
		if _, dup := out[q]; dup {
			return fmt.Errorf("qubit %d measured twice", q)
		}
		out[q] = bit
	}
	*m = out
	return nil
}

// ParseQubitLabel extracts the qubit index from a measurement key.
func ParseQubitLabel(label string) (Qubit, error) {
	digits := label
	if i := strings.LastIndexByte(label, '_'); i >= 0 {
		digits = label[i+1:]
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid qubit label %q", label)
	}
	return Qubit(n), nil
}

// MeasurementMapFromLabels builds a map from decoded YAML or JSON keys,
// which may be integers or qubit labels.
func MeasurementMapFromLabels(raw map[any]bool) (MeasurementMap, error) {
	m := make(MeasurementMap, len(raw))
	for key, bit := range raw {
		q, err := ParseQubitLabel(fmt.Sprint(key))
		if err != nil {
			return nil, err
		}
		if _, dup := m[q]; dup {
			return nil, fmt.Errorf("qubit %d measured twice", q)
		}
		m[q] = bit
	}
	return m, nil
}

// ResultSet maps binding names to decoded values for one shot.
type ResultSet = IRObject
