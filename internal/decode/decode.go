package decode

import (
	"fmt"

	"github.com/roach88/gocavy/internal/ir"
)

// Options tunes decoding.
type Options struct {
	// StrictWidth rejects Q_U* registers whose qubit list is longer than the
	// declared width. Off by default: every listed qubit contributes a bit.
	StrictWidth bool
}

// Decoder deserializes bindings with fixed options. The zero value is ready
// to use and is safe for concurrent use.
type Decoder struct {
	opts Options
}

// New creates a Decoder.
func New(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

var defaultDecoder Decoder

// Deserialize decodes v against m with default options.
func Deserialize(v ir.BindingValue, m ir.MeasurementMap) (ir.IRValue, error) {
	return defaultDecoder.Deserialize(v, m)
}

// Deserialize reconstructs the native value of v:
//   - Bool: its classical payload, unchanged
//   - QBool: the measured bit of its qubit
//   - QUnsigned: sum of bit(qubits[i]) << i
//   - Array: each element decoded, order preserved
//   - Measured: its inner value decoded
func (d *Decoder) Deserialize(v ir.BindingValue, m ir.MeasurementMap) (ir.IRValue, error) {
	switch val := v.(type) {
	case ir.Bool:
		if val.Data == nil {
			return nil, fmt.Errorf("%s binding has no data", ir.TagBool)
		}
		return val.Data, nil

	case ir.QBool:
		bit, ok := m[val.Qubit]
		if !ok {
			return nil, &MissingMeasurementError{Qubit: val.Qubit}
		}
		return ir.IRBool(bit), nil

	case ir.QUnsigned:
		return d.unsigned(val, m)

	case ir.Array:
		out := make(ir.IRArray, len(val))
		for i, item := range val {
			elem, err := d.Deserialize(item, m)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", ir.TagArray, i, err)
			}
			out[i] = elem
		}
		return out, nil

	case ir.Measured:
		return d.Deserialize(val.Inner, m)

	default:
		return nil, &ir.UnsupportedBindingTypeError{Tag: tagOf(v)}
	}
}

func (d *Decoder) unsigned(u ir.QUnsigned, m ir.MeasurementMap) (ir.IRValue, error) {
	if !u.Tag().Known() {
		return nil, &ir.UnsupportedBindingTypeError{Tag: string(u.Tag())}
	}
	if d.opts.StrictWidth && len(u.Qubits) > u.Width {
		return nil, &WidthError{Tag: u.Tag(), Width: u.Width, Qubits: len(u.Qubits)}
	}
	if len(u.Qubits) > ir.MaxUnsignedBits {
		return nil, &WidthError{Tag: u.Tag(), Width: ir.MaxUnsignedBits, Qubits: len(u.Qubits)}
	}

	var n int64
	for i, q := range u.Qubits {
		bit, ok := m[q]
		if !ok {
			return nil, &MissingMeasurementError{Qubit: q}
		}
		if bit {
			n |= 1 << uint(i)
		}
	}
	return ir.IRInt(n), nil
}

func tagOf(v ir.BindingValue) string {
	if v == nil {
		return "<nil>"
	}
	return string(v.Tag())
}
