package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Tag is the discriminator of a BindingValue on the wire.
type Tag string

// Known binding tags.
const (
	TagBool     Tag = "Bool"
	TagQBool    Tag = "Q_Bool"
	TagQU8      Tag = "Q_U8"
	TagQU16     Tag = "Q_U16"
	TagQU32     Tag = "Q_U32"
	TagArray    Tag = "Array"
	TagMeasured Tag = "Measured"
)

// MaxUnsignedBits bounds the qubit list of a Q_U* binding. Decoded integers
// are carried as int64, so at most 63 bits can be assembled.
const MaxUnsignedBits = 63

// Known reports whether t is one of the tags gocavy can decode.
func (t Tag) Known() bool {
	switch t {
	case TagBool, TagQBool, TagQU8, TagQU16, TagQU32, TagArray, TagMeasured:
		return true
	}
	return false
}

// Qubit is an opaque qubit identifier. It is not a bit position.
type Qubit int

// BindingValue is a sealed interface over the declared-value variants:
// Bool, QBool, QUnsigned, Array and Measured.
type BindingValue interface {
	Tag() Tag
	bindingValue()
}

// Bool is a classical value known at compile time. Despite the name the
// payload may be any classical literal; it is passed through unchanged.
type Bool struct {
	Data IRValue
}

// QBool is a boolean obtained by measuring one qubit.
type QBool struct {
	Qubit Qubit
}

// QUnsigned is an unsigned integer assembled from measured qubits.
// Qubits are least-significant first. Width is the declared bit width
// (8, 16 or 32); any other width has no wire tag and cannot be decoded.
type QUnsigned struct {
	Width  int
	Qubits []Qubit
}

// Array is an ordered, possibly heterogeneous, list of bindings.
type Array []BindingValue

// Measured marks its inner value as measurement-derived. Decoding is
// transparent.
type Measured struct {
	Inner BindingValue
}

func (Bool) Tag() Tag     { return TagBool }
func (QBool) Tag() Tag    { return TagQBool }
func (Array) Tag() Tag    { return TagArray }
func (Measured) Tag() Tag { return TagMeasured }

func (u QUnsigned) Tag() Tag {
	return Tag("Q_U" + strconv.Itoa(u.Width))
}

func (Bool) bindingValue()      {}
func (QBool) bindingValue()     {}
func (QUnsigned) bindingValue() {}
func (Array) bindingValue()     {}
func (Measured) bindingValue()  {}

// QU8 builds an 8-bit unsigned binding.
func QU8(qubits ...Qubit) QUnsigned { return newUnsigned(8, qubits) }

// QU16 builds a 16-bit unsigned binding.
func QU16(qubits ...Qubit) QUnsigned { return newUnsigned(16, qubits) }

// QU32 builds a 32-bit unsigned binding.
func QU32(qubits ...Qubit) QUnsigned { return newUnsigned(32, qubits) }

func newUnsigned(width int, qubits []Qubit) QUnsigned {
	return QUnsigned{Width: width, Qubits: append([]Qubit{}, qubits...)}
}

// QubitsReferenced returns every qubit transitively reachable from v.
func QubitsReferenced(v BindingValue) map[Qubit]struct{} {
	set := make(map[Qubit]struct{})
	collectQubits(v, set)
	return set
}

func collectQubits(v BindingValue, set map[Qubit]struct{}) {
	switch val := v.(type) {
	case QBool:
		set[val.Qubit] = struct{}{}
	case QUnsigned:
		for _, q := range val.Qubits {
			set[q] = struct{}{}
		}
	case Array:
		for _, item := range val {
			collectQubits(item, set)
		}
	case Measured:
		collectQubits(val.Inner, set)
	}
}

// SortedQubits returns the members of a qubit set in ascending order.
func SortedQubits(set map[Qubit]struct{}) []Qubit {
	qs := make([]Qubit, 0, len(set))
	for q := range set {
		qs = append(qs, q)
	}
	slices.Sort(qs)
	return qs
}

// Bindings maps declared names to their binding values.
type Bindings map[string]BindingValue

// Names returns binding names in RFC 8785 order. Declaration order is not
// preserved by the object-file format, so this is the iteration order
// everywhere.
func (b Bindings) Names() []string {
	return sortedKeys(b)
}

// Qubits returns the sorted union of qubits referenced by all bindings.
func (b Bindings) Qubits() []Qubit {
	set := make(map[Qubit]struct{})
	for _, v := range b {
		collectQubits(v, set)
	}
	return SortedQubits(set)
}

// Clone returns a shallow copy of the map. Binding values are immutable.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the bindings as canonical JSON.
func (b Bindings) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(b)
}

// UnmarshalJSON decodes a JSON object of tagged values.
func (b *Bindings) UnmarshalJSON(data []byte) error {
	out, err := UnmarshalBindings(data)
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// UnmarshalBindings decodes a JSON object mapping names to tagged values.
// Errors are wrapped in *FieldError carrying the binding name.
func UnmarshalBindings(data []byte) (Bindings, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("bindings must be a JSON object")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(Bindings, len(raw))
	for _, name := range sortedKeys(raw) {
		v, err := UnmarshalBinding(raw[name])
		if err != nil {
			return nil, &FieldError{Field: name, Err: err}
		}
		out[name] = v
	}
	return out, nil
}

// UnmarshalBinding decodes one tagged value: a JSON object with exactly one
// key naming the tag. Unknown tags fail with *UnsupportedBindingTypeError.
func UnmarshalBinding(data []byte) (BindingValue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("tagged value must be a JSON object, got %s", preview(data))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("tagged value must have exactly one key, got %d", len(raw))
	}

	for key, payload := range raw {
		return decodeTagged(Tag(key), payload)
	}
	panic("unreachable")
}

func decodeTagged(tag Tag, payload json.RawMessage) (BindingValue, error) {
	switch tag {
	case TagBool:
		data, err := UnmarshalClassical(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return Bool{Data: data}, nil

	case TagQBool:
		q, err := decodeQubit(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return QBool{Qubit: q}, nil

	case TagQU8, TagQU16, TagQU32:
		width, _ := strconv.Atoi(string(tag[len("Q_U"):]))
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("%s: payload must be an array of qubit indices: %w", tag, err)
		}
		if len(items) > MaxUnsignedBits {
			return nil, fmt.Errorf("%s: %d qubits exceed the %d-bit limit", tag, len(items), MaxUnsignedBits)
		}
		qubits := make([]Qubit, len(items))
		for i, item := range items {
			q, err := decodeQubit(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", tag, i, err)
			}
			qubits[i] = q
		}
		return QUnsigned{Width: width, Qubits: qubits}, nil

	case TagArray:
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, fmt.Errorf("%s: payload must be an array of tagged values: %w", tag, err)
		}
		arr := make(Array, len(items))
		for i, item := range items {
			v, err := UnmarshalBinding(item)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", tag, i, err)
			}
			arr[i] = v
		}
		return arr, nil

	case TagMeasured:
		inner, err := UnmarshalBinding(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return Measured{Inner: inner}, nil

	default:
		return nil, &UnsupportedBindingTypeError{Tag: string(tag)}
	}
}

func decodeQubit(data json.RawMessage) (Qubit, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return 0, fmt.Errorf("invalid qubit index: %w", err)
	}
	n, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("qubit index must be an integer, got %s", preview(data))
	}
	i, err := strconv.ParseInt(string(n), 10, 0)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("qubit index must be a non-negative integer, got %s", n)
	}
	return Qubit(i), nil
}

// bindingToIR converts a binding to its single-key wire object.
func bindingToIR(v BindingValue) IRValue {
	switch val := v.(type) {
	case Bool:
		return IRObject{string(TagBool): val.Data}
	case QBool:
		return IRObject{string(TagQBool): IRInt(val.Qubit)}
	case QUnsigned:
		qs := make(IRArray, len(val.Qubits))
		for i, q := range val.Qubits {
			qs[i] = IRInt(q)
		}
		return IRObject{string(val.Tag()): qs}
	case Array:
		items := make(IRArray, len(val))
		for i, item := range val {
			items[i] = bindingToIR(item)
		}
		return IRObject{string(TagArray): items}
	case Measured:
		return IRObject{string(TagMeasured): bindingToIR(val.Inner)}
	default:
		return nil
	}
}

func preview(data []byte) string {
	const limit = 32
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
