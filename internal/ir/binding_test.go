package ir

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingValueSealed(t *testing.T) {
	var _ BindingValue = Bool{Data: IRBool(true)}
	var _ BindingValue = QBool{Qubit: 1}
	var _ BindingValue = QU8(1, 2)
	var _ BindingValue = Array{}
	var _ BindingValue = Measured{Inner: QBool{}}
}

func TestBindingTags(t *testing.T) {
	assert.Equal(t, TagBool, Bool{}.Tag())
	assert.Equal(t, TagQBool, QBool{}.Tag())
	assert.Equal(t, TagQU8, QU8().Tag())
	assert.Equal(t, TagQU16, QU16().Tag())
	assert.Equal(t, TagQU32, QU32().Tag())
	assert.Equal(t, TagArray, Array{}.Tag())
	assert.Equal(t, TagMeasured, Measured{}.Tag())

	odd := QUnsigned{Width: 12}
	assert.Equal(t, Tag("Q_U12"), odd.Tag())
	assert.False(t, odd.Tag().Known())
}

func TestUnmarshalBinding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  BindingValue
	}{
		{"bool literal", `{"Bool":true}`, Bool{Data: IRBool(true)}},
		{"bool carrying int", `{"Bool":1}`, Bool{Data: IRInt(1)}},
		{"bool carrying float", `{"Bool":1.5}`, Bool{Data: IRNumber("1.5")}},
		{"bool carrying null", `{"Bool":null}`, Bool{Data: IRNull{}}},
		{"bool carrying big int", `{"Bool":18446744073709551615}`, Bool{Data: IRNumber("18446744073709551615")}},
		{"bool carrying nested null", `{"Bool":[null,2.5e-3]}`, Bool{Data: IRArray{IRNull{}, IRNumber("2.5e-3")}}},
		{"q bool", `{"Q_Bool":0}`, QBool{Qubit: 0}},
		{"q u8", `{"Q_U8":[3,4,5]}`, QU8(3, 4, 5)},
		{"q u16", `{"Q_U16":[]}`, QU16()},
		{"q u32", `{"Q_U32":[9]}`, QU32(9)},
		{"array", `{"Array":[{"Bool":1},{"Q_Bool":0}]}`, Array{Bool{Data: IRInt(1)}, QBool{Qubit: 0}}},
		{"empty array", `{"Array":[]}`, Array{}},
		{"measured", `{"Measured":{"Q_U8":[1]}}`, Measured{Inner: QU8(1)}},
		{"nested", `{"Measured":{"Array":[{"Measured":{"Q_Bool":2}}]}}`,
			Measured{Inner: Array{Measured{Inner: QBool{Qubit: 2}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalBinding([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalBindingErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		unsupported bool
	}{
		{"unknown tag", `{"Q_U64":[1]}`, true},
		{"unknown tag nested in array", `{"Array":[{"Float":1}]}`, true},
		{"unknown tag inside measured", `{"Measured":{"Qudit":3}}`, true},
		{"two keys", `{"Bool":true,"Q_Bool":1}`, false},
		{"no keys", `{}`, false},
		{"not an object", `[1]`, false},
		{"negative qubit", `{"Q_Bool":-1}`, false},
		{"fractional qubit", `{"Q_Bool":1.5}`, false},
		{"string qubit", `{"Q_U8":["1"]}`, false},
		{"q u8 payload not array", `{"Q_U8":3}`, false},
		{"bool payload not json", `{"Bool":tru}`, false},
		{"bool float out of range", `{"Bool":1e400}`, false},
		{"array payload not array", `{"Array":{"Bool":true}}`, false},
		{"too many bits", `{"Q_U32":[` + qubitList(64) + `]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBinding([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.unsupported, IsUnsupportedBindingType(err))
		})
	}
}

func TestUnmarshalBindingBitLimit(t *testing.T) {
	v, err := UnmarshalBinding([]byte(`{"Q_U32":[` + qubitList(MaxUnsignedBits) + `]}`))
	require.NoError(t, err)
	assert.Len(t, v.(QUnsigned).Qubits, 63)

	_, err = UnmarshalBinding([]byte(`{"Q_U32":[` + qubitList(MaxUnsignedBits+1) + `]}`))
	assert.ErrorContains(t, err, "64 qubits exceed the 63-bit limit")
}

func TestUnsupportedBindingTypeNamesTag(t *testing.T) {
	_, err := UnmarshalBinding([]byte(`{"Array":[{"Bool":1},{"Complex":[1,2]}]}`))
	require.Error(t, err)

	var ue *UnsupportedBindingTypeError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Complex", ue.Tag)
	assert.Contains(t, err.Error(), "Array[1]")
}

func TestUnmarshalBindingsFieldError(t *testing.T) {
	_, err := UnmarshalBindings([]byte(`{"ok":{"Bool":true},"bad":{"Nope":1}}`))
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "bad", fe.Field)
	assert.True(t, IsUnsupportedBindingType(err))
}

func TestUnmarshalBindingsRejectsNonObject(t *testing.T) {
	for _, input := range []string{`null`, `[]`, `"x"`, ``} {
		_, err := UnmarshalBindings([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestBindingsRoundTrip(t *testing.T) {
	original := Bindings{
		"flag":   Bool{Data: IRBool(false)},
		"lit":    Bool{Data: IRObject{"k": IRArray{IRInt(1), IRString("s")}}},
		"ratio":  Bool{Data: IRNumber("1.5")},
		"none":   Bool{Data: IRNull{}},
		"huge":   Bool{Data: IRNumber("18446744073709551615")},
		"bit":    QBool{Qubit: 7},
		"byte":   QU8(0, 1, 2, 3, 4, 5, 6, 7),
		"word":   QU16(10, 11),
		"dword":  QU32(),
		"list":   Array{QBool{Qubit: 1}, Bool{Data: IRInt(2)}, Array{}},
		"wrap":   Measured{Inner: QU8(8)},
		"nested": Measured{Inner: Array{Measured{Inner: QBool{Qubit: 9}}}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var back Bindings
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, original, back)
}

func TestQubitsReferenced(t *testing.T) {
	v := Array{
		Bool{Data: IRBool(true)},
		QBool{Qubit: 4},
		Measured{Inner: QU8(2, 3, 4)},
		Array{Measured{Inner: QBool{Qubit: 0}}},
	}

	got := QubitsReferenced(v)
	assert.Equal(t, []Qubit{0, 2, 3, 4}, SortedQubits(got))
	assert.Empty(t, QubitsReferenced(Bool{Data: IRInt(1)}))
}

func TestBindingsQubitsAndNames(t *testing.T) {
	b := Bindings{
		"z": QBool{Qubit: 9},
		"a": QU8(1, 0),
		"m": Bool{Data: IRBool(true)},
	}

	assert.Equal(t, []string{"a", "m", "z"}, b.Names())
	assert.Equal(t, []Qubit{0, 1, 9}, b.Qubits())
}

func TestBindingsClone(t *testing.T) {
	b := Bindings{"x": QBool{Qubit: 1}}
	c := b.Clone()
	c["y"] = QBool{Qubit: 2}

	assert.Len(t, b, 1)
	assert.Len(t, c, 2)
}

func qubitList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.Itoa(i)
	}
	return strings.Join(parts, ",")
}
