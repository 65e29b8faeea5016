package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"nested", IRObject{"z": IRArray{IRInt(1)}, "a": IRBool(true)}, `{"a":true,"z":[1]}`},
		{"go map", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"go slice", []any{true, int64(2)}, `[true,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FB01
	// in UTF-16 but after it in UTF-8.
	obj := IRObject{"\ufb01": IRInt(1), "\U0001F600": IRInt(2)}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\ufb01\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"go float", 1.5},
		{"nil inside object", IRObject{"a": nil}},
		{"bool binding without data", Bool{}},
		{"number out of range", IRNumber("1e400")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	result, err := MarshalCanonical(IRObject{"cafe\u0301": IRString("cafe\u0301")})
	require.NoError(t, err)
	assert.Equal(t, "{\"caf\u00e9\":\"caf\u00e9\"}", string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"U+2028 literal", "a\u2028b", "\"a\u2028b\""},
		{"U+2029 literal", "a\u2029b", "\"a\u2029b\""},
		{"escaped backslash stays", `a\u2028b`, `"a\\u2028b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalBindings(t *testing.T) {
	b := Bindings{
		"y": QU8(3, 4, 5),
		"x": Bool{Data: IRBool(true)},
		"z": Array{Bool{Data: IRInt(1)}, Measured{Inner: QBool{Qubit: 0}}},
	}

	result, err := MarshalCanonical(b)
	require.NoError(t, err)
	assert.Equal(t,
		`{"x":{"Bool":true},"y":{"Q_U8":[3,4,5]},"z":{"Array":[{"Bool":1},{"Measured":{"Q_Bool":0}}]}}`,
		string(result))
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	obj := IRObject{"b": IRArray{IRString("x"), IRObject{"d": IRInt(1), "c": IRInt(2)}}, "a": IRBool(true)}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)

	var decoded IRObject
	require.NoError(t, decoded.UnmarshalJSON(first))

	second, err := MarshalCanonical(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestMarshalCanonicalClassicalPayloads(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"null", IRNull{}, `null`},
		{"null inside object", IRObject{"a": IRNull{}}, `{"a":null}`},
		{"fraction", IRNumber("1.5"), `1.5`},
		{"trailing zeros", IRNumber("1.50"), `1.5`},
		{"integral float", IRNumber("2.0"), `2`},
		{"negative zero", IRNumber("-0.0"), `0`},
		{"small exponent", IRNumber("2.5e-7"), `2.5e-7`},
		{"large exponent", IRNumber("1E21"), `1e+21`},
		{"plain large", IRNumber("1e20"), `100000000000000000000`},
		{"big integer", IRNumber("18446744073709551615"), `18446744073709551615`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}
