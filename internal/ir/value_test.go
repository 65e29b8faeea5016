package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRNumber("1.5")
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{"a": IRInt(1), "A": IRInt(2), "aa": IRInt(3), "Aa": IRInt(4), "AA": IRInt(5)}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "a", 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "aa", -1},
		{"\U0001F600", "\ufb01", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    IRValue
		wantErr bool
	}{
		{"bool", `true`, IRBool(true), false},
		{"int", `7`, IRInt(7), false},
		{"big int", `9007199254740993`, IRInt(9007199254740993), false},
		{"string", `"s"`, IRString("s"), false},
		{"array", `[1,"a"]`, IRArray{IRInt(1), IRString("a")}, false},
		{"object", `{"k":false}`, IRObject{"k": IRBool(false)}, false},
		{"float", `1.5`, nil, true},
		{"exponent", `1e3`, nil, true},
		{"null", `null`, nil, true},
		{"nested null", `[null]`, nil, true},
		{"trailing", `1 2`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"flag":  IRBool(true),
		"count": IRInt(5),
		"items": IRArray{IRInt(1), IRArray{IRBool(false)}},
		"none":  IRNull{},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"count":5,"flag":true,"items":[1,[false]],"none":null}`, string(data))

	var back IRObject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}

func TestUnmarshalClassical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IRValue
	}{
		{"int", `7`, IRInt(7)},
		{"float", `1.5`, IRNumber("1.5")},
		{"exponent", `1e3`, IRNumber("1e3")},
		{"null", `null`, IRNull{}},
		{"big int", `18446744073709551615`, IRNumber("18446744073709551615")},
		{"nested", `{"a":[null,0.25]}`, IRObject{"a": IRArray{IRNull{}, IRNumber("0.25")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalClassical([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, input := range []string{`1 2`, `1e400`, ``} {
		_, err := UnmarshalClassical([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestClassicalFromGo(t *testing.T) {
	got, err := ClassicalFromGo(map[string]any{"f": 0.5, "n": nil, "u": uint64(1 << 63)})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"f": IRNumber("0.5"), "n": IRNull{}, "u": IRNumber("9223372036854775808")}, got)
}

func TestFromGo(t *testing.T) {
	got, err := FromGo(map[string]any{"a": []any{1, true, "x"}, "b": uint64(3)})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRArray{IRInt(1), IRBool(true), IRString("x")}, "b": IRInt(3)}, got)

	_, err = FromGo(map[string]any{"f": 0.5})
	assert.Error(t, err)

	_, err = FromGo(struct{}{})
	assert.Error(t, err)
}
