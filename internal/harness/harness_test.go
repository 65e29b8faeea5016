package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestRun_ResultMatches(t *testing.T) {
	scenario := &Scenario{
		Name:        "unsigned",
		Description: "positional bits",
		Object:      "//{\"y\":{\"Q_U8\":[3,4,5]}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{3: true, 4: false, 5: true}},
		Expect:      []Expectation{{Result: map[string]any{"y": 5}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 2)

	assert.Equal(t, EventParse, result.Trace[0].Type)
	assert.Equal(t, []string{"y"}, result.Trace[0].Bindings)
	assert.Equal(t, int64(1), result.Trace[0].Seq)

	assert.Equal(t, EventShot, result.Trace[1].Type)
	assert.Equal(t, int64(2), result.Trace[1].Seq)
	assert.Equal(t, 0, result.Trace[1].Shot)
	assert.Nil(t, result.Trace[1].Error)
}

func TestRun_ResultMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "expects the wrong value",
		Object:      "//{\"y\":{\"Q_U8\":[3,4,5]}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{3: true, 4: false, 5: true}},
		Expect:      []Expectation{{Result: map[string]any{"y": 4}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "shot 0: result mismatch")
	assert.Contains(t, result.Errors[0], `{"y":5}`)
}

func TestRun_ErrorMatchesQubitAndBinding(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing",
		Description: "qubit 7 absent",
		Object:      "//{\"w\":{\"Q_Bool\":7}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{0: true}},
		Expect:      []Expectation{{Error: &ErrorExpectation{Code: "E203", Qubit: intPtr(7), Binding: "w"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	shot := result.Trace[1]
	require.NotNil(t, shot.Error)
	assert.Equal(t, "E203", shot.Error.Code)
	assert.Nil(t, shot.Result)
}

func TestRun_ErrorWrongQubit(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing",
		Description: "expects the wrong qubit",
		Object:      "//{\"w\":{\"Q_Bool\":7}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{0: true}},
		Expect:      []Expectation{{Error: &ErrorExpectation{Code: "E203", Qubit: intPtr(6)}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected qubit 6")
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing",
		Description: "expects a result but the qubit is absent",
		Object:      "//{\"w\":{\"Q_Bool\":7}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{0: true}},
		Expect:      []Expectation{{Result: map[string]any{"w": true}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unexpected error E203")
}

func TestRun_ExpectedErrorGotResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "bool",
		Description: "expects an error on a valid shot",
		Object:      "//{\"x\":{\"Bool\":true}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{}},
		Expect:      []Expectation{{Error: &ErrorExpectation{Code: "E203"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error E203, got result")
}

func TestRun_ParseFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "malformed",
		Description: "no comment marker",
		Object:      "{\"x\":{\"Bool\":true}}\nOPENQASM 2.0;",
		Expect:      []Expectation{{Error: &ErrorExpectation{Code: "E201"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, EventParse, result.Trace[0].Type)
	require.NotNil(t, result.Trace[0].Error)
	assert.Equal(t, "E201", result.Trace[0].Error.Code)
}

func TestRun_UnexpectedParseFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "malformed",
		Description: "expects a result from a broken header",
		Object:      "//not json\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{}},
		Expect:      []Expectation{{Result: map[string]any{}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "parse: unexpected error E201")
}

func TestRun_ExpectCountMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "count",
		Description: "two shots, one expectation",
		Object:      "//{\"x\":{\"Bool\":true}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{}, {}},
		Expect:      []Expectation{{Result: map[string]any{"x": true}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expect has 1 entries but 2 shots are given")
	assert.Len(t, result.Trace, 3)
}

func TestRun_StrictWidthFromConfig(t *testing.T) {
	object := "//{\"v\":{\"Q_U8\":[0,1,2,3,4,5,6,7,8]}}\nOPENQASM 2.0;"
	shot := map[any]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}

	lenient, err := Run(&Scenario{
		Name:        "lenient",
		Description: "nine bits decode",
		Object:      object,
		Shots:       []map[any]bool{shot},
		Expect:      []Expectation{{Result: map[string]any{"v": 511}}},
	})
	require.NoError(t, err)
	assert.True(t, lenient.Pass, lenient.Errors)

	strict, err := Run(&Scenario{
		Name:        "strict",
		Description: "nine bits rejected",
		Object:      object,
		Config:      ScenarioConfig{StrictWidth: true},
		Shots:       []map[any]bool{shot},
		Expect:      []Expectation{{Error: &ErrorExpectation{Code: "E204", Binding: "v"}}},
	})
	require.NoError(t, err)
	assert.True(t, strict.Pass, strict.Errors)
}

func TestRun_InvalidShotLabel(t *testing.T) {
	_, err := Run(&Scenario{
		Name:        "bad",
		Description: "unparseable label",
		Object:      "//{}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{"q_x": true}},
		Expect:      []Expectation{{Result: map[string]any{}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shot 0")
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "bell",
		Description: "same trace every run",
		Object:      "//{\"a\":{\"Q_Bool\":0},\"b\":{\"Q_Bool\":1}}\nOPENQASM 2.0;",
		Shots:       []map[any]bool{{0: true, 1: true}, {0: false, 1: false}},
		Expect: []Expectation{
			{Result: map[string]any{"a": true, "b": true}},
			{Result: map[string]any{"a": false, "b": false}},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
