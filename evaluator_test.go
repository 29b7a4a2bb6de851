package prevue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morugetsm/prevue"
)

func newEvaluator(t *testing.T) *prevue.Evaluator {
	t.Helper()
	ev, err := prevue.NewEvaluator()
	require.NoError(t, err)
	t.Cleanup(ev.Close)
	return ev
}

func TestEvaluator_Seed(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{"name": "Ada", "age": 30}))

	s, ok := ev.EvalString("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", s)

	s, ok = ev.EvalString("age")
	require.True(t, ok)
	assert.Equal(t, "30", s)
}

func TestEvaluator_SeedNonObjectPayloadSeedsNothing(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed([]any{1, 2, 3}))

	_, ok := ev.EvalString("length")
	assert.False(t, ok)
}

func TestEvaluator_ScopeIsolation(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	name, err := ev.EnterScope()
	require.NoError(t, err)
	require.NotEmpty(t, name)
	require.NoError(t, ev.Set("x", 1))

	val, err := ev.Eval("x")
	require.NoError(t, err)
	assert.Equal(t, prevue.KindNumber, val.Kind)

	ev.ExitScope()

	_, err = ev.Eval("x")
	assert.Error(t, err)
}

func TestEvaluator_StatementSequenceCompletionValue(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	s, ok := ev.EvalString("let x=1; x")
	require.True(t, ok)
	assert.Equal(t, "1", s)
}

func TestEvaluator_EvalStringCoercions(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	tests := []struct {
		expr   string
		expect string
		ok     bool
	}{
		{"null", "", false},
		{"undefined", "", false},
		{`"hi"`, "hi", true},
		{"42", "42", true},
		{"true", "true", true},
		{"[1,2,3]", "[1,2,3]", true},
		{`({a:1,b:"x"})`, `{"a":1,"b":"x"}`, true},
	}
	for _, tt := range tests {
		s, ok := ev.EvalString(tt.expr)
		assert.Equal(t, tt.ok, ok, tt.expr)
		if tt.ok {
			assert.Equal(t, tt.expect, s, tt.expr)
		}
	}
}

func TestEvaluator_EvalBoolTruthiness(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	truthy := []string{"1", "-1", "Infinity", `"x"`, "[1]", "({})"}
	falsy := []string{"0", `""`, "null", "undefined", "NaN", "false"}

	for _, expr := range truthy {
		b, err := ev.EvalBool(expr)
		require.NoError(t, err, expr)
		assert.True(t, b, expr)
	}
	for _, expr := range falsy {
		b, err := ev.EvalBool(expr)
		require.NoError(t, err, expr)
		assert.False(t, b, expr)
	}
}

func TestEvaluator_EvalBoolOnErrorTreatedAsFalseByCaller(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	_, err := ev.EvalBool("this is not valid js (")
	assert.Error(t, err)
}

func TestEvaluator_ObjectPropertyOrderPreserved(t *testing.T) {
	ev := newEvaluator(t)
	require.NoError(t, ev.Seed(map[string]any{}))

	val, err := ev.Eval(`({z:1,a:2,m:3})`)
	require.NoError(t, err)
	require.Equal(t, prevue.KindObject, val.Kind)

	entries, ok := val.Data.([]prevue.ObjectEntry)
	require.True(t, ok)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{entries[0].Key, entries[1].Key, entries[2].Key})
}
