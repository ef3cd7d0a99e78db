package expr

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nomagicln/propshrink/internal/proptest"
	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holds(t *testing.T, source string, args ...any) bool {
	t.Helper()
	p, err := Compile(source, len(args))
	require.NoError(t, err)
	ok, err := p.Holds(property.Counterexample(args))
	require.NoError(t, err)
	return ok
}

func TestCompile_Comparisons(t *testing.T) {
	tests := []struct {
		name   string
		source string
		args   []any
		want   bool
	}{
		{"less holds", "a < 10", []any{5}, true},
		{"less fails", "a < 10", []any{50}, false},
		{"len of slice", "Len(a) < 3", []any{[]int{1, 2, 3}}, false},
		{"len of string", "Len(a) < 3", []any{"ab"}, true},
		{"sum of two", "Add(a, b) < 100", []any{60, 60}, false},
		{"greater equal", "a >= 3", []any{3}, true},
		{"less equal", "a <= 3", []any{4}, false},
		{"greater", "a > b", []any{2, 1}, true},
		{"equality", "a == 3", []any{3}, true},
		{"inequality", "a != 3", []any{3}, false},
		{"and", "a > 0 && a < 10", []any{5}, true},
		{"or", "a < 0 || a > 10", []any{5}, false},
		{"not", "!(a == 3)", []any{4}, true},
		{"mixed kinds", "a < 1.5", []any{1}, true},
		{"unsigned", "a == 7", []any{uint8(7)}, true},
		{"int64 vs float", "a > b", []any{int64(2), 1.5}, true},
		{"string order", `a < "b"`, []any{"a"}, true},
		{"string equality", `a == "x"`, []any{"x"}, true},
		{"bool literal", "a == true", []any{true}, true},
		{"arg index", "arg1 > arg0", []any{1, 2}, true},
		{"sub", "Sub(a, b) == 3", []any{5, 2}, true},
		{"mul", "Mul(a, b) == 12", []any{3, 4}, true},
		{"div", "Div(a, b) == 2", []any{7, 3}, true},
		{"float div", "Div(a, 2) == 3.5", []any{7.0}, true},
		{"mod", "Mod(a, 3) == 1", []any{7}, true},
		{"neg", "Neg(a) == 0", []any{0}, true},
		{"abs", "Abs(a) == 4", []any{-4}, true},
		{"min", "Min(a, b) == 2", []any{2, 9}, true},
		{"max", "Max(a, b) == 9", []any{2, 9}, true},
		{"sum", "Sum(a) == 6", []any{[]int{1, 2, 3}}, true},
		{"sum of empty", "Sum(a) == 0", []any{[]int{}}, true},
		{"contains string", `Contains(a, "ell")`, []any{"hello"}, true},
		{"contains element", "Contains(a, 3)", []any{[]int{1, 2}}, false},
		{"contains key", `Contains(a, "k")`, []any{map[string]int{"k": 1}}, true},
		{"has prefix", `HasPrefix(a, "ab")`, []any{"abc"}, true},
		{"sorted", "Sorted(a)", []any{[]int{1, 2, 2, 5}}, true},
		{"unsorted", "Sorted(a)", []any{[]int{3, 1}}, false},
		{"len of map", "Len(a) == 1", []any{map[int]int{1: 1}}, true},
		{"deep equality", "a == b", []any{[]int{1}, []int{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, holds(t, tt.source, tt.args...))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		arity  int
	}{
		{"empty", "  ", 1},
		{"syntax", "a <", 1},
		{"argument out of range", "b < 1", 1},
		{"unknown identifier", "count < 1", 1},
		{"not a condition", "Len(a)", 1},
		{"bare argument", "a", 1},
		{"unknown function", "Foo(a)", 1},
		{"selector", "a.b < 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, tt.arity)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.source, ce.Source)
			assert.Contains(t, ce.Error(), "invalid property expression")
		})
	}
}

func TestIntegerOverflowUsesFloat(t *testing.T) {
	const maxInt, minInt = int64(math.MaxInt64), int64(math.MinInt64)

	tests := []struct {
		name   string
		source string
		args   []any
		want   bool
	}{
		{"add past max", "Add(a, b) < 100", []any{maxInt, int64(1)}, false},
		{"add two max", "Add(a, b) > 0", []any{maxInt, maxInt}, true},
		{"add past min", "Add(a, b) < 0", []any{minInt, int64(-1)}, true},
		{"sub past min", "Sub(a, b) < 0", []any{minInt, int64(1)}, true},
		{"sub past max", "Sub(a, b) > 0", []any{maxInt, int64(-1)}, true},
		{"mul past max", "Mul(a, b) > 0", []any{maxInt, int64(2)}, true},
		{"mul min by minus one", "Mul(a, b) > 0", []any{minInt, int64(-1)}, true},
		{"mul negative", "Mul(a, b) < 0", []any{maxInt, int64(-3)}, true},
		{"div min by minus one", "Div(a, b) > 0", []any{minInt, int64(-1)}, true},
		{"neg min", "Neg(a) > 0", []any{minInt}, true},
		{"abs min", "Abs(a) > 0", []any{minInt}, true},
		{"sum past max", "Sum(a) > 0", []any{[]int64{maxInt, 1}}, true},
		{"exact at max", "Add(a, b) == c", []any{maxInt - 1, int64(1), maxInt}, true},
		{"exact at min", "Sub(a, b) == c", []any{minInt + 1, int64(1), minInt}, true},
		{"exact product", "Mul(a, b) == c", []any{int64(1 << 31), int64(1 << 31), int64(1 << 62)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, holds(t, tt.source, tt.args...))
		})
	}
}

func TestHolds_EvaluationErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		args   []any
	}{
		{"len of int", "Len(a) < 1", []any{5}},
		{"division by zero", "Div(a, 0) == 1", []any{5}},
		{"modulo by zero", "Mod(a, 0) == 1", []any{5}},
		{"add string", "Add(a, 1) == 1", []any{"x"}},
		{"incomparable", "a < 1", []any{[]int{1}}},
		{"sum of strings", "Sum(a) == 1", []any{[]string{"x"}}},
		{"has prefix of int", `HasPrefix(a, "x")`, []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.source, len(tt.args))
			require.NoError(t, err)
			_, err = p.Holds(property.Counterexample(tt.args))
			assert.Error(t, err)
		})
	}
}

func TestHolds_ArityMismatch(t *testing.T) {
	p, err := Compile("a < 1", 1)
	require.NoError(t, err)
	_, err = p.Holds(property.Counterexample{1, 2})
	assert.ErrorContains(t, err, "takes 1 arguments")
}

func TestProperty_Metadata(t *testing.T) {
	p, err := Compile("Add(a, b) < 100", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Arity())
	assert.Equal(t, "Add(a, b) < 100", p.String())

	var _ property.Property = p
}

func TestArgIndex(t *testing.T) {
	assert.Equal(t, 0, ArgIndex("a"))
	assert.Equal(t, 25, ArgIndex("z"))
	assert.Equal(t, 12, ArgIndex("arg12"))
	assert.Equal(t, -1, ArgIndex("A"))
	assert.Equal(t, -1, ArgIndex("argx"))
	assert.Equal(t, -1, ArgIndex("ab"))
}

func TestFunctions(t *testing.T) {
	docs := Functions()
	require.Len(t, docs, len(functions()))
	for _, d := range docs {
		assert.NotEmpty(t, d[1], d[0])
	}
}

func TestCompiledMatchesGo(t *testing.T) {
	properties := gopter.NewProperties(proptest.FastTestParameters())

	less, err := Compile("a < b", 2)
	require.NoError(t, err)
	sum, err := Compile("Add(a, b) == c", 3)
	require.NoError(t, err)

	properties.Property("a < b agrees with Go", prop.ForAll(
		func(a, b int) bool {
			ok, err := less.Holds(property.Counterexample{a, b})
			return err == nil && ok == (a < b)
		},
		gen.Int(), gen.Int(),
	))

	properties.Property("Add agrees with Go", prop.ForAll(
		func(a, b int) bool {
			ok, err := sum.Holds(property.Counterexample{a, b, a + b})
			return err == nil && ok
		},
		proptest.IntRange(-1e6, 1e6), proptest.IntRange(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
