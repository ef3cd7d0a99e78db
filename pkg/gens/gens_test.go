package gens

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/nomagicln/propshrink/internal/proptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T, g gopter.Gen) any {
	t.Helper()
	v, ok := g.Sample()
	require.True(t, ok)
	return v
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want reflect.Type
	}{
		{"int", reflect.TypeOf(0)},
		{" int64 ", reflect.TypeOf(int64(0))},
		{"uint", reflect.TypeOf(uint(0))},
		{"float", reflect.TypeOf(0.0)},
		{"bool", reflect.TypeOf(false)},
		{"string", reflect.TypeOf("")},
		{"alpha", reflect.TypeOf("")},
		{"ident", reflect.TypeOf("")},
		{"int(0,10)", reflect.TypeOf(0)},
		{"[]int", reflect.TypeOf([]int{})},
		{"[][]string", reflect.TypeOf([][]string{})},
		{"[]int(1, 3)", reflect.TypeOf([]int{})},
		{"map[string]int", reflect.TypeOf(map[string]int{})},
		{"map[alpha][]bool", reflect.TypeOf(map[string][]bool{})},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			g, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reflect.TypeOf(sample(t, g)))
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{"", "integer", "[]", "map[int", "map[int]", "int(1)", "int(5,1)", "int(a,b)", "int(0,1", "intx"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			assert.Error(t, err)
		})
	}
}

func TestUnknownGeneratorError(t *testing.T) {
	_, err := Parse("complex")
	var ue *UnknownGeneratorError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "complex", ue.Spec)
}

func TestParseAll(t *testing.T) {
	gs, err := ParseAll([]string{"int", "[]string"})
	require.NoError(t, err)
	assert.Len(t, gs, 2)

	_, err = ParseAll([]string{"int", "nope"})
	assert.ErrorContains(t, err, "generator 1")
}

func TestNames(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "alpha", names[0][0])

	var all []string
	for _, n := range names {
		all = append(all, n[0])
	}
	assert.Contains(t, all, "int(lo,hi)")
	assert.Contains(t, all, "[]<spec>")
}

func TestIntRangeStaysInBounds(t *testing.T) {
	properties := gopter.NewProperties(proptest.FastTestParameters())

	properties.Property("int(lo,hi) samples stay in range", prop.ForAll(
		func(lo, width int) bool {
			spec := "int(" + strconv.Itoa(lo) + "," + strconv.Itoa(lo+width) + ")"
			g, err := Parse(spec)
			if err != nil {
				return false
			}
			v, ok := g.Sample()
			n := v.(int)
			return ok && n >= lo && n <= lo+width
		},
		proptest.IntRange(-1000, 1000),
		proptest.IntRange(0, 1000),
	))

	properties.Property("catalog specs always parse", prop.ForAll(
		func(spec string) bool {
			_, err := Parse(spec)
			return err == nil
		},
		proptest.GeneratorSpec(),
	))

	properties.TestingRun(t)
}
