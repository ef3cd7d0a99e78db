// Package proptest provides property-based testing infrastructure and generators.
package proptest

import (
	"reflect"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/nomagicln/propshrink/pkg/property"
)

// TestParameters returns the standard test parameters for property tests.
// Default: 1000 iterations for a good balance between coverage and speed.
func TestParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 1000
	return params
}

// FastTestParameters returns parameters for property tests whose single
// check is expensive, such as full shrink runs.
func FastTestParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	return params
}

// IntRange generates integers in a range.
func IntRange(min, max int) gopter.Gen {
	return gen.IntRange(min, max)
}

// IntTuple generates counterexamples of n integers in [min, max].
func IntTuple(n, min, max int) gopter.Gen {
	gens := make([]gopter.Gen, n)
	for i := range gens {
		gens[i] = gen.IntRange(min, max)
	}
	if n == 0 {
		return gen.Const(property.Counterexample{})
	}
	return gopter.CombineGens(gens...).Map(func(vals []interface{}) property.Counterexample {
		return property.Counterexample(vals)
	})
}

// IntSlice generates non-empty int slices of at most max elements.
func IntSlice(max int) gopter.Gen {
	return gen.IntRange(1, max).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), gen.IntRange(-1000, 1000))
	}, reflect.TypeOf([]int(nil)))
}
