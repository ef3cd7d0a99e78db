package proptest

import (
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// GeneratorSpec generates names accepted by the generator catalog.
func GeneratorSpec() gopter.Gen {
	return gen.OneConstOf("int", "int64", "uint", "float", "bool", "string", "alpha", "ident", "[]int", "[]string")
}

// Threshold generates thresholds for "value below threshold" properties.
func Threshold() gopter.Gen {
	return gen.IntRange(1, 1000)
}
