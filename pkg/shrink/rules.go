package shrink

import (
	"math"
	"reflect"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// TypeIs matches exactly the type of sample.
func TypeIs(sample any) Matcher {
	want := reflect.TypeOf(sample)
	return func(t reflect.Type) bool {
		return t == want
	}
}

// KindIs matches every type of the given kind.
func KindIs(kind reflect.Kind) Matcher {
	return func(t reflect.Type) bool {
		return t.Kind() == kind
	}
}

// AddDefaultRules registers the standard rule set: integers and floats move
// toward zero, strings and slices lose elements, booleans become false,
// times move toward the epoch, maps lose entries and pointers become nil.
// Container rules shrink their elements with whatever rule matches each
// element's runtime type.
func (s *Shrinker) AddDefaultRules() {
	s.AddRule("int", TypeIs(int(0)), gen.IntShrinker)
	s.AddRule("int8", TypeIs(int8(0)), gen.Int8Shrinker)
	s.AddRule("int16", TypeIs(int16(0)), gen.Int16Shrinker)
	s.AddRule("int32", TypeIs(int32(0)), gen.Int32Shrinker)
	s.AddRule("int64", TypeIs(int64(0)), gen.Int64Shrinker)
	s.AddRule("uint", TypeIs(uint(0)), gen.UIntShrinker)
	s.AddRule("uint8", TypeIs(uint8(0)), gen.UInt8Shrinker)
	s.AddRule("uint16", TypeIs(uint16(0)), gen.UInt16Shrinker)
	s.AddRule("uint32", TypeIs(uint32(0)), gen.UInt32Shrinker)
	s.AddRule("uint64", TypeIs(uint64(0)), gen.UInt64Shrinker)
	s.AddRule("float32", TypeIs(float32(0)), float32Shrinker)
	s.AddRule("float64", TypeIs(float64(0)), float64Shrinker)
	s.AddRule("string", TypeIs(""), gen.StringShrinker)
	s.AddRule("bool", TypeIs(false), boolShrinker)
	s.AddRule("time", TypeIs(time.Time{}), gen.TimeShrinker)
	s.AddRule("slice", KindIs(reflect.Slice), gen.SliceShrinker(s.dynamic))
	s.AddRule("map", KindIs(reflect.Map), gen.MapShrinker(s.dynamic, s.dynamic))
	s.AddRule("pointer", KindIs(reflect.Ptr), gen.PtrShrinker(s.dynamic))
}

// float64Shrinker defers to gopter for finite values. NaN only offers zero
// and an infinity offers zero and the largest finite value of its sign, since
// gopter's halving never leaves the non-finite values.
func float64Shrinker(v interface{}) gopter.Shrink {
	f := v.(float64)
	switch {
	case math.IsNaN(f):
		return sliceShrink([]interface{}{0.0})
	case math.IsInf(f, 1):
		return sliceShrink([]interface{}{0.0, math.MaxFloat64})
	case math.IsInf(f, -1):
		return sliceShrink([]interface{}{0.0, -math.MaxFloat64})
	}
	return gen.Float64Shrinker(f)
}

func float32Shrinker(v interface{}) gopter.Shrink {
	f := v.(float32)
	switch {
	case math.IsNaN(float64(f)):
		return sliceShrink([]interface{}{float32(0)})
	case math.IsInf(float64(f), 1):
		return sliceShrink([]interface{}{float32(0), float32(math.MaxFloat32)})
	case math.IsInf(float64(f), -1):
		return sliceShrink([]interface{}{float32(0), float32(-math.MaxFloat32)})
	}
	return gen.Float32Shrinker(f)
}

func sliceShrink(candidates []interface{}) gopter.Shrink {
	i := 0
	return func() (interface{}, bool) {
		if i >= len(candidates) {
			return nil, false
		}
		i++
		return candidates[i-1], true
	}
}

func boolShrinker(v interface{}) gopter.Shrink {
	if !v.(bool) {
		return gopter.NoShrink
	}
	done := false
	return func() (interface{}, bool) {
		if done {
			return nil, false
		}
		done = true
		return false, true
	}
}
