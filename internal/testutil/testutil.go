// Package testutil provides test engines and properties shared by the
// package tests of propshrink.
package testutil

import (
	"fmt"

	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/nomagicln/propshrink/pkg/shrink"
)

// HalvingEngine moves integers toward zero. Each step tries the largest
// jump first (half the value) and halves the jump until a candidate still
// fails, so it settles on the failing value closest to zero.
type HalvingEngine struct {
	Calls int
}

// Shrink implements shrink.Engine.
func (e *HalvingEngine) Shrink(value any, stillFailing shrink.Check) (shrink.Result, error) {
	e.Calls++
	cur, ok := value.(int)
	if !ok {
		return shrink.Result{Data: value}, nil
	}

	iterations := 0
	for {
		accepted := false
		for delta := cur / 2; delta != 0; delta /= 2 {
			failing, err := stillFailing(cur - delta)
			if err != nil {
				return shrink.Result{Data: cur, Iterations: iterations}, err
			}
			if failing {
				cur -= delta
				iterations++
				accepted = true
				break
			}
		}
		if !accepted {
			return shrink.Result{Data: cur, Iterations: iterations}, nil
		}
	}
}

// DropEngine removes trailing elements from []int values while the result
// still fails.
type DropEngine struct{}

// Shrink implements shrink.Engine.
func (DropEngine) Shrink(value any, stillFailing shrink.Check) (shrink.Result, error) {
	xs, ok := value.([]int)
	if !ok {
		return shrink.Result{Data: value}, nil
	}

	iterations := 0
	for len(xs) > 0 {
		candidate := append([]int(nil), xs[:len(xs)-1]...)
		failing, err := stillFailing(candidate)
		if err != nil {
			return shrink.Result{Data: xs, Iterations: iterations}, err
		}
		if !failing {
			break
		}
		xs = candidate
		iterations++
	}
	return shrink.Result{Data: xs, Iterations: iterations}, nil
}

// StepEngine accepts exactly one candidate, value-1, on every call for as
// long as it still fails. It needs one sweep per unit of distance, which
// makes it useful for exercising sweep limits.
type StepEngine struct{}

// Shrink implements shrink.Engine.
func (StepEngine) Shrink(value any, stillFailing shrink.Check) (shrink.Result, error) {
	n, ok := value.(int)
	if !ok || n == 0 {
		return shrink.Result{Data: value}, nil
	}
	failing, err := stillFailing(n - 1)
	if err != nil || !failing {
		return shrink.Result{Data: value}, err
	}
	return shrink.Result{Data: n - 1, Iterations: 1}, nil
}

// ErrorEngine fails every call with Err.
type ErrorEngine struct {
	Err error
}

// Shrink implements shrink.Engine.
func (e ErrorEngine) Shrink(value any, _ shrink.Check) (shrink.Result, error) {
	return shrink.Result{Data: value}, e.Err
}

// Call records one engine invocation.
type Call struct {
	Value any
}

// RecordingEngine delegates to Next and records the value of every call.
type RecordingEngine struct {
	Next  shrink.Engine
	Calls []Call
}

// Shrink implements shrink.Engine.
func (e *RecordingEngine) Shrink(value any, stillFailing shrink.Check) (shrink.Result, error) {
	e.Calls = append(e.Calls, Call{Value: value})
	if e.Next == nil {
		return shrink.Result{Data: value}, nil
	}
	return e.Next.Shrink(value, stillFailing)
}

// CountingProperty counts evaluations of the wrapped property.
type CountingProperty struct {
	property.Property
	Evaluations int
}

// Count wraps p.
func Count(p property.Property) *CountingProperty {
	return &CountingProperty{Property: p}
}

// Holds implements property.Property.
func (c *CountingProperty) Holds(args property.Counterexample) (bool, error) {
	c.Evaluations++
	return c.Property.Holds(args)
}

// Ints converts a tuple of ints for assertions.
func Ints(ce property.Counterexample) []int {
	out := make([]int, len(ce))
	for i, v := range ce {
		n, ok := v.(int)
		if !ok {
			panic(fmt.Sprintf("position %d holds %T, not int", i, v))
		}
		out[i] = n
	}
	return out
}
