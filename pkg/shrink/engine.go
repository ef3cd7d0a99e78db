// Package shrink provides the per-value shrinking engine.
//
// An Engine receives a single value and a check telling it whether a
// candidate replacement still falsifies the property under test. It reduces
// the value as far as the check allows and reports how many reductions it
// accepted. The rule-based Shrinker is the default implementation; its rules
// are gopter shrinkers keyed on the value's type.
package shrink

import (
	"math"
	"reflect"

	"github.com/leanovate/gopter"
)

// Result is the outcome of a single Engine.Shrink call.
type Result struct {
	// Data is the most reduced value found. It equals the input when
	// Iterations is zero.
	Data any

	// Iterations counts the accepted reductions.
	Iterations int
}

// Check reports whether candidate still falsifies the property.
type Check func(candidate any) (bool, error)

// Engine reduces one value at a time.
type Engine interface {
	Shrink(value any, stillFailing Check) (Result, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(value any, stillFailing Check) (Result, error)

// Shrink implements Engine.
func (f EngineFunc) Shrink(value any, stillFailing Check) (Result, error) {
	return f(value, stillFailing)
}

// Matcher selects the values a rule applies to.
type Matcher func(t reflect.Type) bool

// Rule is a named, type-specific reduction strategy.
type Rule struct {
	Name     string
	Match    Matcher
	Shrinker gopter.Shrinker
}

// Shrinker is a rule-based Engine. Rules are consulted in registration
// order and the first match wins.
type Shrinker struct {
	rules    []Rule
	maxSteps int
}

// Option configures a Shrinker.
type Option func(*Shrinker)

// WithMaxSteps bounds the number of reductions accepted by a single Shrink
// call. Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(s *Shrinker) {
		s.maxSteps = n
	}
}

// New creates a Shrinker without any rules.
func New(opts ...Option) *Shrinker {
	s := &Shrinker{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultMaxSteps is the per-call bound used by Default unless overridden.
const DefaultMaxSteps = 10000

// Default creates a Shrinker with the default rule set installed and the
// step bound set to DefaultMaxSteps.
func Default(opts ...Option) *Shrinker {
	s := New(append([]Option{WithMaxSteps(DefaultMaxSteps)}, opts...)...)
	s.AddDefaultRules()
	return s
}

// AddRule registers a rule after all existing ones.
func (s *Shrinker) AddRule(name string, match Matcher, shrinker gopter.Shrinker) {
	s.rules = append(s.rules, Rule{Name: name, Match: match, Shrinker: shrinker})
}

// Rules returns the names of the registered rules in lookup order.
func (s *Shrinker) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// MaxSteps returns the per-call reduction bound.
func (s *Shrinker) MaxSteps() int {
	return s.maxSteps
}

// Shrink greedily walks the candidate stream of the current value. The first
// candidate that still fails is accepted and the walk restarts from it.
// Candidates equal to the current value are skipped. The call ends when a
// whole stream is rejected or the step bound is reached.
func (s *Shrinker) Shrink(value any, stillFailing Check) (Result, error) {
	current := value
	iterations := 0

	for s.maxSteps <= 0 || iterations < s.maxSteps {
		next, found, err := s.step(current, stillFailing)
		if err != nil {
			return Result{Data: current, Iterations: iterations}, err
		}
		if !found {
			break
		}
		current = next
		iterations++
	}

	return Result{Data: current, Iterations: iterations}, nil
}

func (s *Shrinker) step(current any, stillFailing Check) (any, bool, error) {
	shrink := s.shrinkerFor(current)(current)
	for {
		candidate, ok := shrink()
		if !ok {
			return nil, false, nil
		}
		if sameValue(candidate, current) {
			continue
		}
		failing, err := stillFailing(candidate)
		if err != nil {
			return nil, false, err
		}
		if failing {
			return candidate, true, nil
		}
	}
}

// sameValue is reflect.DeepEqual, except that NaN equals NaN.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && math.IsNaN(x) && math.IsNaN(y)
	case float32:
		y, ok := b.(float32)
		return ok && math.IsNaN(float64(x)) && math.IsNaN(float64(y))
	}
	return false
}

// shrinkerFor returns the shrinker of the first rule matching the runtime
// type of v, or gopter.NoShrinker.
func (s *Shrinker) shrinkerFor(v any) gopter.Shrinker {
	t := reflect.TypeOf(v)
	if t == nil {
		return gopter.NoShrinker
	}
	for _, r := range s.rules {
		if r.Match(t) {
			return r.Shrinker
		}
	}
	return gopter.NoShrinker
}

// dynamic dispatches on the runtime type of every value it is given. It is
// used as the element shrinker of container rules.
func (s *Shrinker) dynamic(v any) gopter.Shrink {
	return s.shrinkerFor(v)(v)
}
