// Package property defines the predicates under test and the argument tuples
// they are evaluated on.
package property

import (
	"fmt"
	"math"
	"reflect"
)

// Counterexample is an ordered tuple of argument values. Position i always
// holds the value for argument i of the property.
type Counterexample []any

// Clone returns an independent copy of the tuple.
func (c Counterexample) Clone() Counterexample {
	if c == nil {
		return nil
	}
	out := make(Counterexample, len(c))
	copy(out, c)
	return out
}

// With returns a copy of the tuple with position i replaced by v.
func (c Counterexample) With(i int, v any) Counterexample {
	out := c.Clone()
	out[i] = v
	return out
}

// Property is a predicate over a fixed number of positional values.
// Holds reports true when the property is satisfied and false when the
// arguments falsify it. A non-nil error means the property itself failed.
type Property interface {
	Arity() int
	Holds(args Counterexample) (bool, error)
}

type funcProperty struct {
	arity int
	fn    func(Counterexample) bool
}

// Func adapts a plain function over the tuple into a Property.
func Func(arity int, fn func(Counterexample) bool) Property {
	return &funcProperty{arity: arity, fn: fn}
}

func (p *funcProperty) Arity() int { return p.arity }

func (p *funcProperty) Holds(args Counterexample) (ok bool, err error) {
	defer recoverInto(&err)
	return p.fn(args), nil
}

// PanicError is returned when a property panics during evaluation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("property panicked: %v", e.Value)
}

// ArgumentError is returned when a value cannot be passed to a parameter.
type ArgumentError struct {
	Index int
	Want  reflect.Type
	Got   any
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d: cannot use %T as %s", e.Index, e.Got, e.Want)
}

var (
	boolType  = reflect.TypeOf(false)
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

type reflectProperty struct {
	fn     reflect.Value
	params []reflect.Type
	hasErr bool
}

// FromFunc wraps any function returning bool or (bool, error) as a Property.
// Arguments are passed positionally; a nil value becomes the zero value of
// the parameter type.
func FromFunc(fn any) (Property, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("property must be a function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic properties are not supported")
	}

	switch {
	case t.NumOut() == 1 && t.Out(0) == boolType:
	case t.NumOut() == 2 && t.Out(0) == boolType && t.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("property must return bool or (bool, error), got %s", t)
	}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}
	return &reflectProperty{fn: v, params: params, hasErr: t.NumOut() == 2}, nil
}

// MustFromFunc is like FromFunc but panics on error.
func MustFromFunc(fn any) Property {
	p, err := FromFunc(fn)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *reflectProperty) Arity() int { return len(p.params) }

func (p *reflectProperty) Holds(args Counterexample) (ok bool, err error) {
	if len(args) != len(p.params) {
		return false, fmt.Errorf("property takes %d arguments, got %d", len(p.params), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := p.params[i]
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(want) {
			cv, ok := convertNumeric(av, want)
			if !ok {
				return false, &ArgumentError{Index: i, Want: want, Got: arg}
			}
			av = cv
		}
		in[i] = av
	}

	defer recoverInto(&err)
	out := p.fn.Call(in)
	if p.hasErr && !out[1].IsNil() {
		return false, out[1].Interface().(error)
	}
	return out[0].Bool(), nil
}

// convertNumeric converts between numeric kinds when the value survives the
// conversion unchanged. Overflow, truncated fractions, sign flips and lost
// float precision are all rejected, as are non-numeric kinds.
func convertNumeric(v reflect.Value, want reflect.Type) (reflect.Value, bool) {
	if !isNumeric(v.Kind()) || !isNumeric(want.Kind()) || !v.Type().ConvertibleTo(want) {
		return v, false
	}
	if isFloat(v.Kind()) && math.IsNaN(v.Float()) {
		if !isFloat(want.Kind()) {
			return v, false
		}
		return v.Convert(want), true
	}

	out := v.Convert(want)
	if negative(v) != negative(out) {
		return v, false
	}
	back := out.Convert(v.Type())
	return out, back.Interface() == v.Interface()
}

func negative(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() < 0
	case v.CanFloat():
		return v.Float() < 0
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = &PanicError{Value: r}
	}
}
