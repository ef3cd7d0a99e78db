package expr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/nomagicln/propshrink/pkg/property"
)

// Function names available in expressions, in the order they are listed by
// the rules command.
var functionDocs = [][2]string{
	{"Add(x, y)", "x + y"},
	{"Sub(x, y)", "x - y"},
	{"Mul(x, y)", "x * y"},
	{"Div(x, y)", "x / y, integer division for integers"},
	{"Mod(x, y)", "x % y for integers"},
	{"Neg(x)", "-x"},
	{"Abs(x)", "|x|"},
	{"Min(x, y)", "smaller of x and y"},
	{"Max(x, y)", "larger of x and y"},
	{"Len(x)", "length of a string, slice or map"},
	{"Sum(xs)", "sum of a numeric slice"},
	{"Contains(x, y)", "substring or element membership"},
	{"HasPrefix(s, p)", "string prefix test"},
	{"Sorted(xs)", "slice is in ascending order"},
}

// Functions describes the functions available in expressions.
func Functions() [][2]string {
	out := make([][2]string, len(functionDocs))
	copy(out, functionDocs)
	return out
}

// Integer arithmetic that would overflow int64 is carried out in float64.
func functions() map[string]any {
	return map[string]any{
		"Add":       arith("Add", addInt, func(a, b float64) float64 { return a + b }),
		"Sub":       arith("Sub", subInt, func(a, b float64) float64 { return a - b }),
		"Mul":       arith("Mul", mulInt, func(a, b float64) float64 { return a * b }),
		"Div":       arith("Div", divInt, func(a, b float64) float64 { return a / b }),
		"Mod":       arith("Mod", modInt, math.Mod),
		"Neg":       unary("Neg", negInt, func(f float64) float64 { return -f }),
		"Abs":       unary("Abs", absInt, math.Abs),
		"Min":       extreme(func(c int) bool { return c <= 0 }),
		"Max":       extreme(func(c int) bool { return c >= 0 }),
		"Len":       lenOf,
		"Sum":       sumOf,
		"Contains":  containsOf,
		"HasPrefix": hasPrefixOf,
		"Sorted":    sortedOf,
	}
}

// errOverflow makes arith redo an integer operation in float64.
var errOverflow = errors.New("integer overflow")

func addInt(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, errOverflow
	}
	return s, nil
}

func subInt(a, b int64) (int64, error) {
	s := a - b
	if (b > 0 && s > a) || (b < 0 && s < a) {
		return 0, errOverflow
	}
	return s, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errOverflow
	}
	p := a * b
	if p/b != a {
		return 0, errOverflow
	}
	return p, nil
}

func divInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return 0, errOverflow
	}
	return a / b, nil
}

func modInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return a % b, nil
}

func negInt(n int64) (int64, bool) {
	if n == math.MinInt64 {
		return 0, false
	}
	return -n, true
}

func absInt(n int64) (int64, bool) {
	if n < 0 {
		return negInt(n)
	}
	return n, true
}

func arith(name string, ints func(a, b int64) (int64, error), floats func(a, b float64) float64) func(a, b interface{}) term {
	return func(a, b interface{}) term {
		x, y := asTerm(a), asTerm(b)
		return func(args property.Counterexample) (any, error) {
			l, r, err := both(x, y, args)
			if err != nil {
				return nil, err
			}
			ln, lok := toNumber(l)
			rn, rok := toNumber(r)
			if !lok || !rok {
				return nil, fmt.Errorf("%s: expected numbers, got %T and %T", name, l, r)
			}
			if ln.isInt && rn.isInt {
				v, err := ints(ln.i, rn.i)
				if !errors.Is(err, errOverflow) {
					return v, err
				}
			}
			return floats(ln.float(), rn.float()), nil
		}
	}
}

func unary(name string, ints func(int64) (int64, bool), floats func(float64) float64) func(a interface{}) term {
	return func(a interface{}) term {
		x := asTerm(a)
		return func(args property.Counterexample) (any, error) {
			v, err := x(args)
			if err != nil {
				return nil, err
			}
			n, ok := toNumber(v)
			if !ok {
				return nil, fmt.Errorf("%s: expected a number, got %T", name, v)
			}
			if n.isInt {
				if v, ok := ints(n.i); ok {
					return v, nil
				}
			}
			return floats(n.float()), nil
		}
	}
}

func extreme(pickLeft func(int) bool) func(a, b interface{}) term {
	return func(a, b interface{}) term {
		x, y := asTerm(a), asTerm(b)
		return func(args property.Counterexample) (any, error) {
			l, r, err := both(x, y, args)
			if err != nil {
				return nil, err
			}
			c, err := compare(l, r)
			if err != nil {
				return nil, err
			}
			if pickLeft(c) {
				return l, nil
			}
			return r, nil
		}
	}
}

func lenOf(a interface{}) term {
	x := asTerm(a)
	return func(args property.Counterexample) (any, error) {
		v, err := x(args)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return int64(rv.Len()), nil
		case reflect.Invalid:
			return int64(0), nil
		}
		return nil, fmt.Errorf("Len: unsupported type %T", v)
	}
}

func sumOf(a interface{}) term {
	x := asTerm(a)
	return func(args property.Counterexample) (any, error) {
		v, err := x(args)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("Sum: expected a slice, got %T", v)
		}
		total := number{isInt: true}
		for i := 0; i < rv.Len(); i++ {
			n, ok := toNumber(rv.Index(i).Interface())
			if !ok {
				return nil, fmt.Errorf("Sum: element %d is %s, not a number", i, rv.Index(i).Type())
			}
			total = total.add(n)
		}
		return total.value(), nil
	}
}

func containsOf(a, b interface{}) cond {
	x, y := asTerm(a), asTerm(b)
	return func(args property.Counterexample) (bool, error) {
		haystack, needle, err := both(x, y, args)
		if err != nil {
			return false, err
		}
		if s, ok := haystack.(string); ok {
			sub, ok := needle.(string)
			if !ok {
				return false, fmt.Errorf("Contains: cannot search a string for %T", needle)
			}
			return strings.Contains(s, sub), nil
		}
		rv := reflect.ValueOf(haystack)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				eq, err := equal(rv.Index(i).Interface(), needle)
				if err != nil {
					return false, err
				}
				if eq {
					return true, nil
				}
			}
			return false, nil
		case reflect.Map:
			for _, k := range rv.MapKeys() {
				if eq, _ := equal(k.Interface(), needle); eq {
					return true, nil
				}
			}
			return false, nil
		}
		return false, fmt.Errorf("Contains: unsupported type %T", haystack)
	}
}

func hasPrefixOf(a, b interface{}) cond {
	x, y := asTerm(a), asTerm(b)
	return func(args property.Counterexample) (bool, error) {
		l, r, err := both(x, y, args)
		if err != nil {
			return false, err
		}
		s, ok1 := l.(string)
		p, ok2 := r.(string)
		if !ok1 || !ok2 {
			return false, fmt.Errorf("HasPrefix: expected strings, got %T and %T", l, r)
		}
		return strings.HasPrefix(s, p), nil
	}
}

func sortedOf(a interface{}) cond {
	x := asTerm(a)
	return func(args property.Counterexample) (bool, error) {
		v, err := x(args)
		if err != nil {
			return false, err
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false, fmt.Errorf("Sorted: expected a slice, got %T", v)
		}
		for i := 1; i < rv.Len(); i++ {
			c, err := compare(rv.Index(i-1).Interface(), rv.Index(i).Interface())
			if err != nil {
				return false, err
			}
			if c > 0 {
				return false, nil
			}
		}
		return true, nil
	}
}

func both(x, y term, args property.Counterexample) (any, any, error) {
	l, err := x(args)
	if err != nil {
		return nil, nil, err
	}
	r, err := y(args)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}
