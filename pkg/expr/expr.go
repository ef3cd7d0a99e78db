// Package expr compiles textual properties such as "Add(a, b) < 100" into
// property.Property values.
//
// The language is parsed with vulcand/predicate:
//   - Arguments are the identifiers a..z (a is argument 0) or argN.
//   - Comparison operators: == != < > <= >=
//   - Logical operators: && (and), || (or), ! (not)
//   - Functions: Add, Sub, Mul, Div, Mod, Neg, Abs, Min, Max, Len, Sum,
//     Contains, HasPrefix, Sorted
//
// Numbers compare numerically regardless of their Go kind. Evaluation errors
// such as Len of an int are reported as property errors.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/vulcand/predicate"
)

// term evaluates to a value for a given tuple.
type term func(args property.Counterexample) (any, error)

// cond evaluates to a boolean for a given tuple.
type cond func(args property.Counterexample) (bool, error)

// CompileError is returned for expressions that do not parse or do not
// evaluate to a condition.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid property expression %q: %v", e.Source, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Property is a compiled expression.
type Property struct {
	source string
	arity  int
	eval   cond
}

// Arity implements property.Property.
func (p *Property) Arity() int { return p.arity }

// Holds implements property.Property.
func (p *Property) Holds(args property.Counterexample) (bool, error) {
	if len(args) != p.arity {
		return false, fmt.Errorf("expression takes %d arguments, got %d", p.arity, len(args))
	}
	return p.eval(args)
}

// String returns the source expression.
func (p *Property) String() string { return p.source }

// Compile parses source into a property over arity arguments.
func Compile(source string, arity int) (*Property, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &CompileError{Source: source, Err: fmt.Errorf("expression is empty")}
	}

	parser, err := predicate.NewParser(predicate.Def{
		Functions:     functions(),
		Operators:     operators(),
		GetIdentifier: identifiers(arity),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	parsed, err := parser.Parse(source)
	if err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}

	eval, ok := parsed.(cond)
	if !ok {
		return nil, &CompileError{Source: source, Err: fmt.Errorf("expression must evaluate to a boolean condition")}
	}
	return &Property{source: source, arity: arity, eval: eval}, nil
}

// ArgIndex maps an identifier to an argument position, or -1.
func ArgIndex(name string) int {
	if len(name) == 1 && name[0] >= 'a' && name[0] <= 'z' {
		return int(name[0] - 'a')
	}
	if rest, ok := strings.CutPrefix(name, "arg"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return n
		}
	}
	return -1
}

func identifiers(arity int) predicate.GetIdentifierFn {
	return func(selector []string) (interface{}, error) {
		if len(selector) != 1 {
			return nil, fmt.Errorf("unsupported selector %s", strings.Join(selector, "."))
		}
		switch selector[0] {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		i := ArgIndex(selector[0])
		if i < 0 {
			return nil, fmt.Errorf("unknown identifier %q, use a..z or argN", selector[0])
		}
		if i >= arity {
			return nil, fmt.Errorf("identifier %q refers to argument %d but the property takes %d", selector[0], i, arity)
		}
		return term(func(args property.Counterexample) (any, error) {
			return args[i], nil
		}), nil
	}
}

// asTerm lifts literals and conditions into terms.
func asTerm(v any) term {
	switch t := v.(type) {
	case term:
		return t
	case cond:
		return func(args property.Counterexample) (any, error) {
			return t(args)
		}
	default:
		return func(property.Counterexample) (any, error) {
			return v, nil
		}
	}
}

// asCond accepts conditions and boolean-valued terms.
func asCond(v any) cond {
	if c, ok := v.(cond); ok {
		return c
	}
	t := asTerm(v)
	return func(args property.Counterexample) (bool, error) {
		val, err := t(args)
		if err != nil {
			return false, err
		}
		b, ok := val.(bool)
		if !ok {
			return false, fmt.Errorf("expected a boolean, got %T", val)
		}
		return b, nil
	}
}

func operators() predicate.Operators {
	return predicate.Operators{
		EQ:  comparison(func(c int) bool { return c == 0 }, true),
		NEQ: comparison(func(c int) bool { return c != 0 }, true),
		LT:  comparison(func(c int) bool { return c < 0 }, false),
		GT:  comparison(func(c int) bool { return c > 0 }, false),
		LE:  comparison(func(c int) bool { return c <= 0 }, false),
		GE:  comparison(func(c int) bool { return c >= 0 }, false),
		AND: func(a, b interface{}) cond {
			x, y := asCond(a), asCond(b)
			return func(args property.Counterexample) (bool, error) {
				ok, err := x(args)
				if err != nil || !ok {
					return false, err
				}
				return y(args)
			}
		},
		OR: func(a, b interface{}) cond {
			x, y := asCond(a), asCond(b)
			return func(args property.Counterexample) (bool, error) {
				ok, err := x(args)
				if err != nil || ok {
					return ok, err
				}
				return y(args)
			}
		},
		NOT: func(a interface{}) cond {
			x := asCond(a)
			return func(args property.Counterexample) (bool, error) {
				ok, err := x(args)
				return !ok, err
			}
		},
	}
}

// comparison builds a binary operator from a three-way comparison. Equality
// operators fall back to deep equality for values that are not ordered.
func comparison(accept func(int) bool, equality bool) func(a, b interface{}) cond {
	return func(a, b interface{}) cond {
		x, y := asTerm(a), asTerm(b)
		return func(args property.Counterexample) (bool, error) {
			l, err := x(args)
			if err != nil {
				return false, err
			}
			r, err := y(args)
			if err != nil {
				return false, err
			}
			if equality {
				eq, err := equal(l, r)
				if err != nil {
					return false, err
				}
				if eq {
					return accept(0), nil
				}
				return accept(1), nil
			}
			c, err := compare(l, r)
			if err != nil {
				return false, err
			}
			return accept(c), nil
		}
	}
}
