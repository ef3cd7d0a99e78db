package expr

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
)

// number holds any Go numeric value. Unsigned values above MaxInt64 are
// carried as floats.
type number struct {
	isInt bool
	i     int64
	f     float64
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n number) add(o number) number {
	if n.isInt && o.isInt {
		if s, err := addInt(n.i, o.i); err == nil {
			return number{isInt: true, i: s}
		}
	}
	return number{f: n.float() + o.float()}
}

func (n number) value() any {
	if n.isInt {
		return n.i
	}
	return n.f
}

func toNumber(v any) (number, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{isInt: true, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return number{f: float64(u)}, true
		}
		return number{isInt: true, i: int64(u)}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float()}, true
	}
	return number{}, false
}

// compare orders numbers numerically and strings lexically.
func compare(a, b any) (int, error) {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		if an.isInt && bn.isInt {
			return cmp.Compare(an.i, bn.i), nil
		}
		return cmp.Compare(an.float(), bn.float()), nil
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return cmp.Compare(as, bs), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// equal compares numbers numerically and everything else deeply.
func equal(a, b any) (bool, error) {
	_, aok := toNumber(a)
	_, bok := toNumber(b)
	if aok && bok {
		c, err := compare(a, b)
		return c == 0, err
	}
	return reflect.DeepEqual(a, b), nil
}
