package property

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCounterexampleClone(t *testing.T) {
	orig := Counterexample{1, "two", []int{3}}
	clone := orig.Clone()
	clone[0] = 42

	assert.Equal(t, 1, orig[0])
	assert.Equal(t, 42, clone[0])
	assert.Nil(t, Counterexample(nil).Clone())
}

func TestCounterexampleWith(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.Int(), 1, 20).Draw(t, "values")
		ce := make(Counterexample, len(values))
		for i, v := range values {
			ce[i] = v
		}
		i := rapid.IntRange(0, len(ce)-1).Draw(t, "index")
		v := rapid.Int().Draw(t, "replacement")

		out := ce.With(i, v)
		if len(out) != len(ce) {
			t.Fatalf("length changed: %d -> %d", len(ce), len(out))
		}
		for j := range ce {
			if ce[j] != values[j] {
				t.Fatalf("source mutated at %d", j)
			}
			if j == i && out[j] != v {
				t.Fatalf("position %d = %v, want %v", j, out[j], v)
			}
			if j != i && out[j] != ce[j] {
				t.Fatalf("position %d changed", j)
			}
		}
	})
}

func TestFunc(t *testing.T) {
	p := Func(1, func(args Counterexample) bool { return args[0].(int) < 10 })
	assert.Equal(t, 1, p.Arity())

	ok, err := p.Holds(Counterexample{5})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Holds(Counterexample{50})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFuncPanicBecomesError(t *testing.T) {
	p := Func(1, func(args Counterexample) bool { return args[0].(string) == "" })

	_, err := p.Holds(Counterexample{1})
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
}

func TestFromFunc(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		args    Counterexample
		want    bool
		wantErr bool
	}{
		{
			name: "single int holds",
			fn:   func(n int) bool { return n < 10 },
			args: Counterexample{3},
			want: true,
		},
		{
			name: "two args falsified",
			fn:   func(a, b int) bool { return a+b < 100 },
			args: Counterexample{60, 60},
			want: false,
		},
		{
			name: "numeric conversion",
			fn:   func(n int64) bool { return n == 7 },
			args: Counterexample{7},
			want: true,
		},
		{
			name: "nil becomes zero value",
			fn:   func(p *int) bool { return p == nil },
			args: Counterexample{nil},
			want: true,
		},
		{
			name: "slice argument",
			fn:   func(xs []int) bool { return len(xs) < 3 },
			args: Counterexample{[]int{1, 2, 3}},
			want: false,
		},
		{
			name:    "wrong arity",
			fn:      func(n int) bool { return true },
			args:    Counterexample{1, 2},
			wantErr: true,
		},
		{
			name:    "incompatible argument",
			fn:      func(s string) bool { return true },
			args:    Counterexample{1},
			wantErr: true,
		},
		{
			name:    "error result",
			fn:      func(n int) (bool, error) { return false, errors.New("boom") },
			args:    Counterexample{1},
			wantErr: true,
		},
		{
			name: "zero arguments",
			fn:   func() bool { return false },
			args: Counterexample{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromFunc(tt.fn)
			require.NoError(t, err)

			got, err := p.Holds(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromFuncRejectsBadSignatures(t *testing.T) {
	bad := []any{
		42,
		func(n int) int { return n },
		func(n int) (bool, string) { return true, "" },
		func(ns ...int) bool { return true },
	}
	for _, fn := range bad {
		_, err := FromFunc(fn)
		assert.Error(t, err, "%T", fn)
	}
}

func TestArgumentError(t *testing.T) {
	p := MustFromFunc(func(s string) bool { return true })
	_, err := p.Holds(Counterexample{3.5})

	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, ae.Index)
	assert.Contains(t, ae.Error(), "float64")
}

func TestNumericConversion(t *testing.T) {
	tests := []struct {
		name    string
		fn      any
		arg     any
		want    bool
		wantErr bool
	}{
		{name: "int widens to int64", fn: func(n int64) bool { return n == 300 }, arg: 300, want: true},
		{name: "int fits int8", fn: func(n int8) bool { return n < 10 }, arg: 9, want: true},
		{name: "int overflows int8", fn: func(n int8) bool { return n < 10 }, arg: 300, wantErr: true},
		{name: "int underflows int8", fn: func(n int8) bool { return true }, arg: -129, wantErr: true},
		{name: "negative int to uint", fn: func(n uint) bool { return true }, arg: -1, wantErr: true},
		{name: "large uint64 to int64", fn: func(n int64) bool { return true }, arg: uint64(math.MaxUint64), wantErr: true},
		{name: "uint8 to int", fn: func(n int) bool { return n == 200 }, arg: uint8(200), want: true},
		{name: "fraction to int", fn: func(n int) bool { return n < 10 }, arg: 3.9, wantErr: true},
		{name: "whole float to int", fn: func(n int) bool { return n == 4 }, arg: 4.0, want: true},
		{name: "int to float64", fn: func(f float64) bool { return f == 7 }, arg: 7, want: true},
		{name: "int beyond float64 precision", fn: func(f float64) bool { return true }, arg: int64(1<<53 + 1), wantErr: true},
		{name: "float64 loses precision as float32", fn: func(f float32) bool { return true }, arg: 0.1, wantErr: true},
		{name: "float64 exact as float32", fn: func(f float32) bool { return f == 0.5 }, arg: 0.5, want: true},
		{name: "float64 overflows float32", fn: func(f float32) bool { return true }, arg: 1e300, wantErr: true},
		{name: "NaN stays float", fn: func(f float32) bool { return math.IsNaN(float64(f)) }, arg: math.NaN(), want: true},
		{name: "NaN to int", fn: func(n int) bool { return true }, arg: math.NaN(), wantErr: true},
		{name: "infinity to int", fn: func(n int) bool { return true }, arg: math.Inf(1), wantErr: true},
		{name: "string is not numeric", fn: func(n int) bool { return true }, arg: "7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustFromFunc(tt.fn).Holds(Counterexample{tt.arg})
			if tt.wantErr {
				var ae *ArgumentError
				assert.ErrorAs(t, err, &ae)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
