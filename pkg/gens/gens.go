// Package gens resolves short textual generator specs such as "int",
// "int(0,100)" or "[]string" into gopter generators.
package gens

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// UnknownGeneratorError is returned for specs that name no generator.
type UnknownGeneratorError struct {
	Spec string
}

func (e *UnknownGeneratorError) Error() string {
	return fmt.Sprintf("unknown generator: %s", e.Spec)
}

type entry struct {
	description string
	gen         func() gopter.Gen
}

var scalars = map[string]entry{
	"int":    {"any int", gen.Int},
	"int64":  {"any int64", gen.Int64},
	"uint":   {"any uint", gen.UInt},
	"float":  {"any float64", gen.Float64},
	"bool":   {"true or false", gen.Bool},
	"string": {"any unicode string", gen.AnyString},
	"alpha":  {"alphabetic string", gen.AlphaString},
	"ident":  {"identifier (letter followed by letters or digits)", gen.Identifier},
}

// Names returns the scalar generator names with their descriptions, sorted
// by name, followed by the composite forms.
func Names() [][2]string {
	names := make([]string, 0, len(scalars))
	for name := range scalars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([][2]string, 0, len(names)+3)
	for _, name := range names {
		out = append(out, [2]string{name, scalars[name].description})
	}
	out = append(out,
		[2]string{"int(lo,hi)", "int in [lo, hi]"},
		[2]string{"[]<spec>", "slice of <spec>"},
		[2]string{"map[<spec>]<spec>", "map from key spec to value spec"},
	)
	return out
}

// Parse resolves one spec.
func Parse(spec string) (gopter.Gen, error) {
	g, rest, err := parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, &UnknownGeneratorError{Spec: spec}
	}
	return g, nil
}

// ParseAll resolves one spec per property argument.
func ParseAll(specs []string) ([]gopter.Gen, error) {
	out := make([]gopter.Gen, len(specs))
	for i, spec := range specs {
		g, err := Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
		out[i] = g
	}
	return out, nil
}

// parse consumes one spec from the front of s and returns the remainder.
func parse(s string) (gopter.Gen, string, error) {
	switch {
	case strings.HasPrefix(s, "[]"):
		elem, rest, err := parse(s[2:])
		if err != nil {
			return nil, "", err
		}
		return gen.SliceOf(elem), rest, nil

	case strings.HasPrefix(s, "map["):
		key, rest, err := parse(s[4:])
		if err != nil {
			return nil, "", err
		}
		if !strings.HasPrefix(rest, "]") {
			return nil, "", &UnknownGeneratorError{Spec: s}
		}
		value, rest, err := parse(rest[1:])
		if err != nil {
			return nil, "", err
		}
		return gen.MapOf(key, value), rest, nil

	case strings.HasPrefix(s, "int("):
		end := strings.IndexByte(s, ')')
		if end < 0 {
			return nil, "", &UnknownGeneratorError{Spec: s}
		}
		lo, hi, err := parseRange(s[4:end])
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", s[:end+1], err)
		}
		return gen.IntRange(lo, hi), s[end+1:], nil
	}

	name := s
	if i := strings.IndexAny(s, "]"); i >= 0 {
		name = s[:i]
	}
	e, ok := scalars[name]
	if !ok {
		return nil, "", &UnknownGeneratorError{Spec: s}
	}
	return e.gen(), s[len(name):], nil
}

func parseRange(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range needs two bounds")
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lower bound: %w", err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid upper bound: %w", err)
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("lower bound %d is above upper bound %d", lo, hi)
	}
	return lo, hi, nil
}
