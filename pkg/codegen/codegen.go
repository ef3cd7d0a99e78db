// Package codegen turns recorded failures into reproducers: a shell command,
// a Go regression test or an MCP tool call.
package codegen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nomagicln/propshrink/pkg/history"
)

// OutputFormat represents the target language/tool for code generation.
type OutputFormat string

const (
	FormatShell OutputFormat = "shell"
	FormatGo    OutputFormat = "go"
	FormatMCP   OutputFormat = "mcp"
)

// Options contains configuration for code generation.
type Options struct {
	// Package is the package clause of generated Go code.
	Package string
}

// Generator produces a reproducer for a recorded failure.
type Generator interface {
	Generate(r *history.Record) (string, error)
}

// GeneratorFactory is a function type that creates a new Generator instance.
type GeneratorFactory func(opts Options) Generator

// registry maps output formats to their corresponding generator factories.
var registry = make(map[OutputFormat]GeneratorFactory)

func init() {
	register(FormatShell, func(opts Options) Generator {
		return NewShellGenerator(opts)
	})
	register(FormatGo, func(opts Options) Generator {
		return NewGoGenerator(opts)
	})
	register(FormatMCP, func(opts Options) Generator {
		return NewMCPGenerator(opts)
	})
}

func register(format OutputFormat, factory GeneratorFactory) {
	if factory == nil {
		panic(fmt.Sprintf("generator factory for format %s cannot be nil", format))
	}
	registry[format] = factory
}

// NewGenerator creates a new code generator for the specified format.
func NewGenerator(format OutputFormat, opts Options) (Generator, error) {
	factory, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s (want %s)", format, strings.Join(ListFormats(), ", "))
	}
	return factory(opts), nil
}

// ValidateFormat checks if the given format is valid.
func ValidateFormat(format string) bool {
	_, ok := registry[OutputFormat(format)]
	return ok
}

// ListFormats returns all registered output formats, sorted.
func ListFormats() []string {
	formats := make([]string, 0, len(registry))
	for format := range registry {
		formats = append(formats, string(format))
	}
	sort.Strings(formats)
	return formats
}

func validate(r *history.Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if r.Expression == "" || len(r.Generators) == 0 {
		return fmt.Errorf("record %s has no expression or generators", r.ID)
	}
	return nil
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// testName derives an exported test function name from the record.
func testName(r *history.Record) string {
	id := nonIdent.ReplaceAllString(r.ID, "")
	if len(id) > 8 {
		id = id[:8]
	}
	var sb strings.Builder
	sb.WriteString("TestRegression")
	for _, word := range nonIdent.Split(r.Name, -1) {
		if word == "" || sb.Len() > 48 {
			continue
		}
		sb.WriteString(strings.ToUpper(word[:1]))
		sb.WriteString(word[1:])
	}
	if id != "" {
		sb.WriteString("_")
		sb.WriteString(id)
	}
	return sb.String()
}
