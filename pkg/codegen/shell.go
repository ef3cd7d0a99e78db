package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nomagicln/propshrink/pkg/history"
)

// ShellGenerator generates a propshrink check command line.
type ShellGenerator struct {
	opts Options
}

// NewShellGenerator creates a new shell generator.
func NewShellGenerator(opts Options) *ShellGenerator {
	return &ShellGenerator{opts: opts}
}

// Generate produces a command that re-runs the recorded check.
func (g *ShellGenerator) Generate(r *history.Record) (string, error) {
	if err := validate(r); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("propshrink check")
	buf.WriteString(" \\\n  --expr ")
	buf.WriteString(shellQuote(r.Expression))
	for _, spec := range r.Generators {
		buf.WriteString(" \\\n  --gen ")
		buf.WriteString(shellQuote(spec))
	}
	if r.Name != "" && r.Name != r.Expression {
		buf.WriteString(" \\\n  --name ")
		buf.WriteString(shellQuote(r.Name))
	}
	fmt.Fprintf(&buf, " \\\n  --seed %d", r.Seed)
	if r.Trials > 0 {
		fmt.Fprintf(&buf, " \\\n  --trials %d", r.Trials)
	}
	buf.WriteString("\n")

	return buf.String(), nil
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
