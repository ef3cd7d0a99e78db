package codegen

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/report"
)

const checkImport = "github.com/nomagicln/propshrink/pkg/check"

// GoGenerator generates a Go regression test that fails while the recorded
// property is still falsified.
type GoGenerator struct {
	opts Options
}

// NewGoGenerator creates a new Go code generator.
func NewGoGenerator(opts Options) *GoGenerator {
	if opts.Package == "" {
		opts.Package = "regression"
	}
	return &GoGenerator{opts: opts}
}

// Generate produces a Go test file for the record.
func (g *GoGenerator) Generate(r *history.Record) (string, error) {
	if err := validate(r); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", g.opts.Package)
	g.writeImports(&buf)
	g.writeDoc(&buf, r)

	name := testName(r)
	fmt.Fprintf(&buf, "func %s(t *testing.T) {\n", name)
	g.writeRequest(&buf, r)
	buf.WriteString("\tif err != nil {\n")
	buf.WriteString("\t\tt.Fatal(err)\n")
	buf.WriteString("\t}\n")
	buf.WriteString("\tif outcome.Falsified() {\n")
	buf.WriteString("\t\tt.Fatalf(\"still falsified by %v\", outcome.Failure.Counterexample)\n")
	buf.WriteString("\t}\n")
	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *GoGenerator) writeImports(buf *bytes.Buffer) {
	buf.WriteString("import (\n")
	buf.WriteString("\t\"context\"\n")
	buf.WriteString("\t\"testing\"\n\n")
	fmt.Fprintf(buf, "\t%q\n", checkImport)
	buf.WriteString(")\n\n")
}

func (g *GoGenerator) writeDoc(buf *bytes.Buffer, r *history.Record) {
	fmt.Fprintf(buf, "// %s replays a recorded failure of %s.\n", testName(r), strconv.Quote(r.Expression))
	buf.WriteString("// Minimized counterexample:\n")
	for i, v := range r.Minimized {
		fmt.Fprintf(buf, "//\tARG_%d: %s\n", i, report.Value(v))
	}
}

func (g *GoGenerator) writeRequest(buf *bytes.Buffer, r *history.Record) {
	buf.WriteString("\toutcome, err := check.Run(context.Background(), check.Request{\n")
	if r.Name != "" {
		fmt.Fprintf(buf, "\t\tName:       %s,\n", strconv.Quote(r.Name))
	}
	fmt.Fprintf(buf, "\t\tExpression: %s,\n", strconv.Quote(r.Expression))
	buf.WriteString("\t\tGenerators: []string{")
	for i, spec := range r.Generators {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.Quote(spec))
	}
	buf.WriteString("},\n")
	fmt.Fprintf(buf, "\t\tSeed:       %d,\n", r.Seed)
	if r.Trials > 0 {
		fmt.Fprintf(buf, "\t\tTrials:     %d,\n", r.Trials)
	}
	if r.MinSize > 0 || r.MaxSize > 0 {
		fmt.Fprintf(buf, "\t\tMinSize:    %d,\n", r.MinSize)
		fmt.Fprintf(buf, "\t\tMaxSize:    %d,\n", r.MaxSize)
	}
	buf.WriteString("\t})\n")
}
