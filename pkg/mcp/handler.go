package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nomagicln/propshrink/internal/logging"
	"github.com/nomagicln/propshrink/pkg/check"
	"github.com/nomagicln/propshrink/pkg/expr"
	"github.com/nomagicln/propshrink/pkg/gens"
	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/nomagicln/propshrink/pkg/report"
	"github.com/nomagicln/propshrink/pkg/runner"
)

// ToolMinimize is the name of the minimization tool.
const ToolMinimize = "minimize_counterexample"

const minimizeToolDescTemplate = `Check a property against random inputs and, when it fails, shrink the failing input to a minimal counterexample.

The property is an expression over the arguments a, b, c, ... (one per generator, in order).
Operators: == != < > <= >= && || !
Functions:{{range .Functions}}
  {{index . 0}}: {{index . 1}}{{end}}

Generators:{{range .Generators}}
  {{index . 0}}: {{index . 1}}{{end}}

Example: {"expression": "Add(a, b) < 100", "generators": ["int(0,100)", "int(0,100)"]}

Returns a report in which ARG_i is the minimized argument and ARG_i_ORIGINAL the argument as first generated, followed by a JSON summary.`

// Recorder stores minimized failures.
type Recorder interface {
	Save(ctx context.Context, r *history.Record) error
}

// MinimizeHandler serves the minimize_counterexample tool.
type MinimizeHandler struct {
	defaults check.Request
	recorder Recorder
}

// NewMinimizeHandler creates a handler. defaults supplies the run settings
// a call does not override. recorder may be nil.
func NewMinimizeHandler(defaults check.Request, recorder Recorder) *MinimizeHandler {
	return &MinimizeHandler{defaults: defaults, recorder: recorder}
}

// Register registers the tool with the MCP server.
func (h *MinimizeHandler) Register(s *mcp.Server) {
	tool := h.buildToolDefinition()
	s.AddTool(&tool, h.handleMinimize)
}

func (h *MinimizeHandler) buildToolDefinition() mcp.Tool {
	description := "Check a property and minimize its counterexample"

	tpl, err := template.New("minimizeToolDesc").Parse(minimizeToolDescTemplate)
	if err == nil {
		var buf bytes.Buffer
		data := map[string]any{
			"Functions":  expr.Functions(),
			"Generators": gens.Names(),
		}
		if err := tpl.Execute(&buf, data); err == nil {
			description = buf.String()
		}
	}

	return mcp.Tool{
		Name:        ToolMinimize,
		Description: description,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{
					"type":        "string",
					"description": "Property expression that should hold, e.g. \"a < 10\"",
				},
				"generators": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "One generator spec per argument, e.g. [\"int\", \"[]string\"]",
				},
				"trials": map[string]any{
					"type":        "integer",
					"description": "Number of passing tests required (optional)",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Random seed for a reproducible run (optional)",
				},
				"name": map[string]any{
					"type":        "string",
					"description": "Name used in the report (optional)",
				},
			},
			"required": []string{"expression", "generators"},
		},
	}
}

type minimizeArgs struct {
	Expression string   `json:"expression"`
	Generators []string `json:"generators"`
	Trials     int      `json:"trials"`
	Seed       int64    `json:"seed"`
	Name       string   `json:"name"`
}

// Summary is the machine-readable part of a tool result.
type Summary struct {
	Status         string `json:"status"`
	Passed         int    `json:"passed"`
	Discarded      int    `json:"discarded"`
	Seed           int64  `json:"seed"`
	Counterexample []any  `json:"counterexample,omitempty"`
	Original       []any  `json:"original,omitempty"`
	Shrinks        int    `json:"shrinks"`
	GaveUp         bool   `json:"gave_up"`
	RecordID       string `json:"record_id,omitempty"`
}

func (h *MinimizeHandler) handleMinimize(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args minimizeArgs
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult("Invalid arguments: %v", err), nil
		}
	}
	if strings.TrimSpace(args.Expression) == "" {
		return errorResult("expression is required"), nil
	}
	if len(args.Generators) == 0 {
		return errorResult("generators is required"), nil
	}

	r := h.defaults
	r.Name = args.Name
	r.Expression = args.Expression
	r.Generators = args.Generators
	if args.Trials > 0 {
		r.Trials = args.Trials
	}
	if args.Seed != 0 {
		r.Seed = args.Seed
	}

	outcome, err := check.Run(ctx, r)
	if err != nil {
		return errorResult("%s", report.NewErrorFormatter().FormatError(err)), nil
	}

	summary := summarize(outcome)
	if outcome.Falsified() && h.recorder != nil {
		rec, err := check.Record(r, outcome)
		if err == nil {
			err = h.recorder.Save(ctx, rec)
		}
		if err != nil {
			logging.Logger(ctx).WithError(err).Warn("failed to record failure")
		} else {
			summary.RecordID = rec.ID
		}
	}

	content := []mcp.Content{
		&mcp.TextContent{Text: report.Format(r.DisplayName(), outcome, report.NewStyles(io.Discard, false))},
	}
	if data, err := json.MarshalIndent(summary, "", "  "); err == nil {
		content = append(content, &mcp.TextContent{Text: string(data)})
	}

	return &mcp.CallToolResult{Content: content}, nil
}

func summarize(o *runner.Outcome) Summary {
	s := Summary{
		Status:    o.Status.String(),
		Passed:    o.Passed,
		Discarded: o.Discarded,
		Seed:      o.Seed,
	}
	if f := o.Failure; f != nil {
		s.Counterexample = jsonValues(f.Counterexample)
		if f.Shrunk {
			s.Original = jsonValues(f.Original)
		}
		s.Shrinks = f.Shrinks
		s.GaveUp = f.GaveUp
	}
	return s
}

// jsonValues replaces values JSON cannot carry with their printed form.
func jsonValues(ce property.Counterexample) []any {
	out := make([]any, len(ce))
	for i, v := range ce {
		if _, err := json.Marshal(v); err != nil {
			out[i] = fmt.Sprint(v)
			continue
		}
		out[i] = v
	}
	return out
}

// errorResult builds a tool result flagged as an error.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}
