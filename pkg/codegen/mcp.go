package codegen

import (
	"encoding/json"
	"fmt"

	"github.com/nomagicln/propshrink/pkg/history"
	"github.com/nomagicln/propshrink/pkg/mcp"
)

// MCPGenerator generates the tools/call parameters that re-run a record
// through the MCP server.
type MCPGenerator struct {
	opts Options
}

// NewMCPGenerator creates a new MCP call generator.
func NewMCPGenerator(opts Options) *MCPGenerator {
	return &MCPGenerator{opts: opts}
}

type toolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Generate produces indented JSON for a tools/call request.
func (g *MCPGenerator) Generate(r *history.Record) (string, error) {
	if err := validate(r); err != nil {
		return "", err
	}

	args := map[string]any{
		"expression": r.Expression,
		"generators": r.Generators,
		"seed":       r.Seed,
	}
	if r.Trials > 0 {
		args["trials"] = r.Trials
	}
	if r.Name != "" {
		args["name"] = r.Name
	}

	data, err := json.MarshalIndent(toolCall{Name: mcp.ToolMinimize, Arguments: args}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tool call: %w", err)
	}
	return string(data) + "\n", nil
}
