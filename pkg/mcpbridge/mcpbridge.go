// Package mcpbridge exposes the toolbox over the Model Context Protocol
// as an alternative serving surface. Orchestrators that speak MCP
// instead of the framed stdio protocol get the same executors with the
// same confinement; only the envelope differs.
package mcpbridge

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/werkbank/pkg/tools"
	"github.com/rhuss/werkbank/pkg/wire"
)

// Input shapes mirror the stdio protocol's tool args.

type BashInput struct {
	Command   string `json:"command" jsonschema_description:"The shell pipeline to run"`
	TimeoutMs int    `json:"timeoutMs,omitempty" jsonschema_description:"Wall-clock timeout in milliseconds"`
}

type ReadInput struct {
	Path   string `json:"path" jsonschema_description:"File to read, relative to an approved root"`
	Offset int    `json:"offset,omitempty" jsonschema_description:"1-based first line to return"`
	Limit  int    `json:"limit,omitempty" jsonschema_description:"Maximum number of lines"`
}

type WriteInput struct {
	Path    string `json:"path" jsonschema_description:"File to write under the workspace root"`
	Content string `json:"content" jsonschema_description:"Content to persist"`
}

type ListInput struct {
	Path      string `json:"path,omitempty" jsonschema_description:"Directory to list, default workspace root"`
	Recursive bool   `json:"recursive,omitempty" jsonschema_description:"Walk the whole subtree"`
}

type GlobInput struct {
	Pattern string `json:"pattern" jsonschema_description:"Wildcard pattern, ** crosses directories"`
	Path    string `json:"path,omitempty" jsonschema_description:"Base directory, default workspace root"`
}

type GrepInput struct {
	Pattern string `json:"pattern" jsonschema_description:"Regular expression to search for"`
	Path    string `json:"path,omitempty" jsonschema_description:"Base directory, default workspace root"`
	Glob    string `json:"glob,omitempty" jsonschema_description:"Optional filename filter"`
}

type PatchInput struct {
	Path    string `json:"path" jsonschema_description:"File to modify"`
	OldText string `json:"oldText" jsonschema_description:"Exact text to replace, must occur once"`
	NewText string `json:"newText" jsonschema_description:"Replacement text"`
}

// NewServer builds an MCP server wrapping the toolbox.
func NewServer(tb *tools.Toolbox, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "werkbank", Version: version},
		nil,
	)

	addTool(server, tb, tools.ToolBash,
		"Runs an allowlisted shell pipeline in the workspace",
		func(in BashInput) int { return in.TimeoutMs })
	addTool[ReadInput](server, tb, tools.ToolRead,
		"Reads a text file with numbered lines", nil)
	addTool[WriteInput](server, tb, tools.ToolWrite,
		"Writes a file under the workspace root", nil)
	addTool[ListInput](server, tb, tools.ToolList,
		"Lists directory entries", nil)
	addTool[GlobInput](server, tb, tools.ToolGlob,
		"Finds files by wildcard pattern, newest first", nil)
	addTool[GrepInput](server, tb, tools.ToolGrep,
		"Searches file contents by regular expression", nil)
	addTool[PatchInput](server, tb, tools.ToolPatch,
		"Replaces one unique occurrence of text in a file", nil)

	return server
}

// Handler wraps the server in the streamable HTTP transport.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}

// addTool registers one executor, re-marshaling the typed input into the
// raw args the toolbox dispatch expects.
func addTool[T any](server *mcp.Server, tb *tools.Toolbox, name, description string, timeoutOf func(T) int) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input T) (*mcp.CallToolResult, struct{}, error) {
		raw, err := json.Marshal(input)
		if err != nil {
			return nil, struct{}{}, err
		}
		timeoutMs := 0
		if timeoutOf != nil {
			timeoutMs = timeoutOf(input)
		}
		result := tb.Execute(ctx, name, raw, timeoutMs)
		return toCallResult(result), struct{}{}, nil
	})
}

// toCallResult maps a ToolResult onto the MCP result envelope. Failures
// become IsError results rather than protocol errors so the calling
// model sees the diagnostic text.
func toCallResult(result wire.ToolResult) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: !result.OK,
		Content: []mcp.Content{
			&mcp.TextContent{Text: result.Output},
		},
	}
}
