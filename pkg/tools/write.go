package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

type writeArgs struct {
	Path    string          `json:"path"`
	Content json.RawMessage `json:"content"`
}

// write persists content under the workspace root, creating parent
// directories as needed. Credential placeholders are never substituted
// here: file content keeps its tokens, so secrets never reach durable
// storage. Structured content is serialized pretty-printed.
func (tb *Toolbox) write(raw json.RawMessage) wire.ToolResult {
	var args writeArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid write args: "+err.Error())
	}
	if strings.TrimSpace(args.Path) == "" {
		return failure(wire.CodeInvalidArgs, "write: path is required")
	}
	if len(args.Content) == 0 || string(args.Content) == "null" {
		return failure(wire.CodeInvalidArgs, "write: content is required")
	}

	content, err := renderContent(args.Content)
	if err != nil {
		return failure(wire.CodeInvalidArgs, "write: "+err.Error())
	}

	resolved, err := tb.paths.Resolve(args.Path, true)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return failure(wire.CodeExecutionError, "write: "+err.Error())
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return failure(wire.CodeExecutionError, "write: "+err.Error())
	}

	return status(fmt.Sprintf("wrote %d bytes to %s", len(content), args.Path))
}

// renderContent accepts either a raw string or any structured JSON
// value, which is re-serialized with indentation.
func renderContent(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", fmt.Errorf("content must be a string or a JSON value: %w", err)
	}
	return buf.String(), nil
}
