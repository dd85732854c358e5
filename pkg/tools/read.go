package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

type readArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"` // 1-based first line, 0 means start
	Limit  int    `json:"limit"`  // max lines, 0 means the cap
}

// read returns numbered lines from a text file, clamped to the line and
// character caps. Output cut short by either cap carries a continuation
// notice naming the next offset.
func (tb *Toolbox) read(raw json.RawMessage) wire.ToolResult {
	var args readArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid read args: "+err.Error())
	}
	if strings.TrimSpace(args.Path) == "" {
		return failure(wire.CodeInvalidArgs, "read: path is required")
	}
	if args.Offset < 0 {
		return failure(wire.CodeInvalidArgs, "read: offset must be >= 1")
	}

	resolved, err := tb.paths.Resolve(args.Path, false)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failure(wire.CodeNotFound, "file not found: "+args.Path)
		}
		return failure(wire.CodeExecutionError, "read: "+err.Error())
	}

	// Null byte in the head marks a binary file; report its size
	// instead of emitting raw bytes.
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return status(fmt.Sprintf("binary file: %d bytes", len(data)))
	}

	lines := splitLines(string(data))
	total := len(lines)

	offset := args.Offset
	if offset < 1 {
		offset = 1
	}
	if offset > total {
		return success(fmt.Sprintf("(file has %d lines; offset %d is past the end)", total, offset), wire.ProvenanceUser)
	}

	limit := args.Limit
	if limit <= 0 || limit > tb.limits.MaxReadLines {
		limit = tb.limits.MaxReadLines
	}
	end := offset - 1 + limit
	if end > total {
		end = total
	}

	var b strings.Builder
	rendered := 0
	for i := offset - 1; i < end; i++ {
		line := fmt.Sprintf("%6d\t%s\n", i+1, lines[i])
		// The character cap trims back to the last full line.
		if b.Len()+len(line) > tb.limits.MaxReadBytes && rendered > 0 {
			break
		}
		b.WriteString(line)
		rendered++
	}

	nextOffset := offset + rendered
	output := strings.TrimRight(b.String(), "\n")
	if nextOffset <= total {
		output += fmt.Sprintf("\n... (%d more lines; continue with offset=%d)", total-nextOffset+1, nextOffset)
	}
	return success(output, wire.ProvenanceUser)
}

// splitLines splits file content on newlines, dropping the artifact
// empty element a trailing newline produces.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
