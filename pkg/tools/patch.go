package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

type patchArgs struct {
	Path    string `json:"path"`
	OldText string `json:"oldText"`
	NewText string `json:"newText"`
}

// patch replaces one unique occurrence of oldText with newText. Zero
// occurrences is a non-retryable not_found; two or more is retryable,
// since adding surrounding context can disambiguate. The search is
// exact first, then falls back to a whitespace-tolerant line match.
func (tb *Toolbox) patch(raw json.RawMessage) wire.ToolResult {
	var args patchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid patch args: "+err.Error())
	}
	if strings.TrimSpace(args.Path) == "" {
		return failure(wire.CodeInvalidArgs, "patch: path is required")
	}
	if args.OldText == "" {
		return failure(wire.CodeInvalidArgs, "patch: oldText is required")
	}

	resolved, err := tb.paths.Resolve(args.Path, true)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failure(wire.CodeNotFound, "file not found: "+args.Path)
		}
		return failure(wire.CodeExecutionError, "patch: "+err.Error())
	}
	content := string(data)

	patched, count := applyPatch(content, args.OldText, args.NewText)
	switch count {
	case 0:
		return failure(wire.CodeNotFound, "patch: oldText not found in "+args.Path)
	case 1:
		// proceed
	default:
		return retryableFailure(wire.CodeInvalidArgs,
			fmt.Sprintf("patch: oldText occurs %d times in %s; add surrounding context to make it unique", count, args.Path))
	}

	if err := os.WriteFile(resolved, []byte(patched), 0o644); err != nil {
		return failure(wire.CodeExecutionError, "patch: "+err.Error())
	}

	removed := len(strings.Split(args.OldText, "\n"))
	added := len(strings.Split(args.NewText, "\n"))
	return status(fmt.Sprintf("patched %s (+%d -%d lines)", args.Path, added, removed))
}

// applyPatch returns the patched content and the occurrence count.
// Content is modified only when the count is exactly one. Uniqueness is
// judged over exact and whitespace-tolerant matches combined: a single
// exact occurrence alongside a trailing-whitespace-drifted copy of the
// same lines is still ambiguous.
func applyPatch(content, oldText, newText string) (string, int) {
	exact := strings.Count(content, oldText)
	if exact > 1 {
		return content, exact
	}
	patched, fuzzy := applyFuzzyPatch(content, oldText, newText)
	if exact == 1 {
		// The fuzzy scan also counts the exact occurrence when it is
		// line-aligned, so fuzzy > 1 means further drifted copies exist.
		if fuzzy > 1 {
			return content, fuzzy
		}
		return strings.Replace(content, oldText, newText, 1), 1
	}
	return patched, fuzzy
}

// applyFuzzyPatch retries the match with trailing whitespace stripped
// from every line, tolerating editor-introduced drift while still
// requiring uniqueness.
func applyFuzzyPatch(content, oldText, newText string) (string, int) {
	contentLines := strings.Split(content, "\n")
	oldLines := strings.Split(oldText, "\n")
	if len(oldLines) == 0 || len(oldLines) > len(contentLines) {
		return content, 0
	}

	trimmed := make([]string, len(contentLines))
	for i, l := range contentLines {
		trimmed[i] = strings.TrimRight(l, " \t")
	}
	oldTrimmed := make([]string, len(oldLines))
	for i, l := range oldLines {
		oldTrimmed[i] = strings.TrimRight(l, " \t")
	}

	count := 0
	start := -1
	for i := 0; i+len(oldTrimmed) <= len(trimmed); i++ {
		match := true
		for j := range oldTrimmed {
			if trimmed[i+j] != oldTrimmed[j] {
				match = false
				break
			}
		}
		if match {
			count++
			if start < 0 {
				start = i
			}
		}
	}
	if count != 1 {
		return content, count
	}

	newLines := strings.Split(newText, "\n")
	out := make([]string, 0, len(contentLines)-len(oldTrimmed)+len(newLines))
	out = append(out, contentLines[:start]...)
	out = append(out, newLines...)
	out = append(out, contentLines[start+len(oldTrimmed):]...)
	return strings.Join(out, "\n"), 1
}
