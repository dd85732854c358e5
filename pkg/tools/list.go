package tools

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

type listArgs struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// list enumerates directory entries, directories first then
// lexicographically. The recursive walk is bounded by the entry cap and
// skips the ignored directory set.
func (tb *Toolbox) list(raw json.RawMessage) wire.ToolResult {
	var args listArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid list args: "+err.Error())
	}
	if args.Path == "" {
		args.Path = "."
	}

	resolved, err := tb.paths.Resolve(args.Path, false)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	var entries []string
	capped := false
	if args.Recursive {
		entries, capped = tb.walkEntries(resolved)
	} else {
		entries, err = flatEntries(resolved)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return failure(wire.CodeNotFound, "directory not found: "+args.Path)
			}
			return failure(wire.CodeExecutionError, "list: "+err.Error())
		}
	}

	if len(entries) == 0 {
		return success("(empty directory)", wire.ProvenanceUser)
	}
	output := strings.Join(entries, "\n")
	if capped {
		output += "\n[entry limit reached; listing truncated]"
	}
	return success(output, wire.ProvenanceUser)
}

// flatEntries lists one directory level, directories first.
func flatEntries(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(dirEntries, func(i, j int) bool {
		if dirEntries[i].IsDir() != dirEntries[j].IsDir() {
			return dirEntries[i].IsDir()
		}
		return dirEntries[i].Name() < dirEntries[j].Name()
	})
	out := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	return out, nil
}

// walkEntries walks the tree under root up to the entry cap.
func (tb *Toolbox) walkEntries(root string) (entries []string, capped bool) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if path == root {
			return nil
		}
		if d.IsDir() && isIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			rel += "/"
		}
		entries = append(entries, filepath.ToSlash(rel))
		if len(entries) >= tb.limits.MaxListEntries {
			capped = true
			return fs.SkipAll
		}
		return nil
	})
	return entries, capped
}
