package tools

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rhuss/werkbank/pkg/wire"
)

type globArgs struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"` // base directory, default workspace root
}

type globMatch struct {
	rel     string
	modTime time.Time
}

// glob enumerates files matching a simplified wildcard pattern, newest
// first. The filesystem scan is bounded by the scan ceiling and the
// result list by the result cap.
func (tb *Toolbox) glob(raw json.RawMessage) wire.ToolResult {
	var args globArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid glob args: "+err.Error())
	}
	if strings.TrimSpace(args.Pattern) == "" {
		return failure(wire.CodeInvalidArgs, "glob: pattern is required")
	}
	if args.Path == "" {
		args.Path = "."
	}

	re, err := compileWildcard(args.Pattern)
	if err != nil {
		return failure(wire.CodeInvalidArgs, fmt.Sprintf("glob: bad pattern %q: %v", args.Pattern, err))
	}
	baseOnly := !strings.Contains(args.Pattern, "/")

	root, err := tb.paths.Resolve(args.Path, false)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	var matches []globMatch
	scanned := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if path == root {
			return nil
		}
		scanned++
		if scanned > tb.limits.MaxGlobScan {
			return fs.SkipAll
		}
		if d.IsDir() {
			if isIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchName(re, baseOnly, rel, d.Name()) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		matches = append(matches, globMatch{rel: rel, modTime: info.ModTime()})
		return nil
	})

	if len(matches) == 0 {
		return success("no files match "+args.Pattern, wire.ProvenanceUser)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].modTime.After(matches[j].modTime)
	})

	truncated := false
	if len(matches) > tb.limits.MaxGlobResults {
		matches = matches[:tb.limits.MaxGlobResults]
		truncated = true
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.rel)
	}
	if truncated {
		b.WriteString("\n[result limit reached; matches truncated]")
	}
	return success(b.String(), wire.ProvenanceUser)
}
