package tools

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

type grepArgs struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"` // base directory, default workspace root
	Glob    string `json:"glob"` // optional filename filter
}

// grep scans files line by line for a regular expression. Unreadable
// and binary files are skipped silently; matches and line lengths are
// capped.
func (tb *Toolbox) grep(raw json.RawMessage) wire.ToolResult {
	var args grepArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid grep args: "+err.Error())
	}
	if args.Pattern == "" {
		return failure(wire.CodeInvalidArgs, "grep: pattern is required")
	}
	if args.Path == "" {
		args.Path = "."
	}

	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return failure(wire.CodeInvalidArgs, fmt.Sprintf("grep: bad pattern %q: %v", args.Pattern, err))
	}

	var nameRe *regexp.Regexp
	baseOnly := true
	if args.Glob != "" {
		nameRe, err = compileWildcard(args.Glob)
		if err != nil {
			return failure(wire.CodeInvalidArgs, fmt.Sprintf("grep: bad glob %q: %v", args.Glob, err))
		}
		baseOnly = !strings.Contains(args.Glob, "/")
	}

	root, err := tb.paths.Resolve(args.Path, false)
	if err != nil {
		return failure(wire.CodePermissionDenied, err.Error())
	}

	var b strings.Builder
	matchCount := 0
	scanned := 0
	capped := false

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && isIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		scanned++
		if scanned > tb.limits.MaxGlobScan {
			return fs.SkipAll
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if nameRe != nil && !matchName(nameRe, baseOnly, rel, d.Name()) {
			return nil
		}

		matchCount += tb.grepFile(&b, re, path, rel, tb.limits.MaxGrepMatches-matchCount)
		if matchCount >= tb.limits.MaxGrepMatches {
			capped = true
			return fs.SkipAll
		}
		return nil
	})

	if matchCount == 0 {
		return success("no matches for "+args.Pattern, wire.ProvenanceUser)
	}
	output := strings.TrimRight(b.String(), "\n")
	if capped {
		output += "\n[match limit reached; results truncated]"
	}
	return success(output, wire.ProvenanceUser)
}

// grepFile appends up to budget matches from one file. Unreadable or
// binary files contribute nothing.
func (tb *Toolbox) grepFile(b *strings.Builder, re *regexp.Regexp, path, rel string, budget int) int {
	if budget <= 0 {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	if bytes.IndexByte(head[:n], 0) >= 0 {
		return 0
	}
	if _, err := f.Seek(0, 0); err != nil {
		return 0
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	count := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		if len(line) > tb.limits.MaxGrepLineLen {
			line = line[:tb.limits.MaxGrepLineLen] + " [line truncated]"
		}
		fmt.Fprintf(b, "%s:%d: %s\n", rel, lineNo, line)
		count++
		if count >= budget {
			break
		}
	}
	return count
}
