package tools

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/werkbank/pkg/wire"
)

func TestGlobBaseNameAtAnyDepth(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "main.go", "")
	writeTestFile(t, workspace, "pkg/util/util.go", "")
	writeTestFile(t, workspace, "README.md", "")

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"pattern": "*.go"}), 0)
	if !res.OK {
		t.Fatalf("glob failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "main.go") || !strings.Contains(res.Output, "pkg/util/util.go") {
		t.Errorf("Output = %q", res.Output)
	}
	if strings.Contains(res.Output, "README.md") {
		t.Errorf("Output = %q, non-matching file included", res.Output)
	}
}

func TestGlobPathPattern(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "src/a/one.txt", "")
	writeTestFile(t, workspace, "src/b/two.txt", "")
	writeTestFile(t, workspace, "docs/three.txt", "")

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"pattern": "src/**/*.txt"}), 0)
	if !res.OK {
		t.Fatalf("glob failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "src/a/one.txt") || !strings.Contains(res.Output, "src/b/two.txt") {
		t.Errorf("Output = %q", res.Output)
	}
	if strings.Contains(res.Output, "docs/three.txt") {
		t.Errorf("Output = %q, pattern crossed its prefix", res.Output)
	}
}

func TestGlobNewestFirst(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	older := writeTestFile(t, workspace, "older.log", "")
	newer := writeTestFile(t, workspace, "newer.log", "")
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"pattern": "*.log"}), 0)
	if !res.OK {
		t.Fatalf("glob failed: %s", res.Output)
	}
	if res.Output != "newer.log\nolder.log" {
		t.Errorf("Output = %q, want newest first", res.Output)
	}
}

func TestGlobNoMatches(t *testing.T) {
	tb, _, _ := newTestToolbox(t)

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"pattern": "*.rs"}), 0)
	if !res.OK {
		t.Fatalf("glob failed: %s", res.Output)
	}
	if res.Output != "no files match *.rs" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestGlobResultCap(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	tb.limits.MaxGlobResults = 3
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeTestFile(t, workspace, name+".tmp", "")
	}

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"pattern": "*.tmp"}), 0)
	if !res.OK {
		t.Fatalf("glob failed: %s", res.Output)
	}
	if !strings.HasSuffix(res.Output, "[result limit reached; matches truncated]") {
		t.Errorf("Output = %q, want truncation marker", res.Output)
	}
}

func TestGlobMissingPattern(t *testing.T) {
	tb, _, _ := newTestToolbox(t)

	res := tb.Execute(context.Background(), ToolGlob, mustArgs(t, map[string]any{"path": "."}), 0)
	if res.OK || res.ErrorCode != wire.CodeInvalidArgs {
		t.Errorf("result = %+v, want invalid_args", res)
	}
}

func TestCompileWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "main.goat", false},
		{"src/*.go", "src/app.go", true},
		{"src/*.go", "src/sub/app.go", false},
		{"src/**/*.go", "src/sub/app.go", true},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"a.b", "axb", false},
	}
	for _, tt := range tests {
		re, err := compileWildcard(tt.pattern)
		if err != nil {
			t.Fatalf("compileWildcard(%q): %v", tt.pattern, err)
		}
		if got := re.MatchString(tt.input); got != tt.want {
			t.Errorf("pattern %q against %q = %v, want %v", tt.pattern, tt.input, got, tt.want)
		}
	}
}
