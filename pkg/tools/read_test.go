package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rhuss/werkbank/pkg/wire"
)

func TestReadNumbersLines(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "poem.txt", "first\nsecond\nthird\n")

	res := tb.Execute(context.Background(), ToolRead, mustArgs(t, map[string]any{"path": "poem.txt"}), 0)
	if !res.OK {
		t.Fatalf("read failed: %s", res.Output)
	}
	want := fmt.Sprintf("%6d\tfirst\n%6d\tsecond\n%6d\tthird", 1, 2, 3)
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.Provenance != wire.ProvenanceUser {
		t.Errorf("Provenance = %q, want user", res.Provenance)
	}
}

func TestReadMissingFile(t *testing.T) {
	tb, _, _ := newTestToolbox(t)

	res := tb.Execute(context.Background(), ToolRead, mustArgs(t, map[string]any{"path": "nope.txt"}), 0)
	if res.OK || res.ErrorCode != wire.CodeNotFound {
		t.Errorf("result = %+v, want not_found", res)
	}
	if res.Retryable {
		t.Error("not_found marked retryable")
	}
}

func TestReadFromSharedRoot(t *testing.T) {
	tb, _, shared := newTestToolbox(t)
	writeTestFile(t, shared, "ref.txt", "reference\n")

	res := tb.Execute(context.Background(), ToolRead, mustArgs(t, map[string]any{"path": "ref.txt"}), 0)
	if !res.OK {
		t.Fatalf("read from shared root failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "reference") {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestReadBinaryFile(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "blob.bin", "PK\x03\x04\x00\x00payload")

	res := tb.Execute(context.Background(), ToolRead, mustArgs(t, map[string]any{"path": "blob.bin"}), 0)
	if !res.OK {
		t.Fatalf("binary read failed: %s", res.Output)
	}
	if res.Output != "binary file: 13 bytes" {
		t.Errorf("Output = %q", res.Output)
	}
}

func TestReadOffsetPastEnd(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "short.txt", "only\n")

	res := tb.Execute(context.Background(), ToolRead, mustArgs(t, map[string]any{"path": "short.txt", "offset": 10}), 0)
	if !res.OK {
		t.Fatalf("read failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "past the end") {
		t.Errorf("Output = %q", res.Output)
	}
}

// Continuation reads must chain without gaps or duplicates: following
// the advertised next offset walks the whole file exactly once.
func TestReadContinuationChain(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)

	const total = 25
	var content strings.Builder
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&content, "line-%d\n", i)
	}
	writeTestFile(t, workspace, "long.txt", content.String())

	seen := make([]string, 0, total)
	offset := 1
	for range 10 {
		res := tb.Execute(context.Background(), ToolRead,
			mustArgs(t, map[string]any{"path": "long.txt", "offset": offset, "limit": 7}), 0)
		if !res.OK {
			t.Fatalf("read at offset %d failed: %s", offset, res.Output)
		}

		lines := strings.Split(res.Output, "\n")
		next := 0
		for _, line := range lines {
			if n, err := fmt.Sscanf(line, "... (%d more lines; continue with offset=%d)", new(int), &next); err == nil && n == 2 {
				continue
			}
			var lineNo int
			var text string
			if _, err := fmt.Sscanf(line, "%d\t%s", &lineNo, &text); err != nil {
				t.Fatalf("unparsable line %q", line)
			}
			if lineNo != len(seen)+1 {
				t.Fatalf("line number %d out of sequence, want %d", lineNo, len(seen)+1)
			}
			seen = append(seen, text)
		}
		if next == 0 {
			break
		}
		offset = next
	}

	if len(seen) != total {
		t.Fatalf("walked %d lines, want %d", len(seen), total)
	}
	for i, text := range seen {
		if want := fmt.Sprintf("line-%d", i+1); text != want {
			t.Errorf("seen[%d] = %q, want %q", i, text, want)
		}
	}
}

func TestReadLimitContinuationNotice(t *testing.T) {
	tb, workspace, _ := newTestToolbox(t)
	writeTestFile(t, workspace, "five.txt", "a\nb\nc\nd\ne\n")

	res := tb.Execute(context.Background(), ToolRead,
		mustArgs(t, map[string]any{"path": "five.txt", "limit": 2}), 0)
	if !res.OK {
		t.Fatalf("read failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "3 more lines; continue with offset=3") {
		t.Errorf("Output = %q, want continuation notice", res.Output)
	}
}
