package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rhuss/werkbank/pkg/sandbox"
	"github.com/rhuss/werkbank/pkg/vault"
)

// newTestToolbox builds a Toolbox over fresh temp roots with default
// policy, returning the workspace and shared root paths.
func newTestToolbox(t *testing.T) (*Toolbox, string, string) {
	t.Helper()
	workspace := t.TempDir()
	shared := t.TempDir()

	paths, err := sandbox.NewPathResolver(workspace, shared)
	if err != nil {
		t.Fatalf("NewPathResolver: %v", err)
	}
	tb := New(vault.New(), paths, sandbox.NewPipelineValidator(nil, nil), Options{})
	return tb, workspace, shared
}

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return raw
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
