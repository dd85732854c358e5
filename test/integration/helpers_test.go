// Package integration provides end-to-end tests for the tool server
// protocol.
//
// Tests run against a real server assembled from configuration the way
// cmd/toolserver does it, speaking the framed protocol over in-process
// pipes.
package integration

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rhuss/werkbank/pkg/config"
	"github.com/rhuss/werkbank/pkg/sandbox"
	"github.com/rhuss/werkbank/pkg/server"
	"github.com/rhuss/werkbank/pkg/tools"
	"github.com/rhuss/werkbank/pkg/vault"
	"github.com/rhuss/werkbank/pkg/wire"
)

// TestEnvironment holds one running server and its protocol endpoints.
type TestEnvironment struct {
	Workspace string
	Shared    string

	in        *io.PipeWriter
	responses chan wire.Response
	done      chan error
	seq       int
}

// startEnvironment assembles a server from a config the way the main
// command does and runs it over pipes.
func startEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	workspace := t.TempDir()
	shared := t.TempDir()

	cfg := config.Defaults()
	cfg.Roots.Workspace = workspace
	cfg.Roots.Shared = shared
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	paths, err := sandbox.NewPathResolver(cfg.Roots.Workspace, cfg.Roots.Shared)
	if err != nil {
		t.Fatalf("path resolver: %v", err)
	}
	v := vault.New()
	toolbox := tools.New(v, paths, sandbox.NewPipelineValidator(cfg.Bash.AllowedCommands, cfg.Bash.NetworkCommands), tools.Options{
		Limits:         cfg.ToolLimits(),
		DefaultTimeout: cfg.Bash.DefaultTimeout,
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	srv := server.New(toolbox, v, inR, outW, server.Options{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	env := &TestEnvironment{
		Workspace: workspace,
		Shared:    shared,
		in:        inW,
		responses: make(chan wire.Response, 32),
		done:      make(chan error, 1),
	}

	go func() {
		env.done <- srv.Run(context.Background())
		outW.Close()
	}()
	go func() {
		defer close(env.responses)
		header := make([]byte, 4)
		for {
			if _, err := io.ReadFull(outR, header); err != nil {
				return
			}
			payload := make([]byte, binary.BigEndian.Uint32(header))
			if _, err := io.ReadFull(outR, payload); err != nil {
				return
			}
			var resp wire.Response
			if err := json.Unmarshal(payload, &resp); err != nil {
				return
			}
			env.responses <- resp
		}
	}()
	t.Cleanup(func() { inR.Close(); outR.Close() })
	return env
}

// send frames one request onto the server's input.
func (env *TestEnvironment) send(t *testing.T, req wire.Request) {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	frame, err := wire.EncodeFrame(payload)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if _, err := env.in.Write(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// recv waits for the next response frame.
func (env *TestEnvironment) recv(t *testing.T) wire.Response {
	t.Helper()
	select {
	case resp, ok := <-env.responses:
		if !ok {
			t.Fatal("response stream closed")
		}
		return resp
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for response")
	}
	panic("unreachable")
}

// execute sends an execute request and returns its result, failing the
// test on protocol-level errors or id mismatches.
func (env *TestEnvironment) execute(t *testing.T, tool string, args map[string]any) wire.ToolResult {
	t.Helper()
	env.seq++
	id := fmt.Sprintf("it-%d", env.seq)
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	env.send(t, wire.Request{Type: wire.RequestExecute, ID: id, Tool: tool, Args: raw})

	resp := env.recv(t)
	if resp.Type != wire.ResponseResult {
		t.Fatalf("response = %+v, want result", resp)
	}
	if resp.ID != id {
		t.Fatalf("response ID = %q, want %q", resp.ID, id)
	}
	if resp.Result == nil {
		t.Fatal("result response without result payload")
	}
	return *resp.Result
}

// deliverCredential sends a credential and waits for its ack.
func (env *TestEnvironment) deliverCredential(t *testing.T, name, value string) {
	t.Helper()
	env.send(t, wire.Request{Type: wire.RequestCredential, Name: name, Value: value})
	ack := env.recv(t)
	if ack.Type != wire.ResponseCredentialAck || ack.Name != name {
		t.Fatalf("ack = %+v, want credential_ack for %q", ack, name)
	}
}

// shutdown requests termination and waits for the loop to exit.
func (env *TestEnvironment) shutdown(t *testing.T) {
	t.Helper()
	env.send(t, wire.Request{Type: wire.RequestShutdown})
	select {
	case err := <-env.done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}

// writeSharedFile seeds a file into the read-only root.
func (env *TestEnvironment) writeSharedFile(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(env.Shared, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
