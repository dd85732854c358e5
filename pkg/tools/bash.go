package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rhuss/werkbank/pkg/wire"
)

// DefaultEnvPasslist names the host environment variables a bash
// subprocess inherits. Everything else is withheld; credentials are
// injected separately from the vault.
var DefaultEnvPasslist = []string{
	"PATH", "HOME", "USER", "SHELL", "TERM", "TMPDIR",
	"LANG", "LC_ALL", "LC_CTYPE",
	"GOCACHE", "GOMODCACHE", "GOPATH",
	"NPM_CONFIG_CACHE", "PIP_CACHE_DIR", "CARGO_HOME", "XDG_CACHE_HOME",
}

type bashArgs struct {
	Command string `json:"command"`
}

// bash resolves credential placeholders, validates the command as a
// pipeline, and runs it with a minimal constructed environment, a
// wall-clock timeout, and an output cap.
func (tb *Toolbox) bash(ctx context.Context, raw json.RawMessage, timeoutMs int) wire.ToolResult {
	var args bashArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid bash args: "+err.Error())
	}
	if strings.TrimSpace(args.Command) == "" {
		return failure(wire.CodeInvalidArgs, "bash: command is required")
	}

	// Placeholders resolve here and nowhere else; the validated string
	// is exactly what the shell receives.
	resolved := tb.vault.ResolvePlaceholders(args.Command)

	validation := tb.pipeline.Validate(resolved)
	if !validation.OK {
		return failure(wire.CodePermissionDenied, validation.Err)
	}

	timeout := tb.defaultTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", resolved)
	cmd.Dir = tb.paths.Workspace()
	cmd.Env = tb.subprocessEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return retryableFailure(wire.CodeTimeout,
			fmt.Sprintf("command timed out after %s", timeout))
	}

	// Empty output from a network command is the signature of silent
	// egress blocking, worth a specific diagnostic over a generic one.
	if validation.HasNetwork && stdout.Len() == 0 && stderr.Len() == 0 {
		return failure(wire.CodeExecutionError,
			"network command produced no output; the target host may be outside the network allowlist")
	}

	output := tb.capOutput(combineOutput(stdout.String(), stderr.String()))

	if runErr != nil {
		exitCode := 1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := output
		if msg != "" {
			msg += "\n"
		}
		return failure(wire.CodeExecutionError, fmt.Sprintf("%sexit status %d", msg, exitCode))
	}

	provenance := wire.ProvenanceUser
	if validation.HasNetwork {
		provenance = wire.ProvenanceWeb
	}
	return success(output, provenance)
}

// subprocessEnv builds the minimal subprocess environment: the passlist
// of inherited host variables plus one variable per stored credential.
// Nothing else leaks in.
func (tb *Toolbox) subprocessEnv() []string {
	env := make([]string, 0, len(tb.envPasslist)+4)
	for _, name := range tb.envPasslist {
		if value, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+value)
		}
	}
	return append(env, tb.vault.Environ()...)
}

func (tb *Toolbox) capOutput(s string) string {
	if len(s) <= tb.limits.MaxOutputBytes {
		return s
	}
	return s[:tb.limits.MaxOutputBytes] + "\n[output truncated]"
}

func combineOutput(stdout, stderr string) string {
	stdout = strings.TrimRight(stdout, "\n")
	stderr = strings.TrimRight(stderr, "\n")
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}
