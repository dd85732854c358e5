package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/werkbank/pkg/sandbox"
	"github.com/rhuss/werkbank/pkg/vault"
	"github.com/rhuss/werkbank/pkg/wire"
)

// Tool names routed by Execute. Unrecognized names collapse into a
// single invalid_args result at this boundary.
const (
	ToolBash  = "bash"
	ToolRead  = "read"
	ToolWrite = "write"
	ToolList  = "list"
	ToolGlob  = "glob"
	ToolGrep  = "grep"
	ToolPatch = "patch"

	// Legacy filesystem-family names accepted by the compatibility shim.
	toolFS         = "fs"
	toolFile       = "file"
	toolFilesystem = "filesystem"
)

// Limits bound the output volume of each executor.
type Limits struct {
	MaxOutputBytes int // bash combined output cap
	MaxReadLines   int // read line-count cap
	MaxReadBytes   int // read character cap, trimmed to a full line
	MaxListEntries int // recursive list entry cap
	MaxGlobResults int // glob result cap
	MaxGlobScan    int // glob/grep filesystem scan ceiling
	MaxGrepMatches int // grep total match cap
	MaxGrepLineLen int // grep per-line length cap
}

// DefaultLimits returns the built-in output bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxOutputBytes: 100 * 1024,
		MaxReadLines:   2000,
		MaxReadBytes:   50 * 1024,
		MaxListEntries: 500,
		MaxGlobResults: 100,
		MaxGlobScan:    10000,
		MaxGrepMatches: 100,
		MaxGrepLineLen: 250,
	}
}

// Options configures a Toolbox beyond its collaborators.
type Options struct {
	// EnvPasslist names the host environment variables inherited by
	// bash subprocesses. Empty means DefaultEnvPasslist.
	EnvPasslist []string

	// Limits bound executor output. Zero-valued fields take defaults.
	Limits Limits

	// DefaultTimeout applies to bash executions whose request carries
	// no timeoutMs. Zero means 30 seconds.
	DefaultTimeout time.Duration

	// Logger receives execution diagnostics. Nil means slog.Default,
	// which the server binds to stderr.
	Logger *slog.Logger
}

// Toolbox owns the executors and their shared collaborators. One
// instance serves all concurrent executions; it holds no per-request
// state.
type Toolbox struct {
	vault          *vault.Vault
	paths          *sandbox.PathResolver
	pipeline       *sandbox.PipelineValidator
	envPasslist    []string
	limits         Limits
	defaultTimeout time.Duration
	log            *slog.Logger
}

// New builds a Toolbox around the credential vault and the two
// gatekeepers.
func New(v *vault.Vault, paths *sandbox.PathResolver, pipeline *sandbox.PipelineValidator, opts Options) *Toolbox {
	limits := opts.Limits
	defaults := DefaultLimits()
	if limits.MaxOutputBytes <= 0 {
		limits.MaxOutputBytes = defaults.MaxOutputBytes
	}
	if limits.MaxReadLines <= 0 {
		limits.MaxReadLines = defaults.MaxReadLines
	}
	if limits.MaxReadBytes <= 0 {
		limits.MaxReadBytes = defaults.MaxReadBytes
	}
	if limits.MaxListEntries <= 0 {
		limits.MaxListEntries = defaults.MaxListEntries
	}
	if limits.MaxGlobResults <= 0 {
		limits.MaxGlobResults = defaults.MaxGlobResults
	}
	if limits.MaxGlobScan <= 0 {
		limits.MaxGlobScan = defaults.MaxGlobScan
	}
	if limits.MaxGrepMatches <= 0 {
		limits.MaxGrepMatches = defaults.MaxGrepMatches
	}
	if limits.MaxGrepLineLen <= 0 {
		limits.MaxGrepLineLen = defaults.MaxGrepLineLen
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	passlist := opts.EnvPasslist
	if len(passlist) == 0 {
		passlist = DefaultEnvPasslist
	}

	return &Toolbox{
		vault:          v,
		paths:          paths,
		pipeline:       pipeline,
		envPasslist:    passlist,
		limits:         limits,
		defaultTimeout: timeout,
		log:            logger,
	}
}

// Execute routes one tool invocation and normalizes every failure mode,
// including panics, into a ToolResult. The duration is stamped here so
// executors do not track it individually.
func (tb *Toolbox) Execute(ctx context.Context, tool string, args json.RawMessage, timeoutMs int) (result wire.ToolResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			tb.log.Error("executor panic", "tool", tool, "panic", fmt.Sprint(r))
			result = failure(wire.CodeExecutionError, fmt.Sprintf("internal executor failure: %v", r))
		}
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	switch tool {
	case ToolBash:
		return tb.bash(ctx, args, timeoutMs)
	case ToolRead:
		return tb.read(args)
	case ToolWrite:
		return tb.write(args)
	case ToolList:
		return tb.list(args)
	case ToolGlob:
		return tb.glob(args)
	case ToolGrep:
		return tb.grep(args)
	case ToolPatch:
		return tb.patch(args)
	case toolFS, toolFile, toolFilesystem:
		return tb.compat(ctx, args)
	default:
		return failure(wire.CodeInvalidArgs, fmt.Sprintf("unknown tool %q", tool))
	}
}
