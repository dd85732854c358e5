package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// DefaultAllowedCommands is the built-in allowlist of read-only and
// utility programs. Mutating the filesystem goes through the write and
// patch tools instead, where path confinement applies.
var DefaultAllowedCommands = []string{
	"basename", "cat", "curl", "cut", "date", "diff", "dirname", "du",
	"echo", "file", "find", "grep", "head", "jq", "ls", "md5sum", "nl",
	"printf", "pwd", "rg", "sed", "sha256sum", "sort", "stat", "tail",
	"tr", "uniq", "wc", "wget", "which",
}

// DefaultNetworkCommands is the subset of the allowlist that reaches the
// network. Their presence in a pipeline marks the result as
// network-derived and enables egress-specific diagnostics.
var DefaultNetworkCommands = []string{
	"curl", "dig", "host", "nslookup", "ping", "wget",
}

// ValidationResult is the outcome of one pipeline check.
type ValidationResult struct {
	OK         bool
	Err        string // actionable rejection reason when !OK
	HasNetwork bool   // at least one segment runs a network command
}

// metacharacters that enable injection when they survive outside a lone
// pipe operator. The single pipe itself is removed before this scan.
const unsafeMetachars = "`$()<>!\n\\&;"

// PipelineValidator checks a raw command string against the command
// allowlist. A command may chain multiple programs with single pipe
// operators; every segment must be allowlisted for the pipeline to pass.
type PipelineValidator struct {
	allowed  map[string]struct{}
	network  map[string]struct{}
	allowMsg string // pre-joined allowlist for rejection messages
}

// NewPipelineValidator builds a validator from an allowlist and its
// network subset. Empty slices fall back to the package defaults.
func NewPipelineValidator(allowed, network []string) *PipelineValidator {
	if len(allowed) == 0 {
		allowed = DefaultAllowedCommands
	}
	if len(network) == 0 {
		network = DefaultNetworkCommands
	}
	v := &PipelineValidator{
		allowed:  make(map[string]struct{}, len(allowed)),
		network:  make(map[string]struct{}, len(network)),
		allowMsg: strings.Join(allowed, ", "),
	}
	for _, c := range allowed {
		v.allowed[c] = struct{}{}
	}
	for _, c := range network {
		v.network[c] = struct{}{}
	}
	return v
}

// Validate checks one command pipeline. Rejections carry the offending
// construct and, for disallowed commands, the full allowlist so the
// calling agent can self-correct without a human round trip.
func (v *PipelineValidator) Validate(command string) ValidationResult {
	if strings.TrimSpace(command) == "" {
		return rejected("empty command")
	}

	// Control-chaining operators would let a validated segment smuggle
	// in an unvalidated one.
	if strings.Contains(command, "&&") || strings.Contains(command, "||") {
		return rejected("command chaining with && or || is not allowed; issue separate commands")
	}

	// With single pipes removed, any remaining metacharacter enables
	// injection and fails the whole pipeline.
	depiped := strings.ReplaceAll(command, "|", "")
	if i := strings.IndexAny(depiped, unsafeMetachars); i >= 0 {
		return rejected(fmt.Sprintf("disallowed shell metacharacter %q in command", depiped[i]))
	}

	hasNetwork := false
	for _, segment := range strings.Split(command, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return rejected("empty pipeline segment")
		}

		words, err := shellwords.Parse(segment)
		if err != nil {
			return rejected(fmt.Sprintf("unparsable pipeline segment %q: %v", segment, err))
		}
		if len(words) == 0 {
			return rejected("empty pipeline segment")
		}

		// A directory prefix must not bypass the allowlist check.
		name := filepath.Base(words[0])
		if _, ok := v.allowed[name]; !ok {
			return rejected(fmt.Sprintf("command %q is not allowed (allowed: %s)", name, v.allowMsg))
		}
		if _, ok := v.network[name]; ok {
			hasNetwork = true
		}
	}

	return ValidationResult{OK: true, HasNetwork: hasNetwork}
}

func rejected(reason string) ValidationResult {
	return ValidationResult{Err: reason}
}
