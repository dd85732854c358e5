package tools

import "github.com/rhuss/werkbank/pkg/wire"

// success wraps content output. Provenance tells the orchestrator where
// the bytes came from: user for local file and command output, web for
// network-derived output.
func success(output string, prov wire.Provenance) wire.ToolResult {
	return wire.ToolResult{
		OK:         true,
		Output:     output,
		Provenance: prov,
	}
}

// status wraps a server-generated confirmation message, such as a write
// or patch summary.
func status(output string) wire.ToolResult {
	return wire.ToolResult{
		OK:         true,
		Output:     output,
		Provenance: wire.ProvenanceInternal,
	}
}

// failure builds a non-retryable failure: the caller must change the
// request, not repeat it.
func failure(code wire.ErrorCode, message string) wire.ToolResult {
	return wire.ToolResult{
		Output:     message,
		ErrorCode:  code,
		Provenance: wire.ProvenanceInternal,
	}
}

// retryableFailure builds a failure the caller may retry after adjusting
// input, such as a timeout or an ambiguous patch.
func retryableFailure(code wire.ErrorCode, message string) wire.ToolResult {
	result := failure(code, message)
	result.Retryable = true
	return result
}
