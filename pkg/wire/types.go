package wire

import "encoding/json"

// Request type discriminators.
const (
	RequestExecute    = "execute"
	RequestCredential = "credential"
	RequestShutdown   = "shutdown"
)

// Response type discriminators.
const (
	ResponseResult        = "result"
	ResponseError         = "error"
	ResponseCredentialAck = "credential_ack"
)

// Request is an inbound protocol message from the orchestrator. The Type
// field selects the variant; the remaining fields are populated according
// to the variant's payload shape.
type Request struct {
	Type string `json:"type"`

	// Execute fields.
	ID        string          `json:"id,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	TimeoutMs int             `json:"timeoutMs,omitempty"`

	// Credential fields.
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// Response is an outbound protocol message. Exactly one variant is
// populated per message: a Result tagged with the originating request id,
// an Error (with the id when one could be correlated), or a credential
// acknowledgment echoing only the credential name.
type Response struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Result  *ToolResult `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
	Name    string      `json:"name,omitempty"`
}

// ErrorCode classifies a tool failure for the orchestrator's retry logic.
type ErrorCode string

const (
	CodeInvalidArgs      ErrorCode = "invalid_args"
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeNotFound         ErrorCode = "not_found"
	CodeTimeout          ErrorCode = "timeout"
	CodeExecutionError   ErrorCode = "execution_error"
)

// Provenance classifies where a result's content originated. The
// orchestrator uses it for trust decisions: file and command output is
// "user", network-derived output is "web", and server-generated
// diagnostics are "internal".
type Provenance string

const (
	ProvenanceUser     Provenance = "user"
	ProvenanceWeb      Provenance = "web"
	ProvenanceInternal Provenance = "internal"
)

// ToolResult is the outcome of one tool execution. Every executor
// produces a well-formed ToolResult; failures never propagate past the
// executor boundary as errors or panics.
type ToolResult struct {
	OK         bool       `json:"ok"`
	Output     string     `json:"output"`
	ErrorCode  ErrorCode  `json:"errorCode,omitempty"`
	Retryable  bool       `json:"retryable"`
	Provenance Provenance `json:"provenance"`
	DurationMs int64      `json:"durationMs"`
	Cost       *float64   `json:"cost,omitempty"`
}

// NewResultResponse builds a result frame for the given request id.
func NewResultResponse(id string, result ToolResult) Response {
	return Response{Type: ResponseResult, ID: id, Result: &result}
}

// NewErrorResponse builds an error frame. The id may be empty when no
// request could be correlated (for example a JSON parse failure), in
// which case the orchestrator treats the error as a connection-level
// diagnostic rather than a per-request failure.
func NewErrorResponse(id, message string) Response {
	return Response{Type: ResponseError, ID: id, Message: message}
}

// NewCredentialAck builds an acknowledgment that echoes only the
// credential name, never its value.
func NewCredentialAck(name string) Response {
	return Response{Type: ResponseCredentialAck, Name: name}
}
