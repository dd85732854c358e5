package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rhuss/werkbank/pkg/wire"
)

// compatArgs is the legacy action+path calling convention for the
// filesystem family. Resumed sessions may still reference it, so the
// shim re-derives the intended action from the argument shape when the
// action field is absent.
type compatArgs struct {
	Action    string          `json:"action"`
	Path      string          `json:"path"`
	Content   json.RawMessage `json:"content,omitempty"`
	Pattern   string          `json:"pattern"`
	OldText   string          `json:"oldText"`
	NewText   string          `json:"newText"`
	Recursive bool            `json:"recursive"`
	Offset    int             `json:"offset"`
	Limit     int             `json:"limit"`
}

func (tb *Toolbox) compat(ctx context.Context, raw json.RawMessage) wire.ToolResult {
	var args compatArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure(wire.CodeInvalidArgs, "invalid filesystem args: "+err.Error())
	}

	action := strings.ToLower(strings.TrimSpace(args.Action))
	if action == "" {
		action = tb.deriveAction(args)
	}
	if action == "edit" {
		action = ToolPatch
	}

	switch action {
	case ToolRead, ToolWrite, ToolList, ToolGlob, ToolGrep, ToolPatch:
		rerouted, err := json.Marshal(args)
		if err != nil {
			return failure(wire.CodeInvalidArgs, "filesystem: "+err.Error())
		}
		return tb.Execute(ctx, action, rerouted, 0)
	default:
		return failure(wire.CodeInvalidArgs, fmt.Sprintf("filesystem: unknown action %q", args.Action))
	}
}

// deriveAction infers the operation from which arguments are present:
// oldText means patch, content means write, a pattern means glob or
// grep depending on wildcard use, and a bare path means list for
// directories and read otherwise.
func (tb *Toolbox) deriveAction(args compatArgs) string {
	switch {
	case args.OldText != "":
		return ToolPatch
	case len(args.Content) > 0 && string(args.Content) != "null":
		return ToolWrite
	case args.Pattern != "":
		if strings.ContainsAny(args.Pattern, "*?") {
			return ToolGlob
		}
		return ToolGrep
	case strings.HasSuffix(args.Path, "/"):
		return ToolList
	default:
		if resolved, err := tb.paths.Resolve(args.Path, false); err == nil {
			if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
				return ToolList
			}
		}
		return ToolRead
	}
}
