package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sweetpotato0/tripflow/message"
)

// Error kinds carried in structured tool result payloads.
const (
	KindUnknownTool  = "unknown_tool"
	KindInvalidInput = "invalid_input"
	KindInvalidDate  = "invalid_date"
	KindTimeout      = "timeout"
	KindNetwork      = "network_error"
	KindToolError    = "tool_error"
)

// Error is a tool failure with a machine-readable kind. Handlers return it
// to control the error kind the model sees; any other error is reported as
// a generic tool_error.
type Error struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a tool Error with a formatted message.
func Errorf(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExecuteCall runs a single tool call request and always produces a tool
// result message. Failures of any kind — unknown tool, invalid arguments,
// handler errors, timeouts — are encoded as a structured JSON payload
// {"error": <kind>, "message": <text>} in the result content, so the
// conversation can continue and the model can react to the failure.
func (r *Registry) ExecuteCall(ctx context.Context, call message.ToolCall) *message.Message {
	content, err := r.Execute(ctx, call.Name, call.Args)
	if err != nil {
		content = encodeError(ctx, err)
	}
	return message.NewToolResultMessage(call.ID, call.Name, content)
}

func encodeError(ctx context.Context, err error) string {
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		kind := KindToolError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		toolErr = &Error{Kind: kind, Message: err.Error()}
	}

	raw, marshalErr := json.Marshal(toolErr)
	if marshalErr != nil {
		return fmt.Sprintf(`{"error":%q,"message":"tool failure"}`, KindToolError)
	}
	return string(raw)
}
