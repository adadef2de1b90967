package tools

import "fmt"

// JSON-RPC error codes used at the dispatch boundary.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
)

// Error is the structured failure of a tool call.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Tool    string `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func invalidParams(tool, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...), Tool: tool}
}

func methodNotFound(tool string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown tool: %s", tool), Tool: tool}
}

func internal(tool string, err error) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf("%s: %v", tool, err), Tool: tool}
}
