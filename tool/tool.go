// Package tool implements the function / tool calling subsystem that lets the
// agent loop invoke structured capabilities (file access, search, shell) with
// descriptor validated arguments, consistent error handling and a
// language-neutral description that the schema package renders per provider.
package tool

import (
	"context"
	"fmt"
)

// Tool defines the interface for extending the agent with external functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Declare every accepted parameter with its canonical type
//   - Return errors instead of panicking
//   - Be safe for concurrent use; calls from one assistant turn may run in parallel
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and how to use the tool.
	Description() string

	// Parameters returns the ordered parameter list. Order is significant: the
	// generated provider schemas list properties in this order.
	Parameters() []Parameter

	// Call executes the tool with structured arguments decoded from the model's call.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Executor is the tool execution boundary used by the agent loop.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeExecution  = "EXECUTION_ERROR"
	CodePanic      = "PANIC"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}

	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
