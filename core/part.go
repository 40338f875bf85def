package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FunctionCall describes a tool/function invocation request issued by the model.
type FunctionCall struct {
	ID        string         `json:"id"`                  // Unique within the issuing turn
	Name      string         `json:"name"`                // Tool / function name
	Arguments map[string]any `json:"arguments,omitempty"` // Structured argument mapping
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string `json:"id"`                 // Matches originating FunctionCall ID
	Response any    `json:"response,omitempty"` // Result payload (string or structured value)
	IsError  bool   `json:"is_error,omitempty"` // Set when the tool failed
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}
