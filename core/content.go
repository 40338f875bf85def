package core

import "strings"

// Role identifies the author of a turn.
type Role string

const (
	// RoleUser marks user input and tool results.
	RoleUser Role = "user"
	// RoleAssistant marks model output.
	RoleAssistant Role = "assistant"
)

// Content holds role + ordered parts. It is the canonical Turn exchanged
// between the agent loop and the provider router.
type Content struct {
	Role  Role   `json:"role"`  // Conversation role (user, assistant)
	Parts []Part `json:"parts"` // Ordered heterogeneous parts
}

// NewUserText builds a user turn holding a single text part.
func NewUserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewToolResults builds the user turn that answers an assistant tool-call turn.
func NewToolResults(responses ...FunctionResponse) Content {
	parts := make([]Part, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, FunctionResponsePart{FunctionResponse: r})
	}

	return Content{Role: RoleUser, Parts: parts}
}

// Text concatenates all text parts, separated by newlines.
func (c Content) Text() string {
	var texts []string

	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok && tp.Text != "" {
			texts = append(texts, tp.Text)
		}
	}

	return strings.Join(texts, "\n")
}

// FunctionCalls returns the tool calls of the turn in issue order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall

	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}

	return calls
}

// FunctionResponses returns the tool results of the turn in order.
func (c Content) FunctionResponses() []FunctionResponse {
	var responses []FunctionResponse

	for _, p := range c.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}

	return responses
}

// HasFunctionCalls reports whether the turn requests any tool execution.
func (c Content) HasFunctionCalls() bool {
	for _, p := range c.Parts {
		if _, ok := p.(FunctionCallPart); ok {
			return true
		}
	}

	return false
}
