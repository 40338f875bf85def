package testutil

import (
	"github.com/hupe1980/nanocode/core"
)

// TurnBuilder provides a fluent helper for constructing turns in tests.
// Example:
//
//	turn := testutil.Assistant().Text("checking").Call("c1", "read", map[string]any{"path": "a.go"}).Build()
//
// Chain only the parts you need; parts keep the order they were added in.
type TurnBuilder struct {
	role  core.Role
	parts []core.Part
}

// User starts a user turn.
func User() *TurnBuilder { return &TurnBuilder{role: core.RoleUser} }

// Assistant starts an assistant turn.
func Assistant() *TurnBuilder { return &TurnBuilder{role: core.RoleAssistant} }

// Text appends a text part (chainable).
func (b *TurnBuilder) Text(t string) *TurnBuilder {
	b.parts = append(b.parts, core.TextPart{Text: t})
	return b
}

// Call appends a tool-call part (chainable).
func (b *TurnBuilder) Call(id, name string, args map[string]any) *TurnBuilder {
	b.parts = append(b.parts, core.FunctionCallPart{
		FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args},
	})

	return b
}

// Result appends a successful tool-result part (chainable).
func (b *TurnBuilder) Result(id string, response any) *TurnBuilder {
	b.parts = append(b.parts, core.FunctionResponsePart{
		FunctionResponse: core.FunctionResponse{ID: id, Response: response},
	})

	return b
}

// Failure appends a failed tool-result part (chainable).
func (b *TurnBuilder) Failure(id string, response any) *TurnBuilder {
	b.parts = append(b.parts, core.FunctionResponsePart{
		FunctionResponse: core.FunctionResponse{ID: id, Response: response, IsError: true},
	})

	return b
}

// Build finalizes and returns the turn.
func (b *TurnBuilder) Build() core.Content {
	parts := make([]core.Part, len(b.parts))
	copy(parts, b.parts)

	return core.Content{Role: b.role, Parts: parts}
}

// Turns builds each builder in order.
func Turns(builders ...*TurnBuilder) []core.Content {
	out := make([]core.Content, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}

	return out
}

// ToolRoundTrip returns the canonical four-turn exchange used by converter
// tests: a request, one tool call, its result and the final answer.
func ToolRoundTrip() []core.Content {
	return Turns(
		User().Text("list the go files"),
		Assistant().Text("Looking.").Call("call_1", "glob", map[string]any{"pat": "**/*.go"}),
		User().Result("call_1", "main.go\nutil.go"),
		Assistant().Text("There are two Go files."),
	)
}

// Conversation appends turns to a fresh conversation and panics on invalid
// sequences so table tests stay short.
func Conversation(turns ...core.Content) *core.Conversation {
	conv := core.NewConversation()
	for _, t := range turns {
		if err := conv.Append(t); err != nil {
			panic(err)
		}
	}

	return conv
}
