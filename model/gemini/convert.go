package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/schema"
	"github.com/hupe1980/nanocode/tool"
)

// Gemini wire roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Request is the converted generateContent call.
type Request struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// RequestOptions carries the non-conversation request fields.
type RequestOptions struct {
	Model     string
	MaxTokens int32
}

// ToRequest converts canonical turns, system prompt and tools into a
// generateContent request. The system prompt goes to systemInstruction and is
// omitted when empty. It is a pure function of its inputs.
func ToRequest(turns []core.Content, system string, tools []tool.Descriptor, opts RequestOptions) (*Request, error) {
	contents, err := ToContents(turns)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{}

	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}

	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	if len(tools) > 0 {
		cfg.Tools, err = schema.ForGemini(tools)
		if err != nil {
			return nil, err
		}
	}

	return &Request{Model: opts.Model, Contents: contents, Config: cfg}, nil
}

// ToContents converts canonical turns into Gemini contents.
//
// Gemini's function responses carry a name, not a call identifier. A result's
// name is resolved by strict adjacency: its ID must match a call of the
// immediately preceding assistant turn. Results keep the order of the result
// turn, so repeated calls to one tool pair up by position.
//
// Empty text parts carry nothing for Gemini and are dropped; a turn left
// without parts is unsupported.
func ToContents(turns []core.Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(turns))

	for i, turn := range turns {
		var role string

		switch turn.Role {
		case core.RoleUser:
			role = roleUser
		case core.RoleAssistant:
			role = roleModel
		default:
			return nil, core.Unsupported("turn %d: role %q", i, turn.Role)
		}

		var pending map[string]string

		parts := make([]*genai.Part, 0, len(turn.Parts))

		for _, p := range turn.Parts {
			switch part := p.(type) {
			case core.TextPart:
				if part.Text != "" {
					parts = append(parts, &genai.Part{Text: part.Text})
				}
			case core.FunctionCallPart:
				if turn.Role != core.RoleAssistant {
					return nil, core.Unsupported("turn %d: tool call %q in %s turn", i, part.FunctionCall.ID, turn.Role)
				}

				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Arguments,
				}})
			case core.FunctionResponsePart:
				if turn.Role != core.RoleUser {
					return nil, core.Unsupported("turn %d: tool result %q in %s turn", i, part.FunctionResponse.ID, turn.Role)
				}

				if pending == nil {
					pending = pendingCalls(turns, i)
				}

				name, ok := pending[part.FunctionResponse.ID]
				if !ok {
					return nil, core.Unsupported("turn %d: tool result %q answers no call of the preceding assistant turn", i, part.FunctionResponse.ID)
				}

				delete(pending, part.FunctionResponse.ID)

				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					Name:     name,
					Response: ResponsePayload(part.FunctionResponse),
				}})
			default:
				return nil, core.Unsupported("turn %d: part type %T", i, p)
			}
		}

		if len(parts) == 0 {
			return nil, core.Unsupported("turn %d: no content", i)
		}

		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	return out, nil
}

// pendingCalls maps call IDs of the assistant turn preceding turns[i] to tool names.
func pendingCalls(turns []core.Content, i int) map[string]string {
	pending := map[string]string{}

	if i == 0 || turns[i-1].Role != core.RoleAssistant {
		return pending
	}

	for _, fc := range turns[i-1].FunctionCalls() {
		pending[fc.ID] = fc.Name
	}

	return pending
}

// ResponsePayload wraps a tool result as {"result": v}, or {"error": v} on failure.
func ResponsePayload(fr core.FunctionResponse) map[string]any {
	key := "result"
	if fr.IsError {
		key = "error"
	}

	v := fr.Response
	if err, ok := v.(error); ok {
		v = err.Error()
	}

	return map[string]any{key: v}
}

// CallID synthesizes the identifier of the n-th call (1 based) within a turn.
func CallID(name string, n int) string {
	return fmt.Sprintf("%s_call_%d", name, n)
}

// FromResponse converts the first candidate of a generateContent response into
// a canonical assistant turn. Thought parts are skipped; function calls get a
// synthesized identifier unless the provider supplied one.
func FromResponse(resp *genai.GenerateContentResponse) (core.Content, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return core.Content{}, core.Malformed("no candidates")
	}

	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return core.Content{}, core.Malformed("candidate has no content (finish reason %q)", finishReason(cand))
	}

	parts := make([]core.Part, 0, len(cand.Content.Parts))
	calls := 0

	for i, p := range cand.Content.Parts {
		switch {
		case p == nil, p.Thought:
			continue
		case p.FunctionCall != nil:
			if p.FunctionCall.Name == "" {
				return core.Content{}, core.Malformed("parts[%d]: function call without name", i)
			}

			calls++

			id := p.FunctionCall.ID
			if id == "" {
				id = CallID(p.FunctionCall.Name, calls)
			}

			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}

			parts = append(parts, core.FunctionCallPart{
				FunctionCall: core.FunctionCall{ID: id, Name: p.FunctionCall.Name, Arguments: args},
			})
		case p.Text != "":
			parts = append(parts, core.TextPart{Text: p.Text})
		case p.InlineData != nil, p.FileData != nil, p.ExecutableCode != nil,
			p.CodeExecutionResult != nil, p.FunctionResponse != nil:
			return core.Content{}, core.Unsupported("parts[%d]: part kind not supported", i)
		}
	}

	if len(parts) == 0 {
		return core.Content{}, core.Malformed("candidate has no text or function call parts")
	}

	return core.Content{Role: core.RoleAssistant, Parts: parts}, nil
}

func finishReason(c *genai.Candidate) string {
	if c == nil {
		return ""
	}

	return string(c.FinishReason)
}
