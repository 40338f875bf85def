package openai

import (
	"encoding/json"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/schema"
	"github.com/hupe1980/nanocode/tool"
)

// RequestOptions carries the non-conversation request fields.
type RequestOptions struct {
	Model     string
	MaxTokens int64
}

// ToRequest converts canonical turns, system prompt and tools into chat
// completion parameters. It is a pure function of its inputs.
func ToRequest(turns []core.Content, system string, tools []tool.Descriptor, opts RequestOptions) (openai.ChatCompletionNewParams, error) {
	messages, err := ToMessages(turns, system)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    opts.Model,
		Messages: messages,
	}

	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(opts.MaxTokens)
	}

	if len(tools) > 0 {
		params.Tools, err = ToTools(tools)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
	}

	return params, nil
}

// ToTools renders tool descriptors as chat completion function tools.
func ToTools(descs []tool.Descriptor) ([]openai.ChatCompletionToolParam, error) {
	decls, err := schema.ForOpenAI(descs)
	if err != nil {
		return nil, err
	}

	out := make([]openai.ChatCompletionToolParam, len(decls))

	for i, d := range decls {
		raw, err := json.Marshal(d.Function.Parameters)
		if err != nil {
			return nil, err
		}

		var params openai.FunctionParameters
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, err
		}

		out[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Function.Name,
				Description: openai.String(d.Function.Description),
				Parameters:  params,
			},
		}
	}

	return out, nil
}

// ToMessages converts canonical turns into chat messages. The system prompt
// becomes the first message; every tool result becomes its own tool message.
func ToMessages(turns []core.Content, system string) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)

	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for i, turn := range turns {
		if len(turn.Parts) == 0 {
			return nil, core.Unsupported("turn %d: no content", i)
		}

		switch turn.Role {
		case core.RoleUser:
			msgs, err := userMessages(i, turn)
			if err != nil {
				return nil, err
			}

			out = append(out, msgs...)
		case core.RoleAssistant:
			msg, err := assistantMessage(i, turn)
			if err != nil {
				return nil, err
			}

			out = append(out, msg)
		default:
			return nil, core.Unsupported("turn %d: role %q", i, turn.Role)
		}
	}

	return out, nil
}

func userMessages(i int, turn core.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion

	for _, p := range turn.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				out = append(out, openai.UserMessage(part.Text))
			}
		case core.FunctionResponsePart:
			content, err := resultText(part.FunctionResponse)
			if err != nil {
				return nil, core.Unsupported("turn %d: tool result %q: %v", i, part.FunctionResponse.ID, err)
			}

			out = append(out, openai.ToolMessage(content, part.FunctionResponse.ID))
		case core.FunctionCallPart:
			return nil, core.Unsupported("turn %d: tool call %q in user turn", i, part.FunctionCall.ID)
		default:
			return nil, core.Unsupported("turn %d: part type %T", i, p)
		}
	}

	if len(out) == 0 {
		return nil, core.Unsupported("turn %d: no content", i)
	}

	return out, nil
}

func assistantMessage(i int, turn core.Content) (openai.ChatCompletionMessageParamUnion, error) {
	asst := openai.ChatCompletionAssistantMessageParam{}

	for _, p := range turn.Parts {
		switch part := p.(type) {
		case core.TextPart:
			// Text blocks of one turn merge into a single assistant message.
			if part.Text == "" {
				continue
			}

			if asst.Content.OfString.Valid() {
				asst.Content.OfString = openai.String(asst.Content.OfString.Value + "\n" + part.Text)
			} else {
				asst.Content.OfString = openai.String(part.Text)
			}
		case core.FunctionCallPart:
			args := part.FunctionCall.Arguments
			if args == nil {
				args = map[string]any{}
			}

			raw, err := json.Marshal(args)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, core.Unsupported("turn %d: tool call %q: %v", i, part.FunctionCall.ID, err)
			}

			asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID: part.FunctionCall.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      part.FunctionCall.Name,
					Arguments: string(raw),
				},
			})
		case core.FunctionResponsePart:
			return openai.ChatCompletionMessageParamUnion{}, core.Unsupported("turn %d: tool result %q in assistant turn", i, part.FunctionResponse.ID)
		default:
			return openai.ChatCompletionMessageParamUnion{}, core.Unsupported("turn %d: part type %T", i, p)
		}
	}

	if !asst.Content.OfString.Valid() && len(asst.ToolCalls) == 0 {
		return openai.ChatCompletionMessageParamUnion{}, core.Unsupported("turn %d: no content", i)
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}, nil
}

func resultText(fr core.FunctionResponse) (string, error) {
	var text string

	switch v := fr.Response.(type) {
	case nil:
	case string:
		text = v
	case error:
		text = v.Error()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		text = string(b)
	}

	// Chat completions has no failure flag on tool messages.
	if fr.IsError && !strings.HasPrefix(text, "error: ") {
		text = "error: " + text
	}

	return text, nil
}

// FromResponse converts the first choice of a chat completion into a canonical
// assistant turn.
func FromResponse(resp *openai.ChatCompletion) (core.Content, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return core.Content{}, core.Malformed("no choices")
	}

	msg := resp.Choices[0].Message
	parts := make([]core.Part, 0, 1+len(msg.ToolCalls))

	if msg.Content != "" {
		parts = append(parts, core.TextPart{Text: msg.Content})
	}

	for i, tc := range msg.ToolCalls {
		if tc.ID == "" || tc.Function.Name == "" {
			return core.Content{}, core.Malformed("tool_calls[%d]: missing id or name", i)
		}

		args := map[string]any{}
		if tc.Function.Arguments != "" && tc.Function.Arguments != "null" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return core.Content{}, core.Malformed("tool_calls[%d]: arguments: %v", i, err)
			}
		}

		parts = append(parts, core.FunctionCallPart{
			FunctionCall: core.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args},
		})
	}

	if len(parts) == 0 {
		if msg.Refusal != "" {
			return core.Content{Role: core.RoleAssistant, Parts: []core.Part{core.TextPart{Text: msg.Refusal}}}, nil
		}

		return core.Content{}, core.Malformed("choice has empty message")
	}

	return core.Content{Role: core.RoleAssistant, Parts: parts}, nil
}
