package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/schema"
	"github.com/hupe1980/nanocode/tool"
)

// RequestOptions carries the non-conversation request fields.
type RequestOptions struct {
	Model     string
	MaxTokens int64
}

// ToRequest converts canonical turns, system prompt and tools into Messages API
// parameters. It is a pure function of its inputs.
func ToRequest(turns []core.Content, system string, tools []tool.Descriptor, opts RequestOptions) (anthropic.MessageNewParams, error) {
	messages, err := ToMessages(turns)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if len(tools) > 0 {
		params.Tools, err = ToTools(tools)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
	}

	return params, nil
}

// ToTools renders tool descriptors as Anthropic tool params.
func ToTools(descs []tool.Descriptor) ([]anthropic.ToolUnionParam, error) {
	decls, err := schema.ForAnthropic(descs)
	if err != nil {
		return nil, err
	}

	out := make([]anthropic.ToolUnionParam, len(decls))
	for i, d := range decls {
		out[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: d.InputSchema.Properties,
					Required:   d.InputSchema.Required,
				},
			},
		}
	}

	return out, nil
}

// ToMessages converts canonical turns into Messages API params.
//
// Anthropic's API requires:
//   - Only "user" and "assistant" roles
//   - Tool results are sent as user messages with tool_result blocks
//   - Assistant messages with tool calls use tool_use blocks
//   - Text blocks are non-empty, so empty text parts are dropped; a turn left
//     without blocks is unsupported
func ToMessages(turns []core.Content) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(turns))

	for i, turn := range turns {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.Parts))

		for _, p := range turn.Parts {
			switch part := p.(type) {
			case core.TextPart:
				if part.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				}
			case core.FunctionCallPart:
				if turn.Role != core.RoleAssistant {
					return nil, core.Unsupported("turn %d: tool call %q in %s turn", i, part.FunctionCall.ID, turn.Role)
				}

				input := part.FunctionCall.Arguments
				if input == nil {
					input = map[string]any{}
				}

				blocks = append(blocks, anthropic.NewToolUseBlock(part.FunctionCall.ID, input, part.FunctionCall.Name))
			case core.FunctionResponsePart:
				if turn.Role != core.RoleUser {
					return nil, core.Unsupported("turn %d: tool result %q in %s turn", i, part.FunctionResponse.ID, turn.Role)
				}

				content, err := ResultText(part.FunctionResponse.Response)
				if err != nil {
					return nil, core.Unsupported("turn %d: tool result %q: %v", i, part.FunctionResponse.ID, err)
				}

				blocks = append(blocks, anthropic.NewToolResultBlock(part.FunctionResponse.ID, content, part.FunctionResponse.IsError))
			default:
				return nil, core.Unsupported("turn %d: part type %T", i, p)
			}
		}

		if len(blocks) == 0 {
			return nil, core.Unsupported("turn %d: no content", i)
		}

		switch turn.Role {
		case core.RoleUser:
			out = append(out, anthropic.NewUserMessage(blocks...))
		case core.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			return nil, core.Unsupported("turn %d: role %q", i, turn.Role)
		}
	}

	return out, nil
}

// emptyResult stands in for empty tool output; the Messages API rejects empty
// text blocks.
const emptyResult = "(empty)"

// ResultText renders a tool result payload as tool_result text content.
// Strings pass through; structured values are JSON encoded. Empty payloads
// render as "(empty)".
func ResultText(payload any) (string, error) {
	var text string

	switch v := payload.(type) {
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

	if text == "" {
		return emptyResult, nil
	}

	return text, nil
}

// FromResponse converts a Messages API response into a canonical assistant turn.
func FromResponse(msg *anthropic.Message) (core.Content, error) {
	if msg == nil {
		return core.Content{}, core.Malformed("nil message")
	}

	if len(msg.Content) == 0 {
		return core.Content{}, core.Malformed("message %s has no content", msg.ID)
	}

	parts := make([]core.Part, 0, len(msg.Content))

	for i, block := range msg.Content {
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				parts = append(parts, core.TextPart{Text: text})
			}
		case "tool_use":
			tu := block.AsToolUse()
			if tu.ID == "" || tu.Name == "" {
				return core.Content{}, core.Malformed("content[%d]: tool_use without id or name", i)
			}

			args := map[string]any{}
			if len(tu.Input) > 0 && string(tu.Input) != "null" {
				if err := json.Unmarshal(tu.Input, &args); err != nil {
					return core.Content{}, core.Malformed("content[%d]: tool_use input: %v", i, err)
				}
			}

			parts = append(parts, core.FunctionCallPart{
				FunctionCall: core.FunctionCall{ID: tu.ID, Name: tu.Name, Arguments: args},
			})
		case "thinking", "redacted_thinking":
			continue
		default:
			return core.Content{}, core.Unsupported("content[%d]: block type %q", i, block.Type)
		}
	}

	if len(parts) == 0 {
		return core.Content{}, core.Malformed("message %s has no text or tool_use content", msg.ID)
	}

	return core.Content{Role: core.RoleAssistant, Parts: parts}, nil
}
