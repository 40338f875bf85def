// Package schema renders tool descriptors into the tool declaration dialect of
// each provider. Every function here is pure: the same descriptors always
// produce byte-identical output, with properties listed in declaration order.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"google.golang.org/genai"

	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/tool"
)

// AnthropicTool is one Anthropic / OpenRouter tool declaration.
type AnthropicTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// OpenAITool is one OpenAI chat completions tool declaration.
type OpenAITool struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// OpenAIFunction is the function part of an OpenAITool.
type OpenAIFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Payload is the provider specific tool declaration list. Exactly one field is
// populated, matching Kind.
type Payload struct {
	Kind      model.Kind
	Anthropic []AnthropicTool
	Gemini    []*genai.Tool
	OpenAI    []OpenAITool
}

// MarshalJSON renders only the active dialect.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case model.KindGemini:
		return json.Marshal(p.Gemini)
	case model.KindAnthropic, model.KindOpenRouter:
		return json.Marshal(p.Anthropic)
	case model.KindOpenAI:
		return json.Marshal(p.OpenAI)
	default:
		return nil, fmt.Errorf("schema: unknown provider kind %q", p.Kind)
	}
}

// Build renders descriptors for the given provider kind.
func Build(kind model.Kind, descs []tool.Descriptor) (Payload, error) {
	p := Payload{Kind: kind}

	var err error

	switch kind {
	case model.KindGemini:
		p.Gemini, err = ForGemini(descs)
	case model.KindAnthropic, model.KindOpenRouter:
		p.Anthropic, err = ForAnthropic(descs)
	case model.KindOpenAI:
		p.OpenAI, err = ForOpenAI(descs)
	default:
		err = fmt.Errorf("schema: unknown provider kind %q", kind)
	}

	if err != nil {
		return Payload{}, err
	}

	return p, nil
}

// JSONSchema renders a descriptor's parameters as a lowercase JSON Schema object.
func JSONSchema(d tool.Descriptor) (*jsonschema.Schema, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	props := jsonschema.NewProperties()

	for _, p := range d.Parameters {
		prop := &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
		}

		if p.Type == tool.TypeArray {
			prop.Items = &jsonschema.Schema{Type: string(itemType(p))}
		}

		props.Set(p.Name, prop)
	}

	return &jsonschema.Schema{
		Type:       string(tool.TypeObject),
		Properties: props,
		Required:   d.Required(),
	}, nil
}

// ForAnthropic renders the Anthropic / OpenRouter dialect: one entry per tool
// with an input_schema.
func ForAnthropic(descs []tool.Descriptor) ([]AnthropicTool, error) {
	out := make([]AnthropicTool, 0, len(descs))

	for _, d := range descs {
		s, err := JSONSchema(d)
		if err != nil {
			return nil, err
		}

		out = append(out, AnthropicTool{Name: d.Name, Description: d.Description, InputSchema: s})
	}

	return out, nil
}

// ForOpenAI renders the OpenAI chat completions dialect.
func ForOpenAI(descs []tool.Descriptor) ([]OpenAITool, error) {
	out := make([]OpenAITool, 0, len(descs))

	for _, d := range descs {
		s, err := JSONSchema(d)
		if err != nil {
			return nil, err
		}

		out = append(out, OpenAITool{
			Type:     "function",
			Function: OpenAIFunction{Name: d.Name, Description: d.Description, Parameters: s},
		})
	}

	return out, nil
}

func itemType(p tool.Parameter) tool.Type {
	if p.Items == "" {
		return tool.TypeString
	}

	return p.Items
}
