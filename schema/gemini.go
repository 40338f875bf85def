package schema

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/nanocode/tool"
)

// geminiTypes maps canonical types to Gemini's uppercase vocabulary. The
// function-calling dialect used here has no integer type, so integer is
// deliberately downgraded to NUMBER.
var geminiTypes = map[tool.Type]genai.Type{
	tool.TypeObject:  genai.TypeObject,
	tool.TypeString:  genai.TypeString,
	tool.TypeNumber:  genai.TypeNumber,
	tool.TypeInteger: genai.TypeNumber,
	tool.TypeBoolean: genai.TypeBoolean,
	tool.TypeArray:   genai.TypeArray,
}

// GeminiType returns the Gemini type for a canonical type.
func GeminiType(t tool.Type) (genai.Type, error) {
	gt, ok := geminiTypes[t]
	if !ok {
		return "", fmt.Errorf("schema: no gemini type for %q", t)
	}

	return gt, nil
}

// ForGemini renders the Gemini dialect: a single tool holding all function
// declarations. No descriptors yields no tools.
func ForGemini(descs []tool.Descriptor) ([]*genai.Tool, error) {
	if len(descs) == 0 {
		return nil, nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(descs))

	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}

		params, err := geminiParameters(d)
		if err != nil {
			return nil, err
		}

		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

func geminiParameters(d tool.Descriptor) (*genai.Schema, error) {
	props := make(map[string]*genai.Schema, len(d.Parameters))
	ordering := make([]string, 0, len(d.Parameters))

	for _, p := range d.Parameters {
		typ, err := GeminiType(p.Type)
		if err != nil {
			return nil, err
		}

		prop := &genai.Schema{Type: typ, Description: p.Description}

		if p.Type == tool.TypeArray {
			itemTyp, err := GeminiType(itemType(p))
			if err != nil {
				return nil, err
			}

			prop.Items = &genai.Schema{Type: itemTyp}
		}

		props[p.Name] = prop
		ordering = append(ordering, p.Name)
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		PropertyOrdering: ordering,
		Required:         d.Required(),
	}, nil
}
