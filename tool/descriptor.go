package tool

import (
	"errors"
	"fmt"
)

// Type is a canonical parameter type. Provider dialects map these to their
// own vocabulary (see the schema package).
type Type string

// Canonical parameter types.
const (
	TypeObject  Type = "object"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
)

// Valid reports whether t is one of the canonical types.
func (t Type) Valid() bool {
	switch t {
	case TypeObject, TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray:
		return true
	default:
		return false
	}
}

// Parameter describes one named argument of a tool.
type Parameter struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	// Items is the element type of array parameters (defaults to string).
	Items Type `json:"items,omitempty"`
}

// RequiredParam declares a mandatory parameter.
func RequiredParam(name string, typ Type, description string) Parameter {
	return Parameter{Name: name, Type: typ, Description: description, Required: true}
}

// OptionalParam declares an optional parameter.
func OptionalParam(name string, typ Type, description string) Parameter {
	return Parameter{Name: name, Type: typ, Description: description}
}

// Descriptor is the language-neutral description of a tool.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// DescriptorOf captures the descriptor of a tool.
func DescriptorOf(t Tool) Descriptor {
	params := t.Parameters()
	cp := make([]Parameter, len(params))
	copy(cp, params)

	return Descriptor{Name: t.Name(), Description: t.Description(), Parameters: cp}
}

// Required returns the names of mandatory parameters in declaration order.
func (d Descriptor) Required() []string {
	required := make([]string, 0, len(d.Parameters))

	for _, p := range d.Parameters {
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return required
}

// Validate checks names, types and parameter uniqueness.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("tool name is required")
	}

	seen := make(map[string]struct{}, len(d.Parameters))

	for _, p := range d.Parameters {
		if p.Name == "" {
			return fmt.Errorf("tool %s: parameter name is required", d.Name)
		}

		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("tool %s: duplicate parameter %q", d.Name, p.Name)
		}

		seen[p.Name] = struct{}{}

		if !p.Type.Valid() {
			return fmt.Errorf("tool %s: parameter %q has unknown type %q", d.Name, p.Name, p.Type)
		}

		if p.Items != "" && !p.Items.Valid() {
			return fmt.Errorf("tool %s: parameter %q has unknown item type %q", d.Name, p.Name, p.Items)
		}
	}

	return nil
}
