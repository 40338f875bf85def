package tool

import "fmt"

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateArguments validates model supplied arguments against the declared parameters.
// Unknown extra arguments are allowed.
func ValidateArguments(params []Parameter, args map[string]any) error {
	for _, p := range params {
		value, exists := args[p.Name]
		if !exists {
			if p.Required {
				return &ValidationError{Field: p.Name, Message: "required field is missing"}
			}

			continue
		}

		if !isValidType(value, p.Type) {
			return &ValidationError{
				Field:   p.Name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", p.Type, value),
			}
		}
	}

	return nil
}

// isValidType checks if a value is valid according to the expected canonical type.
func isValidType(value any, expected Type) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expected {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeInteger:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v))
		}

		return false
	case TypeNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}

		return false
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// IntArg reads an optional integer argument, accepting JSON numbers.
func IntArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// StringArg reads an optional string argument.
func StringArg(args map[string]any, name, def string) string {
	if v, ok := args[name].(string); ok {
		return v
	}

	return def
}

// BoolArg reads an optional boolean argument.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}

	return def
}
