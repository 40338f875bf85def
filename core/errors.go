package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by providers, converters and the agent loop.
var (
	// ErrNoProviderConfigured indicates no recognized credential is present.
	ErrNoProviderConfigured = errors.New("no provider configured")

	// ErrMalformedProviderResponse indicates the provider response lacks the expected structure.
	ErrMalformedProviderResponse = errors.New("malformed provider response")

	// ErrToolExecutionFailed indicates a tool returned an error or panicked.
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrToolLoopExceeded indicates the model kept requesting tools past the round cap.
	ErrToolLoopExceeded = errors.New("tool loop exceeded")

	// ErrUnsupportedConversion indicates content that cannot be mapped to or from a wire format.
	ErrUnsupportedConversion = errors.New("unsupported conversion")

	// ErrInvalidTurn indicates a turn that would break the conversation invariants.
	ErrInvalidTurn = errors.New("invalid turn")
)

// ProviderError wraps provider failures with context.
type ProviderError struct {
	Provider string // Provider name ("gemini", "anthropic", ...)
	Op       string // Operation that failed ("send", "convert", ...)
	Err      error  // Underlying error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// Malformed wraps ErrMalformedProviderResponse with a reason.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedProviderResponse, fmt.Sprintf(format, args...))
}

// Unsupported wraps ErrUnsupportedConversion with a reason.
func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedConversion, fmt.Sprintf(format, args...))
}
