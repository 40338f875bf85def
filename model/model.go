package model

import (
	"context"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/tool"
)

// Request captures the canonical model input for one turn.
type Request struct {
	System string            `json:"system,omitempty"` // System prompt, rendered per provider
	Turns  []core.Content    `json:"turns"`            // Conversation so far, oldest first
	Tools  []tool.Descriptor `json:"tools,omitempty"`  // Tools the model may call
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      Kind   `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the router to drive generation.
// Generate issues exactly one provider call and returns a new assistant turn.
type Model interface {
	Generate(ctx context.Context, req Request) (core.Content, error)

	// Info returns information about the model implementation.
	Info() Info
}
