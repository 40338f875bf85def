package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/nanocode/core"
)

// ScriptedModel is a lightweight in-memory Model that replays canned turns in
// order. Useful for tests & examples.
type ScriptedModel struct {
	info Info

	mu       sync.Mutex
	script   []ScriptStep
	requests []Request
	repeat   bool
}

// ScriptStep is one canned reply: either a turn or an error.
type ScriptStep struct {
	Content core.Content
	Err     error
}

// NewScriptedModel constructs a ScriptedModel replaying steps in order.
func NewScriptedModel(steps ...ScriptStep) *ScriptedModel {
	return &ScriptedModel{
		info: Info{
			Name:          "scripted",
			Provider:      "scripted",
			SupportsTools: true,
		},
		script: steps,
	}
}

// Reply is a ScriptStep answering with an assistant turn built from parts.
func Reply(parts ...core.Part) ScriptStep {
	return ScriptStep{Content: core.Content{Role: core.RoleAssistant, Parts: parts}}
}

// Fail is a ScriptStep answering with err.
func Fail(err error) ScriptStep { return ScriptStep{Err: err} }

// Repeat makes the last step replay forever once the script is exhausted.
func (m *ScriptedModel) Repeat() *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.repeat = true

	return m
}

// Generate implements Model by returning the next scripted step.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (core.Content, error) {
	if err := ctx.Err(); err != nil {
		return core.Content{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns := make([]core.Content, len(req.Turns))
	copy(turns, req.Turns)
	req.Turns = turns
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		return core.Content{}, fmt.Errorf("scripted model: no step left for call %d", len(m.requests))
	}

	step := m.script[0]
	if len(m.script) > 1 || !m.repeat {
		m.script = m.script[1:]
	}

	if step.Err != nil {
		return core.Content{}, step.Err
	}

	return step.Content, nil
}

// Requests returns every request seen so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// Calls returns the number of Generate invocations.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Info implements Model interface.
func (m *ScriptedModel) Info() Info { return m.info }
