// Package router dispatches conversation turns to the provider selected at
// startup. The adapter is built once per process from the immutable
// model.Profile; every SendTurn performs exactly one provider call.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/model/anthropic"
	"github.com/hupe1980/nanocode/model/gemini"
	"github.com/hupe1980/nanocode/model/openai"
	"github.com/hupe1980/nanocode/tool"
)

// Options configures the router and the adapter it builds.
type Options struct {
	// MaxTokens is the completion budget per turn.
	MaxTokens int
	// HTTPClient overrides the SDK transport (tests, proxies).
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Factory builds the adapter for one provider kind.
type Factory func(ctx context.Context, p model.Profile, opts Options) (model.Model, error)

// factories maps each kind to its adapter constructor. OpenRouter shares the
// Anthropic wire format.
var factories = map[model.Kind]Factory{
	model.KindGemini: func(ctx context.Context, p model.Profile, opts Options) (model.Model, error) {
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = p.Model
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			o.MaxTokens = int32(opts.MaxTokens) // nolint: gosec
			o.HTTPClient = opts.HTTPClient
			o.Logger = opts.Logger
		})
	},
	model.KindAnthropic:  anthropicFactory,
	model.KindOpenRouter: anthropicFactory,
	model.KindOpenAI: func(_ context.Context, p model.Profile, opts Options) (model.Model, error) {
		return openai.NewModel(func(o *openai.Options) {
			o.Model = p.Model
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			o.MaxCompletionTokens = int64(opts.MaxTokens)
			o.HTTPClient = opts.HTTPClient
			o.Logger = opts.Logger
		}), nil
	},
}

func anthropicFactory(_ context.Context, p model.Profile, opts Options) (model.Model, error) {
	return anthropic.NewModel(func(o *anthropic.Options) {
		o.Kind = p.Kind
		o.Model = p.Model
		o.APIKey = p.APIKey
		o.BaseURL = p.BaseURL
		o.MaxTokens = int64(opts.MaxTokens)
		o.HTTPClient = opts.HTTPClient
		o.Logger = opts.Logger
	}), nil
}

// Router sends conversation turns to the active provider.
type Router struct {
	profile model.Profile
	model   model.Model
	logger  logging.Logger
}

// New builds the router for profile. It fails before any network activity when
// the profile carries no credential.
func New(ctx context.Context, profile model.Profile, optFns ...func(o *Options)) (*Router, error) {
	opts := applyOptions(optFns)

	if profile.APIKey == "" {
		return nil, fmt.Errorf("%w: %s has no credential", core.ErrNoProviderConfigured, profile.Kind)
	}

	factory, ok := factories[profile.Kind]
	if !ok {
		return nil, fmt.Errorf("router: unknown provider kind %q", profile.Kind)
	}

	m, err := factory(ctx, profile, opts)
	if err != nil {
		return nil, err
	}

	return newRouter(profile, m, opts), nil
}

// NewWithModel wraps an existing model, typically a scripted one in tests.
func NewWithModel(m model.Model, optFns ...func(o *Options)) *Router {
	info := m.Info()

	return newRouter(model.Profile{Kind: info.Provider, Model: info.Name}, m, applyOptions(optFns))
}

func newRouter(profile model.Profile, m model.Model, opts Options) *Router {
	return &Router{
		profile: profile,
		model:   m,
		logger:  logging.With(opts.Logger, "component", "router", "provider", string(profile.Kind)),
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{MaxTokens: anthropic.DefaultMaxTokens}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.MaxTokens <= 0 {
		opts.MaxTokens = anthropic.DefaultMaxTokens
	}

	return opts
}

// Profile returns the active provider profile.
func (r *Router) Profile() model.Profile { return r.profile }

// Info returns the active model metadata.
func (r *Router) Info() model.Info { return r.model.Info() }

// SendTurn converts the conversation for the active provider, issues one
// request and returns the new assistant turn. Failures are *core.ProviderError.
func (r *Router) SendTurn(ctx context.Context, turns []core.Content, tools []tool.Descriptor, system string) (core.Content, error) {
	start := time.Now()

	content, err := r.model.Generate(ctx, model.Request{System: system, Turns: turns, Tools: tools})

	logging.LogModelCall(r.logger, string(r.profile.Kind), r.profile.Model, time.Since(start), err)

	if err != nil {
		var pErr *core.ProviderError
		if !errors.As(err, &pErr) {
			err = core.NewProviderError(string(r.profile.Kind), "send", err)
		}

		return core.Content{}, err
	}

	if content.Role != core.RoleAssistant {
		return core.Content{}, core.NewProviderError(string(r.profile.Kind), "parse",
			core.Malformed("reply role %q", content.Role))
	}

	return content, nil
}
