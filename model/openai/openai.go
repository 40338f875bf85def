// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API with function/tool calling. It serves any endpoint that
// speaks the same wire format.
package openai

import (
	"context"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
)

// DefaultMaxTokens is the completion budget per turn.
const DefaultMaxTokens = 8192

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
	HTTPClient          *http.Client
	Logger              logging.Logger
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. SDK retries
// are disabled so every Generate call issues exactly one HTTP request.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := applyOptions(optFns)

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}

	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:               model.KindOpenAI.DefaultModel(),
		MaxCompletionTokens: DefaultMaxTokens,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return opts
}

// Generate converts the request, performs one chat completion call and converts
// the first choice into a canonical assistant turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (core.Content, error) {
	provider := string(model.KindOpenAI)

	params, err := ToRequest(req.Turns, req.System, req.Tools, RequestOptions{
		Model:     m.opts.Model,
		MaxTokens: m.opts.MaxCompletionTokens,
	})
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "convert", err)
	}

	m.opts.Logger.Debug("openai.request",
		"model", m.opts.Model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
	)

	start := time.Now()

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "send", err)
	}

	m.opts.Logger.Debug("openai.response",
		"choices", len(resp.Choices),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	content, err := FromResponse(resp)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "parse", err)
	}

	return content, nil
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      model.KindOpenAI,
		SupportsTools: true,
	}
}
