// Package anthropic provides a model adapter for the Anthropic Messages API.
// It also serves OpenRouter, whose Anthropic compatible endpoint accepts the
// same wire format with bearer authentication.
package anthropic

import (
	"context"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
)

// DefaultMaxTokens is the completion budget per turn.
const DefaultMaxTokens = 8192

// Options configures the Anthropic model adapter (model id, max tokens,
// credentials, endpoint). Extend via functional options to preserve stability.
type Options struct {
	Model     string
	MaxTokens int64
	APIKey    string
	BaseURL   string
	// Kind is KindAnthropic (x-api-key) or KindOpenRouter (Authorization: Bearer).
	Kind       model.Kind
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client. SDK retries
// are disabled so every Generate call issues exactly one HTTP request.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}

	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	if opts.Kind == model.KindOpenRouter {
		clientOpts = append(clientOpts,
			option.WithAuthToken(opts.APIKey),
			option.WithHeaderDel("X-Api-Key"),
		)
	} else if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

func defaultOptions() Options {
	return Options{
		Model:     model.KindAnthropic.DefaultModel(),
		MaxTokens: DefaultMaxTokens,
		Kind:      model.KindAnthropic,
		Logger:    logging.NoOpLogger{},
	}
}

// Generate converts the request, performs one Messages API call and converts
// the reply into a canonical assistant turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (core.Content, error) {
	provider := string(m.opts.Kind)

	params, err := ToRequest(req.Turns, req.System, req.Tools, RequestOptions{
		Model:     m.opts.Model,
		MaxTokens: m.opts.MaxTokens,
	})
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "convert", err)
	}

	m.opts.Logger.Debug("anthropic.request",
		"provider", provider,
		"model", m.opts.Model,
		"messages", len(params.Messages),
		"tools", len(params.Tools),
	)

	start := time.Now()

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "send", err)
	}

	m.opts.Logger.Debug("anthropic.response",
		"provider", provider,
		"stop_reason", string(resp.StopReason),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	content, err := FromResponse(resp)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "parse", err)
	}

	return content, nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.opts.Kind,
		SupportsTools: true,
	}
}
