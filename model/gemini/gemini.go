// Package gemini provides a model adapter for the Google Gemini
// generateContent API built on the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/logging"
	"github.com/hupe1980/nanocode/model"
)

// DefaultMaxTokens is the completion budget per turn.
const DefaultMaxTokens = 8192

const apiVersion = "v1beta"

// Options configures the Gemini model adapter.
type Options struct {
	Model      string
	MaxTokens  int32
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model. The API key is sent as x-goog-api-key.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:     model.KindGemini.DefaultModel(),
		MaxTokens: DefaultMaxTokens,
		BaseURL:   model.KindGemini.DefaultBaseURL(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.BaseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, core.NewProviderError(string(model.KindGemini), "init", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate converts the request, performs one generateContent call and converts
// the first candidate into a canonical assistant turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (core.Content, error) {
	provider := string(model.KindGemini)

	greq, err := ToRequest(req.Turns, req.System, req.Tools, RequestOptions{
		Model:     m.opts.Model,
		MaxTokens: m.opts.MaxTokens,
	})
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "convert", err)
	}

	m.opts.Logger.Debug("gemini.request",
		"model", greq.Model,
		"contents", len(greq.Contents),
		"tools", len(greq.Config.Tools),
	)

	start := time.Now()

	resp, err := m.client.Models.GenerateContent(ctx, greq.Model, greq.Contents, greq.Config)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "send", err)
	}

	m.opts.Logger.Debug("gemini.response",
		"candidates", len(resp.Candidates),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	content, err := FromResponse(resp)
	if err != nil {
		return core.Content{}, core.NewProviderError(provider, "parse", err)
	}

	return content, nil
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      model.KindGemini,
		SupportsTools: true,
	}
}
