package model

import (
	"fmt"
	"strings"

	"github.com/hupe1980/nanocode/core"
)

// Kind identifies a provider wire dialect and endpoint family.
type Kind string

// Supported provider kinds.
const (
	KindGemini     Kind = "gemini"
	KindOpenRouter Kind = "openrouter"
	KindAnthropic  Kind = "anthropic"
	KindOpenAI     Kind = "openai"
)

// Credential environment variables, checked in priority order by Select.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"

	// EnvModel overrides the default model of the selected provider.
	EnvModel = "MODEL"
)

// Profile is the immutable provider configuration selected once per process.
type Profile struct {
	Kind          Kind   `json:"kind"`
	BaseURL       string `json:"base_url"`
	Model         string `json:"model"`
	APIKey        string `json:"-"`
	CredentialEnv string `json:"credential_env"`
}

// String renders the profile without its credential.
func (p Profile) String() string {
	return fmt.Sprintf("%s (%s @ %s)", p.Model, p.Kind, p.BaseURL)
}

type defaults struct {
	env     string
	model   string
	baseURL string
}

// priority is the fixed selection order.
var priority = []Kind{KindGemini, KindOpenRouter, KindAnthropic, KindOpenAI}

var kindDefaults = map[Kind]defaults{
	KindGemini:     {env: EnvGeminiKey, model: "gemini-2.0-flash-exp", baseURL: "https://generativelanguage.googleapis.com"},
	KindOpenRouter: {env: EnvOpenRouterKey, model: "anthropic/claude-opus-4.5", baseURL: "https://openrouter.ai/api/"},
	KindAnthropic:  {env: EnvAnthropicKey, model: "claude-opus-4-5", baseURL: "https://api.anthropic.com/"},
	KindOpenAI:     {env: EnvOpenAIKey, model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1/"},
}

// Kinds returns all supported kinds in selection priority order.
func Kinds() []Kind {
	out := make([]Kind, len(priority))
	copy(out, priority)

	return out
}

// ParseKind converts a case-insensitive provider name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kindDefaults[k]; !ok {
		return "", fmt.Errorf("unknown provider %q", s)
	}

	return k, nil
}

// DisplayName returns the capitalized provider name.
func (k Kind) DisplayName() string {
	switch k {
	case KindOpenRouter:
		return "OpenRouter"
	case KindOpenAI:
		return "OpenAI"
	case "":
		return ""
	default:
		return strings.ToUpper(string(k[:1])) + string(k[1:])
	}
}

// DefaultModel returns the model used when no override is given.
func (k Kind) DefaultModel() string { return kindDefaults[k].model }

// DefaultBaseURL returns the API base URL of the provider.
func (k Kind) DefaultBaseURL() string { return kindDefaults[k].baseURL }

// CredentialEnv returns the environment variable holding the provider key.
func (k Kind) CredentialEnv() string { return kindDefaults[k].env }

// LookupFunc reads a variable, typically os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Override pins parts of the selection. Zero values mean "use the default".
type Override struct {
	Kind    Kind
	Model   string
	BaseURL string
}

// Select chooses the provider profile from credential presence using the fixed
// priority Gemini, OpenRouter, Anthropic, OpenAI. Blank values count as absent.
// An explicit override kind bypasses the priority but still needs its credential.
// MODEL (or override.Model, which wins) replaces the default model.
func Select(lookup LookupFunc, override Override) (Profile, error) {
	get := func(key string) string {
		if lookup == nil {
			return ""
		}

		v, ok := lookup(key)
		if !ok {
			return ""
		}

		return strings.TrimSpace(v)
	}

	var (
		kind Kind
		key  string
	)

	if override.Kind != "" {
		if _, ok := kindDefaults[override.Kind]; !ok {
			return Profile{}, fmt.Errorf("unknown provider %q", override.Kind)
		}

		kind = override.Kind

		key = get(kind.CredentialEnv())
		if key == "" {
			return Profile{}, fmt.Errorf("%w: provider %s requires %s", core.ErrNoProviderConfigured, kind, kind.CredentialEnv())
		}
	} else {
		for _, k := range priority {
			if v := get(k.CredentialEnv()); v != "" {
				kind, key = k, v
				break
			}
		}

		if kind == "" {
			return Profile{}, fmt.Errorf("%w: set one of %s, %s, %s or %s", core.ErrNoProviderConfigured,
				EnvGeminiKey, EnvOpenRouterKey, EnvAnthropicKey, EnvOpenAIKey)
		}
	}

	p := Profile{
		Kind:          kind,
		BaseURL:       kind.DefaultBaseURL(),
		Model:         kind.DefaultModel(),
		APIKey:        key,
		CredentialEnv: kind.CredentialEnv(),
	}

	if m := get(EnvModel); m != "" {
		p.Model = m
	}

	if m := strings.TrimSpace(override.Model); m != "" {
		p.Model = m
	}

	if u := strings.TrimSpace(override.BaseURL); u != "" {
		p.BaseURL = u
	}

	return p, nil
}
