package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nanocode/core"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestSelect_Priority(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want Kind
	}{
		{"all set picks gemini", map[string]string{EnvGeminiKey: "g", EnvOpenRouterKey: "o", EnvAnthropicKey: "a", EnvOpenAIKey: "x"}, KindGemini},
		{"openrouter beats anthropic", map[string]string{EnvOpenRouterKey: "o", EnvAnthropicKey: "a"}, KindOpenRouter},
		{"anthropic only", map[string]string{EnvAnthropicKey: "a"}, KindAnthropic},
		{"anthropic beats openai", map[string]string{EnvAnthropicKey: "a", EnvOpenAIKey: "x"}, KindAnthropic},
		{"openai only", map[string]string{EnvOpenAIKey: "x"}, KindOpenAI},
		{"blank gemini ignored", map[string]string{EnvGeminiKey: "  ", EnvAnthropicKey: "a"}, KindAnthropic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Select(env(tt.vars), Override{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Kind)
			assert.Equal(t, tt.want.DefaultModel(), p.Model)
			assert.Equal(t, tt.want.DefaultBaseURL(), p.BaseURL)
			assert.Equal(t, tt.want.CredentialEnv(), p.CredentialEnv)
		})
	}
}

func TestSelect_NoProvider(t *testing.T) {
	_, err := Select(env(nil), Override{})
	assert.ErrorIs(t, err, core.ErrNoProviderConfigured)

	_, err = Select(nil, Override{})
	assert.ErrorIs(t, err, core.ErrNoProviderConfigured)
}

func TestSelect_ModelOverride(t *testing.T) {
	vars := map[string]string{EnvAnthropicKey: "a", EnvModel: "claude-sonnet"}

	p, err := Select(env(vars), Override{})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet", p.Model)
	assert.Equal(t, "a", p.APIKey)

	p, err = Select(env(vars), Override{Model: "from-config"})
	require.NoError(t, err)
	assert.Equal(t, "from-config", p.Model)
}

func TestSelect_ExplicitKind(t *testing.T) {
	vars := map[string]string{EnvGeminiKey: "g", EnvAnthropicKey: "a"}

	p, err := Select(env(vars), Override{Kind: KindAnthropic, BaseURL: "http://localhost:9999/"})
	require.NoError(t, err)
	assert.Equal(t, KindAnthropic, p.Kind)
	assert.Equal(t, "a", p.APIKey)
	assert.Equal(t, "http://localhost:9999/", p.BaseURL)

	_, err = Select(env(vars), Override{Kind: KindOpenAI})
	assert.ErrorIs(t, err, core.ErrNoProviderConfigured)

	_, err = Select(env(vars), Override{Kind: "mistral"})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" OpenRouter ")
	require.NoError(t, err)
	assert.Equal(t, KindOpenRouter, k)
	assert.Equal(t, "OpenRouter", k.DisplayName())
	assert.Equal(t, "Gemini", KindGemini.DisplayName())

	_, err = ParseKind("bedrock")
	assert.Error(t, err)

	assert.Equal(t, []Kind{KindGemini, KindOpenRouter, KindAnthropic, KindOpenAI}, Kinds())
}

func TestProfile_StringHidesKey(t *testing.T) {
	p := Profile{Kind: KindGemini, Model: "m", BaseURL: "u", APIKey: "secret"}
	assert.NotContains(t, p.String(), "secret")
}

func TestScriptedModel(t *testing.T) {
	boom := errors.New("boom")
	m := NewScriptedModel(
		Reply(core.TextPart{Text: "one"}),
		Fail(boom),
	)

	req := Request{Turns: []core.Content{core.NewUserText("hi")}}

	got, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Text())
	assert.Equal(t, core.RoleAssistant, got.Role)

	_, err = m.Generate(context.Background(), req)
	assert.ErrorIs(t, err, boom)

	_, err = m.Generate(context.Background(), req)
	assert.Error(t, err)

	assert.Equal(t, 3, m.Calls())
	assert.Len(t, m.Requests()[0].Turns, 1)
}

func TestScriptedModel_Repeat(t *testing.T) {
	m := NewScriptedModel(Reply(core.TextPart{Text: "again"})).Repeat()

	for i := 0; i < 3; i++ {
		got, err := m.Generate(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "again", got.Text())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
