package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/tool"
)

func TestNew_AllKinds(t *testing.T) {
	for _, kind := range model.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p := model.Profile{Kind: kind, Model: kind.DefaultModel(), BaseURL: kind.DefaultBaseURL(), APIKey: "k"}

			r, err := New(context.Background(), p)
			require.NoError(t, err)

			assert.Equal(t, p, r.Profile())
			assert.Equal(t, kind, r.Info().Provider)
			assert.Equal(t, kind.DefaultModel(), r.Info().Name)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), model.Profile{Kind: model.KindAnthropic})
	assert.ErrorIs(t, err, core.ErrNoProviderConfigured)

	_, err = New(context.Background(), model.Profile{Kind: "bedrock", APIKey: "k"})
	assert.Error(t, err)
}

func TestSendTurn_Scripted(t *testing.T) {
	m := model.NewScriptedModel(model.Reply(core.TextPart{Text: "hello"}))
	r := NewWithModel(m)

	turns := []core.Content{core.NewUserText("hi")}
	tools := []tool.Descriptor{{Name: "bash"}}

	got, err := r.SendTurn(context.Background(), turns, tools, "sys")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text())

	req := m.Requests()[0]
	assert.Equal(t, "sys", req.System)
	assert.Equal(t, turns, req.Turns)
	assert.Equal(t, tools, req.Tools)
}

func TestSendTurn_WrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewWithModel(model.NewScriptedModel(
		model.Fail(boom),
		model.Fail(core.NewProviderError("scripted", "parse", core.Malformed("x"))),
		model.ScriptStep{Content: core.NewUserText("wrong role")},
	))

	_, err := r.SendTurn(context.Background(), nil, nil, "")

	var pErr *core.ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "send", pErr.Op)
	assert.ErrorIs(t, err, boom)

	_, err = r.SendTurn(context.Background(), nil, nil, "")
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "parse", pErr.Op)
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = r.SendTurn(context.Background(), nil, nil, "")
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)
}

func TestSendTurn_OneRequestPerTurn(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg","type":"message","role":"assistant","model":"m","stop_reason":"end_turn",`+
			`"usage":{"input_tokens":1,"output_tokens":1},"content":[{"type":"text","text":"routed"}]}`)
	}))
	defer srv.Close()

	r, err := New(context.Background(), model.Profile{
		Kind:    model.KindOpenRouter,
		Model:   "anthropic/claude-opus-4.5",
		BaseURL: srv.URL + "/",
		APIKey:  "or-key",
	}, func(o *Options) {
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	got, err := r.SendTurn(context.Background(), []core.Content{core.NewUserText("hi")}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "routed", got.Text())
	assert.EqualValues(t, 1, hits.Load())
}
