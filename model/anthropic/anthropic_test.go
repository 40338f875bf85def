package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/internal/testutil"
	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/tool"
)

func makeMessage(t *testing.T, contentJSON string) *anthropic.Message {
	t.Helper()

	raw := `{"id":"msg_1","type":"message","role":"assistant","model":"claude-opus-4-5",` +
		`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1},"content":` + contentJSON + `}`

	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	return &msg
}

func bashDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "bash",
		Description: "Run shell command",
		Parameters:  []tool.Parameter{tool.RequiredParam("cmd", tool.TypeString, "")},
	}
}

func toolTurns() []core.Content {
	return testutil.Turns(
		testutil.User().Text("list files"),
		testutil.Assistant().Text("Let me check").Call("toolu_1", "bash", map[string]any{"cmd": "ls"}),
		testutil.User().Result("toolu_1", "a.txt"),
	)
}

func TestToRequest(t *testing.T) {
	params, err := ToRequest(toolTurns(), "be brief", []tool.Descriptor{bashDescriptor()}, RequestOptions{Model: "m", MaxTokens: 100})
	require.NoError(t, err)

	raw, err := json.Marshal(params)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "m", body["model"])
	assert.EqualValues(t, 100, body["max_tokens"])
	assert.Equal(t, []any{map[string]any{"type": "text", "text": "be brief"}}, body["system"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 3)

	assistant := messages[1].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])

	blocks := assistant["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, map[string]any{"type": "tool_use", "id": "toolu_1", "name": "bash", "input": map[string]any{"cmd": "ls"}}, blocks[1])

	result := messages[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "toolu_1", result["tool_use_id"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)

	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"cmd"}, schema["required"])
}

func TestToRequest_NoSystemNoTools(t *testing.T) {
	params, err := ToRequest([]core.Content{core.NewUserText("hi")}, "", nil, RequestOptions{Model: "m", MaxTokens: 1})
	require.NoError(t, err)
	assert.Empty(t, params.System)
	assert.Empty(t, params.Tools)
}

func TestToMessages_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		turns []core.Content
	}{
		{"call in user turn", []core.Content{{Role: core.RoleUser, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "1", Name: "x"}},
		}}}},
		{"result in assistant turn", []core.Content{{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "1"}},
		}}}},
		{"empty turn", []core.Content{{Role: core.RoleUser}}},
		{"only empty text", []core.Content{{Role: core.RoleUser, Parts: []core.Part{core.TextPart{}}}}},
		{"unknown role", []core.Content{{Role: "system", Parts: []core.Part{core.TextPart{Text: "x"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToMessages(tt.turns)
			assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
		})
	}
}

func TestToMessages_ErrorResult(t *testing.T) {
	turns := toolTurns()
	turns[2] = core.NewToolResults(core.FunctionResponse{ID: "toolu_1", Response: map[string]any{"code": 1}, IsError: true})

	msgs, err := ToMessages(turns)
	require.NoError(t, err)

	tr := msgs[2].Content[0].OfToolResult
	require.NotNil(t, tr)
	assert.True(t, tr.IsError.Value)
	assert.Equal(t, `{"code":1}`, tr.Content[0].OfText.Text)
}

func TestToMessages_EmptyResult(t *testing.T) {
	for _, payload := range []any{"", nil} {
		turns := toolTurns()
		turns[2] = core.NewToolResults(core.FunctionResponse{ID: "toolu_1", Response: payload})

		msgs, err := ToMessages(turns)
		require.NoError(t, err)

		tr := msgs[2].Content[0].OfToolResult
		require.NotNil(t, tr)
		require.Len(t, tr.Content, 1)
		assert.Equal(t, "(empty)", tr.Content[0].OfText.Text)

		raw, err := json.Marshal(msgs[2])
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"text":""`)
	}
}

func TestToMessages_DropsEmptyText(t *testing.T) {
	msgs, err := ToMessages([]core.Content{{Role: core.RoleUser, Parts: []core.Part{
		core.TextPart{Text: ""},
		core.TextPart{Text: "kept"},
	}}})
	require.NoError(t, err)
	require.Len(t, msgs[0].Content, 1)
	assert.Equal(t, "kept", msgs[0].Content[0].OfText.Text)
}

func TestFromResponse(t *testing.T) {
	msg := makeMessage(t, `[
		{"type":"text","text":"Let me check"},
		{"type":"tool_use","id":"toolu_1","name":"read","input":{"path":"a.txt"}},
		{"type":"tool_use","id":"toolu_2","name":"bash","input":{}}
	]`)

	got, err := FromResponse(msg)
	require.NoError(t, err)

	assert.Equal(t, core.RoleAssistant, got.Role)
	assert.Equal(t, "Let me check", got.Text())

	calls := got.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, core.FunctionCall{ID: "toolu_1", Name: "read", Arguments: map[string]any{"path": "a.txt"}}, calls[0])
	assert.Equal(t, map[string]any{}, calls[1].Arguments)
}

func TestFromResponse_Errors(t *testing.T) {
	_, err := FromResponse(nil)
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(makeMessage(t, `[]`))
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(makeMessage(t, `[{"type":"text","text":""}]`))
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(makeMessage(t, `[{"type":"server_tool_use","id":"s","name":"web_search","input":{}}]`))
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)

	got, err := FromResponse(makeMessage(t, `[{"type":"thinking","thinking":"hmm","signature":"x"},{"type":"text","text":"ok"}]`))
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text())
}

func TestRoundTrip_Text(t *testing.T) {
	turn := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.TextPart{Text: "first line"},
		core.TextPart{Text: "second ✓ \"quoted\""},
	}}

	msgs, err := ToMessages([]core.Content{core.NewUserText("q"), turn})
	require.NoError(t, err)

	content, err := json.Marshal(msgs[1].Content)
	require.NoError(t, err)

	got, err := FromResponse(makeMessage(t, string(content)))
	require.NoError(t, err)
	assert.Equal(t, turn, got)
}

func TestRoundTrip_ToolCall(t *testing.T) {
	turn := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "toolu_9", Name: "read", Arguments: map[string]any{"path": "a.txt"}}},
	}}

	msgs, err := ToMessages([]core.Content{core.NewUserText("q"), turn})
	require.NoError(t, err)

	content, err := json.Marshal(msgs[1].Content)
	require.NoError(t, err)

	got, err := FromResponse(makeMessage(t, string(content)))
	require.NoError(t, err)
	assert.Equal(t, turn, got)
}

func newServer(t *testing.T, check func(r *http.Request, body map[string]any), reply string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))

		check(r, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return srv
}

const textReply = `{"id":"msg_1","type":"message","role":"assistant","model":"m","stop_reason":"end_turn",` +
	`"usage":{"input_tokens":3,"output_tokens":2},"content":[{"type":"text","text":"hello"}]}`

func TestModel_Generate_Anthropic(t *testing.T) {
	srv := newServer(t, func(r *http.Request, body map[string]any) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "claude-test", body["model"])
		assert.Equal(t, []any{map[string]any{"type": "text", "text": "sys"}}, body["system"])
	}, textReply)

	m := NewModel(func(o *Options) {
		o.Model = "claude-test"
		o.APIKey = "secret"
		o.BaseURL = srv.URL + "/"
		o.HTTPClient = srv.Client()
	})

	got, err := m.Generate(context.Background(), model.Request{
		System: "sys",
		Turns:  []core.Content{core.NewUserText("hi")},
		Tools:  []tool.Descriptor{bashDescriptor()},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text())

	assert.Equal(t, model.Info{Name: "claude-test", Provider: model.KindAnthropic, SupportsTools: true}, m.Info())
}

func TestModel_Generate_OpenRouterBearer(t *testing.T) {
	srv := newServer(t, func(r *http.Request, _ map[string]any) {
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Api-Key"))
	}, textReply)

	m := NewModel(func(o *Options) {
		o.Kind = model.KindOpenRouter
		o.APIKey = "or-key"
		o.BaseURL = srv.URL + "/"
		o.HTTPClient = srv.Client()
	})

	_, err := m.Generate(context.Background(), model.Request{Turns: []core.Content{core.NewUserText("hi")}})
	require.NoError(t, err)
	assert.Equal(t, model.KindOpenRouter, m.Info().Provider)
}

func TestModel_Generate_Errors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"down"}}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.BaseURL = srv.URL + "/"
		o.HTTPClient = srv.Client()
	})

	_, err := m.Generate(context.Background(), model.Request{Turns: []core.Content{core.NewUserText("hi")}})

	var pErr *core.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "send", pErr.Op)
	assert.EqualValues(t, 1, calls.Load(), "retries are disabled")

	_, err = m.Generate(context.Background(), model.Request{Turns: []core.Content{{Role: core.RoleUser}}})
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "convert", pErr.Op)
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
}
