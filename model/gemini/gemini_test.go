package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/internal/testutil"
	"github.com/hupe1980/nanocode/model"
	"github.com/hupe1980/nanocode/tool"
)

func call(id, name string, args map[string]any) core.Part {
	return core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: args}}
}

func result(id string, payload any, isErr bool) core.FunctionResponse {
	return core.FunctionResponse{ID: id, Response: payload, IsError: isErr}
}

func responseFrom(t *testing.T, content *genai.Content) *genai.GenerateContentResponse {
	t.Helper()

	raw, err := json.Marshal(map[string]any{"candidates": []any{map[string]any{"content": content}}})
	require.NoError(t, err)

	var resp genai.GenerateContentResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	return &resp
}

func TestToContents_RolesAndAdjacency(t *testing.T) {
	turns := []core.Content{
		core.NewUserText("look"),
		{Role: core.RoleAssistant, Parts: []core.Part{
			core.TextPart{Text: "reading"},
			call("a", "read", map[string]any{"path": "a.txt"}),
			call("b", "read", map[string]any{"path": "b.txt"}),
			call("c", "bash", map[string]any{"cmd": "ls"}),
		}},
		core.NewToolResults(result("a", "A", false), result("b", "B", false), result("c", "boom", true)),
	}

	contents, err := ToContents(turns)
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)

	assert.Equal(t, "reading", contents[1].Parts[0].Text)
	assert.Equal(t, &genai.FunctionCall{Name: "read", Args: map[string]any{"path": "a.txt"}}, contents[1].Parts[1].FunctionCall)

	res := contents[2].Parts
	require.Len(t, res, 3)
	assert.Equal(t, "read", res[0].FunctionResponse.Name)
	assert.Equal(t, map[string]any{"result": "A"}, res[0].FunctionResponse.Response)
	assert.Equal(t, "read", res[1].FunctionResponse.Name)
	assert.Equal(t, map[string]any{"result": "B"}, res[1].FunctionResponse.Response)
	assert.Equal(t, "bash", res[2].FunctionResponse.Name)
	assert.Equal(t, map[string]any{"error": "boom"}, res[2].FunctionResponse.Response)
}

func TestToContents_StrictAdjacency(t *testing.T) {
	tests := []struct {
		name  string
		turns []core.Content
	}{
		{"unknown id", []core.Content{
			core.NewUserText("x"),
			{Role: core.RoleAssistant, Parts: []core.Part{call("a", "read", nil)}},
			core.NewToolResults(result("zzz", "A", false)),
		}},
		{"result without preceding call", []core.Content{
			core.NewToolResults(result("a", "A", false)),
		}},
		{"result answering an older turn", []core.Content{
			core.NewUserText("x"),
			{Role: core.RoleAssistant, Parts: []core.Part{call("a", "read", nil)}},
			core.NewToolResults(result("a", "A", false)),
			{Role: core.RoleAssistant, Parts: []core.Part{call("b", "read", nil)}},
			core.NewToolResults(result("a", "A", false)),
		}},
		{"duplicate answer", []core.Content{
			core.NewUserText("x"),
			{Role: core.RoleAssistant, Parts: []core.Part{call("a", "read", nil)}},
			core.NewToolResults(result("a", "A", false), result("a", "A", false)),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToContents(tt.turns)
			assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
		})
	}
}

func TestToContents_MisplacedParts(t *testing.T) {
	_, err := ToContents([]core.Content{{Role: core.RoleUser, Parts: []core.Part{call("a", "read", nil)}}})
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)

	_, err = ToContents([]core.Content{{Role: core.RoleAssistant, Parts: []core.Part{
		core.FunctionResponsePart{FunctionResponse: result("a", "x", false)},
	}}})
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)

	_, err = ToContents([]core.Content{{Role: core.RoleUser}})
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
}

func TestToContents_EmptyText(t *testing.T) {
	contents, err := ToContents([]core.Content{{Role: core.RoleUser, Parts: []core.Part{
		core.TextPart{Text: ""},
		core.TextPart{Text: "kept"},
	}}})
	require.NoError(t, err)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "kept", contents[0].Parts[0].Text)

	_, err = ToContents([]core.Content{{Role: core.RoleUser, Parts: []core.Part{core.TextPart{}}}})
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
}

func TestToContents_TextAfterResults(t *testing.T) {
	contents, err := ToContents(testutil.Turns(
		testutil.User().Text("edit it"),
		testutil.Assistant().Call("e1", "edit", map[string]any{"path": "a.go"}),
		testutil.User().Failure("e1", "error: tool loop exceeded").Text("try again"),
	))
	require.NoError(t, err)

	parts := contents[2].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].FunctionResponse)
	assert.Equal(t, "edit", parts[0].FunctionResponse.Name)
	assert.Equal(t, "try again", parts[1].Text)
}

func TestToRequest_SystemInstructionAndTools(t *testing.T) {
	descs := []tool.Descriptor{{
		Name:       "read",
		Parameters: []tool.Parameter{tool.RequiredParam("path", tool.TypeString, "")},
	}}

	req, err := ToRequest([]core.Content{core.NewUserText("hi")}, "be brief", descs, RequestOptions{Model: "gemini-test", MaxTokens: 64})
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", req.Model)
	require.NotNil(t, req.Config.SystemInstruction)
	assert.Equal(t, "be brief", req.Config.SystemInstruction.Parts[0].Text)
	assert.EqualValues(t, 64, req.Config.MaxOutputTokens)
	require.Len(t, req.Config.Tools, 1)
	assert.Equal(t, "read", req.Config.Tools[0].FunctionDeclarations[0].Name)

	// The system prompt never leaks into the conversation.
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "hi", req.Contents[0].Parts[0].Text)

	req, err = ToRequest([]core.Content{core.NewUserText("hi")}, "", nil, RequestOptions{})
	require.NoError(t, err)
	assert.Nil(t, req.Config.SystemInstruction)
	assert.Nil(t, req.Config.Tools)
}

func TestFromResponse(t *testing.T) {
	resp := responseFrom(t, &genai.Content{Role: "model", Parts: []*genai.Part{
		{Text: "plan", Thought: true},
		{Text: "checking"},
		{FunctionCall: &genai.FunctionCall{Name: "read", Args: map[string]any{"path": "a.txt"}}},
		{FunctionCall: &genai.FunctionCall{Name: "read", Args: map[string]any{"path": "b.txt"}}},
		{FunctionCall: &genai.FunctionCall{ID: "given", Name: "bash"}},
	}})

	got, err := FromResponse(resp)
	require.NoError(t, err)

	assert.Equal(t, core.RoleAssistant, got.Role)
	assert.Equal(t, "checking", got.Text())

	calls := got.FunctionCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, "read_call_1", calls[0].ID)
	assert.Equal(t, "read_call_2", calls[1].ID)
	assert.Equal(t, "given", calls[2].ID)
	assert.Equal(t, map[string]any{}, calls[2].Arguments)
}

func TestFromResponse_Malformed(t *testing.T) {
	_, err := FromResponse(nil)
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}})
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(responseFrom(t, &genai.Content{Role: "model"}))
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(responseFrom(t, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "x", Thought: true}}}))
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)

	_, err = FromResponse(responseFrom(t, &genai.Content{Role: "model", Parts: []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1}}},
	}}))
	assert.ErrorIs(t, err, core.ErrUnsupportedConversion)
}

func TestRoundTrip_Text(t *testing.T) {
	turn := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		core.TextPart{Text: "first"},
		core.TextPart{Text: "ünïcode \"second\"\n"},
	}}

	contents, err := ToContents([]core.Content{core.NewUserText("q"), turn})
	require.NoError(t, err)

	got, err := FromResponse(responseFrom(t, contents[1]))
	require.NoError(t, err)
	assert.Equal(t, turn, got)
}

func TestRoundTrip_ToolCall(t *testing.T) {
	turn := core.Content{Role: core.RoleAssistant, Parts: []core.Part{
		call("toolu_1", "read", map[string]any{"path": "a.txt"}),
	}}

	contents, err := ToContents([]core.Content{core.NewUserText("q"), turn})
	require.NoError(t, err)

	got, err := FromResponse(responseFrom(t, contents[1]))
	require.NoError(t, err)

	calls := got.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "read", calls[0].Name)
	assert.Equal(t, map[string]any{"path": "a.txt"}, calls[0].Arguments)
}

func TestModel_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Contains(t, body, "systemInstruction")
		assert.Contains(t, body, "tools")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[`+
			`{"functionCall":{"name":"read","args":{"path":"a.txt"}}}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	m, err := NewModel(context.Background(), func(o *Options) {
		o.Model = "gemini-test"
		o.APIKey = "g-key"
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	got, err := m.Generate(context.Background(), model.Request{
		System: "sys",
		Turns:  []core.Content{core.NewUserText("hi")},
		Tools: []tool.Descriptor{{
			Name:       "read",
			Parameters: []tool.Parameter{tool.RequiredParam("path", tool.TypeString, "")},
		}},
	})
	require.NoError(t, err)

	calls := got.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "read_call_1", calls[0].ID)

	assert.Equal(t, model.KindGemini, m.Info().Provider)
}

func TestModel_Generate_MalformedIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	m, err := NewModel(context.Background(), func(o *Options) {
		o.APIKey = "g-key"
		o.BaseURL = srv.URL
		o.HTTPClient = srv.Client()
	})
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), model.Request{Turns: []core.Content{core.NewUserText("hi")}})

	var pErr *core.ProviderError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "parse", pErr.Op)
	assert.ErrorIs(t, err, core.ErrMalformedProviderResponse)
}

func TestToContents_ConversationHistory(t *testing.T) {
	turns := testutil.Conversation(testutil.ToolRoundTrip()...).Turns()

	contents, err := ToContents(turns)
	require.NoError(t, err)
	require.Len(t, contents, 4)

	assert.Equal(t, []string{"user", "model", "user", "model"}, []string{
		contents[0].Role, contents[1].Role, contents[2].Role, contents[3].Role,
	})

	fr := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "glob", fr.Name)
	assert.Equal(t, map[string]any{"result": "main.go\nutil.go"}, fr.Response)
}
