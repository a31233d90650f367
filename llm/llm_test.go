package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/llm/llmtest"
	"github.com/smallnest/agentpatterns/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestNew_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "bogus"
	_, err := New(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestNew_Providers(t *testing.T) {
	for _, p := range []string{config.ProviderOpenAI, config.ProviderOpenAINative} {
		cfg := config.Default()
		cfg.Provider = p
		cfg.APIKey = "sk-test"
		m, err := New(context.Background(), cfg)
		require.NoError(t, err, p)
		assert.NotNil(t, m)
	}
}

func TestWithDefaults_PrependsOptions(t *testing.T) {
	scripted := llmtest.New(llmtest.Text("a"), llmtest.Text("b"))
	m := WithDefaults(scripted, time.Second, llms.WithTemperature(0.3), llms.WithModel("base"))

	_, err := m.GenerateContent(context.Background(), nil)
	require.NoError(t, err)
	_, err = m.GenerateContent(context.Background(), nil, llms.WithModel("override"))
	require.NoError(t, err)

	reqs := scripted.Requests()
	require.Len(t, reqs, 2)
	assert.InDelta(t, 0.3, reqs[0].Options.Temperature, 1e-9)
	assert.Equal(t, "base", reqs[0].Options.Model)
	assert.Equal(t, "override", reqs[1].Options.Model)
}

func TestWithDefaults_Call(t *testing.T) {
	m := WithDefaults(llmtest.New(llmtest.Text("pong")), 0)
	out, err := m.Call(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestComplete(t *testing.T) {
	scripted := llmtest.New(llmtest.ToolCalls(llmtest.Call("c1", "get_capital", `{"country":"France"}`)))
	reply, err := Complete(context.Background(), scripted, []message.Message{message.Human("capital?")})
	require.NoError(t, err)
	assert.Equal(t, message.RoleAI, reply.Role)
	require.True(t, reply.HasToolCalls())
	assert.Equal(t, "get_capital", reply.ToolCalls[0].Name)
}

func TestComplete_Empty(t *testing.T) {
	scripted := llmtest.New(&llms.ContentResponse{})
	_, err := Complete(context.Background(), scripted, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAsk_PropagatesError(t *testing.T) {
	_, err := Ask(context.Background(), llmtest.New(), "hi")
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}

func TestGoOpenAI_RoundTrip(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-test",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role: openai.ChatMessageRoleAssistant,
					ToolCalls: []openai.ToolCall{{
						ID:   "call_1",
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      "calculate_age",
							Arguments: `{"birth_year":1990}`,
						},
					}},
				},
				FinishReason: openai.FinishReasonToolCalls,
			}},
			Usage: openai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		})
	}))
	defer srv.Close()

	m := NewGoOpenAI("sk-test", srv.URL+"/v1", "gpt-test")
	history := []message.Message{
		message.System("be brief"),
		message.Human("how old?"),
	}
	tools := []llms.Tool{{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:       "calculate_age",
			Parameters: map[string]any{"type": "object"},
		},
	}}

	reply, err := Complete(context.Background(), m, history, llms.WithTools(tools))
	require.NoError(t, err)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "how old?", got.Messages[1].Content)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "calculate_age", got.Tools[0].Function.Name)

	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "call_1", reply.ToolCalls[0].ID)
	assert.Equal(t, `{"birth_year":1990}`, reply.ToolCalls[0].Arguments)
}

func TestToOpenAIMessages_ToolTurn(t *testing.T) {
	call := message.ToolCall{ID: "c1", Name: "get_capital", Arguments: `{}`}
	msgs := toOpenAIMessages(message.ToLLM([]message.Message{
		message.AI("", call),
		message.ToolResult(call, "Paris"),
	}))

	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[0].Role)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, "get_capital", msgs[0].ToolCalls[0].Function.Name)
	assert.Equal(t, openai.ChatMessageRoleTool, msgs[1].Role)
	assert.Equal(t, "c1", msgs[1].ToolCallID)
	assert.Equal(t, "Paris", msgs[1].Content)
}

func TestGoOpenAI_SendsZeroTemperature(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID: "chatcmpl-2",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "ok"},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer srv.Close()

	m := NewGoOpenAI("sk-test", srv.URL+"/v1", "gpt-test")
	reply, err := llms.GenerateFromSinglePrompt(context.Background(), m, "hi", llms.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)

	require.Contains(t, body, "temperature")
	temp, ok := body["temperature"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 0, temp, 1e-6)
}
