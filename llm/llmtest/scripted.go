// Package llmtest provides a deterministic llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// ErrExhausted is returned once every scripted response has been consumed.
var ErrExhausted = errors.New("scripted model: no more responses")

// Responder computes a reply from the request instead of a fixed script.
type Responder func(ctx context.Context, messages []llms.MessageContent, opts llms.CallOptions) (*llms.ContentResponse, error)

// Request records one GenerateContent call.
type Request struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// ScriptedModel replays queued responses in order, or delegates to a
// Responder. It is safe for concurrent use.
type ScriptedModel struct {
	mu        sync.Mutex
	responses []*llms.ContentResponse
	responder Responder
	requests  []Request
}

var _ llms.Model = (*ScriptedModel)(nil)

// New returns a model that answers with responses in order.
func New(responses ...*llms.ContentResponse) *ScriptedModel {
	return &ScriptedModel{responses: responses}
}

// NewResponder returns a model that answers every request with fn.
func NewResponder(fn Responder) *ScriptedModel {
	return &ScriptedModel{responder: fn}
}

func (m *ScriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	m.mu.Lock()
	m.requests = append(m.requests, Request{Messages: messages, Options: opts})
	if m.responder != nil {
		fn := m.responder
		m.mu.Unlock()
		return fn(ctx, messages, opts)
	}
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		return nil, ErrExhausted
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Requests returns a copy of every request seen so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Text builds a plain text response.
func Text(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

// ToolCalls builds a response requesting the given tool calls.
func ToolCalls(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{ToolCalls: calls}}}
}

// Call builds a function tool call.
func Call(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:           id,
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
	}
}

// TextOf joins the text parts of mc.
func TextOf(mc llms.MessageContent) string {
	var parts []string
	for _, p := range mc.Parts {
		switch v := p.(type) {
		case llms.TextContent:
			parts = append(parts, v.Text)
		case llms.ToolCallResponse:
			parts = append(parts, v.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// LastText returns the text of the final message of a request.
func LastText(messages []llms.MessageContent) string {
	if len(messages) == 0 {
		return ""
	}
	return TextOf(messages[len(messages)-1])
}

// AllText joins the text of every message of a request.
func AllText(messages []llms.MessageContent) string {
	var parts []string
	for _, mc := range messages {
		parts = append(parts, TextOf(mc))
	}
	return strings.Join(parts, "\n")
}
