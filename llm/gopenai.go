package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

// GoOpenAI implements llms.Model directly on the go-openai client. It exposes
// the raw chat-completions tool calling protocol without langchaingo's own
// OpenAI client in between.
type GoOpenAI struct {
	client *openai.Client
	model  string
}

var _ llms.Model = (*GoOpenAI)(nil)

// NewGoOpenAI creates a go-openai backed model. An empty baseURL keeps the
// public OpenAI endpoint.
func NewGoOpenAI(apiKey, baseURL, model string) *GoOpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GoOpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

// GenerateContent sends messages and tool definitions as one chat completion.
func (g *GoOpenAI) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	// go-openai drops a zero temperature from the request, which leaves the
	// server default (1.0) in effect.
	temperature := float32(opts.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: temperature,
		Messages:    toOpenAIMessages(messages),
		Tools:       toOpenAITools(opts.Tools),
	}
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	out := &llms.ContentResponse{}
	for _, c := range resp.Choices {
		choice := &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"PromptTokens":     resp.Usage.PromptTokens,
				"CompletionTokens": resp.Usage.CompletionTokens,
				"TotalTokens":      resp.Usage.TotalTokens,
			},
		}
		for _, tc := range c.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.Choices = append(out.Choices, choice)
	}
	return out, nil
}

// Call implements the single-prompt form of llms.Model.
func (g *GoOpenAI) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g, prompt, options...)
}

func toOpenAIMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, mc := range messages {
		msg := openai.ChatCompletionMessage{}
		switch mc.Role {
		case llms.ChatMessageTypeSystem:
			msg.Role = openai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			msg.Role = openai.ChatMessageRoleAssistant
		case llms.ChatMessageTypeTool:
			msg.Role = openai.ChatMessageRoleTool
		default:
			msg.Role = openai.ChatMessageRoleUser
		}

		var text []string
		for _, part := range mc.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				text = append(text, p.Text)
			case llms.ToolCall:
				if p.FunctionCall == nil {
					continue
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   p.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.FunctionCall.Name,
						Arguments: p.FunctionCall.Arguments,
					},
				})
			case llms.ToolCallResponse:
				msg.ToolCallID = p.ToolCallID
				msg.Name = p.Name
				text = append(text, p.Content)
			}
		}
		msg.Content = strings.Join(text, "\n")
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []llms.Tool) []openai.Tool {
	var out []openai.Tool
	for _, t := range tools {
		if t.Function == nil {
			continue
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}
