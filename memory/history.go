// Package memory provides conversation memory for the workflows.
//
// Short-term memory is the running conversation: ChatHistory stores turns and
// ConversationBuffer exposes them to prompts either as a transcript string or
// as messages. Long-term memory is a Store of JSON values grouped by
// namespace, searchable across sessions.
package memory

import (
	"context"
	"fmt"

	lcmemory "github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/message"
)

// ChatHistory is an ordered record of conversation turns.
type ChatHistory struct {
	history *lcmemory.ChatMessageHistory
}

// NewChatHistory creates an empty history.
func NewChatHistory() *ChatHistory {
	return &ChatHistory{history: lcmemory.NewChatMessageHistory()}
}

// AddUserMessage appends a human turn.
func (h *ChatHistory) AddUserMessage(ctx context.Context, text string) error {
	return h.history.AddUserMessage(ctx, text)
}

// AddAIMessage appends an assistant turn.
func (h *ChatHistory) AddAIMessage(ctx context.Context, text string) error {
	return h.history.AddAIMessage(ctx, text)
}

// Messages returns the turns recorded so far.
func (h *ChatHistory) Messages(ctx context.Context) ([]message.Message, error) {
	msgs, err := h.history.Messages(ctx)
	if err != nil {
		return nil, err
	}
	return fromChatMessages(msgs), nil
}

// Clear forgets every turn.
func (h *ChatHistory) Clear(ctx context.Context) error {
	return h.history.Clear(ctx)
}

func fromChatMessages(msgs []llms.ChatMessage) []message.Message {
	out := make([]message.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.GetType() {
		case llms.ChatMessageTypeHuman:
			out = append(out, message.Human(m.GetContent()))
		case llms.ChatMessageTypeAI:
			out = append(out, message.AI(m.GetContent()))
		case llms.ChatMessageTypeSystem:
			out = append(out, message.System(m.GetContent()))
		default:
			out = append(out, message.Message{Role: message.Role(m.GetType()), Content: m.GetContent()})
		}
	}
	return out
}

// ConversationBuffer keeps the whole conversation and renders it for prompts.
// MemoryKey and ReturnMessages are fixed by NewConversationBuffer.
type ConversationBuffer struct {
	// MemoryKey is the variable name the history is loaded under.
	MemoryKey string
	// ReturnMessages loads the history as []message.Message instead of a
	// "Human: ...\nAI: ..." transcript.
	ReturnMessages bool

	history *ChatHistory
	buffer  *lcmemory.ConversationBuffer
}

// NewConversationBuffer creates a buffer over a fresh history. An empty
// memoryKey defaults to "history".
func NewConversationBuffer(memoryKey string, returnMessages bool) *ConversationBuffer {
	if memoryKey == "" {
		memoryKey = "history"
	}
	h := NewChatHistory()
	return &ConversationBuffer{
		MemoryKey:      memoryKey,
		ReturnMessages: returnMessages,
		history:        h,
		buffer:         lcmemory.NewConversationBuffer(
			lcmemory.WithChatHistory(h.history),
			lcmemory.WithMemoryKey(memoryKey),
			lcmemory.WithReturnMessages(returnMessages),
		),
	}
}

// History returns the underlying chat history.
func (b *ConversationBuffer) History() *ChatHistory {
	return b.history
}

// SaveContext records one exchange.
func (b *ConversationBuffer) SaveContext(ctx context.Context, input, output string) error {
	return b.buffer.SaveContext(ctx,
		map[string]any{"input": input},
		map[string]any{"output": output},
	)
}

// LoadVariables returns the history under MemoryKey, as a string or as
// []message.Message depending on ReturnMessages.
func (b *ConversationBuffer) LoadVariables(ctx context.Context) (map[string]any, error) {
	vars, err := b.buffer.LoadMemoryVariables(ctx, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("load memory variables: %w", err)
	}
	if !b.ReturnMessages {
		return vars, nil
	}
	msgs, ok := vars[b.MemoryKey].([]llms.ChatMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected memory value %T", vars[b.MemoryKey])
	}
	return map[string]any{b.MemoryKey: fromChatMessages(msgs)}, nil
}

// Clear forgets the conversation.
func (b *ConversationBuffer) Clear(ctx context.Context) error {
	return b.history.Clear(ctx)
}
