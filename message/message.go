// Package message defines the conversation records carried in workflow state.
//
// Messages are plain, JSON friendly values so that a state holding a
// conversation can be checkpointed by any store backend. They are converted
// to langchaingo's llms.MessageContent only at the model boundary.
package message

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// ToolCall is a model request to run a named function with JSON arguments.
// ID correlates the request with the tool result sent back to the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn of a conversation.
type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func newMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content}
}

// System creates a system message.
func System(content string) Message { return newMessage(RoleSystem, content) }

// Human creates a user message.
func Human(content string) Message { return newMessage(RoleHuman, content) }

// AI creates an assistant message, optionally requesting tool calls.
func AI(content string, calls ...ToolCall) Message {
	m := newMessage(RoleAI, content)
	m.ToolCalls = calls
	return m
}

// ToolResult creates the tool message answering call.
func ToolResult(call ToolCall, content string) Message {
	m := newMessage(RoleTool, content)
	m.Name = call.Name
	m.ToolCallID = call.ID
	return m
}

// HasToolCalls reports whether m asks for at least one tool call.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAI && len(m.ToolCalls) > 0
}

// Append returns a new slice holding msgs followed by more. The input slice is
// never written to, so states that share a history do not alias each other.
func Append(msgs []Message, more ...Message) []Message {
	out := make([]Message, 0, len(msgs)+len(more))
	out = append(out, msgs...)
	return append(out, more...)
}

// Last returns the final message, or false when msgs is empty.
func Last(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// LastAI returns the content of the most recent AI message.
func LastAI(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAI {
			return msgs[i].Content
		}
	}
	return ""
}

// Transcript renders msgs as "Human: ...\nAI: ..." lines.
func Transcript(msgs []Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.Role.Prefix())
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// Prefix is the speaker label used in transcripts.
func (r Role) Prefix() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// ToLLM converts messages to the langchaingo representation.
func ToLLM(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case RoleHuman:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case RoleAI:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(m.Content))
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, mc)
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: m.ToolCallID,
						Name:       m.Name,
						Content:    m.Content,
					},
				},
			})
		}
	}
	return out
}

// FromChoice converts a model choice into an AI message.
func FromChoice(choice *llms.ContentChoice) Message {
	m := AI(choice.Content)
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		m.ToolCalls = append(m.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}
	return m
}
