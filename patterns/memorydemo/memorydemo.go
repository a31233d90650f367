// Package memorydemo shows how workflows remember: a chat history kept by
// hand, a conversation buffer feeding prompts, checkpointed threads as
// short-term memory, and a namespaced store as long-term memory.
package memorydemo

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/memory"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/prompt"
	"github.com/smallnest/agentpatterns/store"
)

// History records a few turns by hand and prints them.
func History(ctx context.Context, out *console.Printer) ([]message.Message, error) {
	out.Section("Chat message history")

	h := memory.NewChatHistory()
	if err := h.AddUserMessage(ctx, "I'm planning a trip to Paris next month."); err != nil {
		return nil, err
	}
	if err := h.AddAIMessage(ctx, "That sounds exciting! Paris is beautiful in spring."); err != nil {
		return nil, err
	}
	if err := h.AddUserMessage(ctx, "What's the weather usually like there?"); err != nil {
		return nil, err
	}

	msgs, err := h.Messages(ctx)
	if err != nil {
		return nil, err
	}
	for i, m := range msgs {
		out.Line("  %d. [%s]: %s", i+1, m.Role.Prefix(), m.Content)
	}
	return msgs, nil
}

var travelPrompt = prompt.New(`You are a helpful travel assistant.

Previous conversation:
{history}

New question: {question}

Response:`, "history", "question")

// DefaultBufferQuestions test whether the buffer carries the name forward.
var DefaultBufferQuestions = []string{
	"I want to book a flight.",
	"My name is Sam, by the way.",
	"What was my name again?",
}

// Buffer answers questions with the transcript of earlier turns rendered
// into a single prompt.
func Buffer(ctx context.Context, model llms.Model, out *console.Printer, questions []string) ([]string, error) {
	out.Section("Conversation buffer (transcript)")

	buf := memory.NewConversationBuffer("history", false)
	answers := make([]string, 0, len(questions))
	for _, q := range questions {
		vars, err := buf.LoadVariables(ctx)
		if err != nil {
			return answers, err
		}
		text, err := travelPrompt.Format(map[string]any{"history": vars["history"], "question": q})
		if err != nil {
			return answers, err
		}
		answer, err := llm.Ask(ctx, model, text)
		if err != nil {
			return answers, err
		}
		if err := buf.SaveContext(ctx, q, answer); err != nil {
			return answers, err
		}
		out.Field("User", q)
		out.Field("Assistant", answer)
		answers = append(answers, answer)
	}
	return answers, nil
}

// DefaultChatQuestions test whether the message buffer remembers the user.
var DefaultChatQuestions = []string{
	"Hi, I'm Jane.",
	"Do you remember my name?",
}

const friendlySystem = "You are a friendly assistant. Remember user details and preferences."

// BufferMessages answers questions with earlier turns sent as messages
// between a system prompt and the new question.
func BufferMessages(ctx context.Context, model llms.Model, out *console.Printer, questions []string) ([]string, error) {
	out.Section("Conversation buffer (messages)")

	buf := memory.NewConversationBuffer("chat_history", true)
	answers := make([]string, 0, len(questions))
	for _, q := range questions {
		vars, err := buf.LoadVariables(ctx)
		if err != nil {
			return answers, err
		}
		history, _ := vars["chat_history"].([]message.Message)

		msgs := message.Append([]message.Message{message.System(friendlySystem)}, history...)
		msgs = message.Append(msgs, message.Human(q))
		reply, err := llm.Complete(ctx, model, msgs)
		if err != nil {
			return answers, err
		}
		if err := buf.SaveContext(ctx, q, reply.Content); err != nil {
			return answers, err
		}
		out.Field("User", q)
		out.Field("Assistant", reply.Content)
		answers = append(answers, reply.Content)
	}

	vars, err := buf.LoadVariables(ctx)
	if err != nil {
		return answers, err
	}
	history, _ := vars["chat_history"].([]message.Message)
	out.Line("Memory contains %d messages", len(history))
	return answers, nil
}

// ConversationState is the state of the checkpointed chatbot.
type ConversationState struct {
	Messages []message.Message `json:"messages"`
}

// appendMessages continues a saved conversation with new input.
func appendMessages(_ context.Context, saved, input ConversationState) (ConversationState, error) {
	return ConversationState{Messages: message.Append(saved.Messages, input.Messages...)}, nil
}

// NewChatGraph is a single chatbot node whose conversation persists per
// thread once compiled with a checkpoint store.
func NewChatGraph(model llms.Model) *graph.StateGraph[ConversationState] {
	g := graph.NewStateGraph[ConversationState]()
	g.AddNode("chatbot", "Answer the conversation", func(ctx context.Context, s ConversationState) (ConversationState, error) {
		reply, err := llm.Complete(ctx, model, s.Messages)
		if err != nil {
			return s, fmt.Errorf("chatbot: %w", err)
		}
		return ConversationState{Messages: message.Append(s.Messages, reply)}, nil
	})
	g.SetEntryPoint("chatbot")
	g.AddEdge("chatbot", graph.END)
	g.SetResumeMerger(appendMessages)
	return g
}

// ShortTermResult holds the three answers of the short-term demo.
type ShortTermResult struct {
	First      string
	SameThread string
	NewThread  string
}

// ShortTerm introduces the user on one thread, asks for the name again on
// the same thread and then on a fresh one.
func ShortTerm(ctx context.Context, model llms.Model, cps store.CheckpointStore, out *console.Printer, listeners ...graph.NodeListener[ConversationState]) (*ShortTermResult, error) {
	out.Section("Short-term memory (checkpointed threads)")

	g := NewChatGraph(model)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.CompileWithCheckpointer(cps)
	if err != nil {
		return nil, err
	}

	ask := func(thread string, msgs ...message.Message) (string, error) {
		s, err := app.InvokeWithConfig(ctx, ConversationState{Messages: msgs}, &graph.Config{ThreadID: thread})
		if err != nil {
			return "", fmt.Errorf("thread %s: %w", thread, err)
		}
		answer := message.LastAI(s.Messages)
		last, _ := message.Last(msgs)
		out.Field("Thread", thread)
		out.Field("User", last.Content)
		out.Field("Assistant", answer)
		return answer, nil
	}

	var r ShortTermResult
	if r.First, err = ask("conversation-1",
		message.System("You are a helpful assistant."),
		message.Human("Hi! My name is Alice.")); err != nil {
		return nil, err
	}
	if r.SameThread, err = ask("conversation-1", message.Human("What's my name?")); err != nil {
		return nil, err
	}
	if r.NewThread, err = ask("conversation-2", message.Human("What's my name?")); err != nil {
		return nil, err
	}
	return &r, nil
}

// AssistantNamespace is where the long-term demo keeps Alice's memories.
var AssistantNamespace = memory.Namespace{"user_alice", "personal_assistant"}

// LongTermQuery is the search run by LongTerm.
const LongTermQuery = "food preferences and allergies"

// LongTerm stores semantic, episodic and procedural memories, reads one back
// and searches them.
func LongTerm(ctx context.Context, st memory.Store, out *console.Printer) ([]memory.SearchResult, error) {
	out.Section("Long-term memory (store)")

	items := []struct {
		kind  string
		key   string
		value map[string]any
	}{
		{"semantic", "user_preferences", map[string]any{
			"favorite_coffee":    "cappuccino",
			"preferred_language": "English",
			"timezone":           "EST",
			"allergies":          []string{"peanuts", "shellfish"},
		}},
		{"episodic", "last_conversation_summary", map[string]any{
			"date":  "2024-01-15",
			"topic": "Travel planning",
			"key_points": []string{
				"User planning trip to Paris",
				"Preference for vegetarian restaurants",
				"Budget: $2000",
			},
		}},
		{"procedural", "agent_instructions", map[string]any{
			"response_style":               "friendly and concise",
			"always_ask_for_clarification": true,
			"formatting_rules": []string{
				"Use bullet points for lists",
				"Always include examples when explaining concepts",
				"Keep responses under 300 words unless user asks for details",
			},
			"special_handling": map[string]any{
				"allergies": "Always check allergies before suggesting food",
				"budget":    "Respect user's stated budget limits",
			},
		}},
	}
	for _, it := range items {
		if err := st.Put(ctx, AssistantNamespace, it.key, it.value); err != nil {
			return nil, fmt.Errorf("store %s memory: %w", it.kind, err)
		}
		out.Line("Stored %s memory %q", it.kind, it.key)
	}

	prefs, err := st.Get(ctx, AssistantNamespace, "user_preferences")
	if err != nil {
		return nil, err
	}
	out.Field("Retrieved preferences", prefs.Value)
	out.Field("Allergies", prefs.Value["allergies"])

	results, err := st.Search(ctx, AssistantNamespace, LongTermQuery, 3)
	if err != nil {
		return nil, err
	}
	out.Line("Found %d relevant memories:", len(results))
	for _, r := range results {
		out.Line("  - %s (%.2f): %v", r.Key, r.Score, r.Value)
	}
	return results, nil
}

// CombinedState joins the conversation with preferences loaded from the
// long-term store.
type CombinedState struct {
	Messages          []message.Message `json:"messages"`
	UserID            string            `json:"user_id"`
	LoadedPreferences map[string]any    `json:"loaded_preferences"`
}

// NewCombinedGraph builds load_memory → chat. load_memory reads the user's
// preferences and prepends them as a system message.
func NewCombinedGraph(model llms.Model, st memory.Store, out *console.Printer) *graph.StateGraph[CombinedState] {
	g := graph.NewStateGraph[CombinedState]()

	g.AddNode("load_memory", "Load long-term memory", func(ctx context.Context, s CombinedState) (CombinedState, error) {
		item, err := st.Get(ctx, memory.Namespace{s.UserID, "assistant"}, "preferences")
		if errors.Is(err, memory.ErrNotFound) {
			return s, nil
		}
		if err != nil {
			return s, fmt.Errorf("load memory: %w", err)
		}
		out.Field("Loaded preferences from long-term memory", item.Value)

		sys := message.System(fmt.Sprintf("User preferences: %v. Use this to personalize responses.", item.Value))
		s.Messages = message.Append([]message.Message{sys}, s.Messages...)
		s.LoadedPreferences = item.Value
		return s, nil
	})

	g.AddNode("chat", "Answer with both memories", func(ctx context.Context, s CombinedState) (CombinedState, error) {
		reply, err := llm.Complete(ctx, model, s.Messages)
		if err != nil {
			return s, fmt.Errorf("chat: %w", err)
		}
		s.Messages = message.Append(s.Messages, reply)
		return s, nil
	})

	g.SetEntryPoint("load_memory")
	g.AddEdge("load_memory", "chat")
	g.AddEdge("chat", graph.END)
	return g
}

// SeedCombined stores the preferences read by the combined demo.
func SeedCombined(ctx context.Context, st memory.Store) error {
	return st.Put(ctx, memory.Namespace{"user_bob", "assistant"}, "preferences", map[string]any{
		"favorite_topics": []string{"AI", "python", "cooking"},
		"name":            "Bob",
	})
}

// Combined seeds Bob's preferences and asks about them on a checkpointed
// thread.
func Combined(ctx context.Context, model llms.Model, st memory.Store, cps store.CheckpointStore, out *console.Printer, listeners ...graph.NodeListener[CombinedState]) (CombinedState, error) {
	out.Section("Combined short-term and long-term memory")

	if err := SeedCombined(ctx, st); err != nil {
		return CombinedState{}, err
	}
	g := NewCombinedGraph(model, st, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.CompileWithCheckpointer(cps)
	if err != nil {
		return CombinedState{}, err
	}

	const question = "What are my favorite topics?"
	s, err := app.InvokeWithConfig(ctx, CombinedState{
		Messages: []message.Message{message.Human(question)},
		UserID:   "user_bob",
	}, &graph.Config{ThreadID: "bob-conversation-1"})
	if err != nil {
		return s, err
	}
	out.Field("User", question)
	out.Field("Assistant", message.LastAI(s.Messages))
	return s, nil
}
