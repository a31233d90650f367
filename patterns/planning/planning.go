// Package planning writes a short summary in two steps: a bullet-point plan,
// then a summary that follows it.
package planning

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/prompt"
)

// DefaultTopic is the topic written about when none is given.
const DefaultTopic = "The importance of Reinforcement Learning in AI"

const systemPrompt = "You are an expert technical writer and content strategist."

var (
	planPrompt = prompt.New(`Create a bullet-point plan for a summary on the topic: '{topic}'.

Output only the plan as a bulleted list.`, "topic")

	writePrompt = prompt.New(`Based on this plan:
{plan}

Write a concise and well-structured summary on the topic: '{topic}'.
Keep it around 200 words.`, "plan", "topic")
)

// WritingState is the state of the plan → write graph.
type WritingState struct {
	Topic    string            `json:"topic"`
	Plan     string            `json:"plan"`
	Summary  string            `json:"summary"`
	Messages []message.Message `json:"messages"`
}

// NewGraph builds plan → write. The write step continues the conversation
// started by the plan step.
func NewGraph(model llms.Model, out *console.Printer) *graph.StateGraph[WritingState] {
	g := graph.NewStateGraph[WritingState]()

	g.AddNode("plan", "Create a bullet-point plan", func(ctx context.Context, s WritingState) (WritingState, error) {
		text, err := planPrompt.Format(map[string]any{"topic": s.Topic})
		if err != nil {
			return s, err
		}
		msgs := message.Append(s.Messages, message.System(systemPrompt), message.Human(text))
		reply, err := llm.Complete(ctx, model, msgs)
		if err != nil {
			return s, fmt.Errorf("plan: %w", err)
		}

		out.Section("Plan created")
		out.Line("%s", reply.Content)

		s.Plan = reply.Content
		s.Messages = message.Append(msgs, reply)
		return s, nil
	})

	g.AddNode("write", "Write the summary from the plan", func(ctx context.Context, s WritingState) (WritingState, error) {
		text, err := writePrompt.Format(map[string]any{"plan": s.Plan, "topic": s.Topic})
		if err != nil {
			return s, err
		}
		msgs := message.Append(s.Messages, message.Human(text))
		reply, err := llm.Complete(ctx, model, msgs)
		if err != nil {
			return s, fmt.Errorf("write: %w", err)
		}

		out.Section("Summary written")
		out.Line("%s", reply.Content)

		s.Summary = reply.Content
		s.Messages = message.Append(msgs, reply)
		return s, nil
	})

	g.SetEntryPoint("plan")
	g.AddEdge("plan", "write")
	g.AddEdge("write", graph.END)
	return g
}

// Run executes the graph on topic.
func Run(ctx context.Context, model llms.Model, out *console.Printer, topic string, listeners ...graph.NodeListener[WritingState]) (WritingState, error) {
	g := NewGraph(model, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return WritingState{}, err
	}
	final, err := app.Invoke(ctx, WritingState{Topic: topic})
	if err != nil {
		return final, err
	}
	printResult(out, final)
	return final, nil
}

// RunChain sends the same two prompts without a graph. Each call stands
// alone: the write prompt carries the plan but not the plan conversation.
func RunChain(ctx context.Context, model llms.Model, out *console.Printer, topic string) (WritingState, error) {
	s := WritingState{Topic: topic}

	text, err := planPrompt.Format(map[string]any{"topic": topic})
	if err != nil {
		return s, err
	}
	plan, err := llm.Complete(ctx, model, []message.Message{message.System(systemPrompt), message.Human(text)})
	if err != nil {
		return s, fmt.Errorf("plan: %w", err)
	}
	s.Plan = plan.Content
	out.Section("Plan created")
	out.Line("%s", s.Plan)

	text, err = writePrompt.Format(map[string]any{"plan": s.Plan, "topic": topic})
	if err != nil {
		return s, err
	}
	summary, err := llm.Complete(ctx, model, []message.Message{message.System(systemPrompt), message.Human(text)})
	if err != nil {
		return s, fmt.Errorf("write: %w", err)
	}
	s.Summary = summary.Content
	out.Section("Summary written")
	out.Line("%s", s.Summary)

	printResult(out, s)
	return s, nil
}

func printResult(out *console.Printer, s WritingState) {
	out.Banner("Task result")
	out.Section("Plan")
	out.Line("%s", s.Plan)
	out.Section("Summary")
	out.Line("%s", s.Summary)
}
