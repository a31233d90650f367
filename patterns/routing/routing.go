// Package routing classifies a customer request and sends it to the handler
// for its category.
package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/prompt"
)

// Categories a request can be routed to.
const (
	Technical = "technical"
	Billing   = "billing"
	General   = "general"
)

// DefaultRequests cover every route.
var DefaultRequests = []string{
	"My app crashes with a null pointer error when I upload a file.",
	"I was charged twice for my subscription this month.",
	"What are your opening hours?",
}

var (
	classifyPrompt = prompt.New(`Classify the following customer request into exactly one category: technical, billing or general.
Answer with the category name only.

Request: {request}`, "request")

	handlerPrompt = prompt.New(`Customer request:
{request}

Write a short, helpful reply.`, "request")
)

var handlerRoles = map[string]string{
	Technical: "You are a technical support engineer. Diagnose the problem and give concrete troubleshooting steps.",
	Billing:   "You are a billing specialist. Explain charges clearly and describe how to resolve payment issues.",
	General:   "You are a friendly customer service agent answering general questions.",
}

// State is carried through classify → handler.
type State struct {
	Request  string `json:"request"`
	Category string `json:"category"`
	Handler  string `json:"handler"`
	Response string `json:"response"`
}

// Route maps the classifier answer to a handler node. Anything that does not
// mention technical or billing goes to the general handler.
func Route(_ context.Context, s State) string {
	c := strings.ToLower(s.Category)
	switch {
	case strings.Contains(c, Technical):
		return Technical
	case strings.Contains(c, Billing):
		return Billing
	default:
		return General
	}
}

// NewGraph builds classify followed by a conditional route to one handler.
func NewGraph(model llms.Model, out *console.Printer) *graph.StateGraph[State] {
	g := graph.NewStateGraph[State]()

	g.AddNode("classify", "Categorize the request", func(ctx context.Context, s State) (State, error) {
		text, err := classifyPrompt.Format(map[string]any{"request": s.Request})
		if err != nil {
			return s, err
		}
		category, err := llm.Ask(ctx, model, text)
		if err != nil {
			return s, fmt.Errorf("classify: %w", err)
		}
		s.Category = strings.TrimSpace(category)
		out.Field("Category", s.Category)
		return s, nil
	})

	for _, name := range []string{Technical, Billing, General} {
		g.AddNode(name, "Handle "+name+" requests", func(ctx context.Context, s State) (State, error) {
			text, err := handlerPrompt.Format(map[string]any{"request": s.Request})
			if err != nil {
				return s, err
			}
			reply, err := llm.Complete(ctx, model, []message.Message{
				message.System(handlerRoles[name]),
				message.Human(text),
			})
			if err != nil {
				return s, fmt.Errorf("%s handler: %w", name, err)
			}
			s.Handler = name
			s.Response = reply.Content
			out.Field("Handled by", name)
			out.Field("Response", reply.Content)
			return s, nil
		})
		g.AddEdge(name, graph.END)
	}

	g.SetEntryPoint("classify")
	g.AddConditionalEdge("classify", Route, Technical, Billing, General)
	return g
}

// Run routes every request in turn.
func Run(ctx context.Context, model llms.Model, out *console.Printer, requests []string, listeners ...graph.NodeListener[State]) ([]State, error) {
	g := NewGraph(model, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return nil, err
	}

	results := make([]State, 0, len(requests))
	for _, r := range requests {
		out.Section("Request: " + r)
		s, err := app.Invoke(ctx, State{Request: r})
		if err != nil {
			return results, err
		}
		results = append(results, s)
	}
	return results, nil
}
