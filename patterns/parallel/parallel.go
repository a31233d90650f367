// Package parallel runs independent analyses of one text concurrently and
// joins them into a synthesis.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/prompt"
)

// ErrEmptyInput is returned when there is nothing to analyze.
var ErrEmptyInput = errors.New("empty input")

// DefaultInput is analyzed when none is given.
const DefaultInput = "The city council approved a new bike-lane network after months of debate. " +
	"Supporters expect safer commutes and cleaner air, while some shop owners worry about losing parking spaces during construction."

var (
	summaryPrompt   = prompt.New("Summarize the following text in two sentences:\n\n{input}", "input")
	sentimentPrompt = prompt.New("Describe the overall sentiment of the following text (positive, negative, neutral or mixed) and explain why in one sentence:\n\n{input}", "input")
	keywordsPrompt  = prompt.New("List the five most important keywords of the following text, comma separated:\n\n{input}", "input")

	synthesisPrompt = prompt.New(`Combine these independent analyses into a short briefing.

Summary:
{summary}

Sentiment:
{sentiment}

Keywords:
{keywords}`, "summary", "sentiment", "keywords")
)

// State holds the input and one field per analysis.
type State struct {
	Input     string `json:"input"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
	Keywords  string `json:"keywords"`
	Synthesis string `json:"synthesis"`
}

// Merge joins the branch results: each branch fills its own field, so the
// non-empty fields of every result are copied onto current.
func Merge(_ context.Context, current State, results []State) (State, error) {
	for _, r := range results {
		if r.Input != "" {
			current.Input = r.Input
		}
		if r.Summary != "" {
			current.Summary = r.Summary
		}
		if r.Sentiment != "" {
			current.Sentiment = r.Sentiment
		}
		if r.Keywords != "" {
			current.Keywords = r.Keywords
		}
		if r.Synthesis != "" {
			current.Synthesis = r.Synthesis
		}
	}
	return current, nil
}

// analysis is a single-prompt branch writing one field.
func analysis(model llms.Model, out *console.Printer, name string, p prompt.Template, set func(*State, string)) graph.NodeFunc[State] {
	return func(ctx context.Context, s State) (State, error) {
		text, err := p.Format(map[string]any{"input": s.Input})
		if err != nil {
			return s, err
		}
		answer, err := llm.Ask(ctx, model, text)
		if err != nil {
			return s, fmt.Errorf("%s: %w", name, err)
		}
		out.Field(name, answer)
		var r State
		set(&r, answer)
		return r, nil
	}
}

// NewGraph builds prepare → {summary, sentiment, keywords} → synthesize.
func NewGraph(model llms.Model, out *console.Printer) *graph.StateGraph[State] {
	g := graph.NewStateGraph[State]()

	g.AddNode("prepare", "Normalize the input", func(_ context.Context, s State) (State, error) {
		s.Input = strings.TrimSpace(s.Input)
		if s.Input == "" {
			return s, ErrEmptyInput
		}
		return s, nil
	})

	branches := []string{"summary", "sentiment", "keywords"}
	g.AddNode("summary", "Summarize", analysis(model, out, "Summary", summaryPrompt,
		func(s *State, v string) { s.Summary = v }))
	g.AddNode("sentiment", "Classify sentiment", analysis(model, out, "Sentiment", sentimentPrompt,
		func(s *State, v string) { s.Sentiment = v }))
	g.AddNode("keywords", "Extract keywords", analysis(model, out, "Keywords", keywordsPrompt,
		func(s *State, v string) { s.Keywords = v }))

	g.AddNode("synthesize", "Join the analyses", func(ctx context.Context, s State) (State, error) {
		text, err := synthesisPrompt.Format(map[string]any{
			"summary":   s.Summary,
			"sentiment": s.Sentiment,
			"keywords":  s.Keywords,
		})
		if err != nil {
			return s, err
		}
		answer, err := llm.Ask(ctx, model, text)
		if err != nil {
			return s, fmt.Errorf("synthesize: %w", err)
		}
		s.Synthesis = answer
		out.Section("Synthesis")
		out.Line("%s", answer)
		return s, nil
	})

	g.SetEntryPoint("prepare")
	for _, b := range branches {
		g.AddEdge("prepare", b)
		g.AddEdge(b, "synthesize")
	}
	g.AddEdge("synthesize", graph.END)
	g.SetStateMerger(Merge)
	return g
}

// Run analyzes input.
func Run(ctx context.Context, model llms.Model, out *console.Printer, input string, listeners ...graph.NodeListener[State]) (State, error) {
	g := NewGraph(model, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return State{}, err
	}
	out.Banner("Parallel analysis")
	return app.Invoke(ctx, State{Input: input})
}
