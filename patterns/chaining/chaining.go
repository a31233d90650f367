// Package chaining extracts technical specifications from free text and then
// transforms them into JSON, as two chained prompts.
package chaining

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/prompt"
)

// DefaultInput is the product description used when none is given.
const DefaultInput = "The new laptop model features a 3.5 GHz octa-core processor, 16GB of RAM, and a 1TB NVMe SSD."

// ErrIncompleteSpecs is returned by ParseSpecs when a key is missing.
var ErrIncompleteSpecs = errors.New("specifications incomplete")

var (
	extractPrompt = prompt.New(
		"Extract the technical specifications from the following text:\n\n{text_input}",
		"text_input")

	transformPrompt = prompt.New(
		"Transform the following specifications into a JSON object with 'cpu', 'memory', and 'storage' as keys:\n\n{specifications}",
		"specifications")
)

// State flows through the two steps.
type State struct {
	TextInput      string `json:"text_input"`
	Specifications string `json:"specifications,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	Output         string `json:"output,omitempty"`
}

// Specs is the JSON document the second step asks for. Values are kept as
// decoded since models return either strings or nested objects.
type Specs struct {
	CPU     any `json:"cpu"`
	Memory  any `json:"memory"`
	Storage any `json:"storage"`
}

// ParseSpecs decodes the final output of the chain.
func ParseSpecs(output string) (*Specs, error) {
	var s Specs
	if err := llm.DecodeJSON(output, &s); err != nil {
		return nil, err
	}
	switch {
	case s.CPU == nil:
		return &s, fmt.Errorf("%w: cpu", ErrIncompleteSpecs)
	case s.Memory == nil:
		return &s, fmt.Errorf("%w: memory", ErrIncompleteSpecs)
	case s.Storage == nil:
		return &s, fmt.Errorf("%w: storage", ErrIncompleteSpecs)
	}
	return &s, nil
}

// NewGraph builds extract → transform. Intermediate values are dumped to out.
func NewGraph(model llms.Model, out *console.Printer) *graph.StateGraph[State] {
	g := graph.NewStateGraph[State]()

	g.AddNode("extract", "Extract the technical specifications", func(ctx context.Context, s State) (State, error) {
		text, err := extractPrompt.Format(map[string]any{"text_input": s.TextInput})
		if err != nil {
			return s, err
		}
		specs, err := llm.Ask(ctx, model, text)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}
		out.Debug("After Extraction (Step 1)", specs)
		s.Specifications = specs
		return s, nil
	})

	g.AddNode("transform", "Transform the specifications to JSON", func(ctx context.Context, s State) (State, error) {
		vars := map[string]any{"specifications": s.Specifications}
		out.Debug("After Dictionary Wrapping", vars)

		text, err := transformPrompt.Format(vars)
		if err != nil {
			return s, err
		}
		out.Debug("After Prompt 2 Template", text)
		s.Prompt = text

		result, err := llm.Ask(ctx, model, text)
		if err != nil {
			return s, fmt.Errorf("transform: %w", err)
		}
		s.Output = result
		return s, nil
	})

	g.SetEntryPoint("extract")
	g.AddEdge("extract", "transform")
	g.AddEdge("transform", graph.END)
	return g
}

// Run executes the chain on input.
func Run(ctx context.Context, model llms.Model, out *console.Printer, input string, listeners ...graph.NodeListener[State]) (State, error) {
	g := NewGraph(model, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return State{}, err
	}

	out.Banner("Starting prompt chain")
	out.Field("Input text", input)

	final, err := app.Invoke(ctx, State{TextInput: input})
	if err != nil {
		return final, err
	}

	out.Section("Final JSON output")
	out.Line("%s", final.Output)
	return final, nil
}
