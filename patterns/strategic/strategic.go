// Package strategic contrasts a reactive agent, which answers at once, with a
// strategic executor that plans, evaluates the plan, adapts it when the
// evaluation finds problems and only then executes.
package strategic

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

// DefaultTopic is the topic written about when none is given.
const DefaultTopic = "The importance of Reinforcement Learning in AI"

// Quality scores assigned by Evaluate.
const (
	ScoreGood      = 7
	ScoreNeedsWork = 5
)

const plannerSystemRole = "You are a strategic content planner."

// weaknessWords in an evaluation mark the plan for adaptation.
var weaknessWords = []string{"improve", "weak", "missing", "unclear", "incomplete"}

var (
	planPrompt = prompt.New(`Create a strategic plan for writing about: '{topic}'

Your plan should include:
- Key points to cover
- Structure/order
- Target length considerations

Output a clear, actionable plan.`, "topic")

	evaluatePrompt = prompt.New(`Evaluate this plan for writing about '{topic}':

{plan}

Rate the plan quality (1-10) and determine if it needs refinement.
Consider: completeness, clarity, structure, feasibility.`, "topic", "plan")

	adaptPrompt = prompt.New(`Improve this plan for '{topic}':

Current Plan:
{plan}

Create a refined, improved version that addresses gaps and weaknesses.`, "topic", "plan")

	executePrompt = prompt.New(`Execute this plan to write about '{topic}':

Plan:
{plan}

Write a well-structured summary following the plan. Target ~200 words.`, "topic", "plan")

	reactivePrompt = prompt.New(`Write about '{topic}' in ~200 words.`, "topic")
)

// State is carried through plan → evaluate → (adapt) → execute.
type State struct {
	Topic            string            `json:"topic"`
	Plan             string            `json:"plan"`
	Evaluation       string            `json:"evaluation"`
	PlanQualityScore int               `json:"plan_quality_score"`
	AdaptationNeeded bool              `json:"adaptation_needed"`
	AdaptedPlan      string            `json:"adapted_plan"`
	ExecutionResult  string            `json:"execution_result"`
	FinalResult      string            `json:"final_result"`
	Messages         []message.Message `json:"messages"`
}

// Evaluate scores an evaluation text. Any weakness word lowers the score and
// asks for adaptation.
func Evaluate(evaluation string) (score int, needsAdaptation bool) {
	lower := strings.ToLower(evaluation)
	for _, w := range weaknessWords {
		if strings.Contains(lower, w) {
			return ScoreNeedsWork, true
		}
	}
	return ScoreGood, false
}

// ShouldAdapt routes after evaluation.
func ShouldAdapt(_ context.Context, s State) string {
	if s.AdaptationNeeded {
		return "adapt"
	}
	return "execute"
}

type step struct {
	model llms.Model
	out   *console.Printer
}

// ask continues the conversation of s with one human prompt.
func (st step) ask(ctx context.Context, s *State, msgs []message.Message, text string) (string, error) {
	msgs = message.Append(msgs, message.Human(text))
	reply, err := llm.Complete(ctx, st.model, msgs)
	if err != nil {
		return "", err
	}
	s.Messages = message.Append(msgs, reply)
	return reply.Content, nil
}

// NewGraph builds the strategic executor.
func NewGraph(model llms.Model, out *console.Printer) *graph.StateGraph[State] {
	st := step{model: model, out: out}
	g := graph.NewStateGraph[State]()

	g.AddNode("plan", "Plan before acting", func(ctx context.Context, s State) (State, error) {
		text, err := planPrompt.Format(map[string]any{"topic": s.Topic})
		if err != nil {
			return s, err
		}
		msgs := message.Append(s.Messages, message.System(plannerSystemRole))
		plan, err := st.ask(ctx, &s, msgs, text)
		if err != nil {
			return s, fmt.Errorf("plan: %w", err)
		}
		s.Plan = plan

		out.Section("Strategic planning phase")
		out.Line("%s", plan)
		return s, nil
	})

	g.AddNode("evaluate", "Rate the plan", func(ctx context.Context, s State) (State, error) {
		text, err := evaluatePrompt.Format(map[string]any{"topic": s.Topic, "plan": s.Plan})
		if err != nil {
			return s, err
		}
		evaluation, err := st.ask(ctx, &s, s.Messages, text)
		if err != nil {
			return s, fmt.Errorf("evaluate: %w", err)
		}
		s.Evaluation = evaluation
		s.PlanQualityScore, s.AdaptationNeeded = Evaluate(evaluation)

		out.Section("Plan evaluation phase")
		out.Field("Quality score", fmt.Sprintf("%d/10", s.PlanQualityScore))
		out.Field("Adaptation needed", s.AdaptationNeeded)
		return s, nil
	})

	g.AddNode("adapt", "Revise the plan", func(ctx context.Context, s State) (State, error) {
		if !s.AdaptationNeeded {
			out.Section("Skipping adaptation")
			s.AdaptedPlan = s.Plan
			return s, nil
		}
		text, err := adaptPrompt.Format(map[string]any{"topic": s.Topic, "plan": s.Plan})
		if err != nil {
			return s, err
		}
		adapted, err := st.ask(ctx, &s, s.Messages, text)
		if err != nil {
			return s, fmt.Errorf("adapt: %w", err)
		}
		s.AdaptedPlan = adapted

		out.Section("Plan adaptation phase")
		out.Line("%s", adapted)
		return s, nil
	})

	g.AddNode("execute", "Write following the plan", func(ctx context.Context, s State) (State, error) {
		plan := s.AdaptedPlan
		if plan == "" {
			plan = s.Plan
		}
		text, err := executePrompt.Format(map[string]any{"topic": s.Topic, "plan": plan})
		if err != nil {
			return s, err
		}
		result, err := st.ask(ctx, &s, s.Messages, text)
		if err != nil {
			return s, fmt.Errorf("execute: %w", err)
		}
		s.ExecutionResult = result
		s.FinalResult = result

		out.Section("Execution phase")
		out.Line("%s", result)
		return s, nil
	})

	g.SetEntryPoint("plan")
	g.AddEdge("plan", "evaluate")
	g.AddConditionalEdge("evaluate", ShouldAdapt, "adapt", "execute")
	g.AddEdge("adapt", "execute")
	g.AddEdge("execute", graph.END)
	return g
}

// Run executes the strategic graph on topic.
func Run(ctx context.Context, model llms.Model, out *console.Printer, topic string, listeners ...graph.NodeListener[State]) (State, error) {
	g := NewGraph(model, out)
	for _, l := range listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return State{}, err
	}
	return app.Invoke(ctx, State{Topic: topic})
}

// Reactive answers in a single call without planning.
func Reactive(ctx context.Context, model llms.Model, topic string) (string, error) {
	text, err := reactivePrompt.Format(map[string]any{"topic": topic})
	if err != nil {
		return "", err
	}
	return llm.Ask(ctx, model, text)
}

// Compare runs the reactive baseline and then the strategic executor.
func Compare(ctx context.Context, model llms.Model, out *console.Printer, topic string, listeners ...graph.NodeListener[State]) (string, State, error) {
	out.Banner("Reactive agent (no planning)")
	reactive, err := Reactive(ctx, model, topic)
	if err != nil {
		return "", State{}, fmt.Errorf("reactive: %w", err)
	}
	out.Field("Result", truncate(reactive, 200))

	out.Banner("Strategic executor (plan → evaluate → adapt → execute)")
	s, err := Run(ctx, model, out, topic, listeners...)
	if err != nil {
		return reactive, s, fmt.Errorf("strategic: %w", err)
	}

	out.Section("Comparison")
	out.Line("Reactive: immediate response, no planning")
	out.Line("Strategic: planned, evaluated, adapted when needed, then executed")
	return reactive, s, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
