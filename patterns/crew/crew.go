// Package crew runs role-playing agents through a list of tasks. Each task is
// handled by one agent; a task can read the outputs of earlier tasks named in
// its context.
package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/prompt"
)

var (
	ErrNoTasks            = errors.New("crew has no tasks")
	ErrTaskWithoutAgent   = errors.New("task has no agent")
	ErrUnknownProcess     = errors.New("unsupported crew process")
	ErrInvalidTaskContext = errors.New("task context must reference an earlier task")
	ErrNoModel            = errors.New("agent has no model")
)

// Process is the order in which tasks are worked on.
type Process string

// ProcessSequential runs tasks one after another in list order.
const ProcessSequential Process = "sequential"

// Agent is a role the model plays.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
	// Model overrides the crew model for this agent.
	Model llms.Model
}

// Task is one unit of work.
type Task struct {
	Description    string
	ExpectedOutput string
	Agent          *Agent
	// Context lists earlier tasks whose output this task receives.
	Context []*Task
}

// TaskOutput is the result of one task.
type TaskOutput struct {
	Description string `json:"description"`
	Agent       string `json:"agent"`
	Output      string `json:"output"`
}

// CrewOutput is the result of Kickoff.
type CrewOutput struct {
	// Raw is the output of the last task.
	Raw         string
	TasksOutput []TaskOutput
}

// Markdown renders every task output as a document.
func (o *CrewOutput) Markdown() string {
	var sb strings.Builder
	for i, t := range o.TasksOutput {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "## %s\n\n_%s_\n\n%s", t.Agent, t.Description, t.Output)
	}
	return sb.String()
}

// Crew is a team of agents and the tasks they perform.
type Crew struct {
	Agents    []*Agent
	Tasks     []*Task
	Process   Process
	Model     llms.Model
	Out       *console.Printer
	// Listeners observe the task graph.
	Listeners []graph.NodeListener[State]
}

var (
	agentPrompt = prompt.New("You are {role}. {backstory}\nYour personal goal is: {goal}",
		"role", "backstory", "goal")

	taskPrompt = prompt.New(`Current Task: {description}

This is the expected criteria for your final answer: {expected_output}
You MUST return the actual complete content as the final answer, not a summary.{context}

Begin! This is VERY important to you, use the tools available and give your best Final Answer, your job depends on it!`,
		"description", "expected_output", "context")
)

// State is the task outputs collected so far.
type State struct {
	Outputs []TaskOutput `json:"outputs"`
}

func (c *Crew) validate() error {
	if len(c.Tasks) == 0 {
		return ErrNoTasks
	}
	switch c.Process {
	case "", ProcessSequential:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProcess, c.Process)
	}
	seen := make(map[*Task]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.Agent == nil {
			return fmt.Errorf("%w: task %d", ErrTaskWithoutAgent, i+1)
		}
		if t.Agent.Model == nil && c.Model == nil {
			return fmt.Errorf("%w: %s", ErrNoModel, t.Agent.Role)
		}
		for _, ctxTask := range t.Context {
			if !seen[ctxTask] {
				return fmt.Errorf("%w: task %d", ErrInvalidTaskContext, i+1)
			}
		}
		seen[t] = true
	}
	return nil
}

func taskNode(i int) string {
	return fmt.Sprintf("task_%d", i+1)
}

// newGraph builds one node per task, chained in task order.
func (c *Crew) newGraph() (*graph.StateGraph[State], error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	index := make(map[*Task]int, len(c.Tasks))
	for i, t := range c.Tasks {
		index[t] = i
	}

	g := graph.NewStateGraph[State]()
	for i, t := range c.Tasks {
		g.AddNode(taskNode(i), t.Description, func(ctx context.Context, s State) (State, error) {
			var contextOutputs []string
			for _, ct := range t.Context {
				contextOutputs = append(contextOutputs, s.Outputs[index[ct]].Output)
			}
			out, err := c.perform(ctx, t, contextOutputs)
			if err != nil {
				return s, fmt.Errorf("task %d (%s): %w", i+1, t.Agent.Role, err)
			}
			s.Outputs = append(append([]TaskOutput(nil), s.Outputs...), TaskOutput{
				Description: t.Description,
				Agent:       t.Agent.Role,
				Output:      out,
			})
			return s, nil
		})
		if i > 0 {
			g.AddEdge(taskNode(i-1), taskNode(i))
		}
	}
	g.SetEntryPoint(taskNode(0))
	g.AddEdge(taskNode(len(c.Tasks)-1), graph.END)
	return g, nil
}

func (c *Crew) perform(ctx context.Context, t *Task, contextOutputs []string) (string, error) {
	a := t.Agent
	model := a.Model
	if model == nil {
		model = c.Model
	}

	c.Out.Section("Agent: " + a.Role)
	c.Out.Field("Task", t.Description)

	system, err := agentPrompt.Format(map[string]any{"role": a.Role, "backstory": a.Backstory, "goal": a.Goal})
	if err != nil {
		return "", err
	}

	extra := ""
	if len(contextOutputs) > 0 {
		extra = "\n\nThis is the context you're working with:\n" + strings.Join(contextOutputs, "\n\n")
	}
	human, err := taskPrompt.Format(map[string]any{
		"description":     t.Description,
		"expected_output": t.ExpectedOutput,
		"context":         extra,
	})
	if err != nil {
		return "", err
	}

	reply, err := llm.Complete(ctx, model, []message.Message{message.System(system), message.Human(human)})
	if err != nil {
		return "", err
	}
	c.Out.Field("Final answer", reply.Content)
	return reply.Content, nil
}

// Kickoff works through every task and returns their outputs.
func (c *Crew) Kickoff(ctx context.Context) (*CrewOutput, error) {
	g, err := c.newGraph()
	if err != nil {
		return nil, err
	}
	for _, l := range c.Listeners {
		g.AddListener(l)
	}
	app, err := g.Compile()
	if err != nil {
		return nil, err
	}

	cfg := &graph.Config{RecursionLimit: len(c.Tasks) + 1}
	s, err := app.InvokeWithConfig(ctx, State{}, cfg)
	if err != nil {
		return nil, err
	}

	result := &CrewOutput{TasksOutput: s.Outputs}
	if n := len(s.Outputs); n > 0 {
		result.Raw = s.Outputs[n-1].Output
	}
	return result, nil
}

// Mermaid draws the task graph.
func (c *Crew) Mermaid() (string, error) {
	g, err := c.newGraph()
	if err != nil {
		return "", err
	}
	return g.Mermaid(), nil
}

// NewBlogCrew returns a researcher and a writer producing a blog post on the
// latest AI trends.
func NewBlogCrew(model llms.Model, out *console.Printer) *Crew {
	researcher := &Agent{
		Role:      "Senior Research Analyst",
		Goal:      "Find and summarize the latest trends in AI.",
		Backstory: "You are an experienced research analyst with a knack for identifying key trends and synthesizing information.",
	}
	writer := &Agent{
		Role:      "Technical Content Writer",
		Goal:      "Write a clear and engaging blog post based on research findings.",
		Backstory: "You are a skilled writer who can translate complex technical topics into accessible content.",
	}

	research := &Task{
		Description:    "Research the top 3 emerging trends in Artificial Intelligence in 2024-2025. Focus on practical applications and potential impact.",
		ExpectedOutput: "A detailed summary of the top 3 AI trends, including key points and sources.",
		Agent:          researcher,
	}
	writing := &Task{
		Description:    "Write a 500-word blog post based on the research findings. The post should be engaging and easy for a general audience to understand.",
		ExpectedOutput: "A complete 500-word blog post about the latest AI trends.",
		Agent:          writer,
		Context:        []*Task{research},
	}

	return &Crew{
		Agents:  []*Agent{researcher, writer},
		Tasks:   []*Task{research, writing},
		Process: ProcessSequential,
		Model:   model,
		Out:     out,
	}
}
