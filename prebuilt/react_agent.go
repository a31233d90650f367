package prebuilt

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/log"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/tool"
)

// DefaultMaxIterations bounds the agent ⇄ tools loop.
const DefaultMaxIterations = 10

// MaxIterationsMessage is the final answer once the iteration budget is spent.
const MaxIterationsMessage = "Maximum iterations reached. Please try a simpler query."

// AgentState is the state threaded through the ReAct graph.
type AgentState struct {
	Messages   []message.Message `json:"messages"`
	Iterations int               `json:"iterations"`
}

// NewAgentState starts a conversation with a single human message.
func NewAgentState(query string) AgentState {
	return AgentState{Messages: []message.Message{message.Human(query)}}
}

// FinalAnswer returns the content of the last AI message.
func FinalAnswer(state AgentState) string {
	return message.LastAI(state.Messages)
}

type agentOptions struct {
	maxIterations int
	systemPrompt  string
	logger        log.Logger
	callOptions   []llms.CallOption
	listeners     []graph.NodeListener[AgentState]
}

// AgentOption customizes CreateReactAgent.
type AgentOption func(*agentOptions)

// WithMaxIterations sets how many model calls the agent may make. A run
// takes 2n+1 supersteps, so n above 12 needs a larger graph.Config.RecursionLimit.
func WithMaxIterations(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxIterations = n
	}
}

// WithSystemPrompt prepends a system message to every model call.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) {
		o.systemPrompt = prompt
	}
}

// WithLogger sets the logger of the agent and its tool executor.
func WithLogger(logger log.Logger) AgentOption {
	return func(o *agentOptions) {
		o.logger = logger
	}
}

// WithCallOptions adds model call options, such as a temperature, to each call.
func WithCallOptions(opts ...llms.CallOption) AgentOption {
	return func(o *agentOptions) {
		o.callOptions = append(o.callOptions, opts...)
	}
}

// CreateReactAgent builds the agent graph over model and tools.
func CreateReactAgent(model llms.Model, tools []tool.Tool, opts ...AgentOption) (*graph.Runnable[AgentState], error) {
	g, err := NewReactGraph(model, tools, opts...)
	if err != nil {
		return nil, err
	}
	return g.Compile()
}

// WithListeners attaches node listeners to the agent graph.
func WithListeners(listeners ...graph.NodeListener[AgentState]) AgentOption {
	return func(o *agentOptions) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// NewReactGraph returns the uncompiled agent graph so callers can add
// listeners or compile it with a checkpoint store.
func NewReactGraph(model llms.Model, tools []tool.Tool, opts ...AgentOption) (*graph.StateGraph[AgentState], error) {
	if model == nil {
		return nil, fmt.Errorf("react agent: model is nil")
	}

	o := agentOptions{maxIterations: DefaultMaxIterations, logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxIterations <= 0 {
		o.maxIterations = DefaultMaxIterations
	}

	executor := tool.NewExecutor(tools...)
	executor.SetLogger(o.logger)

	callOpts := append([]llms.CallOption(nil), o.callOptions...)
	if len(tools) > 0 {
		callOpts = append(callOpts, llms.WithTools(tool.Definitions(tools)))
	}

	workflow := graph.NewStateGraph[AgentState]()
	for _, l := range o.listeners {
		workflow.AddListener(l)
	}

	workflow.AddNode("agent", "ReAct agent decision maker", func(ctx context.Context, state AgentState) (AgentState, error) {
		if state.Iterations >= o.maxIterations {
			o.logger.Warn("agent stopped after %d iterations", state.Iterations)
			state.Messages = message.Append(state.Messages, message.AI(MaxIterationsMessage))
			return state, nil
		}

		msgs := state.Messages
		if o.systemPrompt != "" {
			msgs = message.Append([]message.Message{message.System(o.systemPrompt)}, msgs...)
		}

		reply, err := llm.Complete(ctx, model, msgs, callOpts...)
		if err != nil {
			return state, fmt.Errorf("agent: %w", err)
		}

		state.Iterations++
		state.Messages = message.Append(state.Messages, reply)
		return state, nil
	})

	workflow.AddNode("tools", "Tool execution node", NewToolNode(executor))

	workflow.SetEntryPoint("agent")
	workflow.AddConditionalEdge("agent", func(ctx context.Context, state AgentState) string {
		last, ok := message.Last(state.Messages)
		if ok && last.HasToolCalls() {
			return "tools"
		}
		return graph.END
	}, "tools", graph.END)
	workflow.AddEdge("tools", "agent")

	return workflow, nil
}
