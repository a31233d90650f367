package graph

import (
	"fmt"

	"github.com/smallnest/agentpatterns/store"
)

// StateGraph is a workflow definition over state type S.
type StateGraph[S any] struct {
	nodes            map[string]Node[S]
	order            []string
	edges            []Edge
	conditionalEdges map[string]conditionalEdge[S]
	conditionalOrder []string
	entryPoint       string
	stateMerger      StateMerger[S]
	resumeMerger     ResumeMerger[S]
	listeners        []NodeListener[S]
}

// NewStateGraph creates an empty graph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]conditionalEdge[S]),
	}
}

// AddNode registers fn under name. Adding a name twice replaces the function.
func (g *StateGraph[S]) AddNode(name, description string, fn NodeFunc[S]) {
	if _, ok := g.nodes[name]; !ok {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S]{Name: name, Description: description, Function: fn}
}

// AddEdge adds a static edge. Several edges from the same node fan out.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge routes from a node to the target returned by condition.
// Targets lists the possible results; it is used for validation and drawing.
// A conditional edge takes precedence over static edges of the same node.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition ConditionFunc[S], targets ...string) {
	if _, ok := g.conditionalEdges[from]; !ok {
		g.conditionalOrder = append(g.conditionalOrder, from)
	}
	g.conditionalEdges[from] = conditionalEdge[S]{from: from, condition: condition, targets: targets}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetStateMerger sets how fan-out results are joined. Without a merger the
// result of the last node of a superstep wins.
func (g *StateGraph[S]) SetStateMerger(merger StateMerger[S]) {
	g.stateMerger = merger
}

// SetResumeMerger sets how the state saved on a thread and the input of a new
// invocation are combined. Without a merger the input replaces the saved state.
func (g *StateGraph[S]) SetResumeMerger(merger ResumeMerger[S]) {
	g.resumeMerger = merger
}

// AddListener registers a listener for node events of every run.
func (g *StateGraph[S]) AddListener(l NodeListener[S]) {
	g.listeners = append(g.listeners, l)
}

// Nodes returns the nodes in the order they were added.
func (g *StateGraph[S]) Nodes() []Node[S] {
	out := make([]Node[S], 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

func (g *StateGraph[S]) hasTarget(name string) bool {
	if name == END {
		return true
	}
	_, ok := g.nodes[name]
	return ok
}

func (g *StateGraph[S]) validate() error {
	if g.entryPoint == "" {
		return ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if !g.hasTarget(e.To) {
			return fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
	}
	for _, from := range g.conditionalOrder {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
		for _, to := range g.conditionalEdges[from].targets {
			if !g.hasTarget(to) {
				return fmt.Errorf("%w: conditional edge target %s", ErrNodeNotFound, to)
			}
		}
	}
	return nil
}

// Compile validates the graph and returns a runnable without checkpointing.
func (g *StateGraph[S]) Compile() (*Runnable[S], error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	return &Runnable[S]{
		graph:     g,
		listeners: append([]NodeListener[S](nil), g.listeners...),
	}, nil
}

// CompileWithCheckpointer compiles a runnable that saves a checkpoint after
// every superstep of runs started with a thread id.
func (g *StateGraph[S]) CompileWithCheckpointer(cps store.CheckpointStore) (*Runnable[S], error) {
	r, err := g.Compile()
	if err != nil {
		return nil, err
	}
	r.checkpointer = cps
	return r, nil
}
