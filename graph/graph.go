// Package graph runs typed workflows made of nodes and edges.
//
// A workflow is a StateGraph over a state type S. Every node receives the
// current state and returns the next one. Execution proceeds in supersteps:
// all nodes that are active run concurrently, their results are merged, and
// the edges of the nodes that ran pick the next active set. A node with more
// than one static edge fans out to all of its targets; a conditional edge
// chooses a single target at runtime.
//
//	g := graph.NewStateGraph[State]()
//	g.AddNode("plan", "Write a plan", planNode)
//	g.AddNode("write", "Write the summary", writeNode)
//	g.AddEdge("plan", "write")
//	g.AddEdge("write", graph.END)
//	g.SetEntryPoint("plan")
//
//	app, err := g.Compile()
//	final, err := app.Invoke(ctx, State{Topic: "Go"})
//
// Compiled with a checkpoint store, a runnable saves the state after every
// superstep under the thread named in Config, so the next invocation on the
// same thread continues where the previous one stopped.
package graph

import (
	"context"
	"errors"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// DefaultRecursionLimit bounds the number of supersteps of one invocation.
const DefaultRecursionLimit = 25

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrRecursionLimit is returned when a run exceeds its superstep budget.
	ErrRecursionLimit = errors.New("recursion limit reached")
)

// NodeFunc computes the next state from the current one.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// ConditionFunc names the node to run after a conditional edge's source.
type ConditionFunc[S any] func(ctx context.Context, state S) string

// StateMerger joins the results of nodes that ran in the same superstep.
type StateMerger[S any] func(ctx context.Context, current S, results []S) (S, error)

// ResumeMerger combines the state saved on a thread with new invocation input.
type ResumeMerger[S any] func(ctx context.Context, saved S, input S) (S, error)

// Node is a named step of the graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    NodeFunc[S]
}

// Edge represents an edge in the graph.
type Edge struct {
	From string
	To   string
}

type conditionalEdge[S any] struct {
	from      string
	condition ConditionFunc[S]
	targets   []string
}

// Config tunes a single invocation.
type Config struct {
	// ThreadID selects the checkpoint thread. Empty disables checkpointing.
	ThreadID string

	// RecursionLimit caps supersteps; zero means DefaultRecursionLimit.
	RecursionLimit int

	// Metadata is copied into every checkpoint written by the run.
	Metadata map[string]any
}

func (c *Config) threadID() string {
	if c == nil {
		return ""
	}
	return c.ThreadID
}

func (c *Config) recursionLimit() int {
	if c == nil || c.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return c.RecursionLimit
}
