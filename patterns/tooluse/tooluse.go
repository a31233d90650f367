// Package tooluse runs a ReAct agent equipped with a search tool over several
// queries at once.
package tooluse

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/log"
	"github.com/smallnest/agentpatterns/prebuilt"
	"github.com/smallnest/agentpatterns/tool"
)

// DefaultQueries exercise a canned answer, another canned answer and the
// default search result.
var DefaultQueries = []string{
	"What is the capital of France?",
	"What's the weather like in London?",
	"Tell me something about dogs.",
}

// Result is the outcome of one query.
type Result struct {
	Query  string
	Answer string
	Err    error
}

// Agent answers queries with the search_information tool.
type Agent struct {
	runnable *graph.Runnable[prebuilt.AgentState]
	logger   log.Logger
}

// NewAgent builds the agent over model.
func NewAgent(model llms.Model, logger log.Logger, listeners ...graph.NodeListener[prebuilt.AgentState]) (*Agent, error) {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	r, err := prebuilt.CreateReactAgent(model, []tool.Tool{tool.SearchInformation()},
		prebuilt.WithLogger(logger), prebuilt.WithListeners(listeners...))
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &Agent{runnable: r, logger: logger}, nil
}

// Ask runs the agent on a single query and returns its final answer.
func (a *Agent) Ask(ctx context.Context, query string) (string, error) {
	a.logger.Info("running agent with query: %q", query)
	state, err := a.runnable.Invoke(ctx, prebuilt.NewAgentState(query))
	if err != nil {
		return "", err
	}
	return prebuilt.FinalAnswer(state), nil
}

// RunBatch answers every query concurrently. A failing query is recorded in
// its Result and does not cancel the others. Results keep the query order.
func (a *Agent) RunBatch(ctx context.Context, queries []string) []Result {
	results := make([]Result, len(queries))

	var eg errgroup.Group
	for i, q := range queries {
		eg.Go(func() error {
			answer, err := a.Ask(ctx, q)
			if err != nil {
				a.logger.Error("query %q failed: %v", q, err)
			}
			results[i] = Result{Query: q, Answer: answer, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// Print writes results to out.
func Print(out *console.Printer, results []Result) {
	for _, r := range results {
		out.Section(fmt.Sprintf("Query: %s", r.Query))
		if r.Err != nil {
			out.Field("Error", r.Err)
			continue
		}
		out.Field("Final agent response", r.Answer)
	}
}
