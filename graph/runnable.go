package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/agentpatterns/store"
	"golang.org/x/sync/errgroup"
)

// Runnable is a compiled graph.
type Runnable[S any] struct {
	graph        *StateGraph[S]
	checkpointer store.CheckpointStore
	listeners    []NodeListener[S]
}

// AddListener registers a listener on this runnable only.
func (r *Runnable[S]) AddListener(l NodeListener[S]) *Runnable[S] {
	r.listeners = append(r.listeners, l)
	return r
}

// Invoke runs the graph from its entry point with input.
func (r *Runnable[S]) Invoke(ctx context.Context, input S) (S, error) {
	return r.InvokeWithConfig(ctx, input, nil)
}

// InvokeWithConfig runs the graph with per-invocation settings.
//
// With a checkpointer and a thread id, the latest checkpoint of the thread is
// loaded first. An unfinished thread continues with its pending nodes; a
// finished thread starts again at the entry point. In both cases the saved
// state is combined with input by the resume merger.
func (r *Runnable[S]) InvokeWithConfig(ctx context.Context, input S, config *Config) (S, error) {
	var zero S

	state := input
	next := []string{r.graph.entryPoint}
	version := 0
	threadID := ""
	if r.checkpointer != nil {
		threadID = config.threadID()
	}

	if threadID != "" {
		cp, err := store.Latest(ctx, r.checkpointer, threadID)
		switch {
		case errors.Is(err, store.ErrCheckpointNotFound):
		case err != nil:
			return zero, fmt.Errorf("load thread %s: %w", threadID, err)
		default:
			state, err = r.resume(ctx, cp, input)
			if err != nil {
				return zero, err
			}
			version = cp.Version
			if !cp.Done() {
				next = cp.Next
			}
		}
	}

	runID := uuid.NewString()
	limit := config.recursionLimit()

	for step := 0; len(next) > 0; step++ {
		if step >= limit {
			return zero, fmt.Errorf("%w: %d steps", ErrRecursionLimit, limit)
		}

		results, err := r.runStep(ctx, next, state)
		if err != nil {
			return zero, err
		}

		state, err = r.mergeState(ctx, state, results)
		if err != nil {
			return zero, err
		}

		ran := next
		next, err = r.determineNextNodes(ctx, ran, state)
		if err != nil {
			return zero, err
		}

		if threadID != "" {
			version++
			if err := r.saveCheckpoint(ctx, config, runID, step, version, ran, next, state); err != nil {
				return zero, err
			}
		}
	}

	return state, nil
}

// GetState returns the latest saved state of a thread.
func (r *Runnable[S]) GetState(ctx context.Context, threadID string) (S, *store.Checkpoint, error) {
	var zero S
	if r.checkpointer == nil {
		return zero, nil, fmt.Errorf("%w: no checkpointer configured", store.ErrCheckpointNotFound)
	}
	cp, err := store.Latest(ctx, r.checkpointer, threadID)
	if err != nil {
		return zero, nil, err
	}
	var s S
	if err := json.Unmarshal(cp.State, &s); err != nil {
		return zero, nil, fmt.Errorf("decode checkpoint %s: %w", cp.ID, err)
	}
	return s, cp, nil
}

func (r *Runnable[S]) resume(ctx context.Context, cp *store.Checkpoint, input S) (S, error) {
	var saved S
	if err := json.Unmarshal(cp.State, &saved); err != nil {
		return saved, fmt.Errorf("decode checkpoint %s: %w", cp.ID, err)
	}
	if r.graph.resumeMerger == nil {
		return input, nil
	}
	merged, err := r.graph.resumeMerger(ctx, saved, input)
	if err != nil {
		return merged, fmt.Errorf("resume merge failed: %w", err)
	}
	return merged, nil
}

// runStep executes the active nodes concurrently. Every node sees the same
// input state; results are returned in the order of nodes.
func (r *Runnable[S]) runStep(ctx context.Context, nodes []string, state S) ([]S, error) {
	results := make([]S, len(nodes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, name := range nodes {
		node, ok := r.graph.nodes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
		}
		eg.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("panic in node %s: %v", name, p)
					r.notify(egCtx, NodeEventError, name, state, err)
				}
			}()

			r.notify(egCtx, NodeEventStart, name, state, nil)
			res, err := node.Function(egCtx, state)
			if err != nil {
				r.notify(egCtx, NodeEventError, name, state, err)
				return fmt.Errorf("error in node %s: %w", name, err)
			}
			r.notify(egCtx, NodeEventComplete, name, res, nil)
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runnable[S]) notify(ctx context.Context, event NodeEvent, node string, state S, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, node, state, err)
	}
}

// mergeState merges the processed results into the current state.
func (r *Runnable[S]) mergeState(ctx context.Context, current S, results []S) (S, error) {
	if r.graph.stateMerger != nil {
		merged, err := r.graph.stateMerger(ctx, current, results)
		if err != nil {
			var zero S
			return zero, fmt.Errorf("state merge failed: %w", err)
		}
		return merged, nil
	}
	if len(results) == 0 {
		return current, nil
	}
	return results[len(results)-1], nil
}

// determineNextNodes follows the conditional edge of each node that ran, or
// else all of its static edges. END is dropped and duplicates collapse.
func (r *Runnable[S]) determineNextNodes(ctx context.Context, ran []string, state S) ([]string, error) {
	var next []string
	seen := make(map[string]bool)
	add := func(n string) {
		if n != END && !seen[n] {
			seen[n] = true
			next = append(next, n)
		}
	}

	for _, name := range ran {
		if ce, ok := r.graph.conditionalEdges[name]; ok {
			target := ce.condition(ctx, state)
			if target == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", name)
			}
			if !r.graph.hasTarget(target) {
				return nil, fmt.Errorf("%w: %s (routed from %s)", ErrNodeNotFound, target, name)
			}
			add(target)
			continue
		}

		found := false
		for _, e := range r.graph.edges {
			if e.From == name {
				add(e.To)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	return next, nil
}

func (r *Runnable[S]) saveCheckpoint(ctx context.Context, config *Config, runID string, step, version int, ran, next []string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state for checkpoint: %w", err)
	}

	metadata := map[string]any{
		"run_id": runID,
		"step":   step,
	}
	for k, v := range config.Metadata {
		metadata[k] = v
	}

	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  config.ThreadID,
		NodeName:  strings.Join(ran, ","),
		Next:      next,
		State:     data,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
		Version:   version,
	}
	if err := r.checkpointer.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
