package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/agentpatterns/store"
	"github.com/smallnest/agentpatterns/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendResume(_ context.Context, saved, input testState) (testState, error) {
	out := saved
	out.Steps = append(append([]string(nil), saved.Steps...), input.Steps...)
	return out, nil
}

func twoStepGraph() *StateGraph[testState] {
	g := NewStateGraph[testState]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", step("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")
	return g
}

func TestCheckpointsPerSuperstep(t *testing.T) {
	ctx := context.Background()
	cps := memory.NewMemoryCheckpointStore()

	app, err := twoStepGraph().CompileWithCheckpointer(cps)
	require.NoError(t, err)

	_, err = app.InvokeWithConfig(ctx, testState{}, &Config{ThreadID: "t1", Metadata: map[string]any{"user": "u1"}})
	require.NoError(t, err)

	list, err := cps.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].NodeName)
	assert.Equal(t, []string{"b"}, list[0].Next)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, "b", list[1].NodeName)
	assert.True(t, list[1].Done())
	assert.Equal(t, "u1", list[1].Metadata["user"])
	assert.JSONEq(t, `{"steps":["a","b"],"count":2}`, string(list[1].State))

	state, cp, err := app.GetState(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Version)
	assert.Equal(t, []string{"a", "b"}, state.Steps)
}

func TestNoThreadNoCheckpoint(t *testing.T) {
	ctx := context.Background()
	cps := memory.NewMemoryCheckpointStore()

	app, err := twoStepGraph().CompileWithCheckpointer(cps)
	require.NoError(t, err)
	_, err = app.Invoke(ctx, testState{})
	require.NoError(t, err)

	list, err := cps.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFinishedThreadRestartsWithMergedState(t *testing.T) {
	ctx := context.Background()
	cps := memory.NewMemoryCheckpointStore()

	g := twoStepGraph()
	g.SetResumeMerger(appendResume)
	app, err := g.CompileWithCheckpointer(cps)
	require.NoError(t, err)

	cfg := &Config{ThreadID: "chat"}
	_, err = app.InvokeWithConfig(ctx, testState{Steps: []string{"hi"}}, cfg)
	require.NoError(t, err)

	out, err := app.InvokeWithConfig(ctx, testState{Steps: []string{"again"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "a", "b", "again", "a", "b"}, out.Steps)

	_, cp, err := app.GetState(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 4, cp.Version)

	fresh, err := app.InvokeWithConfig(ctx, testState{Steps: []string{"new"}}, &Config{ThreadID: "other"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "a", "b"}, fresh.Steps)
}

func TestFinishedThreadWithoutMergerUsesInput(t *testing.T) {
	ctx := context.Background()
	app, err := twoStepGraph().CompileWithCheckpointer(memory.NewMemoryCheckpointStore())
	require.NoError(t, err)

	cfg := &Config{ThreadID: "t"}
	_, err = app.InvokeWithConfig(ctx, testState{Steps: []string{"x"}}, cfg)
	require.NoError(t, err)
	out, err := app.InvokeWithConfig(ctx, testState{Steps: []string{"y"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "a", "b"}, out.Steps)
}

func TestUnfinishedThreadResumesPendingNodes(t *testing.T) {
	ctx := context.Background()
	cps := memory.NewMemoryCheckpointStore()

	fail := true
	g := NewStateGraph[testState]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", func(ctx context.Context, s testState) (testState, error) {
		if fail {
			return s, errors.New("transient")
		}
		return step("b")(ctx, s)
	})
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")
	g.SetResumeMerger(func(_ context.Context, saved, _ testState) (testState, error) { return saved, nil })

	app, err := g.CompileWithCheckpointer(cps)
	require.NoError(t, err)

	cfg := &Config{ThreadID: "job"}
	_, err = app.InvokeWithConfig(ctx, testState{}, cfg)
	require.Error(t, err)

	_, cp, err := app.GetState(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, cp.Next)

	fail = false
	out, err := app.InvokeWithConfig(ctx, testState{}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Steps)
}

func TestGetStateWithoutCheckpointer(t *testing.T) {
	app, err := twoStepGraph().Compile()
	require.NoError(t, err)
	_, _, err = app.GetState(context.Background(), "t")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)
}

type failingStore struct {
	store.CheckpointStore
}

func (failingStore) List(context.Context, string) ([]*store.Checkpoint, error) {
	return nil, errors.New("store down")
}

func TestCheckpointLoadError(t *testing.T) {
	app, err := twoStepGraph().CompileWithCheckpointer(failingStore{})
	require.NoError(t, err)
	_, err = app.InvokeWithConfig(context.Background(), testState{}, &Config{ThreadID: "t"})
	assert.ErrorContains(t, err, "store down")
}
