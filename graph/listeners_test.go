package graph

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smallnest/agentpatterns/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recorded struct {
	event NodeEvent
	node  string
}

func TestListenerEvents(t *testing.T) {
	var mu sync.Mutex
	var events []recorded
	rec := NodeListenerFunc[testState](func(_ context.Context, e NodeEvent, node string, _ testState, _ error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, recorded{e, node})
	})

	g := twoStepGraph()
	g.AddListener(rec)
	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), testState{})
	require.NoError(t, err)
	assert.Equal(t, []recorded{
		{NodeEventStart, "a"}, {NodeEventComplete, "a"},
		{NodeEventStart, "b"}, {NodeEventComplete, "b"},
	}, events)
}

func TestLoggingListener(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewCustomLogger(&buf, log.LogLevelDebug)

	g := NewStateGraph[testState]()
	g.AddNode("ok", "", step("ok"))
	g.AddNode("bad", "", func(context.Context, testState) (testState, error) {
		return testState{}, errors.New("bad input")
	})
	g.AddEdge("ok", "bad")
	g.AddEdge("bad", END)
	g.SetEntryPoint("ok")

	app, err := g.Compile()
	require.NoError(t, err)
	app.AddListener(NewLoggingListener[testState](logger).WithState(true))

	_, err = app.Invoke(context.Background(), testState{})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "node ok started")
	assert.Contains(t, out, "node ok completed")
	assert.Contains(t, out, "node ok state:")
	assert.Contains(t, out, "node bad failed: bad input")
}

func TestTracingListener(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	g := NewStateGraph[testState]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", func(context.Context, testState) (testState, error) {
		return testState{}, errors.New("nope")
	})
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")
	g.AddListener(NewTracingListener[testState](tp.Tracer("test")))

	app, err := g.Compile()
	require.NoError(t, err)
	_, err = app.Invoke(context.Background(), testState{})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "node a", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "node b", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "nope", spans[1].Status().Description)
}

func TestNewStdoutTracerProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutTracerProvider(&buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "node x")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "node x"`)
}
