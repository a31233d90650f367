package graph

import (
	"context"

	"github.com/smallnest/agentpatterns/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// NodeListener receives node events. Nodes of one superstep run
// concurrently, so implementations must be safe for concurrent use.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}

// LoggingListener logs node events
type LoggingListener[S any] struct {
	logger       log.Logger
	includeState bool
}

// NewLoggingListener creates a listener writing to logger, or to the default
// logger when logger is nil.
func NewLoggingListener[S any](logger log.Logger) *LoggingListener[S] {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &LoggingListener[S]{logger: logger}
}

// WithState configures whether to include state in logs
func (l *LoggingListener[S]) WithState(enabled bool) *LoggingListener[S] {
	l.includeState = enabled
	return l
}

// OnNodeEvent implements the NodeListener interface
func (l *LoggingListener[S]) OnNodeEvent(_ context.Context, event NodeEvent, nodeName string, state S, err error) {
	switch event {
	case NodeEventStart:
		l.logger.Info("node %s started", nodeName)
	case NodeEventComplete:
		l.logger.Info("node %s completed", nodeName)
		if l.includeState {
			l.logger.Debug("node %s state: %+v", nodeName, state)
		}
	case NodeEventError:
		l.logger.Error("node %s failed: %v", nodeName, err)
	}
}
