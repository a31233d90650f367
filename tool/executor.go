package tool

import (
	"context"
	"fmt"

	"github.com/smallnest/agentpatterns/log"
	"github.com/smallnest/agentpatterns/message"
)

// Executor dispatches model tool calls to registered tools.
type Executor struct {
	tools  map[string]Tool
	order  []Tool
	logger log.Logger
}

// NewExecutor registers tools by name. A later tool replaces an earlier one
// with the same name.
func NewExecutor(tools ...Tool) *Executor {
	e := &Executor{tools: make(map[string]Tool, len(tools)), logger: log.GetDefaultLogger()}
	for _, t := range tools {
		if _, dup := e.tools[t.Name()]; !dup {
			e.order = append(e.order, t)
		} else {
			for i, old := range e.order {
				if old.Name() == t.Name() {
					e.order[i] = t
				}
			}
		}
		e.tools[t.Name()] = t
	}
	return e
}

// SetLogger replaces the logger used to report tool activity.
func (e *Executor) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	e.logger = logger
}

// Tools returns the registered tools in registration order.
func (e *Executor) Tools() []Tool {
	return append([]Tool(nil), e.order...)
}

// Lookup finds a tool by name.
func (e *Executor) Lookup(name string) (Tool, bool) {
	t, ok := e.tools[name]
	return t, ok
}

// Run executes a single call and returns the tool output.
func (e *Executor) Run(ctx context.Context, call message.ToolCall) (string, error) {
	t, ok := e.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	e.logger.Info("tool called: %s(%s)", call.Name, call.Arguments)
	out, err := t.Call(ctx, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", call.Name, err)
	}
	e.logger.Debug("tool result: %s", out)
	return out, nil
}

// Execute answers call with a tool message. Failures, including unknown tool
// names, become the message content so the model can react to them.
func (e *Executor) Execute(ctx context.Context, call message.ToolCall) message.Message {
	out, err := e.Run(ctx, call)
	if err != nil {
		e.logger.Warn("tool call %s failed: %v", call.ID, err)
		out = "Error: " + err.Error()
	}
	return message.ToolResult(call, out)
}

// ExecuteAll answers every call in order.
func (e *Executor) ExecuteAll(ctx context.Context, calls []message.ToolCall) []message.Message {
	out := make([]message.Message, 0, len(calls))
	for _, c := range calls {
		out = append(out, e.Execute(ctx, c))
	}
	return out
}
