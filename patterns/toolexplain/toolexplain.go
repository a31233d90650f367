// Package toolexplain walks through tool calling step by step: the tool
// schemas a model receives, a single call with tools bound, and manual
// dispatch of the tool calls the model returns.
package toolexplain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/tool"
)

// DefaultQuery needs both tools.
const DefaultQuery = "What is the capital of France and how old is someone born in 1990?"

// Flow describes what happens between a user query and the final answer.
const Flow = `1. The user asks a question.
2. The model sees every bound tool as a JSON schema and decides whether one helps.
3. Instead of answering, the model returns tool calls: a name, JSON arguments and a call id.
4. The caller looks each tool up by name and runs it with the decoded arguments.
5. Each result is sent back to the model as a tool message carrying the call id.
6. The model uses the results to write the final answer.

The model never runs a function itself. It only asks for one; the program decides to run it.`

// Tools returns the tools used by the walkthrough.
func Tools() []tool.Tool {
	return []tool.Tool{tool.CalculateAge(), tool.GetCapital()}
}

// Dispatch is one tool call returned by the model and what running it gave.
type Dispatch struct {
	Call   message.ToolCall
	Result string
	Err    error
}

// Demo is the outcome of the live step.
type Demo struct {
	Response   message.Message
	Dispatches []Dispatch
}

// DescribeTools prints each tool and its schema.
func DescribeTools(out *console.Printer, tools []tool.Tool) error {
	out.Section("Tool definition and schema")
	for _, t := range tools {
		params, err := json.Marshal(t.Parameters())
		if err != nil {
			return fmt.Errorf("marshal %s parameters: %w", t.Name(), err)
		}
		out.Field("Tool", t.Name())
		out.Field("  Description", t.Description())
		out.Field("  Parameters", string(params))
	}

	out.Section("What the model receives")
	for _, t := range tools {
		doc, err := json.MarshalIndent(tool.Schema(t), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s schema: %w", t.Name(), err)
		}
		out.Line("%s", doc)
	}
	return nil
}

// Explain prints the execution flow.
func Explain(out *console.Printer) {
	out.Section("Execution flow")
	out.Line("%s", Flow)
}

// Run binds tools to model, sends query once and dispatches the returned tool
// calls by hand. A failing tool is recorded in its Dispatch.
func Run(ctx context.Context, model llms.Model, out *console.Printer, tools []tool.Tool, query string) (*Demo, error) {
	out.Section("Live demonstration")
	out.Field("User query", query)

	reply, err := llm.Complete(ctx, model, []message.Message{message.Human(query)},
		llms.WithTools(tool.Definitions(tools)))
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	out.Field("Response content", reply.Content)
	out.Field("Tool calls", len(reply.ToolCalls))

	demo := &Demo{Response: reply}
	if !reply.HasToolCalls() {
		out.Line("The model answered directly without tool calls.")
		return demo, nil
	}

	executor := tool.NewExecutor(tools...)
	for _, call := range reply.ToolCalls {
		out.Field("Tool", call.Name)
		out.Field("  Args", call.Arguments)

		result, err := executor.Run(ctx, call)
		if err != nil {
			out.Field("  Error", err)
		} else {
			out.Field("  Result", result)
		}
		demo.Dispatches = append(demo.Dispatches, Dispatch{Call: call, Result: result, Err: err})
	}
	return demo, nil
}
