package prebuilt

import (
	"context"
	"fmt"

	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/message"
	"github.com/smallnest/agentpatterns/tool"
)

// NewToolNode returns a node that answers the tool calls of the last AI
// message. Each call yields one tool message, in request order.
func NewToolNode(executor *tool.Executor) graph.NodeFunc[AgentState] {
	return func(ctx context.Context, state AgentState) (AgentState, error) {
		last, ok := message.Last(state.Messages)
		if !ok || last.Role != message.RoleAI {
			return state, fmt.Errorf("tools: last message is not an AI message")
		}
		state.Messages = message.Append(state.Messages, executor.ExecuteAll(ctx, last.ToolCalls)...)
		return state, nil
	}
}
