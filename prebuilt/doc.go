// Package prebuilt provides a ready-to-use ReAct agent on top of the graph
// package.
//
// The agent alternates between two nodes: "agent" asks the model for the next
// step with every tool bound, and "tools" runs the tool calls the model
// requested and appends their results to the conversation. The loop ends when
// the model answers without tool calls or when the iteration budget is spent.
//
//	agent, err := prebuilt.CreateReactAgent(model, []tool.Tool{tool.SearchInformation()})
//	if err != nil {
//		return err
//	}
//	state, err := agent.Invoke(ctx, prebuilt.NewAgentState("What is the capital of France?"))
//	if err != nil {
//		return err
//	}
//	fmt.Println(prebuilt.FinalAnswer(state))
package prebuilt
