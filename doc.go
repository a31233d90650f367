// Package agentpatterns collects small agentic workflows built on a typed
// graph runtime: prompt chaining, tool use, planning, strategic execution,
// multi-agent crews, routing, parallel analysis and memory.
//
// # Layout
//
//   - graph: generic state graph with supersteps, conditional edges,
//     listeners, checkpoints and Mermaid output.
//   - store: checkpoint persistence (memory, file, sqlite, redis, postgres).
//   - llm, message, prompt, tool: model clients, the conversation model,
//     templates and callable tools.
//   - prebuilt: a ReAct agent on the graph.
//   - memory: chat history, conversation buffers and a long-term store.
//   - patterns/...: one package per workflow.
//   - cmd/patterns: the command line front end.
//
// # Quick Start
//
//	cfg, _ := config.Load("")
//	model, _ := llm.New(ctx, cfg)
//
//	agent, _ := prebuilt.CreateReactAgent(model, []tool.Tool{tool.SearchInformation()})
//	state, _ := agent.Invoke(ctx, prebuilt.NewAgentState("What is the capital of France?"))
//	fmt.Println(prebuilt.FinalAnswer(state))
//
// From the terminal:
//
//	export OPENAI_API_KEY=...
//	go run ./cmd/patterns chain
//	go run ./cmd/patterns memory short --checkpoint sqlite
//	go run ./cmd/patterns graph strategic
//
// # Checkpoints
//
// A graph compiled with CompileWithCheckpointer saves its state after every
// superstep of a run that carries a thread id. Running the same thread again
// continues from the saved state:
//
//	app, _ := g.CompileWithCheckpointer(cps)
//	app.InvokeWithConfig(ctx, input, &graph.Config{ThreadID: "conversation-1"})
package agentpatterns
