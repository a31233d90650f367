// Package patterns groups the agentic workflows, one package per pattern.
//
//	chaining     extract, then transform, with a debug dump between steps
//	tooluse      a ReAct agent answering several queries concurrently
//	toolexplain  tool schemas, tool binding and manual dispatch
//	planning     plan, then write, as a graph or as a plain chain
//	strategic    plan, evaluate, adapt when needed, execute
//	crew         role-playing agents working through sequential tasks
//	routing      classify a request and route it to a handler
//	parallel     independent analyses fanned out and joined
//	memorydemo   short-term and long-term memory
//
// Every workflow takes its model as an llms.Model so it can run against any
// provider built by the llm package, or against a scripted model in tests.
package patterns
