package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/memory"
	"github.com/smallnest/agentpatterns/patterns/chaining"
	"github.com/smallnest/agentpatterns/patterns/crew"
	"github.com/smallnest/agentpatterns/patterns/memorydemo"
	"github.com/smallnest/agentpatterns/patterns/parallel"
	"github.com/smallnest/agentpatterns/patterns/planning"
	"github.com/smallnest/agentpatterns/patterns/routing"
	"github.com/smallnest/agentpatterns/patterns/strategic"
	"github.com/smallnest/agentpatterns/patterns/toolexplain"
	"github.com/smallnest/agentpatterns/patterns/tooluse"
	"github.com/smallnest/agentpatterns/prebuilt"
	"github.com/smallnest/agentpatterns/report"
	"github.com/smallnest/agentpatterns/tool"
)

func (c *cli) chainCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Extract specifications from text, then format them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := c.model(cmd.Context(), false)
			if err != nil {
				return err
			}
			s, err := chaining.Run(cmd.Context(), model, c.out, input, listeners[chaining.State](c)...)
			if err != nil {
				return err
			}
			specs, err := chaining.ParseSpecs(s.Output)
			if err != nil {
				c.logger.Warn("final output is not the expected JSON: %v", err)
				return nil
			}
			c.out.Field("cpu", specs.CPU)
			c.out.Field("memory", specs.Memory)
			c.out.Field("storage", specs.Storage)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", chaining.DefaultInput, "text to extract specifications from")
	return cmd
}

func (c *cli) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools [query...]",
		Short: "Answer queries concurrently with a ReAct agent and a search tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := args
			if len(queries) == 0 {
				queries = tooluse.DefaultQueries
			}
			model, err := c.model(cmd.Context(), false)
			if err != nil {
				return err
			}
			agent, err := tooluse.NewAgent(model, c.logger, listeners[prebuilt.AgentState](c)...)
			if err != nil {
				return err
			}
			c.out.Banner("Tool use with a ReAct agent")
			tooluse.Print(c.out, agent.RunBatch(cmd.Context(), queries))
			return nil
		},
	}
}

func (c *cli) explainToolsCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "explain-tools",
		Short: "Walk through how a model calls tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools := toolexplain.Tools()
			if err := toolexplain.DescribeTools(c.out, tools); err != nil {
				return err
			}
			toolexplain.Explain(c.out)

			model, err := c.model(cmd.Context(), false)
			if err != nil {
				return err
			}
			_, err = toolexplain.Run(cmd.Context(), model, c.out, tools, query)
			return err
		},
	}
	cmd.Flags().StringVar(&query, "query", toolexplain.DefaultQuery, "question for the live step")
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	var (
		mode  string
		topic string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a summary, then write it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != "graph" && mode != "chain" {
				return fmt.Errorf("unknown mode %q (want graph or chain)", mode)
			}
			model, err := c.model(cmd.Context(), true)
			if err != nil {
				return err
			}
			if mode == "chain" {
				_, err = planning.RunChain(cmd.Context(), model, c.out, topic)
				return err
			}
			_, err = planning.Run(cmd.Context(), model, c.out, topic, listeners[planning.WritingState](c)...)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "graph", "graph or chain")
	cmd.Flags().StringVar(&topic, "topic", planning.DefaultTopic, "topic to write about")
	return cmd
}

func (c *cli) strategicCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "strategic",
		Short: "Compare a reactive answer with plan, evaluate, adapt and execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := c.model(cmd.Context(), true)
			if err != nil {
				return err
			}
			_, _, err = strategic.Compare(cmd.Context(), model, c.out, topic, listeners[strategic.State](c)...)
			return err
		},
	}
	cmd.Flags().StringVar(&topic, "topic", strategic.DefaultTopic, "topic to write about")
	return cmd
}

func (c *cli) crewCmd() *cobra.Command {
	var htmlPath string
	cmd := &cobra.Command{
		Use:   "crew",
		Short: "Run a researcher and a writer as a sequential crew",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := c.model(cmd.Context(), true)
			if err != nil {
				return err
			}
			team := crew.NewBlogCrew(model, c.out)
			team.Listeners = listeners[crew.State](c)

			c.out.Banner("Running the crew")
			result, err := team.Kickoff(cmd.Context())
			if err != nil {
				return err
			}
			c.out.Section("Final result")
			c.out.Line("%s", result.Raw)

			if htmlPath != "" {
				if err := report.WriteFile(htmlPath, "Crew report", result.Markdown()); err != nil {
					return err
				}
				c.logger.Info("wrote report to %s", htmlPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write the task outputs as an HTML report")
	return cmd
}

func (c *cli) routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [request...]",
		Short: "Classify requests and hand each to a specialist",
		RunE: func(cmd *cobra.Command, args []string) error {
			requests := args
			if len(requests) == 0 {
				requests = routing.DefaultRequests
			}
			model, err := c.model(cmd.Context(), false)
			if err != nil {
				return err
			}
			c.out.Banner("Routing")
			_, err = routing.Run(cmd.Context(), model, c.out, requests, listeners[routing.State](c)...)
			return err
		},
	}
}

func (c *cli) parallelCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "parallel",
		Short: "Run three analyses of one text at once, then synthesize them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := c.model(cmd.Context(), false)
			if err != nil {
				return err
			}
			_, err = parallel.Run(cmd.Context(), model, c.out, input, listeners[parallel.State](c)...)
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", parallel.DefaultInput, "text to analyze")
	return cmd
}

// memoryDemos are the memory walkthroughs in the order "memory" runs them.
var memoryDemos = []string{"history", "buffer", "short", "long", "combined"}

func (c *cli) memoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "memory [history|buffer|short|long|combined]",
		Short:     "Show chat history, conversation buffers, short-term and long-term memory",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: memoryDemos,
		RunE: func(cmd *cobra.Command, args []string) error {
			demos := memoryDemos
			if len(args) == 1 {
				demos = args
			}
			for _, d := range demos {
				if err := c.runMemoryDemo(cmd, d); err != nil {
					return fmt.Errorf("memory %s: %w", d, err)
				}
			}
			return nil
		},
	}
}

func (c *cli) runMemoryDemo(cmd *cobra.Command, demo string) error {
	ctx := cmd.Context()

	if demo == "history" {
		_, err := memorydemo.History(ctx, c.out)
		return err
	}
	if demo == "long" {
		st, release, err := c.memoryStore(cmd)
		if err != nil {
			return err
		}
		defer release()
		_, err = memorydemo.LongTerm(ctx, st, c.out)
		return err
	}

	if demo == "buffer" {
		model, err := c.model(ctx, false)
		if err != nil {
			return err
		}
		if _, err := memorydemo.Buffer(ctx, model, c.out, memorydemo.DefaultBufferQuestions); err != nil {
			return err
		}
		chat, err := c.model(ctx, true)
		if err != nil {
			return err
		}
		_, err = memorydemo.BufferMessages(ctx, chat, c.out, memorydemo.DefaultChatQuestions)
		return err
	}

	model, err := c.model(ctx, true)
	if err != nil {
		return err
	}
	cps, release, err := c.checkpoints(ctx)
	if err != nil {
		return err
	}
	defer release()

	switch demo {
	case "short":
		_, err = memorydemo.ShortTerm(ctx, model, cps, c.out, listeners[memorydemo.ConversationState](c)...)
	case "combined":
		st, release, serr := c.memoryStore(cmd)
		if serr != nil {
			return serr
		}
		defer release()
		_, err = memorydemo.Combined(ctx, model, st, cps, c.out, listeners[memorydemo.CombinedState](c)...)
	default:
		err = fmt.Errorf("unknown memory demo %q", demo)
	}
	return err
}

// memoryStore returns the long-term store: Redis when an address is
// configured, otherwise an in-process store searching by embeddings when
// an embedder can be built. The returned func releases it.
func (c *cli) memoryStore(cmd *cobra.Command) (memory.Store, func(), error) {
	if addr := c.cfg.Checkpoint.RedisAddr; addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		release := func() {
			if err := client.Close(); err != nil {
				c.logger.Warn("close redis client: %v", err)
			}
		}
		if err := client.Ping(cmd.Context()).Err(); err != nil {
			release()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		return memory.NewRedisStore(client, ""), release, nil
	}

	noop := func() {}
	emb, err := c.opts.EmbedderFactory(cmd.Context(), c.cfg)
	if err != nil {
		c.logger.Warn("semantic search disabled, using keyword search: %v", err)
		return memory.NewInMemoryStore(), noop, nil
	}
	return memory.NewInMemoryStore(memory.WithEmbedder(emb)), noop, nil
}

func (c *cli) fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [url]",
		Short: "Fetch a web page and print it as Markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := c.cfg.FetchURL
			if len(args) == 1 {
				url = args[0]
			}
			page, err := tool.NewFetchPage(tool.WithFetchTimeout(c.cfg.Timeout)).Fetch(cmd.Context(), url)
			if err != nil {
				return err
			}
			c.out.Banner(page.Title)
			c.out.Field("URL", page.URL)
			c.out.Field("Status", page.Status)
			c.out.Line("%s", page.Markdown)
			return nil
		},
	}
}

func (c *cli) graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph NAME",
		Short: "Print a workflow graph as a Mermaid flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, ok := graphRenderers[args[0]]
			if !ok {
				return fmt.Errorf("unknown graph %q (one of %s)", args[0], strings.Join(graphNames(), ", "))
			}
			chart, err := render()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), chart)
			return nil
		},
	}
}

// graphRenderers draw each workflow without calling a model.
var graphRenderers = map[string]func() (string, error){
	"chain": func() (string, error) { return chaining.NewGraph(nil, nil).Mermaid(), nil },
	"react": func() (string, error) {
		g, err := prebuilt.NewReactGraph(noModel{}, []tool.Tool{tool.SearchInformation()})
		if err != nil {
			return "", err
		}
		return g.Mermaid(), nil
	},
	"plan":      func() (string, error) { return planning.NewGraph(nil, nil).Mermaid(), nil },
	"strategic": func() (string, error) { return strategic.NewGraph(nil, nil).Mermaid(), nil },
	"crew":      func() (string, error) { return crew.NewBlogCrew(noModel{}, nil).Mermaid() },
	"route":     func() (string, error) { return routing.NewGraph(nil, nil).Mermaid(), nil },
	"parallel":  func() (string, error) { return parallel.NewGraph(nil, nil).Mermaid(), nil },
	"memory":    func() (string, error) { return memorydemo.NewChatGraph(nil).Mermaid(), nil },
	"combined": func() (string, error) {
		return memorydemo.NewCombinedGraph(nil, memory.NewInMemoryStore(), nil).Mermaid(), nil
	},
}

func graphNames() []string {
	names := make([]string, 0, len(graphRenderers))
	for name := range graphRenderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// noModel fills the model slot of graphs that are drawn and never run.
type noModel struct{}

var errNoModel = errors.New("graph was built for drawing only")

func (noModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, errNoModel
}

func (noModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", errNoModel
}
