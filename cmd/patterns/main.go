// Command patterns runs the agent pattern workflows from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/graph"
	"github.com/smallnest/agentpatterns/llm"
	"github.com/smallnest/agentpatterns/log"
	"github.com/smallnest/agentpatterns/store"

	_ "github.com/smallnest/agentpatterns/store/file"
	_ "github.com/smallnest/agentpatterns/store/memory"
	_ "github.com/smallnest/agentpatterns/store/postgres"
	_ "github.com/smallnest/agentpatterns/store/redis"
	_ "github.com/smallnest/agentpatterns/store/sqlite"
)

// creativeTemperature is used by the writing and chat workflows unless a
// temperature is set explicitly.
const creativeTemperature = 0.7

// ModelFactory creates the chat model for a workflow.
type ModelFactory func(ctx context.Context, cfg *config.Config) (llms.Model, error)

// EmbedderFactory creates the embedder behind long-term memory search.
type EmbedderFactory func(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error)

// DefaultModelFactory validates cfg and builds the configured provider.
func DefaultModelFactory(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return llm.New(ctx, cfg)
}

// Options carries the dependencies of the command tree.
type Options struct {
	ModelFactory    ModelFactory
	EmbedderFactory EmbedderFactory
	Stdout          io.Writer
	Stderr          io.Writer
}

type cli struct {
	opts Options

	configPath  string
	logLevel    string
	checkpoint  string
	temperature float64
	tempChanged bool

	cfg      *config.Config
	logger   log.Logger
	out      *console.Printer
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

func main() {
	root, c := newRootCmd(Options{})
	if err := c.execute(context.Background(), root); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd(opts Options) (*cobra.Command, *cli) {
	if opts.ModelFactory == nil {
		opts.ModelFactory = DefaultModelFactory
	}
	if opts.EmbedderFactory == nil {
		opts.EmbedderFactory = llm.NewEmbedder
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	c := &cli{opts: opts}

	root := &cobra.Command{
		Use:           "patterns",
		Short:         "patterns - agentic workflow patterns on a graph runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error, none)")
	flags.StringVar(&c.checkpoint, "checkpoint", "", "checkpoint backend (memory, file, sqlite, redis, postgres)")
	flags.Float64Var(&c.temperature, "temperature", 0, "sampling temperature for every workflow")

	root.AddCommand(
		c.chainCmd(),
		c.toolsCmd(),
		c.explainToolsCmd(),
		c.planCmd(),
		c.strategicCmd(),
		c.crewCmd(),
		c.routeCmd(),
		c.parallelCmd(),
		c.memoryCmd(),
		c.fetchCmd(),
		c.graphCmd(),
	)
	return root, c
}

// execute runs the command tree and then flushes the tracer, also when the
// command failed.
func (c *cli) execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if c.provider != nil {
		if serr := c.provider.Shutdown(ctx); serr != nil && err == nil {
			err = fmt.Errorf("tracing shutdown: %w", serr)
		}
	}
	return err
}

// setup loads configuration, then installs the logger and tracer.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.checkpoint != "" {
		cfg.Checkpoint.Backend = c.checkpoint
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = c.temperature
		c.tempChanged = true
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	c.logger = log.NewCustomLogger(c.opts.Stderr, level)
	log.SetDefaultLogger(c.logger)
	c.out = console.New(c.opts.Stdout)
	c.cfg = cfg

	switch strings.ToLower(cfg.Tracing) {
	case "", "none":
	case "stdout":
		tp, err := graph.NewStdoutTracerProvider(c.opts.Stderr)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		c.tracer = tp.Tracer("github.com/smallnest/agentpatterns")
		c.provider = tp
	default:
		return fmt.Errorf("unknown tracing exporter %q", cfg.Tracing)
	}
	return nil
}

// model builds the chat model. Creative workflows raise the temperature
// unless the flag, the config file or the environment chose one.
func (c *cli) model(ctx context.Context, creative bool) (llms.Model, error) {
	cfg := c.cfg
	if creative && !c.tempChanged && !cfg.TemperatureSet {
		cfg = cfg.WithTemperature(creativeTemperature)
	}
	return c.opts.ModelFactory(ctx, cfg)
}

// checkpoints opens the configured checkpoint backend. The returned func
// releases it.
func (c *cli) checkpoints(ctx context.Context) (store.CheckpointStore, func(), error) {
	cps, err := store.Open(ctx, c.cfg.Checkpoint)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if closer, ok := cps.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				c.logger.Warn("close checkpoint store: %v", err)
			}
		}
	}
	return cps, release, nil
}

// listeners returns the node listeners every workflow graph runs with.
func listeners[S any](c *cli) []graph.NodeListener[S] {
	ls := []graph.NodeListener[S]{graph.NewLoggingListener[S](c.logger)}
	if c.tracer != nil {
		ls = append(ls, graph.NewTracingListener[S](c.tracer))
	}
	return ls
}
