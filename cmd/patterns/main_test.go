package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/llm/llmtest"
)

func execute(t *testing.T, opts Options, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr, _, err := executeCLI(t, opts, args...)
	return stdout, stderr, err
}

// executeCLI is execute that also hands back the command state.
func executeCLI(t *testing.T, opts Options, args ...string) (string, string, *cli, error) {
	t.Helper()
	t.Setenv("PATTERNS_TEMPERATURE", "")
	t.Setenv("PATTERNS_TRACING", "")
	t.Setenv("REDIS_ADDR", "")

	var stdout, stderr bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	root, c := newRootCmd(opts)
	root.SetArgs(args)
	err := c.execute(context.Background(), root)
	return stdout.String(), stderr.String(), c, err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func echoModel(reply string) *llmtest.ScriptedModel {
	return llmtest.NewResponder(func(context.Context, []llms.MessageContent, llms.CallOptions) (*llms.ContentResponse, error) {
		return llmtest.Text(reply), nil
	})
}

// recordingFactory returns model and remembers the temperature of each config it saw.
func recordingFactory(model llms.Model) (ModelFactory, func() []float64) {
	var (
		mu    sync.Mutex
		temps []float64
	)
	factory := func(_ context.Context, cfg *config.Config) (llms.Model, error) {
		mu.Lock()
		defer mu.Unlock()
		temps = append(temps, cfg.Temperature)
		return model, nil
	}
	return factory, func() []float64 {
		mu.Lock()
		defer mu.Unlock()
		return append([]float64(nil), temps...)
	}
}

func noEmbedder(context.Context, *config.Config) (embeddings.Embedder, error) {
	return nil, errors.New("no embeddings in tests")
}

func TestGraphCommand(t *testing.T) {
	out, _, err := execute(t, Options{}, "graph", "route")
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart")
	assert.Contains(t, out, "classify -.-> technical")

	out, _, err = execute(t, Options{}, "graph", "crew")
	require.NoError(t, err)
	assert.Contains(t, out, "task_1 --> task_2")

	_, _, err = execute(t, Options{}, "graph", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown graph")
}

func TestGraphCommand_AllRender(t *testing.T) {
	for _, name := range graphNames() {
		t.Run(name, func(t *testing.T) {
			chart, err := graphRenderers[name]()
			require.NoError(t, err)
			assert.NotEmpty(t, chart)
		})
	}
}

func TestChainCommand(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("CPU: 3.5 GHz octa-core\nMemory: 16GB RAM\nStorage: 1TB NVMe SSD"),
		llmtest.Text("```json\n{\"cpu\": \"3.5 GHz octa-core\", \"memory\": \"16GB\", \"storage\": \"1TB NVMe SSD\"}\n```"),
	)
	factory, temps := recordingFactory(model)

	out, _, err := execute(t, Options{ModelFactory: factory}, "chain")
	require.NoError(t, err)
	assert.Contains(t, out, "Final JSON output")
	assert.Contains(t, out, "cpu: 3.5 GHz octa-core")
	assert.Contains(t, out, "storage: 1TB NVMe SSD")
	assert.Equal(t, []float64{0}, temps())
}

func TestToolsCommand(t *testing.T) {
	factory, _ := recordingFactory(echoModel("Here is what I found."))

	out, _, err := execute(t, Options{ModelFactory: factory}, "tools", "first question", "second question")
	require.NoError(t, err)
	assert.Contains(t, out, "Query: first question")
	assert.Contains(t, out, "Query: second question")
	assert.Contains(t, out, "Final agent response: Here is what I found.")
}

func TestPlanCommand(t *testing.T) {
	factory, temps := recordingFactory(echoModel("text"))

	_, _, err := execute(t, Options{ModelFactory: factory}, "plan", "--mode", "chain")
	require.NoError(t, err)
	assert.Equal(t, []float64{creativeTemperature}, temps())

	_, _, err = execute(t, Options{ModelFactory: factory}, "plan", "--mode", "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestTemperatureFlagOverridesCreativeDefault(t *testing.T) {
	factory, temps := recordingFactory(echoModel("text"))

	_, _, err := execute(t, Options{ModelFactory: factory}, "plan", "--temperature", "0")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, temps())
}

func TestConfigFileTemperatureOverridesCreativeDefault(t *testing.T) {
	factory, temps := recordingFactory(echoModel("text"))
	path := writeConfig(t, "temperature: 0.2\n")

	_, _, err := execute(t, Options{ModelFactory: factory}, "--config", path, "plan")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2}, temps())
}

func TestModelFactoryError(t *testing.T) {
	factory := func(context.Context, *config.Config) (llms.Model, error) {
		return nil, config.ErrMissingAPIKey
	}
	_, _, err := execute(t, Options{ModelFactory: factory}, "route")
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestCrewCommand_WritesHTML(t *testing.T) {
	factory, _ := recordingFactory(echoModel("Agents are everywhere."))
	path := filepath.Join(t.TempDir(), "crew.html")

	out, _, err := execute(t, Options{ModelFactory: factory}, "crew", "--html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Final result")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Crew report</title>")
	assert.Contains(t, string(data), "Senior Research Analyst")
	assert.Contains(t, string(data), "Agents are everywhere.")
}

func TestMemoryCommand_History(t *testing.T) {
	factory := func(context.Context, *config.Config) (llms.Model, error) {
		return nil, errors.New("history needs no model")
	}
	out, _, err := execute(t, Options{ModelFactory: factory}, "memory", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Chat message history")
	assert.Contains(t, out, "I'm planning a trip to Paris next month.")
}

func TestMemoryCommand_ShortTerm(t *testing.T) {
	factory, temps := recordingFactory(echoModel("Nice to meet you."))

	out, stderr, err := execute(t, Options{ModelFactory: factory}, "--log-level", "debug", "memory", "short")
	require.NoError(t, err)
	assert.Contains(t, out, "Short-term memory")
	assert.Contains(t, out, "conversation-2")
	assert.Equal(t, []float64{creativeTemperature}, temps())
	assert.Contains(t, stderr, "node chatbot started")
}

func TestMemoryCommand_LongTermKeywordFallback(t *testing.T) {
	out, stderr, err := execute(t, Options{EmbedderFactory: noEmbedder}, "memory", "long")
	require.NoError(t, err)
	assert.Contains(t, out, "Long-term memory")
	assert.Contains(t, out, "relevant memories")
	assert.Contains(t, stderr, "keyword search")
}

func TestMemoryCommand_LongTermRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, "checkpoint:\n  redis_addr: "+mr.Addr()+"\n")

	out, _, err := execute(t, Options{EmbedderFactory: noEmbedder}, "--config", path, "memory", "long")
	require.NoError(t, err)
	assert.Contains(t, out, "Long-term memory")
	assert.NotEmpty(t, mr.Keys())
	assert.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryCommand_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	path := writeConfig(t, "checkpoint:\n  redis_addr: "+addr+"\n")

	_, _, err := execute(t, Options{EmbedderFactory: noEmbedder}, "--config", path, "memory", "long")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestMemoryCommand_Combined(t *testing.T) {
	factory, _ := recordingFactory(echoModel("Try the mushroom risotto."))

	out, _, err := execute(t, Options{ModelFactory: factory, EmbedderFactory: noEmbedder}, "memory", "combined")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded preferences from long-term memory")
	assert.Contains(t, out, "Try the mushroom risotto.")
}

func TestMemoryCommand_RejectsUnknownDemo(t *testing.T) {
	_, _, err := execute(t, Options{}, "memory", "episodic")
	require.Error(t, err)
}

func TestCheckpointFlag_UnknownBackend(t *testing.T) {
	factory, _ := recordingFactory(echoModel("hi"))
	_, _, err := execute(t, Options{ModelFactory: factory}, "--checkpoint", "etcd", "memory", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown checkpoint backend")
}

func TestCheckpointFlag_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	factory, _ := recordingFactory(echoModel("hi"))

	_, _, err := execute(t, Options{ModelFactory: factory}, "--checkpoint", "file", "memory", "short")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><head><title>Fixture</title></head><body><h1>Hello</h1><p>world</p></body></html>")
	}))
	defer srv.Close()

	out, _, err := execute(t, Options{}, "fetch", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Fixture")
	assert.Contains(t, out, "# Hello")
	assert.Contains(t, out, "Status: 200")
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, Options{}, "--log-level", "loud", "graph", "chain")
	require.Error(t, err)
}

func TestConfigFile_EnablesTracing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing: stdout\nlog_level: warn\n"), 0o644))
	factory, _ := recordingFactory(echoModel("Hello Alice."))

	_, stderr, err := execute(t, Options{ModelFactory: factory}, "--config", path, "memory", "short")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"Name": "node chatbot"`)
	assert.NotContains(t, stderr, "node chatbot started")
}

func TestConfigFile_UnknownTracer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing: jaeger\n"), 0o644))

	_, _, err := execute(t, Options{}, "--config", path, "graph", "chain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tracing exporter")
}

func TestTracingShutdownAfterFailedCommand(t *testing.T) {
	path := writeConfig(t, "tracing: stdout\n")
	factory := func(context.Context, *config.Config) (llms.Model, error) {
		return nil, config.ErrMissingAPIKey
	}

	_, _, c, err := executeCLI(t, Options{ModelFactory: factory}, "--config", path, "route")
	require.ErrorIs(t, err, config.ErrMissingAPIKey)
	require.NotNil(t, c.provider)

	_, span := c.provider.Tracer("after-shutdown").Start(context.Background(), "late")
	defer span.End()
	assert.False(t, span.IsRecording())
}
