package chaining

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/llm/llmtest"
)

func TestRun(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("CPU: 3.5 GHz octa-core\nMemory: 16GB RAM\nStorage: 1TB NVMe SSD"),
		llmtest.Text("```json\n{\"cpu\": \"3.5 GHz octa-core\", \"memory\": \"16GB\", \"storage\": \"1TB NVMe SSD\"}\n```"),
	)
	var buf bytes.Buffer

	final, err := Run(context.Background(), model, console.New(&buf), DefaultInput)
	require.NoError(t, err)

	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, llmtest.LastText(reqs[0].Messages), DefaultInput)
	assert.Contains(t, llmtest.LastText(reqs[1].Messages), "Memory: 16GB RAM")
	assert.Contains(t, llmtest.LastText(reqs[1].Messages), "'cpu', 'memory', and 'storage'")
	assert.Equal(t, final.Prompt, llmtest.LastText(reqs[1].Messages))

	specs, err := ParseSpecs(final.Output)
	require.NoError(t, err)
	assert.Equal(t, "3.5 GHz octa-core", specs.CPU)
	assert.Equal(t, "1TB NVMe SSD", specs.Storage)

	out := buf.String()
	assert.Contains(t, out, "--- DEBUG: After Extraction (Step 1) ---")
	assert.Contains(t, out, "--- DEBUG: After Dictionary Wrapping ---")
	assert.Contains(t, out, "Type: map[string]interface {}")
	assert.Contains(t, out, "--- DEBUG: After Prompt 2 Template ---")
}

func TestRun_ModelError(t *testing.T) {
	_, err := Run(context.Background(), llmtest.New(), nil, DefaultInput)
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs(`{"cpu": {"speed": "3.5 GHz", "cores": 8}, "memory": "16GB", "storage": "1TB",}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"speed": "3.5 GHz", "cores": float64(8)}, specs.CPU)

	_, err = ParseSpecs(`{"cpu": "x", "memory": "y"}`)
	assert.ErrorIs(t, err, ErrIncompleteSpecs)

	_, err = ParseSpecs("no json here")
	assert.Error(t, err)
}
