package planning

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/llm/llmtest"
	"github.com/smallnest/agentpatterns/message"
)

func TestRun(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("- what RL is\n- where it is used"),
		llmtest.Text("RL lets agents learn from reward."),
	)
	var buf bytes.Buffer

	final, err := Run(context.Background(), model, console.New(&buf), DefaultTopic)
	require.NoError(t, err)

	assert.Equal(t, "- what RL is\n- where it is used", final.Plan)
	assert.Equal(t, "RL lets agents learn from reward.", final.Summary)
	require.Len(t, final.Messages, 5)
	assert.Equal(t, message.RoleSystem, final.Messages[0].Role)
	assert.Equal(t, message.RoleAI, final.Messages[4].Role)

	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, llmtest.LastText(reqs[0].Messages), "'"+DefaultTopic+"'")

	second := reqs[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, llms.ChatMessageTypeAI, second[2].Role)
	assert.Contains(t, llmtest.LastText(second), "- where it is used")
	assert.Contains(t, llmtest.LastText(second), "around 200 words")

	assert.Contains(t, buf.String(), "Task result")
}

func TestRunChain(t *testing.T) {
	model := llmtest.New(llmtest.Text("- plan"), llmtest.Text("summary"))

	final, err := RunChain(context.Background(), model, nil, "Go")
	require.NoError(t, err)
	assert.Equal(t, "- plan", final.Plan)
	assert.Equal(t, "summary", final.Summary)
	assert.Empty(t, final.Messages)

	reqs := model.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 2)
	assert.Contains(t, llmtest.LastText(reqs[1].Messages), "- plan")
}

func TestRun_Error(t *testing.T) {
	_, err := Run(context.Background(), llmtest.New(llmtest.Text("plan only")), nil, "Go")
	assert.ErrorIs(t, err, llmtest.ErrExhausted)
}
