package strategic

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/agentpatterns/console"
	"github.com/smallnest/agentpatterns/llm/llmtest"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		text  string
		score int
		adapt bool
	}{
		{"Solid plan, 8/10.", ScoreGood, false},
		{"The structure is WEAK in places.", ScoreNeedsWork, true},
		{"Examples are missing.", ScoreNeedsWork, true},
		{"Could improve the intro.", ScoreNeedsWork, true},
		{"The goal is unclear.", ScoreNeedsWork, true},
		{"Incomplete coverage.", ScoreNeedsWork, true},
	}
	for _, tt := range tests {
		score, adapt := Evaluate(tt.text)
		assert.Equal(t, tt.score, score, tt.text)
		assert.Equal(t, tt.adapt, adapt, tt.text)
	}
}

func TestRun_WithAdaptation(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("plan v1"),
		llmtest.Text("6/10, the conclusion is missing"),
		llmtest.Text("plan v2"),
		llmtest.Text("final essay"),
	)

	s, err := Run(context.Background(), model, nil, DefaultTopic)
	require.NoError(t, err)

	assert.Equal(t, "plan v1", s.Plan)
	assert.Equal(t, ScoreNeedsWork, s.PlanQualityScore)
	assert.True(t, s.AdaptationNeeded)
	assert.Equal(t, "plan v2", s.AdaptedPlan)
	assert.Equal(t, "final essay", s.FinalResult)
	assert.Equal(t, s.FinalResult, s.ExecutionResult)

	reqs := model.Requests()
	require.Len(t, reqs, 4)
	assert.Contains(t, llmtest.LastText(reqs[3].Messages), "plan v2")
	assert.Len(t, reqs[3].Messages, 8)
	assert.Len(t, s.Messages, 9)
}

func TestRun_WithoutAdaptation(t *testing.T) {
	model := llmtest.New(
		llmtest.Text("plan v1"),
		llmtest.Text("Excellent, 9/10."),
		llmtest.Text("final essay"),
	)

	s, err := Run(context.Background(), model, nil, DefaultTopic)
	require.NoError(t, err)

	assert.Equal(t, ScoreGood, s.PlanQualityScore)
	assert.False(t, s.AdaptationNeeded)
	assert.Empty(t, s.AdaptedPlan)

	reqs := model.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, llmtest.LastText(reqs[2].Messages), "plan v1")
}

func TestAdaptNode_PassesPlanThrough(t *testing.T) {
	g := NewGraph(llmtest.New(), nil)
	var adapt func(context.Context, State) (State, error)
	for _, n := range g.Nodes() {
		if n.Name == "adapt" {
			adapt = n.Function
		}
	}
	require.NotNil(t, adapt)

	s, err := adapt(context.Background(), State{Plan: "keep me"})
	require.NoError(t, err)
	assert.Equal(t, "keep me", s.AdaptedPlan)
}

func TestCompare(t *testing.T) {
	model := llmtest.New(
		llmtest.Text(strings.Repeat("x", 250)),
		llmtest.Text("plan"),
		llmtest.Text("fine"),
		llmtest.Text("essay"),
	)
	var buf bytes.Buffer

	reactive, s, err := Compare(context.Background(), model, console.New(&buf), "Go")
	require.NoError(t, err)
	assert.Len(t, reactive, 250)
	assert.Equal(t, "essay", s.FinalResult)
	assert.Contains(t, buf.String(), strings.Repeat("x", 200)+"...")
	assert.Contains(t, llmtest.LastText(model.Requests()[0].Messages), "'Go' in ~200 words")
}
