//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clarityhq/clarity/cmd"
	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
	"github.com/clarityhq/clarity/internal/workflow"
)

// TestFastWorkflow drives a fast-mode run through the whole stack:
// workflow machine -> proxy client -> proxy HTTP server -> mock upstream.
func TestFastWorkflow(t *testing.T) {
	mockClient := new(cmd.MockLLMClient)
	mockClient.On("OptimizeFast", mock.Anything, "write an article about Go").
		Return("Write a well-structured article about the Go programming language.", nil)

	proxy := startProxy(t, mockClient)
	sess, err := workflow.NewSession(proxy)
	require.NoError(t, err)

	require.NoError(t, sess.SetInput("write an article about Go"))
	require.NoError(t, sess.Generate(context.Background()))

	assert.Equal(t, workflow.StatusCompleted, sess.Status())
	assert.Equal(t, "Write a well-structured article about the Go programming language.", sess.Result())
	mockClient.AssertExpectations(t)
}

// TestClarifyWorkflow drives the full clarification sequence end to end:
// question round, answer collection, final synthesis.
func TestClarifyWorkflow(t *testing.T) {
	mockClient := new(cmd.MockLLMClient)
	mockClient.On("GenerateQuestions", mock.Anything, "write an article").
		Return(sampleQuestions(), nil)
	mockClient.On("SynthesizeFinal", mock.Anything, "write an article", []prompt.QAPair{
		{Question: "What is the target audience?", Answer: "domain experts"},
		{Question: "How long should it be?", Answer: "under 500 words"},
	}).Return("Write a concise article for domain experts.", nil)

	proxy := startProxy(t, mockClient)
	sess, err := workflow.NewSession(proxy)
	require.NoError(t, err)

	require.NoError(t, sess.SetInput("write an article"))
	require.NoError(t, sess.SetMode(workflow.ModeClarify))
	require.NoError(t, sess.Generate(context.Background()))
	require.Equal(t, workflow.StatusAwaitingInput, sess.Status())

	questions := sess.Questions()
	require.Len(t, questions, 2)
	require.NoError(t, sess.SetAnswer(questions[0].ID, "domain experts"))
	require.NoError(t, sess.SetAnswer(questions[1].ID, "under 500 words"))

	require.NoError(t, sess.SubmitAnswers(context.Background()))
	assert.Equal(t, workflow.StatusCompleted, sess.Status())
	assert.Equal(t, "Write a concise article for domain experts.", sess.Result())
	mockClient.AssertExpectations(t)
}

// TestUpstreamFailurePropagatesThroughProxy verifies a timeout classified
// by the proxy comes back out of the workflow with the proxy's wording.
func TestUpstreamFailurePropagatesThroughProxy(t *testing.T) {
	mockClient := new(cmd.MockLLMClient)
	mockClient.On("OptimizeFast", mock.Anything, "idea").
		Return("", llm.ErrUpstreamTimeout)

	proxy := startProxy(t, mockClient)
	sess, err := workflow.NewSession(proxy)
	require.NoError(t, err)

	require.NoError(t, sess.SetInput("idea"))
	err = sess.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUpstreamTimeout)

	assert.Equal(t, workflow.StatusError, sess.Status())
	assert.Contains(t, sess.ErrMessage(), "did not respond in time")
	assert.Equal(t, "idea", sess.Input(), "input survives a failed round trip")
	mockClient.AssertExpectations(t)
}
