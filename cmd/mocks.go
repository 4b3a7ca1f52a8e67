package cmd

// This file contains mock implementations used across different test files
// within the cmd package, but which need to be accessible from outside
// _test.go files (e.g., for integration tests).

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
)

// --- Mock LLMClient ---

// MockLLMClient is a mock implementation of the llm.Client interface.
// Exported for use in integration tests.
type MockLLMClient struct {
	mock.Mock
}

// OptimizeFast matches the llm.Client interface.
func (m *MockLLMClient) OptimizeFast(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// GenerateQuestions matches the llm.Client interface.
func (m *MockLLMClient) GenerateQuestions(ctx context.Context, input string) ([]llm.ClarificationQuestion, error) {
	args := m.Called(ctx, input)
	var questions []llm.ClarificationQuestion
	if qArg := args.Get(0); qArg != nil {
		questions = qArg.([]llm.ClarificationQuestion)
	}
	return questions, args.Error(1)
}

// SynthesizeFinal matches the llm.Client interface.
func (m *MockLLMClient) SynthesizeFinal(ctx context.Context, input string, pairs []prompt.QAPair) (string, error) {
	args := m.Called(ctx, input, pairs)
	return args.String(0), args.Error(1)
}
