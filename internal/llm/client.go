package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clarityhq/clarity/internal/prompt"
)

// Client defines the three upstream operations Clarity performs: the
// single-shot fast transform, the clarification question generation, and
// the final synthesis from the user's choices. Implementations own prompt
// assembly and response parsing so callers only deal in domain values.
type Client interface {
	// OptimizeFast rewrites raw user input into one polished instruction.
	OptimizeFast(ctx context.Context, input string) (string, error)

	// GenerateQuestions asks the model for 2-3 multiple-choice
	// clarification questions about the input.
	GenerateQuestions(ctx context.Context, input string) ([]ClarificationQuestion, error)

	// SynthesizeFinal merges the input with the answered questions into
	// one final instruction.
	SynthesizeFinal(ctx context.Context, input string, pairs []prompt.QAPair) (string, error)
}

// OpenAIClient implements Client on top of the go-openai SDK against any
// OpenAI-compatible completion endpoint.
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	temperature float32
	timeout     time.Duration
	templates   prompt.Templates
}

// DefaultTimeout bounds each upstream call when no explicit timeout is
// configured.
const DefaultTimeout = 15 * time.Second

// NewOpenAIClient creates a new OpenAI-backed adapter. It requires a
// configured go-openai client; modelName, temperature, and timeout fall
// back to sensible defaults when zero.
func NewOpenAIClient(client *openai.Client, modelName string, temperature float32, timeout time.Duration, templates prompt.Templates) (*OpenAIClient, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if modelName == "" {
		log.Warn().Msg("modelName is empty for OpenAIClient, defaulting to gpt-4o-mini")
		modelName = openai.GPT4oMini
	}
	if temperature <= 0 {
		temperature = 0.9
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
		timeout:     timeout,
		templates:   templates,
	}, nil
}

// OptimizeFast implements Client.
func (o *OpenAIClient) OptimizeFast(ctx context.Context, input string) (string, error) {
	return o.complete(ctx, o.templates.BuildFast(input), false)
}

// GenerateQuestions implements Client. The request runs in JSON mode and
// the response is parsed and shape-validated before being returned.
func (o *OpenAIClient) GenerateQuestions(ctx context.Context, input string) ([]ClarificationQuestion, error) {
	raw, err := o.complete(ctx, o.templates.BuildClarifyQuestions(input), true)
	if err != nil {
		return nil, err
	}
	set, err := ParseQuestionSet(raw)
	if err != nil {
		return nil, err
	}
	return set.Questions, nil
}

// SynthesizeFinal implements Client.
func (o *OpenAIClient) SynthesizeFinal(ctx context.Context, input string, pairs []prompt.QAPair) (string, error) {
	return o.complete(ctx, o.templates.BuildClarifyFinal(input, pairs), false)
}

// complete performs one bounded chat completion call and returns the
// trimmed text content. jsonMode constrains the response format for the
// clarify-questions call.
func (o *OpenAIClient) complete(ctx context.Context, fullPrompt string, jsonMode bool) (string, error) {
	if o.client == nil {
		return "", ErrClientNil
	}
	if strings.TrimSpace(fullPrompt) == "" {
		return "", ErrPromptEmpty
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       o.modelName,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fullPrompt,
			},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	log.Debug().Str("model", o.modelName).Bool("json_mode", jsonMode).Dur("timeout", o.timeout).Msg("Sending upstream completion request")
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		classified := classifyCallError(err)
		log.Error().Err(classified).Msg("Upstream completion call failed")
		return "", classified
	}

	if len(resp.Choices) == 0 {
		log.Error().Msg("Upstream returned a response with no choices")
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		log.Error().Msg("Upstream returned a choice with empty content")
		return "", ErrEmptyResponse
	}
	log.Debug().Int("content_len", len(content)).Msg("Received upstream completion response")
	return content, nil
}

// classifyCallError maps an SDK call error onto the adapter's taxonomy:
// timeout, status-carrying upstream error, or generic network failure.
func classifyCallError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &UpstreamHTTPError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &UpstreamHTTPError{Status: reqErr.HTTPStatusCode, Err: err}
	}

	return fmt.Errorf("%w: %w", ErrUpstreamCall, err)
}
