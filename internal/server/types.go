package server

import (
	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
)

// Action tags accepted by the /api/generate endpoint.
const (
	ActionFast             = "fast"
	ActionClarifyQuestions = "clarify_questions"
	ActionClarifyFinal     = "clarify_final"
)

// GenerateRequest is the JSON body the browser client POSTs to
// /api/generate. APIKey is optional; when absent the proxy falls back to
// its own configured credential.
type GenerateRequest struct {
	Action  string          `json:"action"`
	Input   string          `json:"input"`
	QAPairs []prompt.QAPair `json:"qaPairs,omitempty"`
	APIKey  string          `json:"apiKey,omitempty"`
}

// GenerateResponse is the success body: Result for fast/clarify_final,
// Questions for clarify_questions. Exactly one field is populated.
type GenerateResponse struct {
	Result    string                      `json:"result,omitempty"`
	Questions []llm.ClarificationQuestion `json:"questions,omitempty"`
}

// ErrorResponse is the body returned with every non-200 status.
type ErrorResponse struct {
	Message string `json:"message"`
}
