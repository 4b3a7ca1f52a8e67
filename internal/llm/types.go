package llm

// QuestionOption is one mutually exclusive choice offered for a
// clarification question. Label is what the user sees; Value is the phrase
// carried into the final-synthesis prompt when the option is chosen.
type QuestionOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ClarificationQuestion is one multiple-choice question produced by the
// question-generation call. Immutable once received; it lives for a single
// workflow run.
type ClarificationQuestion struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Options []QuestionOption `json:"options"`
}

// QuestionSet is the JSON payload the upstream model must return for a
// clarify-questions call.
type QuestionSet struct {
	Questions []ClarificationQuestion `json:"questions"`
}
