package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Regex to find JSON possibly enclosed in markdown code fences, since some
// models wrap JSON-mode output in ```json ... ``` anyway. It captures the
// content starting with { and ending with }.
var jsonFenceRegex = regexp.MustCompile("(?s)`{3,}(?:[jJ][sS][oO][nN])?\\s*(\\{.*\\})\\s*`{3,}")

// ParseQuestionSet takes the raw upstream response to a clarify-questions
// call, locates the JSON object (stripping markdown fences if present),
// unmarshals it, and validates the shape: at least one question, each with
// non-blank text and at least two options carrying non-blank label and
// value. Questions or options missing an id get a generated one so the
// client can always key answers by question id.
func ParseQuestionSet(rawResponse string) (QuestionSet, error) {
	var jsonStr string
	match := jsonFenceRegex.FindStringSubmatch(rawResponse)
	if len(match) == 2 {
		jsonStr = match[1]
		log.Debug().Str("extracted_json", jsonStr).Msg("Extracted JSON from code fences")
	} else {
		trimmed := strings.TrimSpace(rawResponse)
		if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
			log.Error().Str("raw_response", rawResponse).Msg("Could not find JSON object in upstream response")
			return QuestionSet{}, ErrResponseJSONFind
		}
		jsonStr = trimmed
	}

	var set QuestionSet
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &set); err != nil {
		log.Error().Err(err).Str("json_string", jsonStr).Msg("Failed to unmarshal question set JSON")
		return QuestionSet{}, fmt.Errorf("%w: %w", ErrResponseJSONUnmarshal, err)
	}

	if err := validateQuestionSet(&set); err != nil {
		log.Error().Err(err).Interface("question_set", set).Msg("Question set failed shape validation")
		return QuestionSet{}, err
	}

	log.Debug().Int("questions", len(set.Questions)).Msg("Question set parsed and validated")
	return set, nil
}

// maxQuestions caps how many questions the client will present. The prompt
// asks for 2-3, but a compliant-enough answer outside that band is kept:
// one question is still usable, and anything beyond the cap is truncated
// rather than the whole response rejected.
const maxQuestions = 5

func validateQuestionSet(set *QuestionSet) error {
	if len(set.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrQuestionShape)
	}
	if len(set.Questions) > maxQuestions {
		log.Warn().Int("questions", len(set.Questions)).Int("cap", maxQuestions).Msg("Upstream returned more questions than the cap; truncating")
		set.Questions = set.Questions[:maxQuestions]
	}

	for i := range set.Questions {
		q := &set.Questions[i]
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has blank text", ErrQuestionShape, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has fewer than two options", ErrQuestionShape, i)
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		for j := range q.Options {
			opt := &q.Options[j]
			if strings.TrimSpace(opt.Label) == "" || strings.TrimSpace(opt.Value) == "" {
				return fmt.Errorf("%w: question %d option %d has blank label or value", ErrQuestionShape, i, j)
			}
			if opt.ID == "" {
				opt.ID = uuid.NewString()
			}
		}
	}
	return nil
}
