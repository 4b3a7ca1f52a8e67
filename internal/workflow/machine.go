// Package workflow implements the client-side sequence controller for a
// Clarity run: idle, generating questions, awaiting the user's choices,
// generating the final result, completed or error. The transport is an
// injected llm.Client, so the same machine drives a direct upstream
// adapter or a proxy client.
package workflow

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/prompt"
)

// Status is the workflow state. Exactly one value is active at a time.
type Status int

const (
	StatusIdle Status = iota
	StatusGeneratingQuestions
	StatusAwaitingInput
	StatusGeneratingResult
	StatusCompleted
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusGeneratingQuestions:
		return "generating_questions"
	case StatusAwaitingInput:
		return "awaiting_input"
	case StatusGeneratingResult:
		return "generating_result"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Mode selects which call sequence Generate triggers.
type Mode int

const (
	// ModeFast runs the single-shot transform.
	ModeFast Mode = iota
	// ModeClarify runs the question round before the final synthesis.
	ModeClarify
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeClarify {
		return "clarify"
	}
	return "fast"
}

// Session is one workflow instance. Methods are safe for concurrent use;
// at most one upstream call is in flight at a time, and a call that
// completes after the session was reset or re-driven is discarded instead
// of overwriting newer state.
type Session struct {
	client llm.Client

	mu        sync.Mutex
	gen       uint64 // bumped whenever in-flight results must be invalidated
	status    Status
	mode      Mode
	input     string
	questions []llm.ClarificationQuestion
	answers   map[string]string // question id -> chosen option value
	result    string
	errMsg    string
}

// NewSession creates an idle session bound to the given transport.
func NewSession(client llm.Client) (*Session, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	return &Session{
		client:  client,
		answers: make(map[string]string),
	}, nil
}

// Status returns the current workflow state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Mode returns the selected call sequence.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Input returns the raw user input.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Result returns the final optimized prompt text, empty until a run
// completes.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ErrMessage returns the user-displayable message of the last failure,
// empty unless the session is in the error state.
func (s *Session) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Questions returns a copy of the current clarification question set.
func (s *Session) Questions() []llm.ClarificationQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := make([]llm.ClarificationQuestion, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// Answers returns a copy of the collected answer map.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// SetInput replaces the raw user input. It is rejected while a call is in
// flight.
func (s *Session) SetInput(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating() {
		return ErrBusy
	}
	s.input = input
	return nil
}

// SetMode selects the call sequence. Permitted only while Idle or
// Completed; it clears questions, answers and error, and returns a
// previously Completed session to Idle.
func (s *Session) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle && s.status != StatusCompleted {
		return ErrModeLocked
	}
	if mode == s.mode {
		return nil
	}
	s.gen++
	s.mode = mode
	s.questions = nil
	s.answers = make(map[string]string)
	s.errMsg = ""
	if s.status == StatusCompleted {
		s.result = ""
		s.status = StatusIdle
	}
	return nil
}

// Generate starts a run: the single-shot transform in fast mode, the
// question round in clarify mode. Blank input is a local validation
// failure that leaves the state unchanged. From Completed or Error it
// re-runs the appropriate sequence. On failure the session moves to the
// error state with a user-displayable message; input and any collected
// answers are retained for a manual retry.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.generating() {
		s.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(s.input) == "" {
		s.mu.Unlock()
		return ErrBlankInput
	}
	s.gen++
	gen := s.gen
	input := s.input
	mode := s.mode
	s.errMsg = ""
	if mode == ModeFast {
		s.status = StatusGeneratingResult
	} else {
		s.status = StatusGeneratingQuestions
	}
	s.mu.Unlock()

	log.Debug().Str("mode", mode.String()).Msg("Starting generation")

	if mode == ModeFast {
		result, err := s.client.OptimizeFast(ctx, input)
		return s.finishResult(gen, result, err)
	}

	questions, err := s.client.GenerateQuestions(ctx, input)
	return s.finishQuestions(gen, questions, err)
}

// SetAnswer records the chosen option value for a question. The value
// must be one of that question's option values. Permitted while awaiting
// input, and from the error state when questions are retained so the user
// can adjust answers before retrying.
func (s *Session) SetAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAwaitingInput && !(s.status == StatusError && len(s.questions) > 0) {
		return ErrNoQuestions
	}
	for _, q := range s.questions {
		if q.ID != questionID {
			continue
		}
		for _, opt := range q.Options {
			if opt.Value == value {
				s.answers[questionID] = value
				return nil
			}
		}
		return ErrInvalidAnswer
	}
	return ErrUnknownQuestion
}

// SubmitAnswers runs the final synthesis. It is a no-op returning
// ErrAnswersIncomplete unless every question has exactly one answer.
// Permitted while awaiting input, and from the error state when questions
// are retained (manual retry).
func (s *Session) SubmitAnswers(ctx context.Context) error {
	s.mu.Lock()
	if s.generating() {
		s.mu.Unlock()
		return ErrBusy
	}
	if len(s.questions) == 0 {
		s.mu.Unlock()
		return ErrNoQuestions
	}
	if len(s.answers) < len(s.questions) {
		s.mu.Unlock()
		return ErrAnswersIncomplete
	}

	pairs := make([]prompt.QAPair, 0, len(s.questions))
	for _, q := range s.questions {
		answer, ok := s.answers[q.ID]
		if !ok {
			s.mu.Unlock()
			return ErrAnswersIncomplete
		}
		pairs = append(pairs, prompt.QAPair{Question: q.Text, Answer: answer})
	}

	s.gen++
	gen := s.gen
	input := s.input
	s.errMsg = ""
	s.status = StatusGeneratingResult
	s.mu.Unlock()

	log.Debug().Int("answers", len(pairs)).Msg("Submitting clarification answers")

	result, err := s.client.SynthesizeFinal(ctx, input, pairs)
	return s.finishResult(gen, result, err)
}

// Reset returns the session to its initial values from any state. An
// in-flight call is invalidated; its late completion will be discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.status = StatusIdle
	s.input = ""
	s.result = ""
	s.questions = nil
	s.answers = make(map[string]string)
	s.errMsg = ""
}

// generating reports whether a call is in flight. Callers must hold mu.
func (s *Session) generating() bool {
	return s.status == StatusGeneratingQuestions || s.status == StatusGeneratingResult
}

// finishResult applies the outcome of a fast transform or final
// synthesis, unless the run was superseded while in flight.
func (s *Session) finishResult(gen uint64, result string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		log.Debug().Msg("Discarding stale generation result")
		return ErrStale
	}
	if err != nil {
		s.status = StatusError
		s.errMsg = llm.UserMessage(err)
		return err
	}
	s.result = strings.TrimSpace(result)
	s.status = StatusCompleted
	s.errMsg = ""
	return nil
}

// finishQuestions applies the outcome of a question round, unless the run
// was superseded while in flight. An empty question set is treated as a
// malformed upstream response, never as a reason to await input.
func (s *Session) finishQuestions(gen uint64, questions []llm.ClarificationQuestion, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		log.Debug().Msg("Discarding stale question set")
		return ErrStale
	}
	if err == nil && len(questions) == 0 {
		err = llm.ErrQuestionShape
	}
	if err != nil {
		s.status = StatusError
		s.errMsg = llm.UserMessage(err)
		return err
	}
	s.questions = questions
	s.answers = make(map[string]string)
	s.status = StatusAwaitingInput
	s.errMsg = ""
	return nil
}
