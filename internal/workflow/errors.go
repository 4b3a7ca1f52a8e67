package workflow

import "errors"

// Sentinel errors for workflow guard violations. These are local
// validation failures: the session state is left unchanged and no
// upstream call is made.

// ErrClientNil indicates the session was created without a transport.
var ErrClientNil = errors.New("workflow client cannot be nil")

// ErrBlankInput indicates Generate was invoked with blank input.
var ErrBlankInput = errors.New("input must not be blank")

// ErrBusy indicates a call is already in flight for this session.
var ErrBusy = errors.New("a generation is already in progress")

// ErrModeLocked indicates a mode change was attempted outside the Idle or
// Completed states.
var ErrModeLocked = errors.New("mode can only be changed while idle or completed")

// ErrNoQuestions indicates SetAnswer or SubmitAnswers was invoked when no
// clarification questions are held.
var ErrNoQuestions = errors.New("no clarification questions to answer")

// ErrUnknownQuestion indicates SetAnswer referenced a question id that is
// not part of the current question set.
var ErrUnknownQuestion = errors.New("unknown question id")

// ErrInvalidAnswer indicates SetAnswer supplied a value that is not one of
// the question's option values.
var ErrInvalidAnswer = errors.New("answer is not one of the question's options")

// ErrAnswersIncomplete indicates SubmitAnswers was invoked before every
// question had exactly one answer.
var ErrAnswersIncomplete = errors.New("every question must be answered before submitting")

// ErrStale indicates a completed call was discarded because the session
// was reset or re-driven while it was in flight.
var ErrStale = errors.New("generation superseded; result discarded")
