package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for the upstream adapter. The proxy maps each of these to
// one user-facing message and HTTP status.

// ErrClientNil indicates the upstream SDK client was nil when used.
var ErrClientNil = errors.New("LLM client cannot be nil")

// ErrPromptEmpty indicates the assembled prompt was empty.
var ErrPromptEmpty = errors.New("prompt cannot be empty")

// ErrUpstreamTimeout indicates the upstream call exceeded the configured
// deadline.
var ErrUpstreamTimeout = errors.New("upstream API call timed out")

// ErrUpstreamCall indicates the upstream call failed for a reason other
// than a timeout or an HTTP status error (e.g. DNS or connectivity).
// The underlying SDK error is wrapped.
var ErrUpstreamCall = errors.New("upstream API call failed")

// ErrEmptyResponse indicates the upstream returned no usable text content.
var ErrEmptyResponse = errors.New("received an empty response from upstream API")

// ErrResponseJSONFind indicates no JSON object could be located in the
// upstream response to a clarify-questions call.
var ErrResponseJSONFind = errors.New("failed to find JSON object in upstream response")

// ErrResponseJSONUnmarshal indicates the located JSON failed to unmarshal.
// The underlying JSON error is wrapped.
var ErrResponseJSONUnmarshal = errors.New("failed to unmarshal upstream response JSON")

// ErrQuestionShape indicates the parsed question set violates the expected
// shape (no questions, blank text, fewer than two options, blank option
// fields).
var ErrQuestionShape = errors.New("upstream question set has invalid shape")

// UpstreamHTTPError indicates the upstream API answered with a non-2xx
// status. It carries the status code so the proxy can report it.
type UpstreamHTTPError struct {
	Status int
	Err    error
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream API returned status %d: %v", e.Status, e.Err)
}

func (e *UpstreamHTTPError) Unwrap() error {
	return e.Err
}

// MessageError carries a user-displayable message produced elsewhere
// (the proxy's {message} body) together with the underlying error.
type MessageError struct {
	Message string
	Err     error
}

func (e *MessageError) Error() string {
	return e.Message
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// UserMessage maps an adapter error onto the single user-displayable
// message shown for it, both by the proxy and by the client workflow.
func UserMessage(err error) string {
	var msgErr *MessageError
	if errors.As(err, &msgErr) && msgErr.Message != "" {
		return msgErr.Message
	}

	var httpErr *UpstreamHTTPError
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return "the upstream API did not respond in time; please try again"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("the upstream API returned an error (status %d)", httpErr.Status)
	case errors.Is(err, ErrEmptyResponse):
		return "the upstream API returned an empty response"
	case errors.Is(err, ErrResponseJSONFind), errors.Is(err, ErrResponseJSONUnmarshal), errors.Is(err, ErrQuestionShape):
		return "the upstream API returned a malformed response"
	case errors.Is(err, ErrUpstreamCall):
		return "could not reach the upstream API"
	default:
		return "something went wrong; please try again"
	}
}
