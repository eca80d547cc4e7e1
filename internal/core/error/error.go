package errx

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failure so callers can pick the right degraded reply.
type Kind string

const (
	KindToolExecution Kind = "tool_error"
	KindLLM           Kind = "llm_error"
	KindRateLimit     Kind = "rate_limit"
	KindTimeout       Kind = "timeout"
	KindNotFound      Kind = "not_found"
	KindExtraction    Kind = "extraction_error"
	KindStepLimit     Kind = "step_limit"
	KindInternal      Kind = "internal_error"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "not found"
)

// fallbackReplies maps error kinds to user-facing reply texts. The pipeline
// never surfaces raw errors to the chat UI; a degraded turn always answers
// with one of these.
var fallbackReplies = map[Kind]string{
	KindToolExecution: "I encountered an issue searching for that information. Could you try rephrasing your question?",
	KindLLM:           "I'm having trouble processing your request right now. Please try again in a moment.",
	KindRateLimit:     "I'm receiving too many requests right now. Please wait a moment and try again.",
	KindTimeout:       "That search is taking longer than expected. Could you try a more specific query?",
	KindNotFound:      "I couldn't find any results for that. Could you provide more details or try a different search?",
	KindStepLimit:     "I couldn't complete that request. Could you try asking in a different way?",
}

// FallbackReply returns the user-facing reply for a failure kind.
func FallbackReply(kind Kind) string {
	if r, ok := fallbackReplies[kind]; ok {
		return r
	}
	return "I encountered an unexpected error. Please try again."
}

// Error wraps an underlying error with an HTTP status, a safe message and a kind.
type Error struct {
	Err     error
	Status  int
	Kind    Kind
	Message string

	// RetryAfter carries the wait hint for rate-limit rejections.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Kind:    KindInternal,
		Message: message,
	}
}

// WithKind creates a classified Error.
func WithKind(err error, kind Kind, message string) *Error {
	return &Error{
		Err:     err,
		Status:  statusFor(kind),
		Kind:    kind,
		Message: message,
	}
}

// RateLimited creates a rate-limit rejection carrying the wait hint.
func RateLimited(wait time.Duration) *Error {
	return &Error{
		Status:     http.StatusTooManyRequests,
		Kind:       KindRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded, retry in %.0fs", wait.Seconds()),
		RetryAfter: wait,
	}
}

// KindOf extracts the Kind from an error chain. Unclassified failures map to
// KindLLM so the caller still produces a usable fallback reply.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindLLM
}

func statusFor(kind Kind) int {
	switch kind {
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
