// Package memory tracks per-session metadata alongside the conversation
// transcript: when the session started, when it was last touched, and how
// many messages it has accumulated. Records expire after a configurable
// idle period.
package memory

import (
	"context"
	"fmt"
	"time"
)

// Session is the bookkeeping record for one conversation.
type Session struct {
	SessionID    string            `json:"session_id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastAccessed time.Time         `json:"last_accessed"`
	MessageCount int               `json:"message_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Store persists session records.
type Store interface {
	// Touch creates the record on first use and bumps LastAccessed and
	// MessageCount by delta otherwise, returning the updated record.
	Touch(ctx context.Context, sessionID string, delta int) (*Session, error)

	// Get returns the record, or nil when unknown or expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Delete removes the record.
	Delete(ctx context.Context, sessionID string) error
}

// ContextSummary renders a short session descriptor for inclusion in model
// prompts.
func ContextSummary(s *Session) string {
	if s == nil {
		return "New conversation."
	}
	age := s.LastAccessed.Sub(s.CreatedAt).Round(time.Minute)
	if age < time.Minute {
		return fmt.Sprintf("Ongoing conversation, %d messages so far.", s.MessageCount)
	}
	return fmt.Sprintf("Ongoing conversation, %d messages over %s.", s.MessageCount, age)
}
