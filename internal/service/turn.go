// Package service orchestrates conversational turns: admission control,
// graph execution with retry, session bookkeeping, and degraded replies.
package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/frameiq/agent-server/internal/agent/graph"
	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/model"
	errx "github.com/frameiq/agent-server/internal/core/error"
	"github.com/frameiq/agent-server/internal/memory"
	"github.com/frameiq/agent-server/internal/ratelimit"
	logx "github.com/frameiq/agent-server/pkg/logger"
	"github.com/frameiq/agent-server/pkg/metrics"
)

const turnMaxRetries = 2

// TurnService runs one conversational turn end to end.
type TurnService struct {
	runner        graph.Runner
	limiter       *ratelimit.Limiter
	sessions      memory.Store
	conversations model.ConversationRepository
}

func NewTurnService(
	runner graph.Runner,
	limiter *ratelimit.Limiter,
	sessions memory.Store,
	conversations model.ConversationRepository,
) *TurnService {
	return &TurnService{
		runner:        runner,
		limiter:       limiter,
		sessions:      sessions,
		conversations: conversations,
	}
}

// ProcessTurn handles one user message. Pipeline failures never surface as
// errors: the result degrades to a categorized fallback reply instead. The
// returned error is non-nil only for admission rejections and carries the
// retry hint.
func (s *TurnService) ProcessTurn(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	start := time.Now()

	decision, err := s.limiter.Allow(ctx, in.SessionID)
	if err != nil {
		logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Rate limiter check failed")
		// Limiter backend failure fails open
		decision = ratelimit.Decision{Allowed: true}
	}
	if !decision.Allowed {
		metrics.RateLimitRejections.WithLabelValues(decision.Scope).Inc()
		metrics.RecordTurn("", "rate_limited", time.Since(start).Seconds())
		logx.Warn().
			Str("session_id", in.SessionID).
			Str("scope", decision.Scope).
			Dur("wait", decision.Wait).
			Msg("Turn rejected by rate limiter")
		return s.degraded(in.SessionID, errx.KindRateLimit), errx.RateLimited(decision.Wait)
	}

	result, err := s.invokeWithRetry(ctx, in)
	if err != nil {
		kind := errx.KindOf(err)
		logx.Error().Err(err).
			Str("session_id", in.SessionID).
			Str("error_type", string(kind)).
			Msg("Turn failed after retries")
		metrics.RecordTurn("", "error", time.Since(start).Seconds())
		return s.degraded(in.SessionID, kind), nil
	}

	s.touchSession(ctx, in.SessionID, result)

	metrics.RecordTurn(result.Metadata.Route, "ok", time.Since(start).Seconds())
	logx.Info().
		Str("session_id", in.SessionID).
		Str("route", result.Metadata.Route).
		Str("intent", result.Metadata.Intent).
		Int("movies", len(result.Movies)).
		Int("tv_shows", len(result.TVShows)).
		Dur("duration", time.Since(start)).
		Msg("Turn completed")
	return result, nil
}

// ProcessTurnStream runs a turn while emitting per-stage progress events to
// emit in execution order, finishing with a done sentinel. The final event
// of a failed turn carries the fallback reply and error type.
func (s *TurnService) ProcessTurnStream(ctx context.Context, in model.TurnInput, emit observers.ProgressEmitter) (*model.TurnResult, error) {
	ctx = observers.WithProgress(ctx, emit)

	result, err := s.ProcessTurn(ctx, in)
	if err != nil || result.Error != "" {
		emit(model.StageEvent{
			Stage: "done",
			Text:  result.Reply,
			Error: result.Metadata.ErrorType,
			Done:  true,
		})
		return result, err
	}

	emit(model.StageEvent{
		Stage:  "done",
		Text:   result.Reply,
		Route:  result.Metadata.Route,
		Intent: result.Metadata.Intent,
		Done:   true,
	})
	return result, nil
}

// invokeWithRetry runs the graph, retrying transient failures with
// exponential backoff. Routing loop trips and rate-limit errors are permanent.
func (s *TurnService) invokeWithRetry(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	var result *model.TurnResult

	operation := func() error {
		var err error
		result, err = s.runner.Invoke(ctx, in)
		if err == nil {
			return nil
		}
		switch errx.KindOf(err) {
		case errx.KindStepLimit, errx.KindRateLimit:
			return backoff.Permanent(err)
		}
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Turn attempt failed, retrying")
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, turnMaxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// touchSession updates session bookkeeping after a successful turn. The turn
// itself already wrote both transcript messages, so the delta is two.
func (s *TurnService) touchSession(ctx context.Context, sessionID string, result *model.TurnResult) {
	if _, err := s.sessions.Touch(ctx, sessionID, 2); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to touch session record")
	}
	count, err := s.conversations.GetMessageCount(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to read message count")
		return
	}
	result.Metadata.MessageCount = count
}

func (s *TurnService) degraded(sessionID string, kind errx.Kind) *model.TurnResult {
	return &model.TurnResult{
		Reply:   errx.FallbackReply(kind),
		Movies:  []model.EnrichedMediaItem{},
		TVShows: []model.EnrichedMediaItem{},
		Error:   string(kind),
		Metadata: model.TurnMetadata{
			SessionID: sessionID,
			ErrorType: string(kind),
		},
	}
}

// SessionInfo returns the bookkeeping record for a session, or nil when the
// session is unknown or expired.
func (s *TurnService) SessionInfo(ctx context.Context, sessionID string) (*memory.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// History returns the stored transcript for a session.
func (s *TurnService) History(ctx context.Context, sessionID string) (*model.ConversationHistory, error) {
	return s.conversations.LoadHistory(ctx, sessionID)
}

// ClearSession removes both the transcript and the session record.
func (s *TurnService) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.conversations.ClearHistory(ctx, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to delete session record")
	}
	return nil
}
