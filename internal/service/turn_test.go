package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/model"
	errx "github.com/frameiq/agent-server/internal/core/error"
	"github.com/frameiq/agent-server/internal/memory"
	"github.com/frameiq/agent-server/internal/ratelimit"
)

type fakeRunner struct {
	results []*model.TurnResult
	errs    []error
	calls   int
}

func (f *fakeRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], f.errs[i]
}

type memRepo struct {
	messages map[string][]*schema.Message
}

func newMemRepo() *memRepo {
	return &memRepo{messages: map[string][]*schema.Message{}}
}

func (r *memRepo) AddMessage(_ context.Context, sessionID string, m *schema.Message) error {
	r.messages[sessionID] = append(r.messages[sessionID], m)
	return nil
}

func (r *memRepo) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	return &model.ConversationHistory{SessionID: sessionID, Messages: r.messages[sessionID]}, nil
}

func (r *memRepo) ClearHistory(_ context.Context, sessionID string) error {
	delete(r.messages, sessionID)
	return nil
}

func (r *memRepo) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	return len(r.messages[sessionID]), nil
}

func newService(runner *fakeRunner, cfg model.RateLimitConfig, repo *memRepo) *TurnService {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), cfg)
	return NewTurnService(runner, limiter, memory.NewMemoryStore(24*time.Hour), repo)
}

func defaultRateConfig() model.RateLimitConfig {
	return model.RateLimitConfig{SessionMax: 20, GlobalMax: 100, WindowSecs: 60}
}

func TestProcessTurnSuccess(t *testing.T) {
	runner := &fakeRunner{
		results: []*model.TurnResult{{
			Reply:   "Here are some picks.",
			Movies:  []model.EnrichedMediaItem{{Title: "Inception"}},
			TVShows: []model.EnrichedMediaItem{},
			Metadata: model.TurnMetadata{
				SessionID: "s1",
				Route:     "enricher",
				Intent:    "search",
			},
		}},
		errs: []error{nil},
	}
	repo := newMemRepo()
	repo.AddMessage(context.Background(), "s1", schema.UserMessage("hi"))
	repo.AddMessage(context.Background(), "s1", schema.AssistantMessage("hello", nil))
	svc := newService(runner, defaultRateConfig(), repo)

	result, err := svc.ProcessTurn(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected degraded turn: %q", result.Error)
	}
	if result.Reply != "Here are some picks." {
		t.Errorf("reply = %q", result.Reply)
	}
	if result.Metadata.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", result.Metadata.MessageCount)
	}

	sess, err := svc.SessionInfo(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if sess == nil || sess.MessageCount != 2 {
		t.Errorf("session record = %+v, want message count 2", sess)
	}
}

func TestProcessTurnDegradedReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errx.Kind
	}{
		{
			name: "step limit",
			err:  errx.WithKind(errors.New("loop"), errx.KindStepLimit, "routing loop exceeded the step ceiling"),
			kind: errx.KindStepLimit,
		},
		{
			name: "unclassified maps to llm",
			err:  errors.New("boom"),
			kind: errx.KindLLM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: []*model.TurnResult{nil}, errs: []error{tt.err}}
			svc := newService(runner, defaultRateConfig(), newMemRepo())

			result, err := svc.ProcessTurn(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"})
			if err != nil {
				t.Fatalf("pipeline failures must not surface as errors, got %v", err)
			}
			if result.Error != string(tt.kind) {
				t.Errorf("error type = %q, want %q", result.Error, tt.kind)
			}
			if result.Reply != errx.FallbackReply(tt.kind) {
				t.Errorf("reply = %q, want categorized fallback", result.Reply)
			}
			if result.Metadata.ErrorType != string(tt.kind) {
				t.Errorf("metadata error type = %q", result.Metadata.ErrorType)
			}
			if result.Movies == nil || result.TVShows == nil {
				t.Error("degraded result must keep empty media slices, not nil")
			}
		})
	}
}

func TestProcessTurnRetriesTransientFailure(t *testing.T) {
	ok := &model.TurnResult{
		Reply:    "recovered",
		Movies:   []model.EnrichedMediaItem{},
		TVShows:  []model.EnrichedMediaItem{},
		Metadata: model.TurnMetadata{SessionID: "s1", Route: "terminator"},
	}
	runner := &fakeRunner{
		results: []*model.TurnResult{nil, ok},
		errs:    []error{errx.WithKind(errors.New("upstream 503"), errx.KindLLM, "model call failed"), nil},
	}
	svc := newService(runner, defaultRateConfig(), newMemRepo())

	result, err := svc.ProcessTurn(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if result.Reply != "recovered" {
		t.Errorf("reply = %q", result.Reply)
	}
	if runner.calls != 2 {
		t.Errorf("runner calls = %d, want 2", runner.calls)
	}
}

func TestProcessTurnStepLimitNotRetried(t *testing.T) {
	runner := &fakeRunner{
		results: []*model.TurnResult{nil},
		errs:    []error{errx.WithKind(errors.New("loop"), errx.KindStepLimit, "routing loop exceeded the step ceiling")},
	}
	svc := newService(runner, defaultRateConfig(), newMemRepo())

	result, err := svc.ProcessTurn(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1 (permanent failure)", runner.calls)
	}
	if result.Error != string(errx.KindStepLimit) {
		t.Errorf("error type = %q", result.Error)
	}
}

func TestProcessTurnRateLimited(t *testing.T) {
	ok := &model.TurnResult{
		Reply:    "hello",
		Movies:   []model.EnrichedMediaItem{},
		TVShows:  []model.EnrichedMediaItem{},
		Metadata: model.TurnMetadata{SessionID: "s1", Route: "terminator"},
	}
	runner := &fakeRunner{results: []*model.TurnResult{ok}, errs: []error{nil}}
	svc := newService(runner, model.RateLimitConfig{SessionMax: 1, GlobalMax: 100, WindowSecs: 60}, newMemRepo())

	in := model.TurnInput{SessionID: "s1", Query: "hi"}
	if _, err := svc.ProcessTurn(context.Background(), in); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	result, err := svc.ProcessTurn(context.Background(), in)
	if err == nil {
		t.Fatal("second turn should be rejected")
	}
	var appErr *errx.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error type %T", err)
	}
	if appErr.Kind != errx.KindRateLimit {
		t.Errorf("kind = %q", appErr.Kind)
	}
	if appErr.RetryAfter <= 0 {
		t.Errorf("retry hint = %v, want positive", appErr.RetryAfter)
	}
	if result == nil || result.Reply != errx.FallbackReply(errx.KindRateLimit) {
		t.Errorf("rejected turn must still carry the fallback reply, got %+v", result)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, rejected turn must do no work", runner.calls)
	}
}

func TestProcessTurnStreamEmitsDoneSentinel(t *testing.T) {
	ok := &model.TurnResult{
		Reply:    "streamed",
		Movies:   []model.EnrichedMediaItem{},
		TVShows:  []model.EnrichedMediaItem{},
		Metadata: model.TurnMetadata{SessionID: "s1", Route: "terminator", Intent: "chat"},
	}
	runner := &fakeRunner{results: []*model.TurnResult{ok}, errs: []error{nil}}
	svc := newService(runner, defaultRateConfig(), newMemRepo())

	var events []model.StageEvent
	emit := observers.ProgressEmitter(func(ev model.StageEvent) {
		events = append(events, ev)
	})

	result, err := svc.ProcessTurnStream(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"}, emit)
	if err != nil {
		t.Fatalf("ProcessTurnStream: %v", err)
	}
	if result.Reply != "streamed" {
		t.Errorf("reply = %q", result.Reply)
	}
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := events[len(events)-1]
	if !last.Done || last.Stage != "done" {
		t.Errorf("last event = %+v, want done sentinel", last)
	}
	if last.Text != "streamed" {
		t.Errorf("done text = %q", last.Text)
	}
}

func TestClearSession(t *testing.T) {
	runner := &fakeRunner{
		results: []*model.TurnResult{{
			Reply:    "hi",
			Movies:   []model.EnrichedMediaItem{},
			TVShows:  []model.EnrichedMediaItem{},
			Metadata: model.TurnMetadata{SessionID: "s1"},
		}},
		errs: []error{nil},
	}
	repo := newMemRepo()
	repo.AddMessage(context.Background(), "s1", schema.UserMessage("hi"))
	svc := newService(runner, defaultRateConfig(), repo)

	if _, err := svc.ProcessTurn(context.Background(), model.TurnInput{SessionID: "s1", Query: "hi"}); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if err := svc.ClearSession(context.Background(), "s1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	history, err := svc.History(context.Background(), "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history.Messages) != 0 {
		t.Errorf("history not cleared: %d messages", len(history.Messages))
	}
	sess, err := svc.SessionInfo(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionInfo: %v", err)
	}
	if sess != nil {
		t.Errorf("session record survived clear: %+v", sess)
	}
	if !strings.HasPrefix(memory.ContextSummary(sess), "New conversation") {
		t.Errorf("summary = %q", memory.ContextSummary(sess))
	}
}
