package conversations

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/model"
)

type memRepo struct {
	messages map[string][]*schema.Message
}

func newMemRepo() *memRepo {
	return &memRepo{messages: make(map[string][]*schema.Message)}
}

func (r *memRepo) AddMessage(_ context.Context, sessionID string, message *schema.Message) error {
	r.messages[sessionID] = append(r.messages[sessionID], message)
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

func newManager(repo model.ConversationRepository, maxTurns int) *MessagesManager {
	cfg := model.ConversationConfig{}
	cfg.History.MaxTurns = maxTurns
	return NewMessagesManager(repo, cfg)
}

func TestProcessUserMessage(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	mm := newManager(repo, 4)

	history, err := mm.ProcessUserMessage(ctx, "s1", "hello")
	if err != nil {
		t.Fatalf("ProcessUserMessage() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].Role != schema.User || history[0].Content != "hello" {
		t.Errorf("history[0] = %+v", history[0])
	}

	// history is bounded by max turns
	for i := 0; i < 6; i++ {
		if err := mm.SaveResponse(ctx, "s1", "reply"); err != nil {
			t.Fatalf("SaveResponse() error = %v", err)
		}
	}
	history, err = mm.ProcessUserMessage(ctx, "s1", "again")
	if err != nil {
		t.Fatalf("ProcessUserMessage() error = %v", err)
	}
	if len(history) != 4 {
		t.Errorf("len(history) = %d, want 4", len(history))
	}
	if last := history[len(history)-1]; last.Content != "again" {
		t.Errorf("tail = %+v, want the fresh user message", last)
	}
}

func TestRecentMessages(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	mm := newManager(repo, 10)

	for _, content := range []string{"a", "b", "c", "d"} {
		if err := mm.SaveResponse(ctx, "s1", content); err != nil {
			t.Fatalf("SaveResponse() error = %v", err)
		}
	}

	recent, err := mm.RecentMessages(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(recent) != 3 || recent[0].Content != "b" || recent[2].Content != "d" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestBuildAgentContext(t *testing.T) {
	mm := newManager(newMemRepo(), 10)

	history := []*schema.Message{
		schema.UserMessage("hi"),
		nil,
		schema.AssistantMessage("hello", nil),
	}
	msgs := mm.BuildAgentContext("be helpful", history)

	if len(msgs) != 3 {
		t.Fatalf("len(msgs) = %d, want 3 (nil dropped)", len(msgs))
	}
	if msgs[0].Role != schema.System || msgs[0].Content != "be helpful" {
		t.Errorf("msgs[0] = %+v, want system prompt first", msgs[0])
	}
}

func TestMessageCount(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	mm := newManager(repo, 10)

	_ = mm.SaveResponse(ctx, "s1", "one")
	_ = mm.SaveResponse(ctx, "s1", "two")

	n, err := mm.MessageCount(ctx, "s1")
	if err != nil {
		t.Fatalf("MessageCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("MessageCount() = %d, want 2", n)
	}
}
