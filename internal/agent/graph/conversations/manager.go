package conversations

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/model"
)

// MessagesManager mediates between the graph nodes and the conversation
// repository: it persists turn boundaries and hands nodes a bounded view of
// the history.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         config.History.MaxTurns,
	}
}

// ProcessUserMessage persists the incoming user message and returns the
// bounded history ending with it.
func (cm *MessagesManager) ProcessUserMessage(ctx context.Context, sessionID string, query string) ([]*schema.Message, error) {
	userMsg := schema.UserMessage(query)
	if err := cm.conversationRepo.AddMessage(ctx, sessionID, userMsg); err != nil {
		return nil, err
	}

	history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, cm.maxTurns), nil
}

// RecentMessages returns the last n persisted messages.
func (cm *MessagesManager) RecentMessages(ctx context.Context, sessionID string, n int) ([]*schema.Message, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return trimTail(history.Messages, n), nil
}

// BuildAgentContext prefixes a system prompt onto a history slice, skipping
// nil entries.
func (cm *MessagesManager) BuildAgentContext(systemPrompt string, history []*schema.Message) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	for _, msg := range history {
		if msg == nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// SaveResponse persists a final assistant reply.
func (cm *MessagesManager) SaveResponse(ctx context.Context, sessionID string, content string) error {
	assistantMsg := schema.AssistantMessage(content, nil)
	return cm.conversationRepo.AddMessage(ctx, sessionID, assistantMsg)
}

// MessageCount reports the persisted history length for a session.
func (cm *MessagesManager) MessageCount(ctx context.Context, sessionID string) (int, error) {
	return cm.conversationRepo.GetMessageCount(ctx, sessionID)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
