package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/chat_prompt.txt
var chatSystemPrompt string

// RenderChatSystem renders the chat agent's static system prompt via the Eino
// prompt component to emit prompt callbacks.
func RenderChatSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(chatSystemPrompt)},
	})
	if err != nil {
		return "", fmt.Errorf("chat prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("chat prompt render: empty result")
	}
	return msgs[0].Content, nil
}
