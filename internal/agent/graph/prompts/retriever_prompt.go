package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/tools"
)

//go:embed template/retriever_prompt.txt
var retrieverSystemPrompt string

// RenderRetrieverSystem renders the retriever agent's system prompt via the
// Eino prompt component. This triggers Prompt callbacks and returns the final
// system prompt string.
func RenderRetrieverSystem(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(retrieverSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"SimilarTool":  tools.ToolSearchSimilar,
		"TitleTool":    tools.ToolSearchTitle,
		"TrendingTool": tools.ToolSearchTrending,
	})
	if err != nil {
		return "", fmt.Errorf("retriever prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("retriever prompt render: empty result")
	}
	return msgs[0].Content, nil
}
