package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

//go:embed template/extraction_prompt.txt
var extractionSystemPrompt string

// RenderClassifierSystem renders the routing classifier's system prompt.
func RenderClassifierSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "classifier", classifierSystemPrompt)
}

// RenderExtractionSystem renders the title extraction system prompt used by
// the enricher.
func RenderExtractionSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, "extraction", extractionSystemPrompt)
}

func renderStatic(ctx context.Context, name, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}
