package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/frameiq/agent-server/internal/agent/model"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

// ChatModelsConfig holds the configuration for chat model creation
type ChatModelsConfig struct {
	APIKey           string
	BaseURL          string
	SupervisorConfig *model.SupervisorModelConfig
	RetrieverConfig  *model.RetrieverModelConfig
	ChatConfig       *model.ChatModelConfig
	ExtractionConfig *model.ExtractionModelConfig
}

// ChatModels holds every model the pipeline invokes. All fields are
// interfaces so tests substitute deterministic fakes.
type ChatModels struct {
	Supervisor einomodel.BaseChatModel        // routing classifier fallback
	Retriever  einomodel.ToolCallingChatModel // tool-using research agent
	Chat       einomodel.BaseChatModel        // general questions, no tools
	Extraction einomodel.BaseChatModel        // title extraction for enrichment

	SupervisorModelName string
	RetrieverModelName  string
	ChatModelName       string
	ExtractionModelName string
}

// NewChatModels creates all pipeline models against a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelsConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	supervisor, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.SupervisorConfig.Model,
		Temperature: &config.SupervisorConfig.Temperature,
		MaxTokens:   &config.SupervisorConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating supervisor model")
		return nil, fmt.Errorf("error creating supervisor model: %w", err)
	}

	retriever, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RetrieverConfig.Model,
		Temperature: &config.RetrieverConfig.Temperature,
		MaxTokens:   &config.RetrieverConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating retriever model")
		return nil, fmt.Errorf("error creating retriever model: %w", err)
	}

	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ChatConfig.Model,
		Temperature: &config.ChatConfig.Temperature,
		MaxTokens:   &config.ChatConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	extraction, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ExtractionConfig.Model,
		Temperature: &config.ExtractionConfig.Temperature,
		MaxTokens:   &config.ExtractionConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extraction model")
		return nil, fmt.Errorf("error creating extraction model: %w", err)
	}

	return &ChatModels{
		Supervisor:          supervisor,
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		SupervisorModelName: config.SupervisorConfig.Model,
		RetrieverModelName:  config.RetrieverConfig.Model,
		ChatModelName:       config.ChatConfig.Model,
		ExtractionModelName: config.ExtractionConfig.Model,
	}, nil
}

// BindToolsToRetrieverModel binds the tool surface to the retriever model.
func (cm *ChatModels) BindToolsToRetrieverModel(ctx context.Context, tools []*schema.ToolInfo) error {
	bound, err := cm.Retriever.WithTools(tools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	cm.Retriever = bound

	logx.Debug().Msg("Successfully bound tools to retriever model")
	return nil
}
