// Package graph composes the conversational pipeline: a supervisor routes
// each turn between a tool-using retriever agent, a plain chat agent, the
// enrichment stage, and termination.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/conversations"
	"github.com/frameiq/agent-server/internal/agent/graph/nodes"
	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/graph/tools"
	"github.com/frameiq/agent-server/internal/agent/model"
	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/internal/tmdb"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

// Runner executes one conversational turn on the compiled graph.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
}

// Config holds everything needed to compose the full turn graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// models and MessagesManager.
type Config struct {
	APIKey  string
	BaseURL string

	Supervisor model.SupervisorModelConfig
	Retriever  model.RetrieverModelConfig
	Chat       model.ChatModelConfig
	Extraction model.ExtractionModelConfig

	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository

	Similarity   similarity.Searcher
	Metadata     tmdb.Source
	Posters      nodes.PosterResolver
	RecentWindow time.Duration
}

// GraphConfig holds all dependencies needed to build the graph. Tests inject
// fake models and lookups here directly.
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	Classifier      nodes.RouteClassifier
	MessagesManager *conversations.MessagesManager
	ToolDeps        tools.Deps

	Posters      nodes.PosterResolver
	RecentWindow time.Duration

	Conversation model.ConversationConfig
}

// GraphBuilder handles the construction of the turn graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]
}

// NewRunner wraps a compiled graph in the Runner interface.
func NewRunner(runnable compose.Runnable[model.TurnInput, *schema.Message]) Runner {
	return &graphRunner{runnable: runnable}
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("graph returned no message")
	}

	result := &model.TurnResult{
		Reply:   out.Content,
		Movies:  []model.EnrichedMediaItem{},
		TVShows: []model.EnrichedMediaItem{},
		Metadata: model.TurnMetadata{
			SessionID: in.SessionID,
		},
	}
	if media, ok := out.Extra[model.ExtraMediaKey].(*model.EnrichedMedia); ok && media != nil {
		result.Movies = media.Movies
		result.TVShows = media.TVShows
	}
	if route, ok := out.Extra[model.ExtraRouteKey].(string); ok {
		result.Metadata.Route = route
	}
	if intent, ok := out.Extra[model.ExtraIntentKey].(string); ok {
		result.Metadata.Intent = intent
	}
	return result, nil
}

// BuildTurnGraph composes chat models, the MessagesManager, builds the graph,
// and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.Similarity == nil || cfg.Metadata == nil || cfg.Posters == nil {
		return nil, fmt.Errorf("lookup backends are not properly initialized")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelsConfig{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		SupervisorConfig: &cfg.Supervisor,
		RetrieverConfig:  &cfg.Retriever,
		ChatConfig:       &cfg.Chat,
		ExtractionConfig: &cfg.Extraction,
	})
	if err != nil {
		return nil, err
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		Classifier:      nodes.NewModelClassifier(cms.Supervisor),
		MessagesManager: mm,
		ToolDeps: tools.Deps{
			Similarity: cfg.Similarity,
			Metadata:   cfg.Metadata,
		},
		Posters:      cfg.Posters,
		RecentWindow: cfg.RecentWindow,
		Conversation: cfg.Conversation,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Turn graph built successfully")
	return NewRunner(runnable), nil
}

// BuildGraph constructs and returns the compiled turn graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Retriever == nil ||
		config.ChatModels.Chat == nil || config.ChatModels.Extraction == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("route classifier is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools configures the lookup tools and binds them to the retriever model
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	queryTools := tools.QueryTools(b.config.ToolDeps)
	toolInfos, err := tools.ToolInfos(ctx, queryTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToRetrieverModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to retriever model")
		return fmt.Errorf("failed to bind tools to retriever model: %w", err)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               queryTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Hallucinated or malformed tool calls degrade, never abort
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				return arguments, nil
			}

			switch name {
			case tools.ToolSearchSimilar:
				sanitizeString(m, "query")
				if v, ok := m["top_k"]; ok {
					switch vv := v.(type) {
					case float64:
						m["top_k"] = clampInt(int(vv), 1, 20)
					default:
						delete(m, "top_k")
					}
				}
			case tools.ToolSearchTitle:
				sanitizeString(m, "title")
				sanitizeString(m, "media_type")
				sanitizeString(m, "year")
			case tools.ToolSearchTrending:
				sanitizeString(m, "media_type")
				sanitizeString(m, "time_window")
			}

			out, err := json.Marshal(m)
			if err != nil {
				return arguments, nil
			}
			return string(out), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.Conversation.Tools.MaxCalls)),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	maxTurns := b.config.Conversation.History.MaxTurns
	maxToolCalls := b.config.Conversation.Tools.MaxCalls

	b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.config.MessagesManager),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSupervisor,
		nodes.NewSupervisorNode(b.config.Classifier),
		compose.WithStatePostHandler(nodes.NewSupervisorPostHandler(b.config.Conversation.MaxSupervisorVisits)),
	)

	b.graph.AddLambdaNode(nodes.NodeRetrieverAssembler,
		nodes.NewRetrieverAssemblerNode(b.config.MessagesManager, maxTurns),
	)

	b.graph.AddChatModelNode(nodes.NodeRetrieverModel,
		b.config.ChatModels.Retriever,
		compose.WithStatePreHandler(nodes.NewRetrieverModelPreHandler(maxToolCalls)),
		compose.WithStatePostHandler(nodes.NewRetrieverModelPostHandler(b.config.MessagesManager, b.config.ChatModels.RetrieverModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeChatAssembler,
		nodes.NewChatAssemblerNode(b.config.MessagesManager, maxTurns),
	)

	b.graph.AddChatModelNode(nodes.NodeChatModel,
		b.config.ChatModels.Chat,
		compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.MessagesManager, b.config.ChatModels.ChatModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeEnricher,
		nodes.NewEnricherNode(nodes.EnricherConfig{
			Extraction:   b.config.ChatModels.Extraction,
			ModelName:    b.config.ChatModels.ExtractionModelName,
			Metadata:     b.config.ToolDeps.Metadata,
			Posters:      b.config.Posters,
			RecentWindow: b.config.RecentWindow,
		}),
	)

	b.graph.AddLambdaNode(nodes.NodeTerminator,
		nodes.NewTerminatorNode(),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeSupervisor},
		{nodes.NodeRetrieverAssembler, nodes.NodeRetrieverModel},
		{nodes.NodeToolExecutor, nodes.NodeRetrieverModel},
		{nodes.NodeChatAssembler, nodes.NodeChatModel},
		{nodes.NodeChatModel, nodes.NodeSupervisor},
		{nodes.NodeEnricher, compose.END},
		{nodes.NodeTerminator, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	supervisorBranch := compose.NewGraphBranch(
		nodes.NewSupervisorCondition(),
		map[string]bool{
			nodes.NodeRetrieverAssembler: true,
			nodes.NodeChatAssembler:      true,
			nodes.NodeEnricher:           true,
			nodes.NodeTerminator:         true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSupervisor, supervisorBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding supervisor branch")
		return fmt.Errorf("error adding supervisor branch: %w", err)
	}

	toolBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeSupervisor:   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRetrieverModel, toolBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding tool branch")
		return fmt.Errorf("error adding tool branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	maxSteps := b.config.Conversation.MaxGraphSteps
	if maxSteps <= 0 {
		maxSteps = 15
	}

	// A retrieval turn that spends its whole tool budget needs two steps per
	// tool round (executor + model) on top of the fixed pipeline stages. The
	// ceiling guards against a misbehaving router, so it must never be the
	// thing that aborts a valid full-budget turn.
	maxCalls := b.config.Conversation.Tools.MaxCalls
	if maxCalls <= 0 {
		maxCalls = nodes.DefaultMaxToolCalls
	}
	if floor := 2*maxCalls + 8; maxSteps < floor {
		maxSteps = floor
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

func sanitizeString(m map[string]any, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	switch vv := v.(type) {
	case string:
		m[key] = strings.TrimSpace(vv)
	default:
		m[key] = strings.TrimSpace(fmt.Sprint(v))
	}
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
