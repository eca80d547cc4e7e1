package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/conversations"
	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/graph/prompts"
	"github.com/frameiq/agent-server/internal/agent/model"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		if s.SessionID == "" {
			s.SessionID = in.SessionID
		}
		// Reset per-turn counters
		s.SupervisorVisits = 0
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.ToolInvocations = nil
		s.Media = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode persists the incoming user message and hands it to
// the supervisor.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) (*schema.Message, error) {
		history, err := mm.ProcessUserMessage(ctx, input.SessionID, input.Query)
		if err != nil {
			return nil, fmt.Errorf("process user message: %w", err)
		}
		if len(history) == 0 {
			return nil, fmt.Errorf("empty history after persisting user message")
		}
		return history[len(history)-1], nil
	})
}

// NewRetrieverAssemblerNode builds the retriever agent's model context:
// system prompt plus the persisted bounded history.
func NewRetrieverAssemblerNode(mm *conversations.MessagesManager, maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.RouteDecision) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderRetrieverSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render retriever system prompt: %w", err)
		}

		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return nil, fmt.Errorf("read session from state: %w", err)
		}

		history, err := mm.RecentMessages(ctx, sessionID, maxTurns)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}

		observers.EmitStage(ctx, model.StageEvent{Stage: NodeRetrieverModel, Intent: model.IntentSearch})
		return mm.BuildAgentContext(systemPrompt, history), nil
	})
}

// NewChatAssemblerNode builds the chat agent's model context.
func NewChatAssemblerNode(mm *conversations.MessagesManager, maxTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.RouteDecision) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderChatSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render chat system prompt: %w", err)
		}

		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			sessionID = s.SessionID
			return nil
		}); err != nil {
			return nil, fmt.Errorf("read session from state: %w", err)
		}

		history, err := mm.RecentMessages(ctx, sessionID, maxTurns)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}

		observers.EmitStage(ctx, model.StageEvent{Stage: NodeChatModel, Intent: model.IntentChat})
		return mm.BuildAgentContext(systemPrompt, history), nil
	})
}

// recordUsageCost accumulates token cost into state and annotates the message
// Extra with the usage breakdown.
func recordUsageCost(node, modelName string, out *schema.Message, state *model.TurnState) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("session_id", state.SessionID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// NewRetrieverModelPreHandler creates the pre-handler for the retriever
// model. It merges fresh messages into the turn's working set and injects the
// wrap-up notice once the tool budget is spent.
func NewRetrieverModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.TurnState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.TurnState) ([]*schema.Message, error) {
		// Gemini may omit tool_call_id on tool results; recover it from the
		// most recent assistant tool call.
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := strings.TrimSpace(msg.ToolCalls[0].ID); id != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize a helpful response using the information you've already gathered. "+
						"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		return state.History, nil
	}
}

// NewRetrieverModelPostHandler creates the post-handler for the retriever
// model: cost accounting, tool_call_id normalization, and persisting the
// final reply.
func NewRetrieverModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		recordUsageCost(NodeRetrieverModel, modelName, out, state)

		// Some providers omit tool_call IDs entirely.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
			return out, nil
		}

		// Final reply for this agent pass; persist it so the supervisor's
		// next decision and later turns see it.
		if out.Role == schema.Assistant && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.SessionID, out.Content); err != nil {
				logx.Error().
					Str("session_id", state.SessionID).
					Err(err).
					Msg("Error saving retriever response")
			}
			observers.EmitStage(ctx, model.StageEvent{
				Stage:  NodeRetrieverModel,
				Text:   out.Content,
				Intent: model.IntentSearch,
			})
		}
		return out, nil
	}
}

// NewChatModelPostHandler creates the post-handler for the chat model.
func NewChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		recordUsageCost(NodeChatModel, modelName, out, state)

		state.History = append(state.History, out)

		if out.Role == schema.Assistant && strings.TrimSpace(out.Content) != "" {
			if err := mm.SaveResponse(ctx, state.SessionID, out.Content); err != nil {
				logx.Error().
					Str("session_id", state.SessionID).
					Err(err).
					Msg("Error saving chat response")
			}
			observers.EmitStage(ctx, model.StageEvent{
				Stage:  NodeChatModel,
				Text:   out.Content,
				Intent: model.IntentChat,
			})
		}
		return out, nil
	}
}

// NewToolExecutorCondition routes the retriever model's output: pending tool
// calls run the executor, anything else returns control to the supervisor.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		}); err != nil {
			return "", err
		}

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - returning to supervisor")
			return NodeSupervisor, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - returning to supervisor")
		return NodeSupervisor, nil
	}
}

// NewToolExecutorPreHandler counts tool invocations against the turn budget
// and records them for observability.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.TurnState) (*schema.Message, error) {
		for _, tc := range in.ToolCalls {
			state.ToolInvocations = append(state.ToolInvocations, model.ToolInvocationRecord{
				Tool:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}

		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("session_id", state.SessionID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("session_id", state.SessionID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}

		return in, nil
	}
}

// NewTerminatorNode ends the turn without enrichment, returning the last
// assistant reply or a greeting when the pipeline produced none.
func NewTerminatorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, decision model.RouteDecision) (*schema.Message, error) {
		var reply string
		var sessionID string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			sessionID = s.SessionID
			reply = lastAssistantContent(s.History)
			return nil
		}); err != nil {
			return nil, err
		}

		if reply == "" {
			reply = "Hello! I'm your movie and TV assistant. Ask me for recommendations or anything about film."
		}

		out := schema.AssistantMessage(reply, nil)
		out.Extra = map[string]any{
			model.ExtraMediaKey:  &model.EnrichedMedia{Movies: []model.EnrichedMediaItem{}, TVShows: []model.EnrichedMediaItem{}},
			model.ExtraRouteKey:  string(decision.Next),
			model.ExtraIntentKey: decision.Intent,
		}

		logx.Debug().Str("session_id", sessionID).Msg("turn terminated without enrichment")
		observers.EmitStage(ctx, model.StageEvent{Stage: NodeTerminator, Text: reply, Intent: decision.Intent, Route: string(decision.Next)})
		return out, nil
	})
}

func lastAssistantContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Role != schema.Assistant {
			continue
		}
		if content := strings.TrimSpace(m.Content); content != "" {
			return content
		}
	}
	return ""
}
