package nodes

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/graph/parsers"
	"github.com/frameiq/agent-server/internal/agent/graph/prompts"
	"github.com/frameiq/agent-server/internal/agent/model"
	errx "github.com/frameiq/agent-server/internal/core/error"
	logx "github.com/frameiq/agent-server/pkg/logger"
	"github.com/frameiq/agent-server/pkg/metrics"
)

// RouteClassifier is the LLM routing oracle invoked when no keyword rule
// matches. Implementations must never guess on failure.
type RouteClassifier interface {
	Classify(ctx context.Context, messages []*schema.Message) (model.RouteDecision, error)
}

// classifierContextSize bounds how much history the classifier sees.
const classifierContextSize = 3

// Keyword vocabularies for rule-based routing. Matched as substrings of the
// lowercased message text.
var (
	recommendationKeywords = []string{"recommend", "suggest", "check out", "might enjoy", "here are", "similar to"}
	explanationKeywords    = []string{"film noir", "genre", "style", "technique", "director", "cinematography"}
	greetingReplyKeywords  = []string{"i'd be happy", "i'm here to help", "what can i help"}

	searchIntentKeywords = []string{"suggest", "recommend", "like", "similar", "trending", "recent", "new", "what should i watch"}
	infoIntentKeywords   = []string{"what is", "who", "when", "where", "how", "explain", "tell me about"}
	greetingKeywords     = []string{"hello", "hi", "hey", "thanks", "thank you", "bye", "goodbye"}
)

// routeRule is one (predicate, decision) pair. Rules run top to bottom; the
// first match wins.
type routeRule struct {
	name   string
	match  func(msg *schema.Message) bool
	next   model.Route
	intent string
}

var routeRules = []routeRule{
	{
		name: "assistant_recommendations",
		match: func(msg *schema.Message) bool {
			if msg.Role != schema.Assistant {
				return false
			}
			text := strings.ToLower(msg.Content)
			return containsAny(text, recommendationKeywords) && !containsAny(text, greetingReplyKeywords)
		},
		next:   model.RouteEnricher,
		intent: model.IntentEnrich,
	},
	{
		name: "assistant_explanation_or_greeting",
		match: func(msg *schema.Message) bool {
			if msg.Role != schema.Assistant {
				return false
			}
			text := strings.ToLower(msg.Content)
			if containsAny(text, recommendationKeywords) {
				return false
			}
			return containsAny(text, explanationKeywords) || containsAny(text, greetingReplyKeywords)
		},
		next:   model.RouteEnd,
		intent: model.IntentEnd,
	},
	{
		name: "user_recommendation_request",
		match: func(msg *schema.Message) bool {
			return msg.Role == schema.User && containsAny(strings.ToLower(msg.Content), searchIntentKeywords)
		},
		next:   model.RouteRetriever,
		intent: model.IntentSearch,
	},
	{
		name: "user_informational_question",
		match: func(msg *schema.Message) bool {
			return msg.Role == schema.User && containsAny(strings.ToLower(msg.Content), infoIntentKeywords)
		},
		next:   model.RouteChat,
		intent: model.IntentChat,
	},
	{
		name: "user_greeting",
		match: func(msg *schema.Message) bool {
			return msg.Role == schema.User && containsAny(strings.ToLower(msg.Content), greetingKeywords)
		},
		next:   model.RouteChat,
		intent: model.IntentChat,
	},
}

// RouteByRules evaluates the ordered rule list against the latest message.
// The second return is false when no rule matched and the classifier must
// decide.
func RouteByRules(msg *schema.Message) (model.RouteDecision, bool) {
	if msg == nil {
		return model.RouteDecision{}, false
	}
	for _, rule := range routeRules {
		if rule.match(msg) {
			return model.RouteDecision{
				Next:      rule.next,
				Intent:    rule.intent,
				Reasoning: rule.name,
			}, true
		}
	}
	return model.RouteDecision{}, false
}

// NewSupervisorNode builds the router: keyword rules first, classifier
// fallback over the most recent messages. A classifier failure propagates so
// the turn degrades instead of misrouting.
func NewSupervisorNode(classifier RouteClassifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *schema.Message) (model.RouteDecision, error) {
		decision, matched := RouteByRules(in)
		source := "keyword"

		if !matched {
			var recent []*schema.Message
			if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
				msgs := s.History
				// the triggering message is in History once an agent pass has
				// run, but not on the first supervisor visit
				if len(msgs) == 0 || msgs[len(msgs)-1] != in {
					msgs = append(append([]*schema.Message{}, msgs...), in)
				}
				recent = lastN(msgs, classifierContextSize)
				return nil
			}); err != nil {
				return model.RouteDecision{}, fmt.Errorf("read state for classifier: %w", err)
			}

			var err error
			decision, err = classifier.Classify(ctx, recent)
			if err != nil {
				logx.Error().Err(err).Msg("route classifier failed")
				return model.RouteDecision{}, errx.WithKind(err, errx.KindLLM, "route classification failed")
			}
			source = "classifier"
		}

		metrics.RouteDecisions.WithLabelValues(string(decision.Next), source).Inc()
		logx.Debug().
			Str("route", string(decision.Next)).
			Str("intent", decision.Intent).
			Str("source", source).
			Str("reasoning", decision.Reasoning).
			Msg("supervisor decision")

		observers.EmitStage(ctx, model.StageEvent{
			Stage:  NodeSupervisor,
			Route:  string(decision.Next),
			Intent: decision.Intent,
		})
		return decision, nil
	})
}

// NewSupervisorPostHandler records the decision in state and trips the loop
// guard when the supervisor has run too many times within one turn.
func NewSupervisorPostHandler(maxVisits int) func(context.Context, model.RouteDecision, *model.TurnState) (model.RouteDecision, error) {
	return func(ctx context.Context, out model.RouteDecision, state *model.TurnState) (model.RouteDecision, error) {
		state.Route = out.Next
		state.Intent = out.Intent
		state.SupervisorVisits++

		if maxVisits > 0 && state.SupervisorVisits > maxVisits {
			logx.Warn().
				Int("visits", state.SupervisorVisits).
				Str("session_id", state.SessionID).
				Msg("supervisor visit ceiling exceeded")
			return out, errx.WithKind(
				fmt.Errorf("supervisor ran %d times", state.SupervisorVisits),
				errx.KindStepLimit,
				"routing loop exceeded the step ceiling",
			)
		}
		return out, nil
	}
}

// NewSupervisorCondition maps a routing decision onto the branch target node.
func NewSupervisorCondition() func(context.Context, model.RouteDecision) (string, error) {
	return func(ctx context.Context, in model.RouteDecision) (string, error) {
		switch in.Next {
		case model.RouteRetriever:
			return NodeRetrieverAssembler, nil
		case model.RouteChat:
			return NodeChatAssembler, nil
		case model.RouteEnricher:
			return NodeEnricher, nil
		case model.RouteEnd:
			return NodeTerminator, nil
		default:
			return "", fmt.Errorf("unknown route %q", in.Next)
		}
	}
}

// ModelClassifier implements RouteClassifier with a structured-output chat
// model call.
type ModelClassifier struct {
	model einomodel.BaseChatModel
}

func NewModelClassifier(m einomodel.BaseChatModel) *ModelClassifier {
	return &ModelClassifier{model: m}
}

func (c *ModelClassifier) Classify(ctx context.Context, messages []*schema.Message) (model.RouteDecision, error) {
	systemPrompt, err := prompts.RenderClassifierSystem(ctx)
	if err != nil {
		return model.RouteDecision{}, err
	}

	input := make([]*schema.Message, 0, len(messages)+1)
	input = append(input, schema.SystemMessage(systemPrompt))
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		// only conversational turns inform routing
		if msg.Role != schema.User && msg.Role != schema.Assistant {
			continue
		}
		input = append(input, msg)
	}

	out, err := c.model.Generate(ctx, input)
	if err != nil {
		return model.RouteDecision{}, fmt.Errorf("classifier generate: %w", err)
	}

	decision, err := parsers.ParseRouteDecision(out.Content)
	if err != nil {
		return model.RouteDecision{}, err
	}
	return *decision, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lastN(msgs []*schema.Message, n int) []*schema.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
