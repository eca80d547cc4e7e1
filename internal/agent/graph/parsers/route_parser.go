package parsers

import (
	"encoding/json"
	"fmt"

	"github.com/frameiq/agent-server/internal/agent/model"
)

type routeOutput struct {
	NextStep  string `json:"next_step"`
	Reasoning string `json:"reasoning"`
}

// ParseRouteDecision parses the classifier's structured output. Only the
// routes the classifier is allowed to return are accepted; anything else is
// an error so the caller propagates instead of guessing.
func ParseRouteDecision(content string) (*model.RouteDecision, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("route decision: %w", err)
	}

	var out routeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("route decision: %w", err)
	}

	var route model.Route
	var intent string
	switch out.NextStep {
	case string(model.RouteRetriever):
		route, intent = model.RouteRetriever, model.IntentSearch
	case string(model.RouteChat):
		route, intent = model.RouteChat, model.IntentChat
	case string(model.RouteEnd):
		route, intent = model.RouteEnd, model.IntentEnd
	default:
		return nil, fmt.Errorf("route decision: unknown next_step %q", out.NextStep)
	}

	return &model.RouteDecision{
		Next:      route,
		Intent:    intent,
		Reasoning: out.Reasoning,
	}, nil
}
