package model

import (
	"github.com/cloudwego/eino/schema"
)

// Route identifies the supervisor's next pipeline stage.
type Route string

const (
	RouteRetriever Route = "retriever"
	RouteChat      Route = "chat"
	RouteEnricher  Route = "enricher"
	RouteEnd       Route = "end"
)

// Intent labels carried alongside routing decisions.
const (
	IntentSearch = "search"
	IntentChat   = "chat"
	IntentEnrich = "enrich"
	IntentEnd    = "end"
)

// RouteDecision is the supervisor's output: which stage runs next and why.
type RouteDecision struct {
	Next      Route  `json:"next_step"`
	Intent    string `json:"intent"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ToolInvocationRecord captures one tool call for observability. It is never
// consumed downstream of the turn that produced it.
type ToolInvocationRecord struct {
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	Error     string `json:"error,omitempty"`
}

// TurnState stores per-turn state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Do not access TurnState directly from outside handlers. For persistence,
//     use repositories/services (e.g., MessagesManager).
type TurnState struct {
	SessionID string
	History   []*schema.Message // working message set, mutated only inside Eino state handlers

	Route            Route  // last supervisor decision
	Intent           string // intent label for the last decision
	SupervisorVisits int    // trips the loop guard when it exceeds the cap

	ToolInvocations      []ToolInvocationRecord
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesizes tool_call_id when the provider omits it

	Media *EnrichedMedia // set by the enricher, terminal stage only

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput represents the input for processing one user message.
type TurnInput struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// TurnMetadata describes how a turn was handled.
type TurnMetadata struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count,omitempty"`
	Route        string `json:"route,omitempty"`
	Intent       string `json:"intent,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
}

// TurnResult is the boundary contract returned to the caller.
type TurnResult struct {
	Reply    string              `json:"reply"`
	Movies   []EnrichedMediaItem `json:"movies,omitempty"`
	TVShows  []EnrichedMediaItem `json:"tv_shows,omitempty"`
	Error    string              `json:"error,omitempty"`
	Metadata TurnMetadata        `json:"metadata"`
}

// StageEvent is one incremental update of the streaming turn variant.
// Events are emitted in the exact order stages execute.
type StageEvent struct {
	Stage  string `json:"stage"`
	Text   string `json:"text,omitempty"`
	Intent string `json:"intent,omitempty"`
	Route  string `json:"route,omitempty"`
	Done   bool   `json:"done,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Message Extra keys used to hand enrichment output and routing metadata from
// the terminal graph node to the runner.
const (
	ExtraMediaKey  = "media"
	ExtraRouteKey  = "route"
	ExtraIntentKey = "intent"
)
