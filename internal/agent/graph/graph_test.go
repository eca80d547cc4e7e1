package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/conversations"
	"github.com/frameiq/agent-server/internal/agent/graph/nodes"
	"github.com/frameiq/agent-server/internal/agent/graph/tools"
	"github.com/frameiq/agent-server/internal/agent/model"
	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/internal/tmdb"
)

type memRepo struct {
	messages map[string][]*schema.Message
}

func newMemRepo() *memRepo { return &memRepo{messages: map[string][]*schema.Message{}} }

func (r *memRepo) AddMessage(_ context.Context, sessionID string, m *schema.Message) error {
	r.messages[sessionID] = append(r.messages[sessionID], m)
	return nil
}

func (r *memRepo) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	return &model.ConversationHistory{SessionID: sessionID, Messages: r.messages[sessionID]}, nil
}

func (r *memRepo) ClearHistory(_ context.Context, sessionID string) error {
	delete(r.messages, sessionID)
	return nil
}

func (r *memRepo) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	return len(r.messages[sessionID]), nil
}

// scriptedModel replays a fixed sequence of replies, repeating the last one.
type scriptedModel struct {
	replies []*schema.Message
	calls   int
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return m.replies[i], nil
}

func (m *scriptedModel) Stream(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

type fakeClassifier struct {
	decision model.RouteDecision
	err      error
	calls    int
}

func (f *fakeClassifier) Classify(_ context.Context, _ []*schema.Message) (model.RouteDecision, error) {
	f.calls++
	if f.err != nil {
		return model.RouteDecision{}, f.err
	}
	return f.decision, nil
}

type fakeSearcher struct{}

func (fakeSearcher) Search(_ context.Context, query string, topK int) ([]similarity.ScoredItem, error) {
	return []similarity.ScoredItem{
		{
			Item: similarity.Item{
				ID: "m1", Title: "Interstellar", Year: "2014",
				MediaType: "movie", Genres: "Sci-Fi", Overview: "Space and time.",
			},
			Similarity: 0.82,
		},
	}, nil
}

type fakeMetadata struct{}

func (fakeMetadata) Search(_ context.Context, title, mediaType, year string) (*tmdb.Result, error) {
	return &tmdb.Result{
		ID:          157336,
		Title:       title,
		Year:        "2014",
		MediaType:   mediaType,
		PosterPath:  "/poster.jpg",
		ReleaseDate: "2014-11-07",
	}, nil
}

func (fakeMetadata) Trending(_ context.Context, mediaType, window string) ([]tmdb.Result, error) {
	return nil, errors.New("not used")
}

type fakePosters struct{}

func (fakePosters) PosterURL(path string) string { return "https://img.example.com" + path }

func testConversationConfig() model.ConversationConfig {
	cfg := model.ConversationConfig{
		MaxGraphSteps:       50,
		MaxSupervisorVisits: 6,
	}
	cfg.History.MaxTurns = 10
	cfg.Tools.MaxCalls = 5
	return cfg
}

func buildTestGraph(t *testing.T, repo *memRepo, cms *nodes.ChatModels, classifier nodes.RouteClassifier, convCfg model.ConversationConfig) Runner {
	t.Helper()
	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		ChatModels:      cms,
		Classifier:      classifier,
		MessagesManager: conversations.NewMessagesManager(repo, convCfg),
		ToolDeps: tools.Deps{
			Similarity: fakeSearcher{},
			Metadata:   fakeMetadata{},
		},
		Posters:      fakePosters{},
		RecentWindow: 90 * 24 * time.Hour,
		Conversation: convCfg,
	})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	return NewRunner(runnable)
}

func TestRecommendationTurnProducesMedia(t *testing.T) {
	toolCall := schema.AssistantMessage("", []schema.ToolCall{{
		ID: "call_1",
		Function: schema.FunctionCall{
			Name:      tools.ToolSearchSimilar,
			Arguments: `{"query":"movies like Inception","top_k":5}`,
		},
	}})
	finalReply := schema.AssistantMessage("You might enjoy Interstellar (2014).", nil)

	retriever := &scriptedModel{replies: []*schema.Message{toolCall, finalReply}}
	extraction := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage(`{"movies":[{"title":"Interstellar","year":"2014"}],"tv_shows":[]}`, nil),
	}}
	chat := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	classifier := &fakeClassifier{err: errors.New("classifier must not run for keyword-routable turns")}

	repo := newMemRepo()
	runner := buildTestGraph(t, repo, &nodes.ChatModels{
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		RetrieverModelName:  "fake-retriever",
		ChatModelName:       "fake-chat",
		ExtractionModelName: "fake-extraction",
	}, classifier, testConversationConfig())

	result, err := runner.Invoke(context.Background(), model.TurnInput{
		SessionID: "s1",
		Query:     "Suggest me movies like Inception",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if result.Reply != "You might enjoy Interstellar (2014)." {
		t.Errorf("reply = %q", result.Reply)
	}
	if len(result.Movies) != 1 {
		t.Fatalf("movies = %d, want 1", len(result.Movies))
	}
	movie := result.Movies[0]
	if movie.Title != "Interstellar" || movie.Year != "2014" {
		t.Errorf("movie = %+v", movie)
	}
	if movie.PosterURL != "https://img.example.com/poster.jpg" {
		t.Errorf("poster = %q", movie.PosterURL)
	}
	if !strings.HasSuffix(movie.DetailLink, "/movie/157336") {
		t.Errorf("link = %q", movie.DetailLink)
	}
	if len(result.TVShows) != 0 {
		t.Errorf("tv shows = %d, want 0", len(result.TVShows))
	}
	if result.Metadata.Route != string(model.RouteEnricher) {
		t.Errorf("route = %q", result.Metadata.Route)
	}
	if result.Metadata.Intent != model.IntentEnrich {
		t.Errorf("intent = %q", result.Metadata.Intent)
	}

	// The retriever ran twice: once deciding to call the tool, once composing
	// the reply from its output.
	if retriever.calls != 2 {
		t.Errorf("retriever calls = %d, want 2", retriever.calls)
	}
	if classifier.calls != 0 {
		t.Errorf("classifier calls = %d, want 0", classifier.calls)
	}

	// Both conversational messages were persisted.
	count, _ := repo.GetMessageCount(context.Background(), "s1")
	if count != 2 {
		t.Errorf("persisted messages = %d, want 2", count)
	}
}

func TestFullToolBudgetTurnCompletesAtDefaults(t *testing.T) {
	// With the out-of-the-box limits (15 graph steps, 5 tool calls) a turn
	// that spends its entire tool budget before answering must still reach
	// enrichment instead of tripping the step ceiling.
	cfg := model.ConversationConfig{
		MaxGraphSteps:       15,
		MaxSupervisorVisits: 6,
	}
	cfg.History.MaxTurns = 10
	cfg.Tools.MaxCalls = 5

	var replies []*schema.Message
	for i := 0; i < cfg.Tools.MaxCalls; i++ {
		replies = append(replies, schema.AssistantMessage("", []schema.ToolCall{{
			ID: "call_" + string(rune('a'+i)),
			Function: schema.FunctionCall{
				Name:      tools.ToolSearchSimilar,
				Arguments: `{"query":"movies like Inception","top_k":5}`,
			},
		}}))
	}
	finalReply := schema.AssistantMessage("You might enjoy Interstellar (2014).", nil)
	replies = append(replies, finalReply)

	retriever := &scriptedModel{replies: replies}
	extraction := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage(`{"movies":[{"title":"Interstellar","year":"2014"}],"tv_shows":[]}`, nil),
	}}
	chat := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	classifier := &fakeClassifier{err: errors.New("classifier must not run for keyword-routable turns")}

	runner := buildTestGraph(t, newMemRepo(), &nodes.ChatModels{
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		RetrieverModelName:  "fake-retriever",
		ChatModelName:       "fake-chat",
		ExtractionModelName: "fake-extraction",
	}, classifier, cfg)

	result, err := runner.Invoke(context.Background(), model.TurnInput{
		SessionID: "s5",
		Query:     "Suggest me movies like Inception",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if result.Reply != "You might enjoy Interstellar (2014)." {
		t.Errorf("reply = %q", result.Reply)
	}
	if len(result.Movies) != 1 {
		t.Errorf("movies = %d, want 1", len(result.Movies))
	}
	if result.Metadata.Route != string(model.RouteEnricher) {
		t.Errorf("route = %q", result.Metadata.Route)
	}

	// One model round per tool call plus the final composing round.
	if retriever.calls != cfg.Tools.MaxCalls+1 {
		t.Errorf("retriever calls = %d, want %d", retriever.calls, cfg.Tools.MaxCalls+1)
	}
}

func TestInformationalTurnEndsWithoutMedia(t *testing.T) {
	chat := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage("Film noir is a style of cinema marked by shadows and moral ambiguity.", nil),
	}}
	retriever := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	extraction := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage(`{"movies":[],"tv_shows":[]}`, nil)}}
	classifier := &fakeClassifier{err: errors.New("classifier must not run")}

	runner := buildTestGraph(t, newMemRepo(), &nodes.ChatModels{
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		RetrieverModelName:  "fake-retriever",
		ChatModelName:       "fake-chat",
		ExtractionModelName: "fake-extraction",
	}, classifier, testConversationConfig())

	result, err := runner.Invoke(context.Background(), model.TurnInput{
		SessionID: "s2",
		Query:     "What is film noir?",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if !strings.Contains(result.Reply, "Film noir") {
		t.Errorf("reply = %q", result.Reply)
	}
	if len(result.Movies) != 0 || len(result.TVShows) != 0 {
		t.Errorf("media should be empty, got %d movies, %d tv shows", len(result.Movies), len(result.TVShows))
	}
	if result.Metadata.Route != string(model.RouteEnd) {
		t.Errorf("route = %q", result.Metadata.Route)
	}
	if extraction.calls != 0 {
		t.Errorf("extraction calls = %d, want 0", extraction.calls)
	}
}

func TestRoutingLoopTripsStepCeiling(t *testing.T) {
	// Neither the query nor the reply matches any keyword rule and the
	// classifier keeps choosing chat, so the pipeline loops until the
	// supervisor visit ceiling trips.
	chat := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("okay.", nil)}}
	retriever := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	extraction := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("{}", nil)}}
	classifier := &fakeClassifier{decision: model.RouteDecision{Next: model.RouteChat, Intent: model.IntentChat}}

	cfg := testConversationConfig()
	cfg.MaxSupervisorVisits = 3

	runner := buildTestGraph(t, newMemRepo(), &nodes.ChatModels{
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		RetrieverModelName:  "fake-retriever",
		ChatModelName:       "fake-chat",
		ExtractionModelName: "fake-extraction",
	}, classifier, cfg)

	_, err := runner.Invoke(context.Background(), model.TurnInput{
		SessionID: "s3",
		Query:     "mmmm",
	})
	if err == nil {
		t.Fatal("expected step ceiling error")
	}
	if !strings.Contains(err.Error(), "step ceiling") {
		t.Errorf("err = %v, want the routing loop guard", err)
	}
}

func TestClassifierFailureDegradesTurn(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("provider unavailable")}
	chat := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	retriever := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("unused", nil)}}
	extraction := &scriptedModel{replies: []*schema.Message{schema.AssistantMessage("{}", nil)}}

	runner := buildTestGraph(t, newMemRepo(), &nodes.ChatModels{
		Retriever:           retriever,
		Chat:                chat,
		Extraction:          extraction,
		RetrieverModelName:  "fake-retriever",
		ChatModelName:       "fake-chat",
		ExtractionModelName: "fake-extraction",
	}, classifier, testConversationConfig())

	_, err := runner.Invoke(context.Background(), model.TurnInput{
		SessionID: "s4",
		Query:     "mmmm",
	})
	if err == nil {
		t.Fatal("expected classifier failure to propagate")
	}
	if !strings.Contains(err.Error(), "route classification failed") {
		t.Errorf("err = %v", err)
	}
}
