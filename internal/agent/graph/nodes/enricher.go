package nodes

import (
	"context"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/agent/graph/observers"
	"github.com/frameiq/agent-server/internal/agent/graph/parsers"
	"github.com/frameiq/agent-server/internal/agent/graph/prompts"
	"github.com/frameiq/agent-server/internal/agent/model"
	"github.com/frameiq/agent-server/internal/tmdb"
	logx "github.com/frameiq/agent-server/pkg/logger"
	"github.com/frameiq/agent-server/pkg/metrics"
)

// PosterResolver turns a poster path into a display URL.
type PosterResolver interface {
	PosterURL(posterPath string) string
}

// EnricherConfig wires the enrichment stage's dependencies.
type EnricherConfig struct {
	Extraction   einomodel.BaseChatModel
	ModelName    string
	Metadata     tmdb.Source
	Posters      PosterResolver
	RecentWindow time.Duration
}

// NewEnricherNode builds the terminal enrichment stage: extract titles from
// the last assistant reply, look each one up, and emit one display card per
// candidate. Extraction failure degrades to empty card lists; per-candidate
// lookup failure yields a not-found placeholder. The reply text is never
// altered.
func NewEnricherNode(cfg EnricherConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, decision model.RouteDecision) (*schema.Message, error) {
		var reply string
		var state *model.TurnState
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			state = s
			reply = lastAssistantContent(s.History)
			return nil
		}); err != nil {
			return nil, err
		}

		media := &model.EnrichedMedia{
			Movies:  []model.EnrichedMediaItem{},
			TVShows: []model.EnrichedMediaItem{},
		}

		if reply != "" {
			candidates := extractCandidates(ctx, cfg, reply)
			for _, cand := range candidates {
				item := lookupCandidate(ctx, cfg, cand)
				if cand.MediaType == model.MediaTypeTV {
					media.TVShows = append(media.TVShows, item)
				} else {
					media.Movies = append(media.Movies, item)
				}
			}
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			s.Media = media
			return nil
		}); err != nil {
			return nil, err
		}

		out := schema.AssistantMessage(reply, nil)
		out.Extra = map[string]any{
			model.ExtraMediaKey:  media,
			model.ExtraRouteKey:  string(decision.Next),
			model.ExtraIntentKey: decision.Intent,
		}

		logx.Debug().
			Str("session_id", state.SessionID).
			Int("movies", len(media.Movies)).
			Int("tv_shows", len(media.TVShows)).
			Msg("enrichment complete")
		observers.EmitStage(ctx, model.StageEvent{
			Stage:  NodeEnricher,
			Text:   reply,
			Intent: decision.Intent,
			Route:  string(decision.Next),
		})
		return out, nil
	})
}

// extractCandidates runs the extraction model over the reply. Any failure
// returns no candidates so the turn still completes.
func extractCandidates(ctx context.Context, cfg EnricherConfig, reply string) []model.MediaCandidate {
	systemPrompt, err := prompts.RenderExtractionSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("render extraction prompt")
		return nil
	}

	out, err := cfg.Extraction.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(reply),
	})
	if err != nil {
		logx.Error().Err(err).Msg("title extraction failed")
		return nil
	}

	candidates, err := parsers.ParseMediaExtraction(out.Content)
	if err != nil {
		logx.Warn().Err(err).Msg("extraction output unparseable")
		return nil
	}
	return candidates
}

// lookupCandidate resolves one candidate against the metadata source. Every
// candidate yields exactly one card.
func lookupCandidate(ctx context.Context, cfg EnricherConfig, cand model.MediaCandidate) model.EnrichedMediaItem {
	result, err := cfg.Metadata.Search(ctx, cand.Title, string(cand.MediaType), cand.Year)
	if err != nil {
		logx.Warn().Err(err).Str("title", cand.Title).Msg("metadata lookup failed")
	}
	if err != nil || result == nil {
		metrics.EnrichedItemsTotal.WithLabelValues(string(cand.MediaType), "false").Inc()
		year := cand.Year
		if year == "" {
			year = "N/A"
		}
		return model.EnrichedMediaItem{
			Title:         cand.Title,
			Year:          year,
			MediaType:     cand.MediaType,
			PosterURL:     tmdb.PlaceholderPoster,
			DetailLink:    tmdb.PlaceholderLink,
			ReleaseStatus: tmdb.StatusNotFound,
		}
	}

	metrics.EnrichedItemsTotal.WithLabelValues(string(cand.MediaType), "true").Inc()
	return model.EnrichedMediaItem{
		Title:         result.Title,
		Year:          result.Year,
		MediaType:     cand.MediaType,
		PosterURL:     cfg.Posters.PosterURL(result.PosterPath),
		DetailLink:    tmdb.DetailLink(string(cand.MediaType), result.ID),
		ReleaseStatus: tmdb.ReleaseStatus(result.ReleaseDate, time.Now(), cfg.RecentWindow),
	}
}
