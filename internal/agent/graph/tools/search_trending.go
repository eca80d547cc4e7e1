package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/tmdb"
	"github.com/frameiq/agent-server/pkg/metrics"
)

type SearchTrendingInput struct {
	MediaType  string `json:"media_type,omitempty"`
	TimeWindow string `json:"time_window,omitempty"`
}

type TrendingResult struct {
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Overview   string  `json:"overview"`
	Rating     float64 `json:"rating"`
	MediaType  string  `json:"media_type"`
	Popularity float64 `json:"popularity"`
}

type SearchTrendingOutput struct {
	Results []TrendingResult `json:"results"`
	Total   int              `json:"total"`
	Error   string           `json:"error,omitempty"`
}

func createSearchTrendingTool(source tmdb.Source) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchTrending,
			Desc: "Get the current top trending movies/TV shows. Use when the user asks what's trending, what's popular now, or wants current recommendations without specific criteria.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"media_type": {
					Type: "string",
					Desc: "'movie', 'tv', or 'all' (default: all)",
				},
				"time_window": {
					Type: "string",
					Desc: "'day' or 'week' (default: week)",
				},
			}),
		},
		func(ctx context.Context, in *SearchTrendingInput) (*SearchTrendingOutput, error) {
			items, err := source.Trending(ctx, in.MediaType, in.TimeWindow)
			if err != nil {
				metrics.RecordToolCall(ToolSearchTrending, "error")
				return &SearchTrendingOutput{Error: fmt.Sprintf("trending search failed: %v", err)}, nil
			}

			results := make([]TrendingResult, 0, len(items))
			for _, it := range items {
				results = append(results, TrendingResult{
					Title:      it.Title,
					Year:       it.Year,
					Overview:   it.Overview,
					Rating:     it.Rating,
					MediaType:  it.MediaType,
					Popularity: it.Popularity,
				})
			}
			metrics.RecordToolCall(ToolSearchTrending, "ok")
			return &SearchTrendingOutput{Results: results, Total: len(results)}, nil
		},
	)
}
