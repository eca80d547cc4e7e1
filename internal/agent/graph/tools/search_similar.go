package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/pkg/metrics"
)

type SearchSimilarInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type SimilarResult struct {
	Title      string `json:"title"`
	Year       string `json:"year"`
	MediaType  string `json:"media_type"`
	Genres     string `json:"genres"`
	Overview   string `json:"overview"`
	Similarity string `json:"similarity"`
}

type SearchSimilarOutput struct {
	Results []SimilarResult `json:"results"`
	Total   int             `json:"total"`
	Error   string          `json:"error,omitempty"`
}

func createSearchSimilarTool(searcher similarity.Searcher) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchSimilar,
			Desc: "Search the similarity index for semantically similar movies/TV shows. Use when the user asks for recommendations based on vibes, themes, or plot similarity, wants titles 'like' another title, or describes a mood or genre without naming anything specific.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Natural language search query, e.g. 'dark psychological thrillers' or 'movies like Inception'.",
					Required: true,
				},
				"top_k": {
					Type: "number",
					Desc: "Number of results to return (default: 5, max: 20)",
				},
			}),
		},
		func(ctx context.Context, in *SearchSimilarInput) (*SearchSimilarOutput, error) {
			if in.Query == "" {
				metrics.RecordToolCall(ToolSearchSimilar, "error")
				return &SearchSimilarOutput{Error: "query is required"}, nil
			}

			scored, err := searcher.Search(ctx, in.Query, in.TopK)
			if err != nil {
				metrics.RecordToolCall(ToolSearchSimilar, "error")
				return &SearchSimilarOutput{Error: fmt.Sprintf("similarity search failed: %v", err)}, nil
			}

			results := make([]SimilarResult, 0, len(scored))
			for _, s := range scored {
				results = append(results, SimilarResult{
					Title:      s.Title,
					Year:       s.Year,
					MediaType:  s.MediaType,
					Genres:     s.Genres,
					Overview:   s.Overview,
					Similarity: fmt.Sprintf("%.0f%%", s.Similarity*100),
				})
			}
			metrics.RecordToolCall(ToolSearchSimilar, "ok")
			return &SearchSimilarOutput{Results: results, Total: len(results)}, nil
		},
	)
}
