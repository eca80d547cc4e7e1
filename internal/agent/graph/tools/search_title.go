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

type SearchTitleInput struct {
	Title     string `json:"title"`
	MediaType string `json:"media_type,omitempty"`
	Year      string `json:"year,omitempty"`
}

type SearchTitleOutput struct {
	Title      string  `json:"title,omitempty"`
	Year       string  `json:"year,omitempty"`
	Overview   string  `json:"overview,omitempty"`
	MediaType  string  `json:"media_type,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	TMDBID     int     `json:"tmdb_id,omitempty"`
	Error      string  `json:"error,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
}

func createSearchTitleTool(source tmdb.Source) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchTitle,
			Desc: "Search the movie database for a specific movie or TV show by title. Use when the user asks about a specific title by name, wants recent releases that might not be in the similarity index, or asks for factual metadata.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"title": {
					Type:     "string",
					Desc:     "Movie or TV show title to search for",
					Required: true,
				},
				"media_type": {
					Type: "string",
					Desc: "Either 'movie' or 'tv' (default: movie)",
				},
				"year": {
					Type: "string",
					Desc: "Optional release year, e.g. '2024'",
				},
			}),
		},
		func(ctx context.Context, in *SearchTitleInput) (*SearchTitleOutput, error) {
			if in.Title == "" {
				metrics.RecordToolCall(ToolSearchTitle, "error")
				return &SearchTitleOutput{Error: "title is required"}, nil
			}

			result, err := source.Search(ctx, in.Title, in.MediaType, in.Year)
			if err != nil {
				metrics.RecordToolCall(ToolSearchTitle, "error")
				return &SearchTitleOutput{Error: fmt.Sprintf("movie database search failed: %v", err)}, nil
			}
			if result == nil {
				metrics.RecordToolCall(ToolSearchTitle, "not_found")
				msg := fmt.Sprintf("No results found for '%s'", in.Title)
				if in.Year != "" {
					msg += fmt.Sprintf(" (%s)", in.Year)
				}
				return &SearchTitleOutput{
					Error:      msg,
					Suggestion: "Try a different spelling or check if it's a TV show vs movie",
				}, nil
			}

			metrics.RecordToolCall(ToolSearchTitle, "ok")
			return &SearchTitleOutput{
				Title:     result.Title,
				Year:      result.Year,
				Overview:  result.Overview,
				MediaType: result.MediaType,
				Rating:    result.Rating,
				TMDBID:    result.ID,
			}, nil
		},
	)
}
