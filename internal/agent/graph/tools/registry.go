// Package tools defines the retriever agent's tool surface. Every tool
// reports failures in-band through an error field in its output instead of a
// Go error, so a broken lookup degrades the reply rather than aborting the
// turn.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/internal/tmdb"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

const (
	ToolSearchSimilar  = "search_similar"
	ToolSearchTitle    = "search_title"
	ToolSearchTrending = "search_trending"
)

// Deps carries the lookup backends the tools close over.
type Deps struct {
	Similarity similarity.Searcher
	Metadata   tmdb.Source
}

// QueryTools returns all tools bound to the retriever model.
func QueryTools(deps Deps) []tool.BaseTool {
	return []tool.BaseTool{
		createSearchSimilarTool(deps.Similarity),
		createSearchTitleTool(deps.Metadata),
		createSearchTrendingTool(deps.Metadata),
	}
}

// ToolInfos collects the ToolInfo of every tool for model binding.
func ToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			logx.Error().Err(err).Msg("failed to get tool info")
			return nil, fmt.Errorf("get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
