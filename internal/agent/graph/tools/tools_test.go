package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/tool"

	"github.com/frameiq/agent-server/internal/similarity"
	"github.com/frameiq/agent-server/internal/tmdb"
)

type fakeSearcher struct {
	results []similarity.ScoredItem
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]similarity.ScoredItem, error) {
	return f.results, f.err
}

type fakeMetadata struct {
	searchResult *tmdb.Result
	trending     []tmdb.Result
	err          error
}

func (f *fakeMetadata) Search(_ context.Context, _, _, _ string) (*tmdb.Result, error) {
	return f.searchResult, f.err
}

func (f *fakeMetadata) Trending(_ context.Context, _, _ string) ([]tmdb.Result, error) {
	return f.trending, f.err
}

func runTool(t *testing.T, bt tool.BaseTool, args string) string {
	t.Helper()
	inv, ok := bt.(tool.InvokableTool)
	if !ok {
		t.Fatal("tool is not invokable")
	}
	out, err := inv.InvokableRun(context.Background(), args)
	if err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	return out
}

func TestToolInfos(t *testing.T) {
	deps := Deps{Similarity: &fakeSearcher{}, Metadata: &fakeMetadata{}}

	ts := QueryTools(deps)
	if len(ts) != 3 {
		t.Fatalf("len(QueryTools()) = %d, want 3", len(ts))
	}

	infos, err := ToolInfos(context.Background(), ts)
	if err != nil {
		t.Fatalf("ToolInfos() error = %v", err)
	}
	names := map[string]bool{}
	for _, info := range infos {
		names[info.Name] = true
	}
	for _, want := range []string{ToolSearchSimilar, ToolSearchTitle, ToolSearchTrending} {
		if !names[want] {
			t.Errorf("tool %q missing from infos", want)
		}
	}
}

func TestSearchSimilarTool(t *testing.T) {
	t.Run("ranked results", func(t *testing.T) {
		searcher := &fakeSearcher{results: []similarity.ScoredItem{
			{Item: similarity.Item{Title: "Shutter Island", Year: "2010", MediaType: "movie"}, Similarity: 0.82},
		}}
		out := runTool(t, createSearchSimilarTool(searcher), `{"query":"mind-bending thrillers"}`)

		var parsed SearchSimilarOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("unmarshal output: %v", err)
		}
		if parsed.Total != 1 || parsed.Results[0].Title != "Shutter Island" {
			t.Errorf("output = %+v", parsed)
		}
		if parsed.Results[0].Similarity != "82%" {
			t.Errorf("Similarity = %q, want 82%%", parsed.Results[0].Similarity)
		}
	})

	t.Run("backend failure is in-band", func(t *testing.T) {
		searcher := &fakeSearcher{err: errors.New("index offline")}
		out := runTool(t, createSearchSimilarTool(searcher), `{"query":"movies like Inception"}`)

		var parsed SearchSimilarOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("unmarshal output: %v", err)
		}
		if parsed.Error == "" {
			t.Error("Error field empty, want in-band error message")
		}
	})

	t.Run("missing query is in-band", func(t *testing.T) {
		out := runTool(t, createSearchSimilarTool(&fakeSearcher{}), `{}`)

		var parsed SearchSimilarOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("unmarshal output: %v", err)
		}
		if parsed.Error == "" {
			t.Error("Error field empty, want in-band error message")
		}
	})
}

func TestSearchTitleTool(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		meta := &fakeMetadata{searchResult: &tmdb.Result{
			ID: 27205, Title: "Inception", Year: "2010", MediaType: "movie", Rating: 8.4,
		}}
		out := runTool(t, createSearchTitleTool(meta), `{"title":"Inception","year":"2010"}`)

		var parsed SearchTitleOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("unmarshal output: %v", err)
		}
		if parsed.Title != "Inception" || parsed.TMDBID != 27205 {
			t.Errorf("output = %+v", parsed)
		}
	})

	t.Run("no match gives suggestion", func(t *testing.T) {
		out := runTool(t, createSearchTitleTool(&fakeMetadata{}), `{"title":"Nonexistent Film","year":"1900"}`)

		var parsed SearchTitleOutput
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Fatalf("unmarshal output: %v", err)
		}
		if parsed.Error == "" || parsed.Suggestion == "" {
			t.Errorf("output = %+v, want error with suggestion", parsed)
		}
	})
}

func TestSearchTrendingTool(t *testing.T) {
	bt := createSearchTrendingTool(&fakeMetadata{trending: []tmdb.Result{
		{Title: "Dune: Part Two", Year: "2024", MediaType: "movie", Rating: 8.2},
	}})

	out := runTool(t, bt, `{"media_type":"movie","time_window":"week"}`)

	var parsed SearchTrendingOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if parsed.Total != 1 || parsed.Results[0].Title != "Dune: Part Two" {
		t.Errorf("output = %+v", parsed)
	}
}
