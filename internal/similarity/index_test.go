package similarity

import (
	"context"
	"testing"
)

func testItems() []Item {
	return []Item{
		{ID: "1", Title: "Dream Heist", MediaType: "movie", Genres: "science fiction, thriller", Overview: "thieves infiltrate layered dreams to plant an idea"},
		{ID: "2", Title: "Space Farm", MediaType: "movie", Genres: "science fiction, drama", Overview: "explorers travel through a wormhole to save humanity"},
		{ID: "3", Title: "Bakery Tales", MediaType: "tv", Genres: "comedy", Overview: "a small town bakery and its quirky regulars"},
	}
}

func TestIndexSearch(t *testing.T) {
	ix := NewIndex(testItems())
	ctx := context.Background()

	t.Run("ranks overlapping vocabulary first", func(t *testing.T) {
		got, err := ix.Search(ctx, "layered dreams heist thriller", 3)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) == 0 {
			t.Fatal("expected results")
		}
		if got[0].ID != "1" {
			t.Errorf("top result = %s, want 1", got[0].ID)
		}
	})

	t.Run("scores stay within unit interval", func(t *testing.T) {
		got, err := ix.Search(ctx, "science fiction wormhole", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		for _, r := range got {
			if r.Similarity < 0 || r.Similarity > 1 {
				t.Errorf("similarity %f out of [0,1] for %s", r.Similarity, r.ID)
			}
		}
	})

	t.Run("descending order", func(t *testing.T) {
		got, err := ix.Search(ctx, "science fiction dreams", 10)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Similarity > got[i-1].Similarity {
				t.Errorf("results not sorted at %d", i)
			}
		}
	})

	t.Run("unknown vocabulary yields empty result", func(t *testing.T) {
		got, err := ix.Search(ctx, "zzzzzz qqqqqq", 5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no results, got %d", len(got))
		}
	})

	t.Run("topK bounds results", func(t *testing.T) {
		got, err := ix.Search(ctx, "science fiction", 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) > 1 {
			t.Errorf("topK=1 returned %d results", len(got))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := ix.Search(cctx, "dreams", 5); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestCatalogIndexBuilds(t *testing.T) {
	ix := NewIndex(Catalog)
	got, err := ix.Search(context.Background(), "mind-bending dream thriller", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected catalog results for a thriller query")
	}
}
