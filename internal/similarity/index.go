// Package similarity provides an in-memory nearest-neighbour index over a
// precomputed media catalog. Queries and catalog entries are embedded with a
// deterministic term-frequency vectorizer; external embedding backends can be
// substituted through the Embedder interface.
package similarity

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Item is one catalog entry available for similarity lookup.
type Item struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Year      string  `json:"year"`
	MediaType string  `json:"media_type"`
	Genres    string  `json:"genres"`
	Overview  string  `json:"overview"`
	Rating    float64 `json:"rating"`
}

// ScoredItem is a catalog entry ranked against a query. Similarity is in [0,1].
type ScoredItem struct {
	Item
	Similarity float64 `json:"similarity"`
}

// Searcher is the lookup capability consumed by the retriever tools.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]ScoredItem, error)
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(text string) []float64
}

// Index is a brute-force cosine index over embedded catalog entries.
type Index struct {
	items   []Item
	vectors [][]float64
	emb     Embedder
}

// NewIndex builds the index, deriving the vocabulary from the catalog itself.
func NewIndex(items []Item) *Index {
	emb := newTermEmbedder(items)
	vectors := make([][]float64, len(items))
	for i, it := range items {
		vectors[i] = emb.Embed(itemText(it))
	}
	return &Index{items: items, vectors: vectors, emb: emb}
}

const (
	defaultTopK = 5
	maxTopK     = 20
)

// Search returns up to topK entries ranked by cosine similarity to the query.
// A query sharing no vocabulary with the catalog yields an empty result, not
// an error.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]ScoredItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	qv := ix.emb.Embed(query)
	if norm(qv) == 0 {
		return nil, nil
	}

	scored := make([]ScoredItem, 0, len(ix.items))
	for i, it := range ix.items {
		sim := cosine(qv, ix.vectors[i])
		if sim <= 0 {
			continue
		}
		scored = append(scored, ScoredItem{Item: it, Similarity: sim})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

var _ Searcher = (*Index)(nil)

func itemText(it Item) string {
	return it.Title + " " + it.Genres + " " + it.Overview
}

// termEmbedder maps text onto TF-IDF weighted vectors over the catalog
// vocabulary. Term weights are non-negative, so cosine stays within [0,1].
type termEmbedder struct {
	vocab map[string]int
	idf   []float64
}

func newTermEmbedder(items []Item) *termEmbedder {
	vocab := map[string]int{}
	df := []int{}
	for _, it := range items {
		seen := map[string]bool{}
		for _, tok := range tokenize(itemText(it)) {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
				df = append(df, 0)
			}
			if !seen[tok] {
				df[idx]++
				seen[tok] = true
			}
		}
	}

	n := float64(len(items))
	idf := make([]float64, len(df))
	for i, d := range df {
		idf[i] = math.Log(1 + n/float64(d))
	}
	return &termEmbedder{vocab: vocab, idf: idf}
}

func (e *termEmbedder) Embed(text string) []float64 {
	v := make([]float64, len(e.vocab))
	for _, tok := range tokenize(text) {
		if idx, ok := e.vocab[tok]; ok {
			v[idx] += e.idf[idx]
		}
	}
	return v
}

// stopwords excluded from vectors; query phrasing words would otherwise
// dominate similarity.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "in": true,
	"to": true, "is": true, "it": true, "on": true, "for": true, "with": true,
	"like": true, "movie": true, "movies": true, "show": true, "shows": true,
	"film": true, "films": true, "series": true, "watch": true, "me": true,
	"i": true, "my": true, "that": true, "this": true, "about": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func cosine(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
