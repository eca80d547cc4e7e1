package model

// MediaType distinguishes films from series throughout the pipeline.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// EnrichedMediaItem is one display card derived from the assistant's free
// text. Derived, never persisted; recomputed every turn.
type EnrichedMediaItem struct {
	Title         string    `json:"title"`
	Year          string    `json:"year"`
	MediaType     MediaType `json:"media_type"`
	PosterURL     string    `json:"poster_url"`
	DetailLink    string    `json:"tmdb_link"`
	ReleaseStatus string    `json:"release_status"`
}

// EnrichedMedia partitions enrichment output by kind, preserving the order in
// which titles were extracted.
type EnrichedMedia struct {
	Movies  []EnrichedMediaItem `json:"movies"`
	TVShows []EnrichedMediaItem `json:"tv_shows"`
}

// MediaCandidate is one (title, year, kind) tuple extracted from assistant
// text before metadata lookup.
type MediaCandidate struct {
	Title     string    `json:"title"`
	Year      string    `json:"year,omitempty"`
	MediaType MediaType `json:"media_type"`
}
