// Package tmdb is a minimal client for The Movie Database API, covering the
// lookups the agent pipeline needs: best-match title search and trending
// lists.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	errx "github.com/frameiq/agent-server/internal/core/error"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

// PlaceholderPoster is the sentinel used when a result carries no image, and
// for titles that could not be matched at all.
const PlaceholderPoster = "https://via.placeholder.com/500x750?text=No+Image"

// PlaceholderLink marks a card with no detail page.
const PlaceholderLink = "#"

type Config struct {
	APIKey       string `envconfig:"TMDB_API_KEY" required:"true"`
	BaseURL      string `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	ImageBaseURL string `envconfig:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
	TimeoutSecs  int    `envconfig:"TMDB_TIMEOUT_SECONDS" default:"5"`
	RecentDays   int    `envconfig:"TMDB_RECENT_DAYS" default:"90"`
	MaxRetries   int    `envconfig:"TMDB_MAX_RETRIES" default:"3"`
}

// Result is one matched title.
type Result struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Year        string  `json:"year"`
	Overview    string  `json:"overview"`
	MediaType   string  `json:"media_type"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Rating      float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// Source is the metadata capability consumed by tools and the enricher.
type Source interface {
	// Search returns the single best match for (title, mediaType, optional
	// year), or nil when nothing matches. With a year given and zero results,
	// the lookup is retried once without the year constraint.
	Search(ctx context.Context, title, mediaType, year string) (*Result, error)

	// Trending returns the current top-10 list for mediaType over window.
	Trending(ctx context.Context, mediaType, window string) ([]Result, error)
}

type Client struct {
	cfg   Config
	httpc *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: timeout},
	}
}

// wire format of TMDB search/trending responses
type apiItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
}

type apiResponse struct {
	Results []apiItem `json:"results"`
}

func (c *Client) Search(ctx context.Context, title, mediaType, year string) (*Result, error) {
	if mediaType != "movie" && mediaType != "tv" {
		mediaType = "movie"
	}

	params := url.Values{}
	params.Set("query", title)
	params.Set("page", "1")
	params.Set("include_adult", "true")
	if year != "" {
		if mediaType == "movie" {
			params.Set("year", year)
		} else {
			params.Set("first_air_date_year", year)
		}
	}

	resp, err := c.get(ctx, "/search/"+mediaType, params)
	if err != nil {
		return nil, err
	}

	// retry once without the year constraint
	if len(resp.Results) == 0 && year != "" {
		params.Del("year")
		params.Del("first_air_date_year")
		resp, err = c.get(ctx, "/search/"+mediaType, params)
		if err != nil {
			return nil, err
		}
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	r := toResult(resp.Results[0], mediaType)
	return &r, nil
}

func (c *Client) Trending(ctx context.Context, mediaType, window string) ([]Result, error) {
	switch mediaType {
	case "movie", "tv", "all":
	default:
		mediaType = "all"
	}
	switch window {
	case "day", "week":
	default:
		window = "week"
	}

	resp, err := c.get(ctx, fmt.Sprintf("/trending/%s/%s", mediaType, window), url.Values{})
	if err != nil {
		return nil, err
	}

	items := resp.Results
	if len(items) > 10 {
		items = items[:10]
	}
	out := make([]Result, 0, len(items))
	for _, it := range items {
		kind := it.MediaType
		if kind == "" {
			kind = mediaType
		}
		out = append(out, toResult(it, kind))
	}
	return out, nil
}

// PosterURL builds the display URL for a poster path, falling back to the
// placeholder sentinel.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return PlaceholderPoster
	}
	return c.cfg.ImageBaseURL + posterPath
}

// DetailLink builds the in-app detail page link for a matched title.
func DetailLink(mediaType string, id int) string {
	return fmt.Sprintf("/%s/%d", mediaType, id)
}

// RecentWindow is the age below which a released title is annotated RECENT.
func (c *Client) RecentWindow() time.Duration {
	days := c.cfg.RecentDays
	if days <= 0 {
		days = 90
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*apiResponse, error) {
	params.Set("api_key", c.cfg.APIKey)
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	var out apiResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("tmdb rate limited: %s", resp.Status)
		case resp.StatusCode >= 500:
			return fmt.Errorf("tmdb server error: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("tmdb request failed: %s", resp.Status))
		}

		out = apiResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode tmdb response: %w", err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	maxRetries := uint64(c.cfg.MaxRetries)
	if maxRetries == 0 {
		maxRetries = 3
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)); err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("tmdb request failed after retries")
		return nil, errx.WithKind(err, errx.KindToolExecution, "metadata lookup failed")
	}
	return &out, nil
}

func toResult(it apiItem, mediaType string) Result {
	title := it.Title
	date := it.ReleaseDate
	if mediaType == "tv" {
		title = it.Name
		date = it.FirstAirDate
	}
	if title == "" {
		if it.Title != "" {
			title = it.Title
		} else {
			title = it.Name
		}
	}
	if date == "" {
		if it.ReleaseDate != "" {
			date = it.ReleaseDate
		} else {
			date = it.FirstAirDate
		}
	}

	year := "Unknown"
	if len(date) >= 4 {
		year = date[:4]
	}
	return Result{
		ID:          it.ID,
		Title:       title,
		Year:        year,
		Overview:    it.Overview,
		MediaType:   mediaType,
		PosterPath:  it.PosterPath,
		ReleaseDate: date,
		Rating:      it.VoteAverage,
		Popularity:  it.Popularity,
	}
}

var _ Source = (*Client)(nil)
