// Package parsers extracts structured data from model output. Models wrap
// JSON in markdown fences or surround it with prose often enough that every
// parse here tolerates both.
package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/frameiq/agent-server/internal/agent/model"
)

type extractedTitle struct {
	Title string `json:"title"`
	Year  string `json:"year,omitempty"`
}

type mediaExtraction struct {
	Movies  []extractedTitle `json:"movies"`
	TVShows []extractedTitle `json:"tv_shows"`
}

// ParseMediaExtraction parses the extraction model's JSON into candidates,
// movies first then TV shows, preserving the model's ordering within each
// kind. Entries with an empty title are dropped.
func ParseMediaExtraction(content string) ([]model.MediaCandidate, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("media extraction: %w", err)
	}

	var out mediaExtraction
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("media extraction: %w", err)
	}

	candidates := make([]model.MediaCandidate, 0, len(out.Movies)+len(out.TVShows))
	for _, m := range out.Movies {
		if strings.TrimSpace(m.Title) == "" {
			continue
		}
		candidates = append(candidates, model.MediaCandidate{
			Title:     strings.TrimSpace(m.Title),
			Year:      strings.TrimSpace(m.Year),
			MediaType: model.MediaTypeMovie,
		})
	}
	for _, s := range out.TVShows {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		candidates = append(candidates, model.MediaCandidate{
			Title:     strings.TrimSpace(s.Title),
			Year:      strings.TrimSpace(s.Year),
			MediaType: model.MediaTypeTV,
		})
	}
	return candidates, nil
}

// extractJSONObject strips markdown fences and surrounding prose, returning
// the outermost JSON object in content.
func extractJSONObject(content string) (string, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return "", fmt.Errorf("empty content")
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found")
	}
	return s[start : end+1], nil
}
