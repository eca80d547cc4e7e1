package parsers

import (
	"testing"

	"github.com/frameiq/agent-server/internal/agent/model"
)

func TestParseMediaExtraction(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		got, err := ParseMediaExtraction(`{"movies":[{"title":"Inception","year":"2010"}],"tv_shows":[{"title":"Dark","year":"2017"}]}`)
		if err != nil {
			t.Fatalf("ParseMediaExtraction() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Title != "Inception" || got[0].MediaType != model.MediaTypeMovie {
			t.Errorf("candidate[0] = %+v", got[0])
		}
		if got[1].Title != "Dark" || got[1].MediaType != model.MediaTypeTV {
			t.Errorf("candidate[1] = %+v", got[1])
		}
	})

	t.Run("fenced json with prose", func(t *testing.T) {
		content := "Here are the titles:\n```json\n{\"movies\":[{\"title\":\"Tenet\"}],\"tv_shows\":[]}\n```\nDone."
		got, err := ParseMediaExtraction(content)
		if err != nil {
			t.Fatalf("ParseMediaExtraction() error = %v", err)
		}
		if len(got) != 1 || got[0].Title != "Tenet" {
			t.Errorf("candidates = %+v", got)
		}
	})

	t.Run("movies precede tv shows", func(t *testing.T) {
		got, err := ParseMediaExtraction(`{"tv_shows":[{"title":"Severance"}],"movies":[{"title":"Memento"}]}`)
		if err != nil {
			t.Fatalf("ParseMediaExtraction() error = %v", err)
		}
		if len(got) != 2 || got[0].MediaType != model.MediaTypeMovie || got[1].MediaType != model.MediaTypeTV {
			t.Errorf("candidates = %+v", got)
		}
	})

	t.Run("blank titles dropped", func(t *testing.T) {
		got, err := ParseMediaExtraction(`{"movies":[{"title":"  "},{"title":"Heat"}],"tv_shows":[]}`)
		if err != nil {
			t.Fatalf("ParseMediaExtraction() error = %v", err)
		}
		if len(got) != 1 || got[0].Title != "Heat" {
			t.Errorf("candidates = %+v", got)
		}
	})

	t.Run("empty lists", func(t *testing.T) {
		got, err := ParseMediaExtraction(`{"movies":[],"tv_shows":[]}`)
		if err != nil {
			t.Fatalf("ParseMediaExtraction() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("candidates = %+v, want none", got)
		}
	})

	t.Run("malformed input errors", func(t *testing.T) {
		for _, content := range []string{"", "no json here", "{\"movies\": broken"} {
			if _, err := ParseMediaExtraction(content); err == nil {
				t.Errorf("ParseMediaExtraction(%q) = nil error, want error", content)
			}
		}
	})
}

func TestParseRouteDecision(t *testing.T) {
	t.Run("valid routes", func(t *testing.T) {
		tests := []struct {
			content    string
			wantRoute  model.Route
			wantIntent string
		}{
			{`{"next_step":"retriever","reasoning":"wants recommendations"}`, model.RouteRetriever, model.IntentSearch},
			{`{"next_step":"chat"}`, model.RouteChat, model.IntentChat},
			{`{"next_step":"end"}`, model.RouteEnd, model.IntentEnd},
		}
		for _, tt := range tests {
			got, err := ParseRouteDecision(tt.content)
			if err != nil {
				t.Fatalf("ParseRouteDecision(%q) error = %v", tt.content, err)
			}
			if got.Next != tt.wantRoute || got.Intent != tt.wantIntent {
				t.Errorf("ParseRouteDecision(%q) = %+v", tt.content, got)
			}
		}
	})

	t.Run("fenced output", func(t *testing.T) {
		got, err := ParseRouteDecision("```json\n{\"next_step\":\"chat\",\"reasoning\":\"greeting\"}\n```")
		if err != nil {
			t.Fatalf("ParseRouteDecision() error = %v", err)
		}
		if got.Next != model.RouteChat || got.Reasoning != "greeting" {
			t.Errorf("ParseRouteDecision() = %+v", got)
		}
	})

	t.Run("classifier may not pick enricher", func(t *testing.T) {
		if _, err := ParseRouteDecision(`{"next_step":"enricher"}`); err == nil {
			t.Error("ParseRouteDecision(enricher) = nil error, want error")
		}
	})

	t.Run("garbage errors", func(t *testing.T) {
		if _, err := ParseRouteDecision("I think retriever is best"); err == nil {
			t.Error("ParseRouteDecision(prose) = nil error, want error")
		}
	})
}
