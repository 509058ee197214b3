package llm_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kidsrec/chatbot/internal/adapters/llm"
	"github.com/kidsrec/chatbot/internal/domain"
)

func TestParseReplyRoundTrip(t *testing.T) {
	kinds := []string{"BOOK", "VIDEO", "BOOK", "VIDEO", "BOOK"}

	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d_items", n), func(t *testing.T) {
			var items []string
			for i := 0; i < n; i++ {
				items = append(items, fmt.Sprintf(
					`{"type":%q,"title":"Title %d","description":"d%d","reason":"r%d"}`,
					kinds[i], i, i, i,
				))
			}
			raw := "  Here you go!  \n[RECOMMENDATIONS]\n[" + strings.Join(items, ",") + "]\n[/RECOMMENDATIONS]"

			got := llm.ParseReply(raw)

			if got.Text != "Here you go!" {
				t.Fatalf("unexpected text %q", got.Text)
			}
			if got.Recovered {
				t.Fatalf("did not expect recovery")
			}
			if len(got.Recommendations) != n {
				t.Fatalf("expected %d recommendations, got %d", n, len(got.Recommendations))
			}
			for i, rec := range got.Recommendations {
				if rec.Title != fmt.Sprintf("Title %d", i) {
					t.Fatalf("item %d: unexpected title %q", i, rec.Title)
				}
				if string(rec.Kind) != kinds[i] {
					t.Fatalf("item %d: expected kind %s, got %s", i, kinds[i], rec.Kind)
				}
			}
		})
	}
}

func TestParseReplyMalformedBlock(t *testing.T) {
	got := llm.ParseReply("Here are ideas [RECOMMENDATIONS] not json [/RECOMMENDATIONS] enjoy!")

	if len(got.Recommendations) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(got.Recommendations))
	}
	if strings.Contains(got.Text, "[RECOMMENDATIONS]") || strings.Contains(got.Text, "[/RECOMMENDATIONS]") {
		t.Fatalf("markers left in text: %q", got.Text)
	}
	if got.Text != "Here are ideas  enjoy!" {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if !got.Recovered {
		t.Fatalf("expected Recovered to be set")
	}
}

func TestParseReplyDefaultsToBook(t *testing.T) {
	got := llm.ParseReply(`Hi [RECOMMENDATIONS][{"title":"X"}][/RECOMMENDATIONS]`)

	if len(got.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got.Recommendations))
	}
	rec := got.Recommendations[0]
	if rec.Kind != domain.KindBook {
		t.Fatalf("expected book, got %s", rec.Kind)
	}
	if rec.Description != "" || rec.Reason != "" || rec.ImageURL != "" {
		t.Fatalf("expected empty defaults, got %+v", rec)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestParseReplyKindIsCaseInsensitive(t *testing.T) {
	for _, typ := range []string{"video", "VIDEO", "Video"} {
		got := llm.ParseReply(`[RECOMMENDATIONS][{"type":"` + typ + `","title":"T"}][/RECOMMENDATIONS]`)
		if len(got.Recommendations) != 1 || got.Recommendations[0].Kind != domain.KindVideo {
			t.Fatalf("type %q: expected video, got %+v", typ, got.Recommendations)
		}
	}

	got := llm.ParseReply(`[RECOMMENDATIONS][{"type":"podcast","title":"T"}][/RECOMMENDATIONS]`)
	if got.Recommendations[0].Kind != domain.KindBook {
		t.Fatalf("unknown type should fall back to book")
	}
}

func TestParseReplyIDsAreUnique(t *testing.T) {
	got := llm.ParseReply(`[RECOMMENDATIONS][{"title":"A"},{"title":"A"}][/RECOMMENDATIONS]`)

	if len(got.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(got.Recommendations))
	}
	if got.Recommendations[0].ID == got.Recommendations[1].ID {
		t.Fatalf("expected distinct ids for identical items")
	}
}

func TestParseReplyImageURL(t *testing.T) {
	got := llm.ParseReply(`[RECOMMENDATIONS][{"title":"A","imageUrl":"https://img/a.png"}][/RECOMMENDATIONS]`)

	if got.Recommendations[0].ImageURL != "https://img/a.png" {
		t.Fatalf("unexpected image url %q", got.Recommendations[0].ImageURL)
	}
}

func TestParseReplyRecoveryCases(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantText  string
		recovered bool
	}{
		{
			name:     "no markers",
			raw:      "  Just chatting!  ",
			wantText: "Just chatting!",
		},
		{
			name:      "only start marker",
			raw:       "Try this [RECOMMENDATIONS] [{\"title\":\"A\"}]",
			wantText:  "Try this [RECOMMENDATIONS] [{\"title\":\"A\"}]",
			recovered: true,
		},
		{
			name:      "markers out of order",
			raw:       "a [/RECOMMENDATIONS] b [RECOMMENDATIONS] c",
			wantText:  "a [/RECOMMENDATIONS] b [RECOMMENDATIONS] c",
			recovered: true,
		},
		{
			name:      "object instead of array",
			raw:       "Hi\n[RECOMMENDATIONS]\n{\"title\":\"A\"}\n[/RECOMMENDATIONS]\nbye",
			wantText:  "Hi\n\nbye",
			recovered: true,
		},
		{
			name:      "array with a non-object element",
			raw:       "Hi [RECOMMENDATIONS][{\"title\":\"A\"}, 3][/RECOMMENDATIONS]",
			wantText:  "Hi",
			recovered: true,
		},
		{
			name:      "null element",
			raw:       "Hi [RECOMMENDATIONS][null][/RECOMMENDATIONS]",
			wantText:  "Hi",
			recovered: true,
		},
		{
			name:      "lowercase markers are plain text",
			raw:       "Hi [recommendations][{\"title\":\"A\"}][/recommendations]",
			wantText:  "Hi [recommendations][{\"title\":\"A\"}][/recommendations]",
			recovered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llm.ParseReply(tt.raw)

			if len(got.Recommendations) != 0 {
				t.Fatalf("expected no recommendations, got %+v", got.Recommendations)
			}
			if got.Text != tt.wantText {
				t.Fatalf("expected text %q, got %q", tt.wantText, got.Text)
			}
			if got.Recovered != tt.recovered {
				t.Fatalf("expected Recovered=%v", tt.recovered)
			}
		})
	}
}

func TestParseReplyDropsTextAfterBlock(t *testing.T) {
	raw := "Roar! Try this.\n[RECOMMENDATIONS]\n[{\"type\":\"BOOK\",\"title\":\"Dino Days\",\"description\":\"A young paleontologist's journey\",\"reason\":\"Packed with fun facts\"}]\n[/RECOMMENDATIONS]\nHappy reading!"

	got := llm.ParseReply(raw)

	if got.Text != "Roar! Try this." {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if len(got.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got.Recommendations))
	}
	rec := got.Recommendations[0]
	if rec.Kind != domain.KindBook || rec.Title != "Dino Days" || rec.Reason != "Packed with fun facts" {
		t.Fatalf("unexpected recommendation %+v", rec)
	}
}

func TestParseReplyFormatsNonStringValues(t *testing.T) {
	raw := `Hi [RECOMMENDATIONS][{"type":"video","title":5,"description":2.5,"reason":true,"imageUrl":null}][/RECOMMENDATIONS]`

	got := llm.ParseReply(raw)

	if len(got.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(got.Recommendations))
	}
	rec := got.Recommendations[0]
	if rec.Title != "5" || rec.Description != "2.5" || rec.Reason != "true" {
		t.Fatalf("expected scalars as text, got %+v", rec)
	}
	if rec.ImageURL != "" {
		t.Fatalf("expected null to fall back to empty, got %q", rec.ImageURL)
	}
	if rec.Kind != domain.KindVideo {
		t.Fatalf("expected video, got %s", rec.Kind)
	}
}
