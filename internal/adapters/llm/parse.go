package llm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kidsrec/chatbot/internal/domain"
)

const (
	recsStartTag = "[RECOMMENDATIONS]"
	recsEndTag   = "[/RECOMMENDATIONS]"
)

var recsBlockPattern = regexp.MustCompile(`(?s)\[RECOMMENDATIONS\].*?\[/RECOMMENDATIONS\]`)

// ParsedReply is an assistant reply split into what the child reads and the
// structured suggestions attached to it.
type ParsedReply struct {
	Text            string
	Recommendations []domain.Recommendation

	// Recovered is set when a block was expected but could not be used and
	// the text was cleaned up instead.
	Recovered bool
}

// ParseReply extracts the recommendation block from raw model output.
//
// When both markers are present and in order, Text is everything before the
// start marker and the enclosed JSON array becomes Recommendations. Otherwise,
// or when the JSON is invalid, every marker-delimited span is cut from the
// text and no recommendations are returned. It never fails.
func ParseReply(raw string) ParsedReply {
	start := strings.Index(raw, recsStartTag)
	end := strings.Index(raw, recsEndTag)

	if start != -1 && end != -1 && end > start {
		payload := raw[start+len(recsStartTag) : end]
		if recs, ok := decodeRecommendations(payload); ok {
			return ParsedReply{
				Text:            strings.TrimSpace(raw[:start]),
				Recommendations: recs,
			}
		}
	}

	return ParsedReply{
		Text:      strings.TrimSpace(recsBlockPattern.ReplaceAllString(raw, "")),
		Recovered: start != -1 || end != -1,
	}
}

// decodeRecommendations accepts only a JSON array whose elements are all
// objects. Anything else is rejected as a whole.
func decodeRecommendations(payload string) ([]domain.Recommendation, bool) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "[") {
		return nil, false
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, false
	}

	recs := make([]domain.Recommendation, 0, len(items))
	for _, obj := range items {
		if obj == nil {
			return nil, false
		}
		recs = append(recs, domain.Recommendation{
			ID:          uuid.NewString(),
			Kind:        parseKind(getString(obj, "type", string(domain.KindBook))),
			Title:       getString(obj, "title", ""),
			Description: getString(obj, "description", ""),
			Reason:      getString(obj, "reason", ""),
			ImageURL:    getString(obj, "imageUrl", ""),
		})
	}
	return recs, true
}

// parseKind maps "VIDEO" in any case to a video; everything else is a book.
func parseKind(s string) domain.RecommendationKind {
	if strings.EqualFold(s, string(domain.KindVideo)) {
		return domain.KindVideo
	}
	return domain.KindBook
}

// getString reads key as text. Numbers and booleans are formatted, nested
// values keep their JSON form, and a missing or null value yields def.
func getString(m map[string]any, key, def string) string {
	switch v := m[key].(type) {
	case nil:
		return def
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return def
		}
		return string(b)
	}
}
