package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kidsrec/chatbot/internal/domain"
)

// HistoryWindow is how many prior messages go into a completion request.
const HistoryWindow = 10

const personaPrompt = `You are Little Dino, a friendly dinosaur who helps kids discover amazing books and videos! Use simple, fun language.

CRITICAL RULE: You MUST ALWAYS include the [RECOMMENDATIONS] block when suggesting any book, video, or content. Never just mention titles in text - always use the JSON format.`

const formatContract = `Response format:
1. Write a brief, friendly message (1-2 sentences max)
2. ALWAYS end with recommendations in this EXACT format:

[RECOMMENDATIONS]
[{"type":"BOOK","title":"Exact Book Title","description":"What it's about in 1 sentence","reason":"Why kids will love it"},{"type":"VIDEO","title":"Exact Video Title","description":"What it teaches","reason":"Why it's fun to watch"}]
[/RECOMMENDATIONS]

Rules:
- type must be "BOOK" or "VIDEO" (uppercase)
- Always include 1-3 recommendations
- Keep descriptions short (under 15 words)
- Make reasons exciting for kids
- NEVER skip the [RECOMMENDATIONS] block when suggesting content`

// Compose builds the completion request for one turn: a single system turn,
// then up to HistoryWindow prior user/assistant messages in chronological
// order, then the new user message.
func Compose(profile domain.UserProfile, history []*domain.Message, newUserText string) []domain.Turn {
	prior := make([]*domain.Message, 0, len(history))
	for _, m := range history {
		if m == nil {
			continue
		}
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		prior = append(prior, m)
	}

	sort.SliceStable(prior, func(i, j int) bool {
		return prior[i].CreatedAt.Before(prior[j].CreatedAt)
	})
	if len(prior) > HistoryWindow {
		prior = prior[len(prior)-HistoryWindow:]
	}

	turns := make([]domain.Turn, 0, len(prior)+2)
	turns = append(turns, domain.Turn{Role: domain.RoleSystem, Content: SystemPrompt(profile)})
	for _, m := range prior {
		turns = append(turns, domain.Turn{Role: m.Role, Content: m.Content})
	}
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: newUserText})

	return turns
}

// SystemPrompt is the persona, what we know about the child, and the output
// format the parser expects.
func SystemPrompt(profile domain.UserProfile) string {
	var b strings.Builder
	b.WriteString(personaPrompt)
	b.WriteString("\n\n")

	if section := profileSection(profile); section != "" {
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	b.WriteString(formatContract)
	return b.String()
}

func profileSection(p domain.UserProfile) string {
	var lines []string
	if !p.IsZero() {
		lines = append(lines, "About the child you are talking to:")
	}
	if p.Name != "" {
		lines = append(lines, "- Name: "+p.Name)
	}
	if p.Age > 0 {
		group := AgeGroup(p.Age)
		lines = append(lines, fmt.Sprintf("- Age: %d years old (%s)", p.Age, group))
		lines = append(lines, "- Use simple, clear language appropriate for a "+group)
	}
	if len(p.Interests) > 0 {
		lines = append(lines, "- Interests: "+strings.Join(p.Interests, ", "))
	}
	if p.ReadingLevel != "" {
		lines = append(lines, "- Reading level: "+p.ReadingLevel)
	}

	// Parental filters apply even when nothing else is known about the child.
	if len(p.Filters.BlockedTopics) > 0 || p.Filters.VideosBlocked {
		lines = append(lines, "Parental settings:")
	}
	if len(p.Filters.BlockedTopics) > 0 {
		lines = append(lines, "- Never suggest anything about: "+strings.Join(p.Filters.BlockedTopics, ", "))
	}
	if p.Filters.VideosBlocked {
		lines = append(lines, `- Videos are turned off by a parent: only use "type":"BOOK"`)
	}

	return strings.Join(lines, "\n")
}

// AgeGroup names the developmental band used in the prompt.
func AgeGroup(age int) string {
	switch {
	case age <= 5:
		return "preschooler"
	case age <= 8:
		return "early elementary"
	case age <= 12:
		return "middle elementary"
	default:
		return "young teen"
	}
}
