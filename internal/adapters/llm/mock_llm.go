package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kidsrec/chatbot/internal/domain"
)

// MockLLM answers without calling any model. Useful for local mode: the reply
// always carries a well-formed recommendation block.
type MockLLM struct{}

var _ domain.Completer = (*MockLLM)(nil)

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(_ context.Context, turns []domain.Turn, _ domain.CompletionOptions) (string, error) {
	topic := "adventures"
	if n := len(turns); n > 0 && turns[n-1].Role == domain.RoleUser {
		if t := strings.TrimSpace(turns[n-1].Content); t != "" {
			topic = t
		}
	}

	return fmt.Sprintf("Rawr! I love talking about %q. Here is something to try!\n"+
		"%s\n"+
		`[{"type":"BOOK","title":"The Big Book of Everything","description":"A fun tour of the world","reason":"It has something for every curious kid"}]`+"\n"+
		"%s", topic, recsStartTag, recsEndTag), nil
}
