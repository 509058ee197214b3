package llm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kidsrec/chatbot/internal/adapters/llm"
	"github.com/kidsrec/chatbot/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func newOpenAIServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string) *llm.OpenAIClient {
	t.Helper()
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL + "/v1",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestOpenAIClientComplete(t *testing.T) {
	var seen chatRequest
	srv := newOpenAIServer(t, http.StatusOK,
		`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"},"finish_reason":"stop"}]}`,
		&seen)
	client := newClient(t, srv.URL)

	turns := []domain.Turn{
		{Role: domain.RoleSystem, Content: "be nice"},
		{Role: domain.RoleUser, Content: "hi"},
	}
	reply, err := client.Complete(context.Background(), turns, domain.DefaultCompletionOptions())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "Hello there" {
		t.Fatalf("unexpected reply %q", reply)
	}

	if seen.Model != "test-model" {
		t.Fatalf("unexpected model %q", seen.Model)
	}
	if seen.MaxTokens != 500 {
		t.Fatalf("expected max_tokens 500, got %d", seen.MaxTokens)
	}
	if seen.Temperature < 0.69 || seen.Temperature > 0.71 {
		t.Fatalf("expected temperature 0.7, got %v", seen.Temperature)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Content != "hi" {
		t.Fatalf("unexpected messages %+v", seen.Messages)
	}
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`, nil)
	client := newClient(t, srv.URL)

	_, err := client.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}}, domain.DefaultCompletionOptions())

	if !domain.IsKind(err, domain.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !errors.Is(err, domain.ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestOpenAIClientServerError(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusInternalServerError,
		`{"error":{"message":"boom","type":"server_error"}}`, nil)
	client := newClient(t, srv.URL)

	_, err := client.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}}, domain.DefaultCompletionOptions())

	if !domain.IsKind(err, domain.KindTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := llm.NewOpenAIClient(llm.OpenAIConfig{APIKey: "  "})
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}
