package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kidsrec/chatbot/internal/domain"
)

const (
	DefaultOpenAIModel   = openai.GPT3Dot5Turbo
	defaultOpenAITimeout = 60 * time.Second
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string // e.g. https://api.openai.com/v1
	Model   string
	Timeout time.Duration
}

// OpenAIClient implements domain.Completer against an OpenAI-compatible
// chat completions endpoint. It keeps no per-call state.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ domain.Completer = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key must be provided")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOpenAITimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, turns []domain.Turn, opts domain.CompletionOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(turns)),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, t := range turns {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", domain.NewError(domain.KindTransport, "openai chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewError(domain.KindUpstream, "openai chat completion", domain.ErrNoChoices)
	}

	return resp.Choices[0].Message.Content, nil
}
