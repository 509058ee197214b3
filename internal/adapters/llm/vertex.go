package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kidsrec/chatbot/internal/domain"
)

type VertexConfig struct {
	ProjectID string
	Location  string
	ModelName string
}

type VertexClient struct {
	client    *genai.Client
	modelName string
}

var _ domain.Completer = (*VertexClient)(nil)

// NewVertexClient creates a Completer based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex project and location must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete implements domain.Completer using Vertex AI. System turns become
// the system instruction; assistant turns are sent with the model role.
func (v *VertexClient) Complete(ctx context.Context, turns []domain.Turn, opts domain.CompletionOptions) (string, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, t.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}

	temp := opts.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if len(system) > 0 {
		// According to official examples, the role here is usually RoleUser, not "system"
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", domain.NewError(domain.KindTransport, "vertex generate content", err)
	}

	if res == nil || len(res.Candidates) == 0 {
		return "", domain.NewError(domain.KindUpstream, "vertex generate content", domain.ErrNoChoices)
	}

	return res.Text(), nil
}
