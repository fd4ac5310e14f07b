package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Compile-time interface check.
var _ Client = (*GenAIClient)(nil)

// GenAIClient sends completions to the Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini client for the endpoint.
func NewGenAIClient(ctx context.Context, ep Endpoint) (*GenAIClient, error) {
	if ep.APIKey == "" {
		return nil, fmt.Errorf("llm: gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      ep.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: ep.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: ep.Model}, nil
}

// Complete passes the directive as the system instruction. Named user turns
// are prefixed with the speaker so the model can tell panelists apart.
func (c *GenAIClient) Complete(ctx context.Context, directive string, history []Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		case RoleSystem:
			// The directive is the only system text.
		default:
			text := m.Content
			if m.Name != "" {
				text = m.Name + ": " + text
			}
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(directive, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("llm: gemini returned no candidates")
	}
	return resp.Text(), nil
}
