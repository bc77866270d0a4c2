package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend calls the Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrUnavailable
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (g *GeminiBackend) GenerateText(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.AddContextFromInternet {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	// Search grounding and JSON mode cannot be combined; the schema is
	// then only enforced on our side.
	if req.ResponseJSONSchema != nil && !req.AddContextFromInternet {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = req.ResponseJSONSchema
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no content returned")
	}
	return text, nil
}
