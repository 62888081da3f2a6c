package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"portfolio_analyzer/internal/models"
)

// SDKClient generates through the official Google GenAI SDK.
type SDKClient struct {
	client *genai.Client
	model  string
}

// NewSDKClient creates a Gemini API backed generator.
func NewSDKClient(ctx context.Context, apiKey, model string) (*SDKClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &SDKClient{client: client, model: model}, nil
}

// Model returns the configured model name.
func (c *SDKClient) Model() string {
	return c.model
}

// Generate sends one prompt. Quota failures surface as SDK errors whose text
// carries the 429 / RESOURCE_EXHAUSTED status, which IsQuotaError matches.
func (c *SDKClient) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		TopP:            genai.Ptr(req.TopP),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
