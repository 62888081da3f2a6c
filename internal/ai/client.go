package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"portfolio_analyzer/internal/models"
)

// Gemini REST defaults.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	requestTimeout = 90 * time.Second

	// The key travels in a header so transport errors, which quote the
	// request URL, never carry it.
	apiKeyHeader = "x-goog-api-key"
)

// Ensure both clients implement Generator
var (
	_ Generator = (*RESTClient)(nil)
	_ Generator = (*SDKClient)(nil)
)

// RESTClient calls the Gemini generateContent endpoint directly.
type RESTClient struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewRESTClient returns a REST generator. Empty baseURL and model fall back
// to the public endpoint and DefaultModel.
func NewRESTClient(apiKey, model, baseURL string) *RESTClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(requestTimeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader(apiKeyHeader, apiKey)

	return &RESTClient{
		client: client,
		apiKey: apiKey,
		model:  model,
	}
}

// Model returns the configured model name.
func (c *RESTClient) Model() string {
	return c.model
}

// Generate sends one prompt and returns the text of the first candidate.
func (c *RESTClient) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("AI client not configured")
	}

	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("AI API request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return "", &QuotaError{StatusCode: resp.StatusCode(), Body: resp.String()}
	case resp.StatusCode() != http.StatusOK:
		return "", fmt.Errorf("AI API error %d: %s", resp.StatusCode(), resp.String())
	}

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to decode AI API response: %w", err)
	}

	return result.text(), nil
}
