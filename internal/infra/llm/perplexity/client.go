package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/stylist"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	adviceModel    = "sonar-pro"
)

// Message mirrors the Perplexity chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completions API.
// Sonar models take search tuning fields alongside the sampling ones.
type ChatCompletionRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	Temperature         float32   `json:"temperature,omitempty"`
	MaxTokens           int       `json:"max_tokens,omitempty"`
	SearchDomainFilter  []string  `json:"search_domain_filter,omitempty"`
	SearchRecencyFilter string    `json:"search_recency_filter,omitempty"`
	FrequencyPenalty    float32   `json:"frequency_penalty,omitempty"`
}

// ChatCompletionResponse captures the response for non streaming calls.
type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client performs HTTP requests to the Perplexity API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Perplexity client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("perplexity api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Key implements stylist.Provider.
func (c *Client) Key() string { return "perplexity" }

// SupportsImages implements stylist.Provider.
func (c *Client) SupportsImages() bool { return false }

// GenerateAdvice asks the sonar chat completions API for style advice.
func (c *Client) GenerateAdvice(ctx context.Context, city, season string) (string, error) {
	req := ChatCompletionRequest{
		Model: adviceModel,
		Messages: []Message{
			{Role: "system", Content: systemPrompt(city, season)},
			{Role: "user", Content: stylist.StylePrompt(city, season)},
		},
		Temperature: 0.8,
		MaxTokens:   4000,
		SearchDomainFilter: []string{
			"vogue.com",
			"fashion.com",
			"instagram.com",
			"timeout.com",
			"weather.com",
			"tripadvisor.com",
		},
		SearchRecencyFilter: "week",
		FrequencyPenalty:    0.1,
	}

	body, err := c.doRequest(ctx, req)
	if err != nil {
		return "", err
	}

	var out ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperrors.Wrap("provider_error", "perplexity returned no advice", nil)
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateImage implements stylist.Provider. Sonar has no image API.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (stylist.ImageRef, error) {
	return stylist.ImageRef{}, apperrors.Wrap("images_unsupported",
		"Perplexity does not support image generation. Please use OpenAI or another provider for images.", nil)
}

func (c *Client) doRequest(ctx context.Context, req ChatCompletionRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat completion request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat completion request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request perplexity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("perplexity request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func systemPrompt(city, season string) string {
	return fmt.Sprintf(`You are an elite fashion consultant with real-time web access. Provide hyper-specific, actionable style advice for %s during %s.

Your responses should include:
- Exact store names and neighborhoods in the city
- Specific brand recommendations with current price ranges
- What locals are wearing RIGHT NOW based on current trends
- Real-time weather conditions and appropriate clothing
- Cultural nuances and dress codes for different areas/occasions
- Instagram-worthy spots where these outfits would look great
- Current fashion events or pop-ups happening in %s

Format your response in proper markdown with:
- Use ## for main section headers
- Use proper numbered lists (1., 2., 3.)
- Use bullet points (-) for sub-items under numbers
- Provide detailed, practical advice that a visitor could immediately use`, city, season, city)
}

var _ stylist.Provider = (*Client)(nil)
