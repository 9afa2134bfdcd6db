package openai

import (
	"bytes"
	"context"
	"encoding/base64"
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
	defaultBaseURL = "https://api.openai.com/v1"
	adviceModel    = "gpt-4o"
	imageModel     = "gpt-image-1"
)

// Message mirrors the OpenAI chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completions API.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse captures the response for non streaming calls.
type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ImageRequest is the payload sent to the image generations API.
type ImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
}

// ImageResponse captures an image generation result. Depending on the model
// the API returns hosted URLs or inline base64 payloads.
type ImageResponse struct {
	Data []struct {
		URL     string `json:"url,omitempty"`
		B64JSON string `json:"b64_json,omitempty"`
	} `json:"data"`
}

// Client performs HTTP requests to the OpenAI API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an OpenAI client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
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
func (c *Client) Key() string { return "openai" }

// SupportsImages implements stylist.Provider.
func (c *Client) SupportsImages() bool { return true }

// GenerateAdvice asks the chat completions API for style advice.
func (c *Client) GenerateAdvice(ctx context.Context, city, season string) (string, error) {
	req := ChatCompletionRequest{
		Model: adviceModel,
		Messages: []Message{
			{Role: "system", Content: systemPrompt(city, season)},
			{Role: "user", Content: stylist.StylePrompt(city, season)},
		},
		Temperature: 0.8,
		MaxTokens:   4000,
	}

	body, err := c.doRequest(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}

	var out ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperrors.Wrap("provider_error", "openai returned no advice", nil)
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateImage asks the image generations API for one rendering of prompt.
// The API returns either a hosted URL or an inline base64 PNG.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (stylist.ImageRef, error) {
	req := ImageRequest{
		Model:   imageModel,
		Prompt:  prompt,
		N:       1,
		Size:    "1024x1024",
		Quality: "high",
	}

	body, err := c.doRequest(ctx, "/images/generations", req)
	if err != nil {
		return stylist.ImageRef{}, err
	}

	var out ImageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return stylist.ImageRef{}, fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Data) == 0 {
		return stylist.ImageRef{}, apperrors.Wrap("provider_error", "openai returned no image data", nil)
	}

	first := out.Data[0]
	if first.URL != "" {
		return stylist.ImageRef{URL: first.URL}, nil
	}
	if first.B64JSON != "" {
		raw, decodeErr := decodeBase64(first.B64JSON)
		if decodeErr != nil {
			return stylist.ImageRef{}, fmt.Errorf("decode image payload: %w", decodeErr)
		}
		return stylist.ImageRef{Data: raw, MimeType: "image/png"}, nil
	}
	return stylist.ImageRef{}, apperrors.Wrap("provider_error", "openai image result had neither url nor payload", nil)
}

func (c *Client) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("openai request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func systemPrompt(city, season string) string {
	return fmt.Sprintf(`You are an elite fashion consultant providing hyper-specific, actionable style advice.

Context: A visitor needs fashion advice for %s during %s.

Your response should include:
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

func decodeBase64(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(payload)
}

var _ stylist.Provider = (*Client)(nil)
