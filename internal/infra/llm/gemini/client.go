package gemini

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
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	adviceModel    = "gemini-2.5-pro"
)

// Part is one content fragment in a Gemini request or response.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content groups parts under a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig tunes sampling for generateContent.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float32 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

// GenerateContentRequest is the payload sent to the generateContent API.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerateContentResponse captures the candidates of a generateContent call.
type GenerateContentResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// Client performs HTTP requests to the Gemini API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
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
func (c *Client) Key() string { return "google" }

// SupportsImages implements stylist.Provider.
func (c *Client) SupportsImages() bool { return false }

// GenerateAdvice asks generateContent for style advice.
func (c *Client) GenerateAdvice(ctx context.Context, city, season string) (string, error) {
	req := GenerateContentRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: adviceInstructions(city, season) + "\n\n" + stylist.StylePrompt(city, season)}},
			},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:     0.8,
			MaxOutputTokens: 8000,
			TopP:            0.95,
			TopK:            40,
		},
	}

	body, err := c.doRequest(ctx, req)
	if err != nil {
		return "", err
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode generateContent response: %w", err)
	}

	var text strings.Builder
	if len(out.Candidates) > 0 {
		for _, part := range out.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	advice := strings.TrimSpace(text.String())
	if advice == "" {
		return "", apperrors.Wrap("provider_error", "gemini returned no advice", nil)
	}
	return advice, nil
}

// GenerateImage implements stylist.Provider. The text model has no image API.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (stylist.ImageRef, error) {
	return stylist.ImageRef{}, apperrors.Wrap("images_unsupported",
		"Gemini does not support image generation. Please use OpenAI or another provider for images.", nil)
}

func (c *Client) doRequest(ctx context.Context, req GenerateContentRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generateContent request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, adviceModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generateContent request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gemini request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func adviceInstructions(city, season string) string {
	return fmt.Sprintf(`You are an elite fashion consultant providing hyper-specific, actionable style advice for %s during %s.

IMPORTANT: Format your response in proper markdown with:
- Use ## for main section headers
- Use proper numbered lists (1., 2., 3.)
- Use bullet points (-) for sub-items under numbers
- Provide detailed, practical advice that a visitor could immediately use

Focus on current trends, real store names with addresses, specific brands with current prices, and actionable advice.`, city, season)
}

var _ stylist.Provider = (*Client)(nil)
