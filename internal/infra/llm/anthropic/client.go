package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/stylist"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	adviceModel    = "claude-opus-4-20250514"

	maxOverloadedRetries = 3
)

// Message mirrors the Anthropic messages structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesRequest is the payload sent to the messages API.
type MessagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

// MessagesResponse captures the non streaming response. Content blocks other
// than text are skipped during extraction.
type MessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Client performs HTTP requests to the Anthropic API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient constructs an Anthropic client.
func NewClient(apiKey, baseURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger.With("component", "llm.anthropic"),
		sleep:  sleepCtx,
	}, nil
}

// Key implements stylist.Provider.
func (c *Client) Key() string { return "anthropic" }

// SupportsImages implements stylist.Provider.
func (c *Client) SupportsImages() bool { return false }

// GenerateAdvice asks the messages API for style advice. Overloaded (529)
// responses are retried up to three times with 1s, 2s, 4s waits; every other
// failure propagates immediately.
func (c *Client) GenerateAdvice(ctx context.Context, city, season string) (string, error) {
	req := MessagesRequest{
		Model:       adviceModel,
		MaxTokens:   8000,
		Temperature: 0.8,
		System:      systemPrompt(city),
		Messages: []Message{
			{Role: "user", Content: stylist.StylePrompt(city, season)},
		},
	}

	var body []byte
	var err error
	for attempt := 0; ; attempt++ {
		body, err = c.doRequest(ctx, req)
		if err == nil {
			break
		}
		var oe *overloadedError
		if !errors.As(err, &oe) || attempt >= maxOverloadedRetries {
			return "", err
		}
		wait := time.Duration(1<<attempt) * time.Second
		c.logger.Warn("anthropic overloaded, retrying", "attempt", attempt+1, "wait", wait)
		if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
			return "", sleepErr
		}
	}

	var out MessagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	advice := strings.TrimSpace(text.String())
	if advice == "" {
		return "", apperrors.Wrap("provider_error", "anthropic returned no advice", nil)
	}
	return advice, nil
}

// GenerateImage implements stylist.Provider. Claude has no image API.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (stylist.ImageRef, error) {
	return stylist.ImageRef{}, apperrors.Wrap("images_unsupported",
		"Claude does not support image generation. Please use OpenAI or another provider for images.", nil)
}

// overloadedError marks a 529 response so the retry loop can single it out.
type overloadedError struct {
	body string
}

func (e *overloadedError) Error() string {
	return "anthropic overloaded: " + e.body
}

func (c *Client) doRequest(ctx context.Context, req MessagesRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode messages request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build messages request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 529 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &overloadedError{body: string(body)}
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("anthropic request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func systemPrompt(city string) string {
	return fmt.Sprintf(`You are an elite fashion consultant who provides hyper-specific, actionable style advice with real-time information.
Your responses should include:
- Exact store names and neighborhoods in the city
- Specific brand recommendations with current price ranges
- What locals are wearing RIGHT NOW based on current trends
- Real-time weather conditions and forecast for %s
- Cultural nuances and dress codes for different areas/occasions
- Instagram-worthy spots where these outfits would look great
- Current fashion events or pop-ups happening in %s

Provide detailed, practical advice that a visitor could immediately use.

IMPORTANT: Format your response in proper markdown with:
- Use ## for main section headers (NOT #)
- Use proper numbered lists (1., 2., 3.)
- Use bullet points (-) for sub-items under numbers
- Do NOT mix heading syntax with regular text`, city, city)
}

var _ stylist.Provider = (*Client)(nil)
