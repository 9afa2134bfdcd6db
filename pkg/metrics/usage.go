package metrics

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Estimator approximates token counts for providers that do not report usage.
type Estimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewEstimator constructs a lazy tiktoken-backed estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Count returns the token count of text under the cl100k_base encoding,
// falling back to a whitespace heuristic when the encoding is unavailable.
func (e *Estimator) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			e.enc = enc
		}
	})
	if e.enc == nil {
		// Rough upper bound: one token per ~4 bytes of text.
		return (len(text) + 3) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}

// Estimate builds a TokenUsage from prompt and completion text.
func (e *Estimator) Estimate(prompt, completion string) TokenUsage {
	p := e.Count(prompt)
	c := e.Count(completion)
	return TokenUsage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}
