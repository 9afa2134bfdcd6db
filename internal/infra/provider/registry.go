package provider

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"

	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/internal/infra/llm/anthropic"
	"github.com/rcbeall1/stylescout/internal/infra/llm/gemini"
	"github.com/rcbeall1/stylescout/internal/infra/llm/openai"
	"github.com/rcbeall1/stylescout/internal/infra/llm/perplexity"
)

// Descriptor describes one selectable backend for the catalog endpoint.
type Descriptor struct {
	Name           string   `json:"name"`
	SupportsImages bool     `json:"supportsImages"`
	Models         []string `json:"models"`
	Description    string   `json:"description"`
}

// Catalog is the static set of advertised backends, keyed by provider key.
func Catalog() map[string]Descriptor {
	return map[string]Descriptor{
		"openai": {
			Name:           "OpenAI",
			SupportsImages: true,
			Models:         []string{"gpt-4o", "gpt-image-1"},
			Description:    "GPT-4o advice with gpt-image-1 outfit image generation",
		},
		"anthropic": {
			Name:           "Claude (Anthropic)",
			SupportsImages: false,
			Models:         []string{"claude-opus-4-20250514"},
			Description:    "Claude Opus 4 for detailed fashion advice",
		},
		"google": {
			Name:           "Gemini (Google)",
			SupportsImages: false,
			Models:         []string{"gemini-2.5-pro"},
			Description:    "Gemini 2.5 Pro for detailed fashion advice",
		},
		"perplexity": {
			Name:           "Perplexity",
			SupportsImages: false,
			Models:         []string{"sonar-pro"},
			Description:    "Sonar Pro with real-time web search for current fashion trends",
		},
	}
}

// New constructs the backend for key. Aliases claude and gemini map to their
// canonical keys.
func New(key, apiKey string) (stylist.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "openai":
		return openai.NewClient(apiKey, "")
	case "anthropic", "claude":
		return anthropic.NewClient(apiKey, "", nil)
	case "google", "gemini":
		return gemini.NewClient(apiKey, "")
	case "perplexity":
		return perplexity.NewClient(apiKey, "")
	default:
		return nil, fmt.Errorf("unknown AI provider: %s. Supported: openai, anthropic, google, perplexity", key)
	}
}

// Registry resolves configured backends lazily and memoizes them. It
// substitutes OpenAI for image work when the primary backend is text only.
type Registry struct {
	primaryKey string
	keys       map[string]string
	logger     *slog.Logger

	mu    sync.Mutex
	built map[string]stylist.Provider
}

// NewRegistry constructs a registry for the configured primary provider.
func NewRegistry(primaryKey string, keys map[string]string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		primaryKey: strings.ToLower(strings.TrimSpace(primaryKey)),
		keys:       keys,
		logger:     logger.With("component", "provider.registry"),
		built:      map[string]stylist.Provider{},
	}
}

// PrimaryKey implements stylist.ProviderSource.
func (r *Registry) PrimaryKey() string { return r.primaryKey }

// Primary implements stylist.ProviderSource.
func (r *Registry) Primary() (stylist.Provider, error) {
	return r.resolve(r.primaryKey)
}

// ImageBackend implements stylist.ProviderSource. Substitution is logged
// rather than surfaced so callers keep the primary provider in responses.
func (r *Registry) ImageBackend() (stylist.Provider, error) {
	primary, err := r.resolve(r.primaryKey)
	if err != nil {
		return nil, err
	}
	if primary.SupportsImages() {
		return primary, nil
	}
	r.logger.Info("primary provider has no image support, using openai for images", "primary", r.primaryKey)
	return r.resolve("openai")
}

func (r *Registry) resolve(key string) (stylist.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.built[key]; ok {
		return p, nil
	}
	apiKey := r.keys[key]
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.Wrap("provider_unconfigured",
			fmt.Sprintf("no API key configured for provider %s", key), nil)
	}
	p, err := New(key, apiKey)
	if err != nil {
		return nil, err
	}
	r.built[key] = p
	return p, nil
}

var _ stylist.ProviderSource = (*Registry)(nil)
