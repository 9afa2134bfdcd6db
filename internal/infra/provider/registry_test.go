package provider

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/rcbeall1/stylescout/pkg/errors"
)

func TestNewKnownProviders(t *testing.T) {
	for key, want := range Catalog() {
		p, err := New(key, "test-key")
		require.NoError(t, err, key)
		require.Equal(t, key, p.Key())
		require.Equal(t, want.SupportsImages, p.SupportsImages(), key)
	}
}

func TestNewAliases(t *testing.T) {
	p, err := New("claude", "test-key")
	require.NoError(t, err)
	require.Equal(t, "anthropic", p.Key())

	p, err = New("gemini", "test-key")
	require.NoError(t, err)
	require.Equal(t, "google", p.Key())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("mistral", "test-key")
	require.Error(t, err)
	require.ErrorContains(t, err, "unknown AI provider")
}

func TestRegistrySubstitutesOpenAIForImages(t *testing.T) {
	reg := NewRegistry("anthropic", map[string]string{
		"anthropic": "key-a",
		"openai":    "key-o",
	}, slog.Default())

	primary, err := reg.Primary()
	require.NoError(t, err)
	require.Equal(t, "anthropic", primary.Key())

	imager, err := reg.ImageBackend()
	require.NoError(t, err)
	require.Equal(t, "openai", imager.Key())
}

func TestRegistryImageBackendIsPrimaryWhenCapable(t *testing.T) {
	reg := NewRegistry("openai", map[string]string{"openai": "key-o"}, slog.Default())

	imager, err := reg.ImageBackend()
	require.NoError(t, err)
	require.Equal(t, "openai", imager.Key())
}

func TestRegistryConcurrentResolve(t *testing.T) {
	reg := NewRegistry("anthropic", map[string]string{
		"anthropic": "key-a",
		"openai":    "key-o",
	}, slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			primary, err := reg.Primary()
			require.NoError(t, err)
			require.Equal(t, "anthropic", primary.Key())

			imager, err := reg.ImageBackend()
			require.NoError(t, err)
			require.Equal(t, "openai", imager.Key())
		}()
	}
	wg.Wait()
}

func TestRegistryMissingKey(t *testing.T) {
	reg := NewRegistry("perplexity", map[string]string{}, slog.Default())

	_, err := reg.Primary()
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "provider_unconfigured"))
}
