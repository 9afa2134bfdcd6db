package stylist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutfitPromptsCycleTemplates(t *testing.T) {
	prompts := OutfitPrompts("Paris", "summer", 5)
	require.Len(t, prompts, 5)

	require.Contains(t, prompts[0], "casual outfit flat lay")
	require.Contains(t, prompts[1], "smart casual outfit")
	require.Contains(t, prompts[2], "active lifestyle outfit")
	require.Equal(t, prompts[0], prompts[3])
	require.Equal(t, prompts[1], prompts[4])

	for _, p := range prompts {
		require.Contains(t, p, "Paris")
		require.True(t, strings.HasPrefix(p, "summer"), p)
	}
}

func TestOutfitPromptsEmpty(t *testing.T) {
	require.Nil(t, OutfitPrompts("Paris", "summer", 0))
	require.Nil(t, OutfitPrompts("Paris", "summer", -2))
}

func TestStylePromptMentionsCityAndSeason(t *testing.T) {
	p := StylePrompt("Tokyo", "winter")
	require.Contains(t, p, "Tokyo")
	require.Contains(t, p, "winter")
}

func TestImagePromptEmbedsDescription(t *testing.T) {
	p := ImagePrompt("Rome", "spring", "linen suit with loafers")
	require.Contains(t, p, "linen suit with loafers")
	require.Contains(t, p, "Rome")
	require.Contains(t, p, "spring")
}
