package stylist

import "fmt"

// StylePrompt is the shared advice prompt every backend sends as the user
// message, so answers stay comparable across providers.
func StylePrompt(city, season string) string {
	return fmt.Sprintf(`Provide ultra-specific fashion advice for visiting %s during %s.

1. WEATHER REALITY CHECK
   - Exact temperature ranges (day/night)
   - Humidity, rain chances, wind
   - What it ACTUALLY feels like

2. WHAT LOCALS ARE WEARING RIGHT NOW
   - Current trends in %s
   - Age-specific observations (20s, 30s, 40s+)
   - Weekend vs workday differences

3. MUST-PACK ITEMS
   - Exact pieces with brand suggestions
   - Where to buy if forgot something
   - Price ranges in local currency

4. NEIGHBORHOOD DRESS CODES
   - How to dress for different areas
   - Day vs night transformations
   - What screams "tourist" (avoid!)

5. SHOPPING INTEL
   - Best local stores/areas
   - Hidden gems only locals know
   - Typical price ranges

6. INSTAGRAM-WORTHY OUTFIT LOCATIONS
   - Where these outfits photograph best
   - Local fashion influencer spots

IMPORTANT: Be specific! Name actual stores, brands, and neighborhoods. Give price ranges. Make it actionable!`, city, season, city)
}

// ImagePrompt formats the single-image prompt around a style description.
func ImagePrompt(city, season, styleDescription string) string {
	return fmt.Sprintf(`High-end fashion flat lay photography for %s %s outfit:

STYLE: Vogue/Kinfolk aesthetic flat lay on marble or wood surface
LIGHTING: Natural, soft daylight from top-left

OUTFIT PIECES:
%s

STYLING DETAILS:
- Clothes neatly folded/arranged with intentional wrinkles
- Accessories artfully scattered (watch, sunglasses, bag)
- Small props: coffee cup, city guide book, smartphone
- Color palette appropriate for %s in %s

QUALITY: Ultra high-res, professional fashion photography, DSLR quality
MOOD: Aspirational travel wardrobe, sophisticated yet approachable

NO: People, mannequins, hangers, or messy presentation`, city, season, styleDescription, season, city)
}

// Outfit prompt templates, one per style intent. Slot assignment cycles
// through these when more than three images are requested.
var outfitTemplates = []string{
	"%[2]s casual outfit flat lay for %[1]s: Relaxed daywear that locals actually wear. Include denim, comfortable shoes, and practical accessories. Realistic style, natural lighting.",
	"%[2]s smart casual outfit for %[1]s: Versatile pieces for lunch, shopping, or casual dinner. Balance between comfort and style. Include transitional pieces that work day to night.",
	"%[2]s active lifestyle outfit for %[1]s: Athletic-inspired streetwear for walking, exploring, or outdoor activities. Include sneakers, breathable fabrics, and functional accessories.",
}

// OutfitPrompts builds the n fixed prompt slots for a request. Slot order
// is decided here, at dispatch time, and never changes afterwards.
func OutfitPrompts(city, season string, n int) []string {
	if n <= 0 {
		return nil
	}
	prompts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		template := outfitTemplates[i%len(outfitTemplates)]
		prompts = append(prompts, fmt.Sprintf(template, city, season))
	}
	return prompts
}
