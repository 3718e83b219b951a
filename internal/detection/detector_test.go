package detection

import (
	"strings"
	"sync"
	"testing"

	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Detect(t *testing.T) {
	detector := NewDetector(Options{})

	tests := []struct {
		name     string
		brands   []models.Brand
		text     string
		expected map[string]models.Detection
	}{
		{
			name:   "Recommended mention",
			brands: []models.Brand{{ID: "b1", Name: "HubSpot", Aliases: []string{"Hub Spot"}}},
			text:   "I'd recommend HubSpot for small teams.",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, Recommended: true, MatchedName: "hubspot", Sentiment: "neutral"},
			},
		},
		{
			name:   "Mention without positive signal",
			brands: []models.Brand{{ID: "b1", Name: "Acme"}},
			text:   "Acme is a decent but unremarkable option.",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, Recommended: false, MatchedName: "acme", Sentiment: "neutral"},
			},
		},
		{
			name:   "Alias match",
			brands: []models.Brand{{ID: "b1", Name: "HubSpot", Aliases: []string{"Hub Spot"}}},
			text:   "Many teams use Hub Spot.",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, MatchedName: "hub spot", Sentiment: "neutral"},
			},
		},
		{
			name:   "Substring of larger word is not a mention",
			brands: []models.Brand{{ID: "b1", Name: "CRM"}},
			text:   "Acrmonium is the best.",
			expected: map[string]models.Detection{
				"b1": {},
			},
		},
		{
			name:   "Regex metacharacters match literally",
			brands: []models.Brand{{ID: "b1", Name: "C++"}},
			text:   "I love C++ programming",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, MatchedName: "c++", Sentiment: "positive"},
			},
		},
		{
			name:     "Empty text",
			brands:   []models.Brand{{ID: "b1", Name: "Acme"}},
			text:     "   \n\t",
			expected: map[string]models.Detection{"b1": {}},
		},
		{
			name:     "No brands",
			brands:   nil,
			text:     "Acme is great",
			expected: map[string]models.Detection{},
		},
		{
			name: "Overlapping names match independently",
			brands: []models.Brand{
				{ID: "b1", Name: "Google"},
				{ID: "b2", Name: "Google Cloud"},
			},
			text: "Google Cloud is a trusted platform.",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, Recommended: true, MatchedName: "google", Sentiment: "neutral"},
				"b2": {Mentioned: true, Recommended: true, MatchedName: "google cloud", Sentiment: "neutral"},
			},
		},
		{
			name:   "Case insensitive",
			brands: []models.Brand{{ID: "b1", Name: "nerdwallet"}},
			text:   "NERDWALLET has the BEST comparisons",
			expected: map[string]models.Detection{
				"b1": {Mentioned: true, Recommended: true, MatchedName: "nerdwallet", Sentiment: "neutral"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detector.Detect(tt.text, tt.brands)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDetector_FirstMatchingNameWins(t *testing.T) {
	detector := NewDetector(Options{})
	brands := []models.Brand{{ID: "b1", Name: "The Points Guy", Aliases: []string{"TPG"}}}

	result := detector.Detect("TPG and The Points Guy are the same site.", brands)

	assert.True(t, result["b1"].Mentioned)
	assert.Equal(t, "the points guy", result["b1"].MatchedName)
}

func TestDetector_ContextWindow(t *testing.T) {
	padding := strings.Repeat("x ", 60) // 120 characters
	text := "I recommend it. " + padding + "Acme is available."
	brands := []models.Brand{{ID: "b1", Name: "Acme"}}

	wide := NewDetector(Options{ContextWindow: -1})
	narrow := NewDetector(Options{ContextWindow: 100})

	assert.Equal(t, DefaultContextWindow, wide.window, "non-positive sizes fall back to the default")
	assert.True(t, wide.Detect(text, brands)["b1"].Recommended, "phrase is within 200 characters")
	assert.False(t, narrow.Detect(text, brands)["b1"].Recommended, "phrase is beyond 100 characters")
	assert.True(t, narrow.Detect(text, brands)["b1"].Mentioned)
}

func TestDetector_WindowFollowsMatch(t *testing.T) {
	text := "Excellent tools exist. " + strings.Repeat("z", 250) + " Acme. Later, Acme is sold."
	brands := []models.Brand{{ID: "b1", Name: "Acme"}}

	result := NewDetector(Options{}).Detect(text, brands)

	assert.True(t, result["b1"].Mentioned)
	assert.False(t, result["b1"].Recommended, "the window is taken around the first whole-word match")
}

func TestDetector_CustomPhrases(t *testing.T) {
	detector := NewDetector(Options{Phrases: []string{"  Go-To Option "}})
	brands := []models.Brand{{ID: "b1", Name: "Acme"}}

	assert.True(t, detector.Detect("Acme is the go-to option.", brands)["b1"].Recommended)
	assert.False(t, detector.Detect("Acme is the best.", brands)["b1"].Recommended)
}

func TestDetector_RecommendedImpliesMentioned(t *testing.T) {
	detector := NewDetector(Options{})
	brands := []models.Brand{
		{ID: "b1", Name: "Acme"},
		{ID: "b2", Name: "Globex", Aliases: []string{"Globex Corp"}},
		{ID: "b3", Name: "Initech"},
	}

	texts := []string{
		"",
		"recommend best trusted leading",
		"I recommend Acme over Globex.",
		"Initechnology is the best",
		"Globex Corp is popular; Initech is not.",
	}

	for _, text := range texts {
		for id, d := range detector.Detect(text, brands) {
			if d.Recommended {
				assert.True(t, d.Mentioned, "brand %s in %q", id, text)
			}
		}
	}
}

func TestDetector_Idempotent(t *testing.T) {
	detector := NewDetector(Options{})
	brands := []models.Brand{{ID: "b1", Name: "HubSpot"}, {ID: "b2", Name: "Salesforce"}}
	text := "Salesforce is the industry leader, HubSpot is easy to use."

	first := detector.Detect(text, brands)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, detector.Detect(text, brands))
	}
}

func TestBrandSet_ConcurrentDetect(t *testing.T) {
	set := NewDetector(Options{}).Compile([]models.Brand{{ID: "b1", Name: "Acme"}, {ID: "b2", Name: "Globex"}})

	var wg sync.WaitGroup
	results := make([]map[string]models.Detection, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = set.Detect("Acme is the top choice. Globex is fine.")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Len(t, r, 2)
		assert.True(t, r["b1"].Recommended)
		assert.True(t, r["b2"].Mentioned)
	}
}

func TestBrandSet_MentionedAndRecommended(t *testing.T) {
	set := NewDetector(Options{}).Compile([]models.Brand{
		{ID: "b1", Name: "Acme"},
		{ID: "b2", Name: "Globex"},
		{ID: "b3", Name: "Initech"},
	})

	results := set.Detect("Globex is fine. We recommend Initech.")

	assert.Equal(t, []string{"b2", "b3"}, set.Mentioned(results))
	assert.Equal(t, []string{"b2", "b3"}, set.Recommended(results))
}

func TestDetector_SkipsBlankAliases(t *testing.T) {
	brands := []models.Brand{{ID: "b1", Name: "Acme", Aliases: []string{"", "  "}}}

	result := NewDetector(Options{}).Detect("nothing to see here", brands)

	assert.False(t, result["b1"].Mentioned)
}

func TestContextSentiment(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{name: "Positive content", content: "acme is a great and reliable tool", expected: "positive"},
		{name: "Negative content", content: "acme is expensive and limited", expected: "negative"},
		{name: "Neutral content", content: "acme is a tool", expected: "neutral"},
		{name: "Words inside longer words", content: "acme offers unlimited goods and a badge", expected: "neutral"},
		{name: "Whole word beside a longer one", content: "acme is good, not unlimited", expected: "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, contextSentiment(tt.content))
		})
	}
}

func TestValidate(t *testing.T) {
	brands := []models.Brand{
		{ID: "b1", Name: "Google"},
		{ID: "b2", Name: "Google Cloud"},
		{ID: "b3", Name: "Acme", Aliases: []string{"ACME Corp"}},
		{ID: "b4", Name: "acme"},
	}

	warnings := Validate(brands)

	assert.Contains(t, warnings, `name "google" of brand b1 also matches inside "google cloud" of brand b2`)
	assert.Contains(t, warnings, `brands b3 and b4 share the name "acme"`)
	assert.Empty(t, Validate([]models.Brand{{ID: "b1", Name: "Acme"}, {ID: "b2", Name: "Globex"}}))
}
