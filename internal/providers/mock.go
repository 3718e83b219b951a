package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const mockStatus = "Mock data - DataForSEO API not configured"

const mockAnswer = `Based on your question about "%s", here are my recommendations:

1. **The Points Guy** - One of the most popular resources for credit card and travel rewards advice. They offer comprehensive reviews and comparisons.

2. **NerdWallet** - Great for comparing credit cards side-by-side with detailed breakdowns of fees, rewards, and benefits.

3. **Upgraded Points** - Excellent resource for maximizing travel rewards and finding the best credit card deals.

4. **Bankrate** - Trusted source for credit card reviews with expert analysis.

5. **Credit Karma** - Useful for checking your credit score and getting personalized card recommendations.

I'd recommend starting with The Points Guy or NerdWallet for comprehensive comparisons, and Upgraded Points for travel-specific rewards optimization.`

// Mock returns canned answers without calling any API
type Mock struct{}

var _ Fetcher = Mock{}

func (Mock) GetName() string {
	return "mock"
}

// FetchResponses returns one slightly different answer per default target
func (Mock) FetchResponses(ctx context.Context, query string) ([]models.ProviderResponse, error) {
	base := fmt.Sprintf(mockAnswer, query)

	variants := map[models.Provider]string{
		models.ProviderOpenAI: base,
		models.ProviderAnthropic: strings.Replace(
			strings.Replace(base, "The Points Guy", "Upgraded Points", 1),
			"I'd recommend starting with", "For travel rewards, I'd suggest", 1),
		models.ProviderGoogle: strings.Replace(
			strings.Replace(base, "NerdWallet", "Upgraded Points", 1),
			"comprehensive comparisons", "detailed guides", 1),
		models.ProviderPerplexity: strings.Replace(
			strings.Replace(base, "Credit Karma", "Upgraded Points", 1),
			"personalized", "tailored", 1),
	}

	out := make([]models.ProviderResponse, 0, len(DefaultTargets))
	for _, t := range DefaultTargets {
		out = append(out, models.ProviderResponse{
			Provider: t.Provider,
			Model:    t.Model,
			Text:     variants[t.Provider],
			Status:   mockStatus,
		})
	}
	return out, nil
}
