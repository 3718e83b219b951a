package providers

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// Fetcher asks AI assistants a question and returns their answers
type Fetcher interface {
	GetName() string
	FetchResponses(ctx context.Context, query string) ([]models.ProviderResponse, error)
}

// Target is a provider/model pair a fetcher queries
type Target struct {
	Provider models.Provider
	Model    string
}

// DefaultTargets are the assistants asked for every query
var DefaultTargets = []Target{
	{Provider: models.ProviderOpenAI, Model: "gpt-4o"},
	{Provider: models.ProviderAnthropic, Model: "claude-3-5-sonnet"},
	{Provider: models.ProviderGoogle, Model: "gemini-pro"},
	{Provider: models.ProviderPerplexity, Model: "pplx-70b-online"},
}

// clean validates raw records at the boundary: unknown providers and empty
// answers are dropped, the order of the rest is kept
func clean(source string, raw []rawResponse) []models.ProviderResponse {
	out := make([]models.ProviderResponse, 0, len(raw))
	for _, r := range raw {
		provider, err := models.ParseProvider(r.provider)
		if err != nil {
			logrus.Warnf("%s: dropping response from %v", source, err)
			continue
		}
		if strings.TrimSpace(r.text) == "" {
			logrus.Debugf("%s: dropping empty %s response (%s)", source, provider, r.status)
			continue
		}
		out = append(out, models.ProviderResponse{
			Provider: provider,
			Model:    r.model,
			Text:     r.text,
			Status:   r.status,
		})
	}
	return out
}

type rawResponse struct {
	provider string
	model    string
	text     string
	status   string
}
