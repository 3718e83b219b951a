package models

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies the AI assistant platform that produced a response
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderPerplexity Provider = "perplexity"
)

// AllProviders lists the supported providers in display order
var AllProviders = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderPerplexity}

// ParseProvider normalises a provider name and rejects unknown values
func ParseProvider(value string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range AllProviders {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", value)
}

// Brand is a tracked brand, either the project's own or a competitor
type Brand struct {
	ID           string    `json:"id" yaml:"id"`
	ProjectID    string    `json:"project_id" yaml:"-"`
	Name         string    `json:"name" yaml:"name"`
	Aliases      []string  `json:"aliases,omitempty" yaml:"aliases"`
	IsCompetitor bool      `json:"is_competitor" yaml:"competitor"`
	Website      string    `json:"website,omitempty" yaml:"website"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// Names returns the canonical name followed by its aliases
func (b Brand) Names() []string {
	names := make([]string, 0, len(b.Aliases)+1)
	names = append(names, b.Name)
	return append(names, b.Aliases...)
}

// Query is a natural-language question asked to every provider
type Query struct {
	ID        string    `json:"id" yaml:"id"`
	ProjectID string    `json:"project_id" yaml:"-"`
	Text      string    `json:"text" yaml:"text"`
	Category  string    `json:"category,omitempty" yaml:"category"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags"`
	IsActive  bool      `json:"is_active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// HasAnyTag reports whether the query carries at least one of the given tags
func (q Query) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range q.Tags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// ProviderResponse is a raw answer as returned by the fetch collaborator
type ProviderResponse struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
	Text     string   `json:"response"`
	Status   string   `json:"status"`
}

// Response is one provider's answer to one query at one point in time
type Response struct {
	ID        string    `json:"id"`
	QueryID   string    `json:"query_id"`
	ProjectID string    `json:"project_id"`
	Provider  Provider  `json:"provider"`
	Model     string    `json:"model"`
	Text      string    `json:"response_text"`
	RunAt     time.Time `json:"run_at"`
}

// Detection is the detector's verdict for one brand in one response
type Detection struct {
	Mentioned   bool   `json:"mentioned"`
	Recommended bool   `json:"recommended"`
	MatchedName string `json:"matched_name,omitempty"`
	Sentiment   string `json:"sentiment,omitempty"`
}

// MentionFact is the persisted detection result for a (response, brand) pair
type MentionFact struct {
	ResponseID  string    `json:"response_id"`
	BrandID     string    `json:"brand_id"`
	QueryID     string    `json:"query_id"`
	ProjectID   string    `json:"project_id"`
	Provider    Provider  `json:"provider"`
	RunAt       time.Time `json:"run_at"`
	Mentioned   bool      `json:"mentioned"`
	Recommended bool      `json:"recommended"`
	Sentiment   string    `json:"sentiment,omitempty"`
}

// NewMentionFact builds the fact for a brand's detection in a response
func NewMentionFact(resp Response, brandID string, d Detection) MentionFact {
	return MentionFact{
		ResponseID:  resp.ID,
		BrandID:     brandID,
		QueryID:     resp.QueryID,
		ProjectID:   resp.ProjectID,
		Provider:    resp.Provider,
		RunAt:       resp.RunAt,
		Mentioned:   d.Mentioned || d.Recommended,
		Recommended: d.Recommended,
		Sentiment:   d.Sentiment,
	}
}

// Filter restricts the facts considered by an aggregation. Zero fields impose no restriction.
type Filter struct {
	Provider *Provider `json:"provider,omitempty"`
	Tags     []string  `json:"tags,omitempty"`
	Category string    `json:"category,omitempty"`
	From     time.Time `json:"from,omitempty"`
	To       time.Time `json:"to,omitempty"`
	QueryIDs []string  `json:"query_ids,omitempty"`
}

// AggregateResult is one brand's row in a share-of-voice table
type AggregateResult struct {
	BrandID             string  `json:"brand_id"`
	BrandName           string  `json:"brand"`
	IsCompetitor        bool    `json:"is_competitor"`
	MentionCount        int     `json:"mentions"`
	RecommendCount      int     `json:"recommendations"`
	SOVPercent          float64 `json:"sov"`
	RecommendSOVPercent float64 `json:"recommend_sov"`
	Rank                int     `json:"rank"`
}

// Report represents a periodic share-of-voice report
type Report struct {
	ProjectID        string             `json:"project_id"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Period           string             `json:"period"` // "daily" or "weekly"
	TotalResponses   int                `json:"total_responses"`
	TotalMentions    int                `json:"total_mentions"`
	OwnShare         float64            `json:"own_share"`
	CompetitorShare  float64            `json:"competitor_share"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
	FailedQueries    int                `json:"failed_queries"`
	AnalyzedQueryIDs []string           `json:"analyzed_query_ids,omitempty"`
}

// LeaderboardEntry is an AggregateResult with its movement versus the previous period
type LeaderboardEntry struct {
	AggregateResult
	TotalResponses int     `json:"total_responses"`
	Trend          string  `json:"trend"` // "up", "down", "flat"
	TrendDelta     float64 `json:"trend_delta"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	BrandID   string    `json:"brand_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
