package suggestions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const DefaultModel = "gpt-4o-mini"

// ErrBrandRequired is returned when a request names no brand
var ErrBrandRequired = errors.New("brand name is required")

// Request describes the brand suggestions are generated for
type Request struct {
	BrandName   string   `json:"brandName"`
	WebsiteURL  string   `json:"websiteUrl,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
}

func (r Request) validate() error {
	if strings.TrimSpace(r.BrandName) == "" {
		return ErrBrandRequired
	}
	return nil
}

// Suggester proposes tracked queries and competitors for a brand.
// Without an OpenAI client it returns fixed templates.
type Suggester struct {
	client *openai.Client
	model  string
}

// New creates a suggester. An empty apiKey selects the template fallback.
func New(apiKey, model string) *Suggester {
	if apiKey == "" {
		return &Suggester{}
	}
	return NewWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewWithConfig creates a suggester from a client configuration
func NewWithConfig(cfg openai.ClientConfig, model string) *Suggester {
	if model == "" {
		model = DefaultModel
	}
	return &Suggester{client: openai.NewClientWithConfig(cfg), model: model}
}

// Keywords suggests natural questions users might ask AI assistants in the brand's space
func (s *Suggester) Keywords(ctx context.Context, req Request) ([]string, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if s.client == nil {
		logrus.Debug("OpenAI API key not configured, returning template keywords")
		return fallbackKeywords(req), nil
	}

	var out struct {
		Keywords []string `json:"keywords"`
	}
	if err := s.complete(ctx, keywordPrompt(req), &out); err != nil {
		return nil, err
	}
	return tidy(out.Keywords), nil
}

// Competitors suggests brands competing directly with the given one
func (s *Suggester) Competitors(ctx context.Context, req Request) ([]string, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if s.client == nil {
		logrus.Debug("OpenAI API key not configured, returning template competitors")
		return fallbackCompetitors(req), nil
	}

	var out struct {
		Competitors []string `json:"competitors"`
	}
	if err := s.complete(ctx, competitorPrompt(req), &out); err != nil {
		return nil, err
	}
	return tidy(out.Competitors), nil
}

// complete asks for a JSON object and decodes it into out
func (s *Suggester) complete(ctx context.Context, prompt string, out interface{}) error {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return nil
}

func keywordPrompt(req Request) string {
	competitors := "N/A"
	if len(req.Competitors) > 0 {
		competitors = strings.Join(req.Competitors, ", ")
	}

	return fmt.Sprintf(`Given this brand and competitors:
Brand: %s
Competitors: %s
Industry: %s

Generate 10 natural questions that users might ask AI assistants (ChatGPT, Claude, Perplexity, Gemini) when looking for recommendations in this space.

These should be questions where the AI might mention or recommend brands like these.

Format as questions like:
- "What's the best X for Y?"
- "X vs Y comparison"
- "Top X tools/products for Y"
- "How to choose a X"
- "Is X worth it?"

Return ONLY a JSON object with a "keywords" array of strings.
Example: {"keywords": ["What's the best CRM for startups?", "HubSpot vs Salesforce comparison"]}`,
		req.BrandName, competitors, orNA(req.Industry))
}

func competitorPrompt(req Request) string {
	return fmt.Sprintf(`Given this brand:
Name: %s
Website: %s
Industry: %s

List 6-8 likely competitors in the same space. These should be real companies/brands that compete directly with this brand.

Return ONLY a JSON object with a "competitors" array of brand name strings, no explanations.
Example: {"competitors": ["Competitor A", "Competitor B", "Competitor C"]}`,
		req.BrandName, orNA(req.WebsiteURL), orNA(req.Industry))
}

func fallbackKeywords(req Request) []string {
	industry := func(def string) string {
		if req.Industry != "" {
			return req.Industry
		}
		return def
	}
	return []string{
		fmt.Sprintf("What is the best %s to use?", industry("product")),
		fmt.Sprintf("%s vs competitors comparison", req.BrandName),
		fmt.Sprintf("Best %s for small businesses", industry("tool")),
		fmt.Sprintf("How to choose a %s", industry("solution")),
		fmt.Sprintf("Top %s ranked", industry("products")),
		fmt.Sprintf("%s alternatives", req.BrandName),
		fmt.Sprintf("Is %s worth it?", req.BrandName),
		fmt.Sprintf("%s review", req.BrandName),
	}
}

func fallbackCompetitors(req Request) []string {
	return []string{
		req.BrandName + " Competitor 1",
		req.BrandName + " Competitor 2",
		req.BrandName + " Competitor 3",
		"Alternative to " + req.BrandName,
		req.BrandName + " Alternative",
	}
}

// tidy trims entries and drops blanks and case-insensitive duplicates
func tidy(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}
