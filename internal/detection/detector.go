package detection

import (
	"regexp"
	"strings"

	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/textmatch"
	"github.com/sirupsen/logrus"
)

// DefaultContextWindow is the number of characters inspected on each side of a match
const DefaultContextWindow = 200

// DefaultPhrases are the recommendation signals looked for around a mention
var DefaultPhrases = []string{
	"recommend",
	"suggest",
	"best",
	"top choice",
	"top pick",
	"excellent",
	"great option",
	"great choice",
	"highly rated",
	"popular choice",
	"popular",
	"widely used",
	"industry leader",
	"leading",
	"trusted",
}

// Options tunes the detector. Zero values fall back to the defaults.
type Options struct {
	ContextWindow int
	Phrases       []string
}

// Detector finds brand mentions in AI responses and classifies whether they are recommendations
type Detector struct {
	window  int
	phrases []string
}

// NewDetector creates a new detector
func NewDetector(opts Options) *Detector {
	window := opts.ContextWindow
	if window <= 0 {
		window = DefaultContextWindow
	}

	source := opts.Phrases
	if len(source) == 0 {
		source = DefaultPhrases
	}
	phrases := make([]string, 0, len(source))
	for _, p := range source {
		if p = textmatch.Normalize(p); p != "" {
			phrases = append(phrases, p)
		}
	}

	return &Detector{window: window, phrases: phrases}
}

type candidate struct {
	name    string
	pattern *regexp.Regexp
}

type compiledBrand struct {
	id         string
	candidates []candidate
}

// BrandSet is a brand list with its match patterns compiled once
type BrandSet struct {
	detector *Detector
	brands   []compiledBrand
}

// Compile prepares brands for repeated detection across many responses
func (d *Detector) Compile(brands []models.Brand) *BrandSet {
	set := &BrandSet{detector: d, brands: make([]compiledBrand, 0, len(brands))}

	for _, brand := range brands {
		cb := compiledBrand{id: brand.ID}
		for _, name := range brand.Names() {
			if textmatch.IsBlank(name) {
				continue
			}
			re, err := textmatch.WholeWordPattern(name)
			if err != nil {
				logrus.Warnf("Skipping unmatchable name %q for brand %s: %v", name, brand.ID, err)
				continue
			}
			cb.candidates = append(cb.candidates, candidate{name: textmatch.Normalize(name), pattern: re})
		}
		set.brands = append(set.brands, cb)
	}

	return set
}

// Detect runs detection of brands over a single response text
func (d *Detector) Detect(text string, brands []models.Brand) map[string]models.Detection {
	return d.Compile(brands).Detect(text)
}

// Detect returns one Detection per brand in the set, mentioned or not
func (s *BrandSet) Detect(text string) map[string]models.Detection {
	results := make(map[string]models.Detection, len(s.brands))
	for _, b := range s.brands {
		results[b.id] = models.Detection{}
	}

	if textmatch.IsBlank(text) {
		return results
	}

	lowered := strings.ToLower(text)

	for _, b := range s.brands {
		for _, c := range b.candidates {
			start, end, ok := textmatch.FindWholeWord(c.pattern, lowered)
			if !ok {
				continue
			}

			context := textmatch.Window(lowered, start, end, s.detector.window)
			results[b.id] = models.Detection{
				Mentioned:   true,
				Recommended: textmatch.ContainsAny(context, s.detector.phrases),
				MatchedName: c.name,
				Sentiment:   contextSentiment(context),
			}
			// First matching name wins; other aliases are not counted again.
			break
		}
	}

	return results
}

// Mentioned returns the ids of mentioned brands in set order
func (s *BrandSet) Mentioned(results map[string]models.Detection) []string {
	var ids []string
	for _, b := range s.brands {
		if results[b.id].Mentioned {
			ids = append(ids, b.id)
		}
	}
	return ids
}

// Recommended returns the ids of recommended brands in set order
func (s *BrandSet) Recommended(results map[string]models.Detection) []string {
	var ids []string
	for _, b := range s.brands {
		if results[b.id].Recommended {
			ids = append(ids, b.id)
		}
	}
	return ids
}
