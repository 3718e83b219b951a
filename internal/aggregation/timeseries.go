package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// Granularity is the width of a time-series bucket
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity validates a granularity name
func ParseGranularity(value string) (Granularity, error) {
	switch g := Granularity(value); g {
	case Daily, Weekly, Monthly:
		return g, nil
	case "":
		return Weekly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", value)
	}
}

// Bucket is the aggregation of one time period
type Bucket struct {
	Key     time.Time                `json:"key"`
	Label   string                   `json:"label"`
	Results []models.AggregateResult `json:"results"`
}

// BucketStart returns the start of the bucket containing t
func (a *Aggregator) BucketStart(t time.Time, g Granularity) time.Time {
	t = t.In(a.location)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.location)

	switch g {
	case Daily:
		return day
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, a.location)
	default:
		// Weeks start on Sunday.
		return day.AddDate(0, 0, -int(day.Weekday()))
	}
}

// TimeSeries groups facts into buckets and aggregates each bucket independently.
// Buckets are ordered chronologically; periods without facts are omitted.
func (a *Aggregator) TimeSeries(facts []models.MentionFact, brands []models.Brand, filter models.Filter, g Granularity) []Bucket {
	grouped := make(map[time.Time][]models.MentionFact)
	for _, f := range a.Filter(facts, filter) {
		key := a.BucketStart(f.RunAt, g)
		grouped[key] = append(grouped[key], f)
	}

	keys := make([]time.Time, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	buckets := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, Bucket{
			Key:     k,
			Label:   label(k, g),
			Results: rank(count(grouped[k], brands)),
		})
	}

	return buckets
}

func label(t time.Time, g Granularity) string {
	if g == Monthly {
		return t.Format("Jan 2006")
	}
	return t.Format("Jan 2")
}
