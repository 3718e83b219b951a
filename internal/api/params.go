package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const dateLayout = "2006-01-02"

// requestError marks a client mistake
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func badRequestf(format string, args ...interface{}) error {
	return badRequest(fmt.Errorf(format, args...))
}

// parseFilter reads provider, tags, category, query, from and to parameters.
// A date-only "to" includes the whole day.
func parseFilter(q url.Values, loc *time.Location) (models.Filter, error) {
	var filter models.Filter

	if value := q.Get("provider"); value != "" {
		p, err := models.ParseProvider(value)
		if err != nil {
			return filter, badRequest(err)
		}
		filter.Provider = &p
	}

	filter.Tags = splitList(q["tags"])
	filter.QueryIDs = splitList(q["query"])
	filter.Category = strings.TrimSpace(q.Get("category"))

	var err error
	if filter.From, err = parseTime(q.Get("from"), loc, false); err != nil {
		return filter, badRequestf("invalid from: %v", err)
	}
	if filter.To, err = parseTime(q.Get("to"), loc, true); err != nil {
		return filter, badRequestf("invalid to: %v", err)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, badRequestf("from must be before to")
	}

	return filter, nil
}

// parseTime accepts YYYY-MM-DD or RFC3339. endOfDay moves date-only values to the next midnight.
func parseTime(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", value)
	}
	return t, nil
}

// splitList accepts repeated and comma-separated values
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
