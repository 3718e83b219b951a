package providers

import (
	"context"
)

const searchVolumePath = "/keywords_data/google_ads/search_volume/live"

// KeywordData is search demand for a keyword, used to prioritise queries
type KeywordData struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	UserIntent   string  `json:"user_intent"`
	Competition  string  `json:"competition"`
	CPC          float64 `json:"cpc"`
	Trend        string  `json:"trend"` // "up", "down", "stable"
}

type keywordTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
}

type monthlySearch struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	SearchVolume int `json:"search_volume"`
}

type keywordResponse struct {
	Tasks []struct {
		Data struct {
			Keyword string `json:"keyword"`
		} `json:"data"`
		Result []struct {
			AISearchVolume  int             `json:"ai_search_volume"`
			UserIntent      string          `json:"user_intent"`
			Competition     string          `json:"competition"`
			CPC             float64         `json:"cpc"`
			MonthlySearches []monthlySearch `json:"monthly_searches"`
		} `json:"result"`
	} `json:"tasks"`
}

// KeywordData looks up search volume for each keyword, one task per keyword
func (d *DataForSEO) KeywordData(ctx context.Context, keywords []string) ([]KeywordData, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	tasks := make([]keywordTask, 0, len(keywords))
	for _, k := range keywords {
		tasks = append(tasks, keywordTask{Keyword: k, LocationCode: locationUSA, LanguageCode: languageCode})
	}

	var parsed keywordResponse
	if err := d.post(ctx, searchVolumePath, tasks, &parsed); err != nil {
		return nil, err
	}

	out := make([]KeywordData, 0, len(parsed.Tasks))
	for _, task := range parsed.Tasks {
		kd := KeywordData{
			Keyword:     task.Data.Keyword,
			UserIntent:  "unknown",
			Competition: "unknown",
			Trend:       "stable",
		}
		if len(task.Result) > 0 {
			r := task.Result[0]
			kd.SearchVolume = r.AISearchVolume
			kd.CPC = r.CPC
			if r.UserIntent != "" {
				kd.UserIntent = r.UserIntent
			}
			if r.Competition != "" {
				kd.Competition = r.Competition
			}
			kd.Trend = searchTrend(r.MonthlySearches)
		}
		out = append(out, kd)
	}
	return out, nil
}

// searchTrend compares the average of the last three months with the three before
func searchTrend(months []monthlySearch) string {
	n := len(months)
	if n < 2 {
		return "stable"
	}

	avg := func(from, to int) float64 {
		if from < 0 {
			from = 0
		}
		if to < 0 {
			to = 0
		}
		sum := 0
		for _, m := range months[from:to] {
			sum += m.SearchVolume
		}
		return float64(sum) / 3
	}

	recent := avg(n-3, n)
	older := avg(n-6, n-3)

	switch {
	case recent > older*1.1:
		return "up"
	case recent < older*0.9:
		return "down"
	default:
		return "stable"
	}
}
