package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const (
	DefaultDataForSEOURL = "https://api.dataforseo.com/v3"

	liveResponsesPath = "/content_analysis/ai_responses/live"
	userDataPath      = "/appendix/user_data"

	statusOK = 20000

	languageCode = "en"
	locationUSA  = 2840
)

// DataForSEO fetches assistant answers through the DataForSEO AI responses API
type DataForSEO struct {
	client  *resty.Client
	targets []Target
}

var _ Fetcher = (*DataForSEO)(nil)

type dataForSEOTask struct {
	AIPlatform   string `json:"ai_platform"`
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	LanguageCode string `json:"language_code"`
	LocationCode int    `json:"location_code"`
}

type dataForSEOResponse struct {
	Cost  float64 `json:"cost"`
	Tasks []struct {
		ID            string `json:"id"`
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
		Data          struct {
			AIPlatform string `json:"ai_platform"`
			Model      string `json:"model"`
		} `json:"data"`
		Result []struct {
			ResponseText string `json:"response_text"`
		} `json:"result"`
	} `json:"tasks"`
}

// NewDataForSEO creates a client for baseURL authenticated with login and password
func NewDataForSEO(baseURL, login, password string, targets []Target) (*DataForSEO, error) {
	if login == "" || password == "" {
		return nil, fmt.Errorf("DataForSEO credentials not configured, set DATAFORSEO_LOGIN and DATAFORSEO_PASSWORD")
	}
	if baseURL == "" {
		baseURL = DefaultDataForSEOURL
	}
	if len(targets) == 0 {
		targets = DefaultTargets
	}

	return &DataForSEO{
		client: resty.New().
			SetBaseURL(baseURL).
			SetBasicAuth(login, password).
			SetTimeout(120 * time.Second).
			SetHeader("User-Agent", "SOV-Mentions-Bot/1.0"),
		targets: targets,
	}, nil
}

func (d *DataForSEO) GetName() string {
	return "dataforseo"
}

// FetchResponses posts one live task per target and returns the answers in task order
func (d *DataForSEO) FetchResponses(ctx context.Context, query string) ([]models.ProviderResponse, error) {
	tasks := make([]dataForSEOTask, 0, len(d.targets))
	for _, t := range d.targets {
		tasks = append(tasks, dataForSEOTask{
			AIPlatform:   string(t.Provider),
			Model:        t.Model,
			Prompt:       query,
			LanguageCode: languageCode,
			LocationCode: locationUSA,
		})
	}

	var parsed dataForSEOResponse
	if err := d.post(ctx, liveResponsesPath, tasks, &parsed); err != nil {
		return nil, err
	}

	raw := make([]rawResponse, 0, len(parsed.Tasks))
	for _, task := range parsed.Tasks {
		r := rawResponse{
			provider: task.Data.AIPlatform,
			model:    task.Data.Model,
			status:   task.StatusMessage,
		}
		if len(task.Result) > 0 {
			r.text = task.Result[0].ResponseText
		}
		raw = append(raw, r)
	}

	return clean(d.GetName(), raw), nil
}

// FetchSingle asks one provider/model pair
func (d *DataForSEO) FetchSingle(ctx context.Context, query string, target Target) (*models.ProviderResponse, error) {
	single := &DataForSEO{client: d.client, targets: []Target{target}}
	responses, err := single.FetchResponses(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("no %s response for query", target.Provider)
	}
	return &responses[0], nil
}

// post sends tasks to path and decodes the body into out once the API status is confirmed
func (d *DataForSEO) post(ctx context.Context, path string, tasks interface{}, out interface{}) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(tasks).
		Post(path)
	if err != nil {
		return fmt.Errorf("DataForSEO request failed: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("DataForSEO API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var envelope struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("failed to parse DataForSEO response: %w", err)
	}
	if envelope.StatusCode != statusOK {
		return fmt.Errorf("DataForSEO API error %d: %s", envelope.StatusCode, envelope.StatusMessage)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse DataForSEO response: %w", err)
	}
	return nil
}

// Ping checks the credentials against the user data endpoint
func (d *DataForSEO) Ping(ctx context.Context) error {
	resp, err := d.client.R().SetContext(ctx).Get(userDataPath)
	if err != nil {
		return fmt.Errorf("DataForSEO request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("DataForSEO API returned status %d", resp.StatusCode())
	}
	return nil
}
