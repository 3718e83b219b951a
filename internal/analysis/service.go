package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/cache"
	"github.com/azure/sov-mentions-bot/internal/catalog"
	"github.com/azure/sov-mentions-bot/internal/config"
	"github.com/azure/sov-mentions-bot/internal/detection"
	"github.com/azure/sov-mentions-bot/internal/metrics"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/notifications"
	"github.com/azure/sov-mentions-bot/internal/providers"
	"github.com/azure/sov-mentions-bot/internal/storage"
)

// ErrQueryNotFound is returned for a query id a project does not define
var ErrQueryNotFound = errors.New("query not found")

// Dependencies are the collaborators of the analysis service
type Dependencies struct {
	Catalog       catalog.Catalog
	Fetcher       providers.Fetcher
	Store         storage.FactStore
	Archive       storage.BlobStore // optional
	Cache         cache.Cache       // optional
	Notifications notifications.NotificationInterface
}

// Service fetches AI responses for tracked queries, detects brand mentions and reports share of voice
type Service struct {
	config              *config.Config
	catalog             catalog.Catalog
	fetcher             providers.Fetcher
	store               storage.FactStore
	archive             storage.BlobStore
	cache               cache.Cache
	notificationService notifications.NotificationInterface
	detector            *detection.Detector
	location            *time.Location
	metrics             *Metrics
	mu                  sync.RWMutex

	now   func() time.Time
	newID func() string
}

// Metrics holds run metrics
type Metrics struct {
	LastRun                 time.Time      `json:"last_run"`
	LastRunDuration         string         `json:"last_run_duration"`
	ProjectsAnalyzed        int            `json:"projects_analyzed"`
	QueriesAnalyzed         int            `json:"queries_analyzed"`
	ResponsesStored         int            `json:"responses_stored"`
	MentionsDetected        int            `json:"mentions_detected"`
	RecommendationsDetected int            `json:"recommendations_detected"`
	ProviderResponses       map[string]int `json:"provider_responses"`
	ErrorCount              int            `json:"error_count"`
	LastShareCheck          time.Time      `json:"last_share_check,omitempty"`
	AlertsSent              int            `json:"alerts_sent"`
}

// NewService creates a new analysis service
func NewService(cfg *config.Config, deps Dependencies) *Service {
	c := deps.Cache
	if c == nil {
		c = cache.Nop{}
	}
	n := deps.Notifications
	if n == nil {
		n = notifications.LogNotifier{}
	}

	return &Service{
		config:              cfg,
		catalog:             deps.Catalog,
		fetcher:             deps.Fetcher,
		store:               deps.Store,
		archive:             deps.Archive,
		cache:               c,
		notificationService: n,
		detector: detection.NewDetector(detection.Options{
			ContextWindow: cfg.ContextWindow,
			Phrases:       cfg.RecommendationPhrases,
		}),
		location: cfg.Location(),
		metrics:  &Metrics{ProviderResponses: make(map[string]int)},
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// projectRun accumulates the outcome of analysing one project
type projectRun struct {
	queries         []string
	responses       int
	mentions        int
	recommendations int
	failed          int
	providers       map[models.Provider]int
}

// queryResult is the outcome of one query fetch
type queryResult struct {
	queryID    string
	detections []ResponseDetection
	err        error
}

// ResponseDetection is a stored response with the brands found in it
type ResponseDetection struct {
	Response    models.Response `json:"response"`
	Mentioned   []string        `json:"mentioned"`
	Recommended []string        `json:"recommended"`
}

// RunAnalysis runs every active query of every project and sends the reports
func (s *Service) RunAnalysis(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting analysis run")

	projects, err := s.projects(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("analysis", "error").Inc()
		return err
	}

	var (
		errs   []error
		totals = projectRun{providers: make(map[models.Provider]int)}
		done   int
	)

	for _, projectID := range projects {
		run, err := s.analyzeProject(ctx, projectID)
		if run != nil {
			// Stored responses count even when the report could not be delivered.
			totals.merge(run)
		}
		if err != nil {
			logrus.WithField("project", projectID).Errorf("Analysis failed: %v", err)
			errs = append(errs, fmt.Errorf("project %s: %w", projectID, err))
			continue
		}
		if run != nil {
			done++
		}
	}

	s.updateMetrics(totals, done, s.now().Sub(start), len(errs))
	metrics.RunDuration.WithLabelValues("analysis").Observe(s.now().Sub(start).Seconds())

	if len(errs) > 0 {
		metrics.RunsTotal.WithLabelValues("analysis", "error").Inc()
		return errors.Join(errs...)
	}

	metrics.RunsTotal.WithLabelValues("analysis", "success").Inc()
	logrus.Infof("Analysis run completed in %v: %d projects, %d responses", s.now().Sub(start), done, totals.responses)
	return nil
}

func (s *Service) projects(ctx context.Context) ([]string, error) {
	if len(s.config.ProjectIDs) > 0 {
		return s.config.ProjectIDs, nil
	}
	projects, err := s.catalog.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// analyzeProject returns nil without error when the project has nothing to analyse.
// Once queries have run, the run is returned even alongside an error.
func (s *Service) analyzeProject(ctx context.Context, projectID string) (*projectRun, error) {
	log := logrus.WithField("project", projectID)

	brands, queries, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	active := catalog.ActiveQueries(queries)
	if len(brands) == 0 || len(active) == 0 {
		log.Infof("Skipping project with %d brands and %d active queries", len(brands), len(active))
		return nil, nil
	}

	log.Infof("Analysing %d queries for %d brands", len(active), len(brands))
	run := s.runQueries(ctx, projectID, brands, active)

	if err := s.cache.Invalidate(ctx, projectID); err != nil {
		log.Warnf("Failed to invalidate aggregate cache: %v", err)
	}

	report, err := s.GenerateReport(ctx, projectID)
	if err != nil {
		return run, fmt.Errorf("failed to generate report: %w", err)
	}
	report.FailedQueries = run.failed
	report.AnalyzedQueryIDs = run.queries

	if s.archive != nil {
		name, err := storage.ArchiveReport(ctx, s.archive, report)
		if err != nil {
			log.Errorf("Failed to archive report: %v", err)
		} else {
			log.Infof("Archived report as %s", name)
		}
	}

	if err := s.notificationService.SendReport(ctx, report); err != nil {
		return run, fmt.Errorf("failed to send report: %w", err)
	}

	return run, nil
}

func (s *Service) load(ctx context.Context, projectID string) ([]models.Brand, []models.Query, error) {
	brands, err := s.catalog.Brands(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load brands: %w", err)
	}
	queries, err := s.catalog.Queries(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return brands, queries, nil
}

// runQueries fans the queries out over at most AnalysisWorkers goroutines
func (s *Service) runQueries(ctx context.Context, projectID string, brands []models.Brand, queries []models.Query) *projectRun {
	set := s.detector.Compile(brands)
	runAt := s.now()

	workers := s.config.AnalysisWorkers
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	resultsChan := make(chan queryResult, len(queries))

	for _, query := range queries {
		wg.Add(1)
		go func(q models.Query) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			detections, err := s.analyzeQuery(ctx, projectID, q, set, runAt)
			resultsChan <- queryResult{queryID: q.ID, detections: detections, err: err}
		}(query)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	run := &projectRun{providers: make(map[models.Provider]int)}
	byQuery := make(map[string]bool, len(queries))
	for result := range resultsChan {
		if result.err != nil {
			logrus.WithFields(logrus.Fields{"project": projectID, "query": result.queryID}).Errorf("Query failed: %v", result.err)
			metrics.FetchErrors.WithLabelValues(projectID).Inc()
			run.failed++
		}
		// A query that failed part way still contributes the facts it stored.
		if len(result.detections) > 0 {
			byQuery[result.queryID] = true
			run.add(result.detections)
		}
	}

	// Keep catalog order for the report.
	for _, q := range queries {
		if byQuery[q.ID] {
			run.queries = append(run.queries, q.ID)
		}
	}

	return run
}

// analyzeQuery fetches, stores and detects one query. On a storage error the detections
// of the responses already stored are returned with it.
func (s *Service) analyzeQuery(ctx context.Context, projectID string, query models.Query, set *detection.BrandSet, runAt time.Time) ([]ResponseDetection, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout())
	defer cancel()

	answers, err := s.fetcher.FetchResponses(fetchCtx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s failed: %w", s.fetcher.GetName(), err)
	}

	detections := make([]ResponseDetection, 0, len(answers))
	for _, answer := range answers {
		resp := models.Response{
			ID:        s.newID(),
			QueryID:   query.ID,
			ProjectID: projectID,
			Provider:  answer.Provider,
			Model:     answer.Model,
			Text:      answer.Text,
			RunAt:     runAt,
		}
		if err := s.store.SaveResponse(ctx, resp); err != nil {
			return detections, err
		}
		metrics.ResponsesFetched.WithLabelValues(string(resp.Provider)).Inc()

		rd, err := s.detect(ctx, set, resp)
		if err != nil {
			return detections, err
		}
		detections = append(detections, rd)
	}

	return detections, nil
}

// detect runs the brand set over a stored response and upserts its facts
func (s *Service) detect(ctx context.Context, set *detection.BrandSet, resp models.Response) (ResponseDetection, error) {
	results := set.Detect(resp.Text)

	facts := make([]models.MentionFact, 0, len(results))
	for brandID, d := range results {
		facts = append(facts, models.NewMentionFact(resp, brandID, d))
		if d.Mentioned {
			metrics.MentionsDetected.WithLabelValues(resp.ProjectID, brandID, fmt.Sprintf("%t", d.Recommended)).Inc()
		}
	}

	if err := s.store.UpsertFacts(ctx, facts); err != nil {
		return ResponseDetection{}, fmt.Errorf("failed to store facts for response %s: %w", resp.ID, err)
	}

	return ResponseDetection{
		Response:    resp,
		Mentioned:   set.Mentioned(results),
		Recommended: set.Recommended(results),
	}, nil
}

func (s *Service) fetchTimeout() time.Duration {
	if s.config.FetchTimeout > 0 {
		return s.config.FetchTimeout
	}
	return 2 * time.Minute
}

func (r *projectRun) add(detections []ResponseDetection) {
	for _, d := range detections {
		r.responses++
		r.mentions += len(d.Mentioned)
		r.recommendations += len(d.Recommended)
		r.providers[d.Response.Provider]++
	}
}

func (r *projectRun) merge(other *projectRun) {
	r.queries = append(r.queries, other.queries...)
	r.responses += other.responses
	r.mentions += other.mentions
	r.recommendations += other.recommendations
	r.failed += other.failed
	for p, n := range other.providers {
		r.providers[p] += n
	}
}

func (s *Service) updateMetrics(run projectRun, projects int, duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.ProjectsAnalyzed = projects
	s.metrics.QueriesAnalyzed = len(run.queries)
	s.metrics.ResponsesStored = run.responses
	s.metrics.MentionsDetected = run.mentions
	s.metrics.RecommendationsDetected = run.recommendations
	s.metrics.ErrorCount = errorCount + run.failed

	s.metrics.ProviderResponses = make(map[string]int)
	for p, n := range run.providers {
		s.metrics.ProviderResponses[string(p)] = n
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
