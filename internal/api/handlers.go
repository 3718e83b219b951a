package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/azure/sov-mentions-bot/internal/aggregation"
	"github.com/azure/sov-mentions-bot/internal/analysis"
	"github.com/azure/sov-mentions-bot/internal/catalog"
	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/providers"
	"github.com/azure/sov-mentions-bot/internal/storage"
	"github.com/azure/sov-mentions-bot/internal/suggestions"
)

const defaultLeaderboardDays = 7

// Analyzer is the analysis surface served over HTTP
type Analyzer interface {
	RunAnalysis(ctx context.Context) error
	RunQuery(ctx context.Context, projectID, queryID string) (*analysis.QueryRun, error)
	Reanalyze(ctx context.Context, projectID string) (int, error)
	ShareOfVoice(ctx context.Context, projectID string, filter models.Filter) (*analysis.ShareOfVoice, error)
	Trends(ctx context.Context, projectID string, filter models.Filter, g aggregation.Granularity) ([]aggregation.Bucket, error)
	Leaderboard(ctx context.Context, projectID string, days int) ([]models.LeaderboardEntry, error)
	QueryBreakdown(ctx context.Context, projectID string, filter models.Filter) ([]aggregation.QueryBreakdown, error)
	Response(ctx context.Context, projectID, responseID string) (*analysis.ResponseDetection, error)
	LatestReport(ctx context.Context, projectID string) (*models.Report, error)
	GetMetrics() string
}

// Suggester proposes queries and competitors for a brand
type Suggester interface {
	Keywords(ctx context.Context, req suggestions.Request) ([]string, error)
	Competitors(ctx context.Context, req suggestions.Request) ([]string, error)
}

// KeywordSource looks up search demand for keywords
type KeywordSource interface {
	KeywordData(ctx context.Context, keywords []string) ([]providers.KeywordData, error)
}

var (
	_ Analyzer      = (*analysis.Service)(nil)
	_ Suggester     = (*suggestions.Suggester)(nil)
	_ KeywordSource = (*providers.DataForSEO)(nil)
)

// Handler serves the bot's HTTP API
type Handler struct {
	analyzer  Analyzer
	suggester Suggester
	keywords  KeywordSource
	location  *time.Location
}

// NewHandler creates the API handler. keywords may be nil when DataForSEO is not configured.
// Date-only query parameters are read in loc.
func NewHandler(analyzer Analyzer, suggester Suggester, keywords KeywordSource, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{analyzer: analyzer, suggester: suggester, keywords: keywords, location: loc}
}

// Router returns a router with every route registered
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the API routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/metrics", h.Metrics).Methods("GET")
	r.Handle("/metrics/prometheus", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/trigger", h.Trigger).Methods("POST")

	// Project routes are registered on r itself so a wrong method yields 405.
	r.HandleFunc("/api/projects/{project}/queries/breakdown", h.QueryBreakdown).Methods("GET")
	r.HandleFunc("/api/projects/{project}/queries/{query}/run", h.RunQuery).Methods("POST")
	r.HandleFunc("/api/projects/{project}/responses/{response}", h.Response).Methods("GET")
	r.HandleFunc("/api/projects/{project}/reanalyze", h.Reanalyze).Methods("POST")
	r.HandleFunc("/api/projects/{project}/reports/latest", h.LatestReport).Methods("GET")
	r.HandleFunc("/api/projects/{project}/sov", h.ShareOfVoice).Methods("GET")
	r.HandleFunc("/api/projects/{project}/trends", h.Trends).Methods("GET")
	r.HandleFunc("/api/projects/{project}/leaderboard", h.Leaderboard).Methods("GET")

	r.HandleFunc("/api/suggestions/keywords", h.SuggestKeywords).Methods("POST")
	r.HandleFunc("/api/suggestions/competitors", h.SuggestCompetitors).Methods("POST")
	r.HandleFunc("/api/keywords/volume", h.KeywordVolume).Methods("POST")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.analyzer.GetMetrics()))
}

// Trigger starts a full analysis run in the background
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.analyzer.RunAnalysis(ctx); err != nil {
			logrus.Errorf("Manual analysis trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Analysis triggered successfully"})
}

func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	run, err := h.analyzer.RunQuery(r.Context(), vars["project"], vars["query"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["project"]
	n, err := h.analyzer.Reanalyze(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"project_id": projectID, "responses": n})
}

// Response returns a stored response with the brands the current catalog finds in it
func (h *Handler) Response(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rd, err := h.analyzer.Response(r.Context(), vars["project"], vars["response"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyzer.LatestReport(r.Context(), mux.Vars(r)["project"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ShareOfVoice(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query(), h.location)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.analyzer.ShareOfVoice(r.Context(), mux.Vars(r)["project"], filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseFilter(q, h.location)
	if err != nil {
		writeError(w, err)
		return
	}

	g := aggregation.Weekly
	if value := q.Get("granularity"); value != "" {
		if g, err = aggregation.ParseGranularity(value); err != nil {
			writeError(w, badRequest(err))
			return
		}
	}

	buckets, err := h.analyzer.Trends(r.Context(), mux.Vars(r)["project"], filter, g)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"granularity": g, "buckets": buckets})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	days := defaultLeaderboardDays
	if value := r.URL.Query().Get("days"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			writeError(w, badRequestf("days must be a positive integer, got %q", value))
			return
		}
		days = n
	}

	entries, err := h.analyzer.Leaderboard(r.Context(), mux.Vars(r)["project"], days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days, "leaderboard": entries})
}

func (h *Handler) QueryBreakdown(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query(), h.location)
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown, err := h.analyzer.QueryBreakdown(r.Context(), mux.Vars(r)["project"], filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queries": breakdown})
}

func (h *Handler) SuggestKeywords(w http.ResponseWriter, r *http.Request) {
	var req suggestions.Request
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	keywords, err := h.suggester.Keywords(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keywords": keywords})
}

func (h *Handler) SuggestCompetitors(w http.ResponseWriter, r *http.Request) {
	var req suggestions.Request
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	competitors, err := h.suggester.Competitors(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"competitors": competitors})
}

func (h *Handler) KeywordVolume(w http.ResponseWriter, r *http.Request) {
	if h.keywords == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "keyword data requires DataForSEO credentials"})
		return
	}

	var req struct {
		Keywords []string `json:"keywords"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Keywords) == 0 {
		writeError(w, badRequestf("keywords are required"))
		return
	}

	data, err := h.keywords.KeywordData(r.Context(), req.Keywords)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]providers.KeywordData{"keywords": data})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var bad *requestError
	switch {
	case errors.As(err, &bad), errors.Is(err, suggestions.ErrBrandRequired):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrProjectNotFound), errors.Is(err, analysis.ErrQueryNotFound),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	default:
		logrus.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func decode(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return badRequestf("invalid request body: %v", err)
	}
	return nil
}
