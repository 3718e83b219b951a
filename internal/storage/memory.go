package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
)

type factKey struct {
	responseID string
	brandID    string
}

// MemoryStore is a FactStore held in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	responses map[string]models.Response
	facts     map[factKey]models.MentionFact
}

var _ FactStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		responses: make(map[string]models.Response),
		facts:     make(map[factKey]models.MentionFact),
	}
}

// SaveResponse stores a response. Responses are immutable once saved.
func (m *MemoryStore) SaveResponse(ctx context.Context, resp models.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.responses[resp.ID]; exists {
		return fmt.Errorf("response %s already exists", resp.ID)
	}
	m.responses[resp.ID] = resp
	return nil
}

func (m *MemoryStore) GetResponse(ctx context.Context, id string) (models.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp, ok := m.responses[id]
	if !ok {
		return models.Response{}, fmt.Errorf("response %s: %w", id, ErrNotFound)
	}
	return resp, nil
}

func (m *MemoryStore) ListResponses(ctx context.Context, projectID string, since time.Time) ([]models.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Response
	for _, r := range m.responses {
		if r.ProjectID == projectID && !r.RunAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RunAt.Equal(out[j].RunAt) {
			return out[i].RunAt.Before(out[j].RunAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) UpsertFacts(ctx context.Context, facts []models.MentionFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range facts {
		m.facts[factKey{responseID: f.ResponseID, brandID: f.BrandID}] = f
	}
	return nil
}

func (m *MemoryStore) ListFacts(ctx context.Context, projectID string, filter models.Filter) ([]models.MentionFact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var queryIDs map[string]bool
	if len(filter.QueryIDs) > 0 {
		queryIDs = make(map[string]bool, len(filter.QueryIDs))
		for _, id := range filter.QueryIDs {
			queryIDs[id] = true
		}
	}

	var out []models.MentionFact
	for _, f := range m.facts {
		switch {
		case f.ProjectID != projectID:
		case filter.Provider != nil && f.Provider != *filter.Provider:
		case !filter.From.IsZero() && f.RunAt.Before(filter.From):
		case !filter.To.IsZero() && !f.RunAt.Before(filter.To):
		case queryIDs != nil && !queryIDs[f.QueryID]:
		default:
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.RunAt.Equal(b.RunAt) {
			return a.RunAt.Before(b.RunAt)
		}
		if a.ResponseID != b.ResponseID {
			return a.ResponseID < b.ResponseID
		}
		return a.BrandID < b.BrandID
	})
	return out, nil
}
