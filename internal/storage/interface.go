package storage

import (
	"context"
	"errors"
	"time"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// ErrNotFound is returned when a requested record or blob does not exist
var ErrNotFound = errors.New("not found")

// BlobStore defines the contract for archiving report documents
type BlobStore interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// FactStore persists provider responses and the mention facts detected in them
type FactStore interface {
	SaveResponse(ctx context.Context, resp models.Response) error
	GetResponse(ctx context.Context, id string) (models.Response, error)
	ListResponses(ctx context.Context, projectID string, since time.Time) ([]models.Response, error)

	// UpsertFacts inserts or replaces facts keyed by (response id, brand id)
	UpsertFacts(ctx context.Context, facts []models.MentionFact) error

	// ListFacts returns a project's facts ordered by run time. Provider, date range
	// and query id restrictions of filter are applied; tags and category are not.
	ListFacts(ctx context.Context, projectID string, filter models.Filter) ([]models.MentionFact, error)
}
