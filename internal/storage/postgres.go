package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL,
	query_id      TEXT NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL DEFAULT '',
	response_text TEXT NOT NULL,
	run_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS responses_project_run_at ON responses (project_id, run_at);

CREATE TABLE IF NOT EXISTS mention_facts (
	response_id TEXT NOT NULL REFERENCES responses (id),
	brand_id    TEXT NOT NULL,
	query_id    TEXT NOT NULL,
	project_id  TEXT NOT NULL,
	provider    TEXT NOT NULL,
	run_at      TIMESTAMPTZ NOT NULL,
	mentioned   BOOLEAN NOT NULL,
	recommended BOOLEAN NOT NULL,
	sentiment   TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (response_id, brand_id)
);
CREATE INDEX IF NOT EXISTS mention_facts_project_run_at ON mention_facts (project_id, run_at);
`

const upsertFact = `
INSERT INTO mention_facts (response_id, brand_id, query_id, project_id, provider, run_at, mentioned, recommended, sentiment)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (response_id, brand_id) DO UPDATE SET
	mentioned = EXCLUDED.mentioned,
	recommended = EXCLUDED.recommended,
	sentiment = EXCLUDED.sentiment`

// PostgresStore is a FactStore backed by PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

var _ FactStore = (*PostgresStore)(nil)

// OpenPostgres connects to the database at dsn with the lib/pq driver
func OpenPostgres(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping tests the database connection
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) SaveResponse(ctx context.Context, resp models.Response) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO responses (id, project_id, query_id, provider, model, response_text, run_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		resp.ID, resp.ProjectID, resp.QueryID, string(resp.Provider), resp.Model, resp.Text, resp.RunAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save response %s: %w", resp.ID, err)
	}
	return nil
}

func (p *PostgresStore) GetResponse(ctx context.Context, id string) (models.Response, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, project_id, query_id, provider, model, response_text, run_at FROM responses WHERE id = $1`, id)

	resp, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Response{}, fmt.Errorf("response %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to load response %s: %w", id, err)
	}
	return resp, nil
}

func (p *PostgresStore) ListResponses(ctx context.Context, projectID string, since time.Time) ([]models.Response, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, project_id, query_id, provider, model, response_text, run_at FROM responses
		 WHERE project_id = $1 AND run_at >= $2 ORDER BY run_at, id`, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var out []models.Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// UpsertFacts writes all facts in one transaction
func (p *PostgresStore) UpsertFacts(ctx context.Context, facts []models.MentionFact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, f := range facts {
		_, err := tx.ExecContext(ctx, upsertFact,
			f.ResponseID, f.BrandID, f.QueryID, f.ProjectID, string(f.Provider), f.RunAt,
			f.Mentioned, f.Recommended, f.Sentiment,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert fact %s/%s: %w", f.ResponseID, f.BrandID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit facts: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListFacts(ctx context.Context, projectID string, filter models.Filter) ([]models.MentionFact, error) {
	query, args := factsQuery(projectID, filter)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var out []models.MentionFact
	for rows.Next() {
		var (
			f        models.MentionFact
			provider string
		)
		if err := rows.Scan(&f.ResponseID, &f.BrandID, &f.QueryID, &f.ProjectID, &provider, &f.RunAt,
			&f.Mentioned, &f.Recommended, &f.Sentiment); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		f.Provider = models.Provider(provider)
		out = append(out, f)
	}
	return out, rows.Err()
}

func factsQuery(projectID string, filter models.Filter) (string, []interface{}) {
	conditions := []string{"project_id = $1"}
	args := []interface{}{projectID}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Provider != nil {
		add("provider = $%d", string(*filter.Provider))
	}
	if !filter.From.IsZero() {
		add("run_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("run_at < $%d", filter.To)
	}
	if len(filter.QueryIDs) > 0 {
		add("query_id = ANY($%d)", pq.Array(filter.QueryIDs))
	}

	query := `SELECT response_id, brand_id, query_id, project_id, provider, run_at, mentioned, recommended, sentiment
		FROM mention_facts WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY run_at, response_id, brand_id`
	return query, args
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResponse(row scanner) (models.Response, error) {
	var (
		resp     models.Response
		provider string
	)
	if err := row.Scan(&resp.ID, &resp.ProjectID, &resp.QueryID, &provider, &resp.Model, &resp.Text, &resp.RunAt); err != nil {
		return models.Response{}, err
	}
	resp.Provider = models.Provider(provider)
	return resp, nil
}
