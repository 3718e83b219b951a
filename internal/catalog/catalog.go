package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/azure/sov-mentions-bot/internal/detection"
	"github.com/azure/sov-mentions-bot/internal/models"
)

// ErrProjectNotFound is returned for a project id the catalog does not know
var ErrProjectNotFound = errors.New("project not found")

// Catalog provides the brands and queries tracked for each project
type Catalog interface {
	Projects(ctx context.Context) ([]string, error)
	Brands(ctx context.Context, projectID string) ([]models.Brand, error)
	Queries(ctx context.Context, projectID string) ([]models.Query, error)
}

// Project is one project entry of a catalog file
type Project struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Brands  []models.Brand `yaml:"brands"`
	Queries []models.Query `yaml:"queries"`
}

type file struct {
	Projects []Project `yaml:"projects"`
}

// Static is an in-memory catalog, usually loaded from a YAML file
type Static struct {
	mu       sync.RWMutex
	projects map[string]Project
}

var _ Catalog = (*Static)(nil)

// NewStatic builds a catalog from project definitions
func NewStatic(projects []Project) (*Static, error) {
	byID := make(map[string]Project, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project without id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project %s", p.ID)
		}

		brandIDs := make(map[string]bool, len(p.Brands))
		for i := range p.Brands {
			b := &p.Brands[i]
			if b.ID == "" || b.Name == "" {
				return nil, fmt.Errorf("project %s: brand %d needs an id and a name", p.ID, i)
			}
			if brandIDs[b.ID] {
				return nil, fmt.Errorf("project %s: duplicate brand %s", p.ID, b.ID)
			}
			brandIDs[b.ID] = true
			b.ProjectID = p.ID
		}

		queryIDs := make(map[string]bool, len(p.Queries))
		for i := range p.Queries {
			q := &p.Queries[i]
			if q.ID == "" || q.Text == "" {
				return nil, fmt.Errorf("project %s: query %d needs an id and a text", p.ID, i)
			}
			if queryIDs[q.ID] {
				return nil, fmt.Errorf("project %s: duplicate query %s", p.ID, q.ID)
			}
			queryIDs[q.ID] = true
			q.ProjectID = p.ID
		}

		for _, warning := range detection.Validate(p.Brands) {
			logrus.WithField("project", p.ID).Warn(warning)
		}

		byID[p.ID] = p
	}

	return &Static{projects: byID}, nil
}

// LoadFile reads a YAML catalog file
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document
func Parse(data []byte) (*Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return NewStatic(f.Projects)
}

// Projects returns the project ids in sorted order
func (s *Static) Projects(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Brands returns a copy of the project's brands in file order
func (s *Static) Brands(ctx context.Context, projectID string) ([]models.Brand, error) {
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.Brand(nil), p.Brands...), nil
}

// Queries returns a copy of all of the project's queries, active or not
func (s *Static) Queries(ctx context.Context, projectID string) ([]models.Query, error) {
	p, err := s.project(projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.Query(nil), p.Queries...), nil
}

// SetBrands replaces the brand set of a project
func (s *Static) SetBrands(projectID string, brands []models.Brand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("%s: %w", projectID, ErrProjectNotFound)
	}
	for i := range brands {
		brands[i].ProjectID = projectID
	}
	p.Brands = brands
	s.projects[projectID] = p
	return nil
}

func (s *Static) project(projectID string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return Project{}, fmt.Errorf("%s: %w", projectID, ErrProjectNotFound)
	}
	return p, nil
}

// ActiveQueries keeps only the queries included in scheduled runs
func ActiveQueries(queries []models.Query) []models.Query {
	var active []models.Query
	for _, q := range queries {
		if q.IsActive {
			active = append(active, q)
		}
	}
	return active
}
