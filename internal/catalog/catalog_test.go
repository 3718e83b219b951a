package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/sov-mentions-bot/internal/models"
)

const sampleCatalog = `
projects:
  - id: cards
    name: Travel cards
    brands:
      - id: tpg
        name: The Points Guy
        aliases: [TPG, thepointsguy]
      - id: nerdwallet
        name: NerdWallet
        competitor: true
        website: https://www.nerdwallet.com
    queries:
      - id: q1
        text: best travel credit card
        category: Travel
        tags: [cards, travel]
        active: true
      - id: q2
        text: best cashback card
        tags: [cards]
        active: false
  - id: crm
    brands:
      - id: hubspot
        name: HubSpot
    queries: []
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	ctx := context.Background()

	projects, err := c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cards", "crm"}, projects)

	brands, err := c.Brands(ctx, "cards")
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "The Points Guy", brands[0].Name)
	assert.Equal(t, []string{"TPG", "thepointsguy"}, brands[0].Aliases)
	assert.False(t, brands[0].IsCompetitor)
	assert.True(t, brands[1].IsCompetitor)
	assert.Equal(t, "cards", brands[1].ProjectID)

	queries, err := c.Queries(ctx, "cards")
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "Travel", queries[0].Category)
	assert.Equal(t, []string{"cards", "travel"}, queries[0].Tags)

	active := ActiveQueries(queries)
	require.Len(t, active, 1)
	assert.Equal(t, "q1", active[0].ID)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "Malformed yaml", doc: "projects: [:"},
		{name: "Project without id", doc: "projects:\n  - name: x\n"},
		{name: "Duplicate project", doc: "projects:\n  - id: a\n  - id: a\n"},
		{name: "Brand without name", doc: "projects:\n  - id: a\n    brands:\n      - id: b\n"},
		{name: "Duplicate brand", doc: "projects:\n  - id: a\n    brands:\n      - {id: b, name: B}\n      - {id: b, name: C}\n"},
		{name: "Query without text", doc: "projects:\n  - id: a\n    queries:\n      - id: q\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestStatic_UnknownProject(t *testing.T) {
	c, err := NewStatic(nil)
	require.NoError(t, err)

	_, err = c.Brands(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = c.Queries(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.ErrorIs(t, c.SetBrands("missing", nil), ErrProjectNotFound)
}

func TestStatic_ReturnsCopies(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	brands, err := c.Brands(context.Background(), "crm")
	require.NoError(t, err)
	brands[0].Name = "changed"

	again, err := c.Brands(context.Background(), "crm")
	require.NoError(t, err)
	assert.Equal(t, "HubSpot", again[0].Name)
}

func TestStatic_SetBrands(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	require.NoError(t, c.SetBrands("crm", []models.Brand{{ID: "sf", Name: "Salesforce"}}))

	brands, err := c.Brands(context.Background(), "crm")
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "Salesforce", brands[0].Name)
	assert.Equal(t, "crm", brands[0].ProjectID)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)

	projects, err := c.Projects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
