package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/azure/sov-mentions-bot/internal/models"
)

// ReportName is the blob name a report is archived under
func ReportName(report *models.Report) string {
	return fmt.Sprintf("reports/%s/sov-report-%s.json", report.ProjectID, report.GeneratedAt.UTC().Format("2006-01-02T15-04-05"))
}

// ArchiveReport stores the report as indented JSON and returns its blob name
func ArchiveReport(ctx context.Context, blobs BlobStore, report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	name := ReportName(report)
	if err := blobs.Store(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}
	return name, nil
}

// LatestReport loads the most recently archived report of a project
func LatestReport(ctx context.Context, blobs BlobStore, projectID string) (*models.Report, error) {
	names, err := blobs.List(ctx, fmt.Sprintf("reports/%s/", projectID))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("report for %s: %w", projectID, ErrNotFound)
	}

	// Names embed a sortable timestamp.
	sort.Strings(names)
	data, err := blobs.Retrieve(ctx, names[len(names)-1])
	if err != nil {
		return nil, err
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", names[len(names)-1], err)
	}
	return &report, nil
}
