package workflows

import (
	"context"
	"fmt"
	"os"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/eatnear/internal/core/domain"
)

// Activity names, as registered by ImportActivities.
const (
	ActivityParseImportFile   = "ParseImportFile"
	ActivityCreateBatch       = "CreateBatch"
	ActivityDeleteRestaurants = "DeleteRestaurants"
	ActivityPublishImported   = "PublishImported"
)

// ErrTypeBatchFailed marks a CreateBatch failure; its details carry the
// BatchOutcome of the rows stored before the failure.
const ErrTypeBatchFailed = "BatchFailed"

// Catalog is the part of the restaurant service the import needs.
type Catalog interface {
	ImportBatch(ctx context.Context, rows []domain.Restaurant) (created []string, skipped int, err error)
	DeleteMany(ctx context.Context, names []string) error
	NotifyImported(ctx context.Context, names []string)
}

// BatchOutcome reports what one CreateBatch call did.
type BatchOutcome struct {
	Created []string
	Skipped int
}

// ImportActivities holds the activity implementations for ImportWorkflow.
type ImportActivities struct {
	Catalog Catalog
}

// ParseImportFile reads the CSV file at path on the worker's filesystem.
func (a *ImportActivities) ParseImportFile(ctx context.Context, path string) (ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParsedFile{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("open import file: %v", err), "FileUnavailable", err)
	}
	defer f.Close()

	parsed, err := ParseCSV(f)
	if err != nil {
		return ParsedFile{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("parse %s: %v", path, err), "MalformedFile", err)
	}
	activity.GetLogger(ctx).Info("import file parsed", "path", path, "rows", len(parsed.Rows), "malformed", parsed.Malformed)
	return parsed, nil
}

// CreateBatch stores one batch. A storage failure is not retried; the names
// created before it travel in the error details for compensation.
func (a *ImportActivities) CreateBatch(ctx context.Context, rows []domain.Restaurant) (BatchOutcome, error) {
	created, skipped, err := a.Catalog.ImportBatch(ctx, rows)
	out := BatchOutcome{Created: created, Skipped: skipped}
	if err != nil {
		return BatchOutcome{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeBatchFailed, err, out)
	}
	return out, nil
}

// DeleteRestaurants removes restaurants created by a failed import.
func (a *ImportActivities) DeleteRestaurants(ctx context.Context, names []string) error {
	if err := a.Catalog.DeleteMany(ctx, names); err != nil {
		return fmt.Errorf("compensate import: %w", err)
	}
	activity.GetLogger(ctx).Info("import rolled back", "deleted", len(names))
	return nil
}

// PublishImported announces a completed import.
func (a *ImportActivities) PublishImported(ctx context.Context, names []string) error {
	a.Catalog.NotifyImported(ctx, names)
	return nil
}
