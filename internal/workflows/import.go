package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// DefaultBatchSize is used when ImportInput.BatchSize is not positive.
const DefaultBatchSize = 100

// ImportInput is the input for the import workflow.
type ImportInput struct {
	Path      string
	BatchSize int
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	Parsed  int // rows read from the file, malformed lines excluded
	Created int
	Skipped int // malformed lines, invalid records and taken names
}

// ImportWorkflow loads a CSV file into the catalog in batches. If a batch
// fails, every restaurant created so far is deleted again (saga
// compensation) and the workflow fails. On success an imported event is
// published once for the whole file.
func ImportWorkflow(ctx workflow.Context, input ImportInput) (ImportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting import workflow", "path", input.Path)

	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var result ImportResult

	var parsed ParsedFile
	if err := workflow.ExecuteActivity(ctx, ActivityParseImportFile, input.Path).Get(ctx, &parsed); err != nil {
		return result, err
	}
	result.Parsed = len(parsed.Rows)
	result.Skipped = parsed.Malformed

	var created []string
	for start := 0; start < len(parsed.Rows); start += batchSize {
		end := min(start+batchSize, len(parsed.Rows))

		var out BatchOutcome
		err := workflow.ExecuteActivity(ctx, ActivityCreateBatch, parsed.Rows[start:end]).Get(ctx, &out)
		if err != nil {
			var appErr *temporal.ApplicationError
			if errors.As(err, &appErr) && appErr.HasDetails() {
				var partial BatchOutcome
				if derr := appErr.Details(&partial); derr == nil {
					created = append(created, partial.Created...)
				}
			}
			logger.Warn("batch failed, compensating", "error", err, "created", len(created))
			compensate(ctx, created)
			return result, err
		}

		created = append(created, out.Created...)
		result.Skipped += out.Skipped
	}
	result.Created = len(created)

	if len(created) > 0 {
		if err := workflow.ExecuteActivity(ctx, ActivityPublishImported, created).Get(ctx, nil); err != nil {
			logger.Warn("publish imported failed", "error", err)
		}
	}

	logger.Info("Import finished", "parsed", result.Parsed, "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// compensate deletes created restaurants. It runs on a disconnected context
// so a cancelled workflow still rolls back.
func compensate(ctx workflow.Context, created []string) {
	if len(created) == 0 {
		return
	}
	dctx, _ := workflow.NewDisconnectedContext(ctx)
	if err := workflow.ExecuteActivity(dctx, ActivityDeleteRestaurants, created).Get(dctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("compensation failed", "error", err, "restaurants", len(created))
	}
}
