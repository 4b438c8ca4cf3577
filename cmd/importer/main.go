package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/eatnear/internal/adapters/nats"
	"github.com/samirrijal/eatnear/internal/adapters/storage"
	"github.com/samirrijal/eatnear/internal/adapters/valkey"
	"github.com/samirrijal/eatnear/internal/core/ports"
	"github.com/samirrijal/eatnear/internal/core/usecases"
	"github.com/samirrijal/eatnear/internal/pkg/config"
	"github.com/samirrijal/eatnear/internal/pkg/logging"
	"github.com/samirrijal/eatnear/internal/workflows"
)

func main() {
	var cfg *config.Config

	app := &cli.App{
		Name:  "importer",
		Usage: "Bulk-load restaurants from CSV files through a Temporal workflow",
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load("eatnear-importer")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "worker",
				Usage: "Run the import worker until interrupted",
				Action: func(c *cli.Context) error {
					return runWorker(c.Context, cfg)
				},
			},
			{
				Name:  "start",
				Usage: "Start an import of a CSV file and wait for the result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the CSV file, as seen by the worker",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows stored per activity call",
						Value: workflows.DefaultBatchSize,
					},
				},
				Action: func(c *cli.Context) error {
					return startImport(c.Context, cfg, c.String("file"), c.Int("batch-size"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dialTemporal(cfg *config.Config) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, search cache will not be invalidated", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, import events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	tc, err := dialTemporal(cfg)
	if err != nil {
		return err
	}
	defer tc.Close()

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ImportWorkflow)
	w.RegisterActivity(&workflows.ImportActivities{
		Catalog: usecases.NewRestaurantService(backend.Repo, cache, events),
	})

	slog.Info("import worker started", "task_queue", cfg.Temporal.TaskQueue, "storage", backend.Name)
	return w.Run(worker.InterruptCh())
}

func startImport(ctx context.Context, cfg *config.Config, file string, batchSize int) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", file, err)
	}

	tc, err := dialTemporal(cfg)
	if err != nil {
		return err
	}
	defer tc.Close()

	opts := client.StartWorkflowOptions{
		ID:                       "import-" + uuid.NewString(),
		TaskQueue:                cfg.Temporal.TaskQueue,
		WorkflowExecutionTimeout: time.Hour,
	}
	run, err := tc.ExecuteWorkflow(ctx, opts, workflows.ImportWorkflow, workflows.ImportInput{
		Path:      path,
		BatchSize: batchSize,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("import started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "path", path)

	var result workflows.ImportResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("import %s: %w", run.GetID(), err)
	}
	fmt.Printf("parsed=%d created=%d skipped=%d\n", result.Parsed, result.Created, result.Skipped)
	return nil
}
