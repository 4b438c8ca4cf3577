package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/eatnear/internal/adapters/http"
	natsadapter "github.com/samirrijal/eatnear/internal/adapters/nats"
	"github.com/samirrijal/eatnear/internal/adapters/storage"
	"github.com/samirrijal/eatnear/internal/adapters/valkey"
	"github.com/samirrijal/eatnear/internal/core/ports"
	"github.com/samirrijal/eatnear/internal/core/ranking"
	"github.com/samirrijal/eatnear/internal/core/usecases"
	"github.com/samirrijal/eatnear/internal/pkg/auth"
	"github.com/samirrijal/eatnear/internal/pkg/config"
	"github.com/samirrijal/eatnear/internal/pkg/logging"
	"github.com/samirrijal/eatnear/internal/pkg/metrics"
	"github.com/samirrijal/eatnear/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("eatnear-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Storage
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer backend.Close()
	checks := map[string]http.Pinger{"storage": backend}

	if backend.DB != nil {
		go reportPoolStats(ctx, backend)
	}

	// Cache. A nil interface, never a nil *valkey.Cache, disables caching.
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, search cache disabled", "error", err)
	} else {
		defer c.Close()
		cache = c
		checks["cache"] = c
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, catalog events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	ranker := ranking.NewRanker(cfg.Search.RankingConfig())

	deps := &http.Dependencies{
		Search:         usecases.NewSearchService(backend.Repo, cache, ranker, cfg.Search.CacheTTL),
		Restaurants:    usecases.NewRestaurantService(backend.Repo, cache, events),
		Auth:           auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash, time.Duration(cfg.Auth.TokenTTL)*time.Second),
		Checks:         checks,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}
	if pub != nil {
		// Separate connection for the WebSocket relay subscriptions.
		if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
			slog.Warn("nats relay connection failed, /ws disabled", "error", err)
		} else {
			defer nc.Close()
			deps.NATS = nc
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "eatnear API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		ExposeHeaders:    "ETag, Link, Location, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", backend.Name)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, backend *storage.Backend) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(backend.DB.Pool.Stat())
		case <-ctx.Done():
			return
		}
	}
}
