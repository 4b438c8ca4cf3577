package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/eatnear/internal/core/usecases"
	"github.com/samirrijal/eatnear/internal/pkg/auth"
)

// Pinger is a backend the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search      *usecases.SearchService
	Restaurants *usecases.RestaurantService
	Auth        *auth.Service
	NATS        *nats.Conn

	// Checks are probed by /v1/ready, keyed by name ("storage", "cache").
	Checks map[string]Pinger

	// RateLimit is the per-IP request budget per minute. Zero means 120.
	RateLimit int
	// RequestTimeout bounds each /v1 handler. Zero means 15s.
	RequestTimeout time.Duration
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit <= 0 {
		return 120
	}
	return d.RateLimit
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}
