package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/classroom-service/internal/observability"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by the readiness endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name string
	ping Pinger
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	serviceName string
	version     string
	deps        []dependency
	metrics     *observability.Metrics
}

func NewHealthHandler(serviceName, version string, postgres, redis Pinger, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps:        []dependency{{name: "postgres", ping: postgres}, {name: "redis", ping: redis}},
		metrics:     metrics,
	}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "service": h.serviceName, "version": h.version})
}

// Ready pings every dependency; any failure makes the instance unready (503).
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := make(fiber.Map, len(h.deps))
	failed := false
	for _, dep := range h.deps {
		started := time.Now()
		if err := dep.ping.Ping(ctx); err != nil {
			checks[dep.name] = fiber.Map{"status": "down", "error": err.Error()}
			failed = true
			continue
		}
		checks[dep.name] = fiber.Map{"status": "ok", "latency_ms": time.Since(started).Milliseconds()}
	}

	if failed {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": checks,
			},
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"service":      h.serviceName,
		"dependencies": checks,
		"metrics":      h.metrics.Snapshot(),
	})
}
