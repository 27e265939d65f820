package handlers

import (
	"context"
	"time"

	"epis-realtime/server/internal/billing"
	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/workers"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	config  *config.Config
	billing billing.Client
	pool    *workers.Pool
}

func NewHealthHandler(cfg *config.Config, billingClient billing.Client, pool *workers.Pool) *HealthHandler {
	return &HealthHandler{config: cfg, billing: billingClient, pool: pool}
}

// HandleHealth reports worker pool saturation and whether the billing
// provider is currently reachable; it never touches the database or the AI
// provider, both of which are exercised on every real request anyway.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	billingStatus := "healthy"
	if _, err := h.billing.GetCredit(ctx, "healthcheck"); err != nil {
		billingStatus = "unhealthy"
	}

	return c.JSON(fiber.Map{
		"status":       "ok",
		"timestamp":    time.Now(),
		"environment":  h.config.Server.Environment,
		"worker_stats": h.pool.Stats(),
		"billing":      billingStatus,
	})
}
