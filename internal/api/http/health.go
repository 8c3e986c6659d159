package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Redis     string    `json:"redis"`
	Ledger    string    `json:"ledger"`
}

type HealthChecks struct {
	DB     Check
	Redis  Check
	Ledger Check
}

type HealthHandler struct {
	serviceName string
	version     string
	checks      HealthChecks
	timeout     time.Duration
}

func NewHealthHandler(serviceName, version string, checks HealthChecks) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checks:      checks,
		timeout:     2 * time.Second,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        status(ctx, h.checks.DB),
		Redis:     status(ctx, h.checks.Redis),
		Ledger:    status(ctx, h.checks.Ledger),
	}
	// the ledger is external; only our own stores degrade the service
	if resp.DB == "down" || resp.Redis == "down" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

func status(ctx context.Context, check Check) string {
	if check == nil {
		return "disabled"
	}
	if err := check(ctx); err != nil {
		return "down"
	}
	return "up"
}
