package apiv1

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse reports overall status plus per-dependency detail.
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details"`
}

// GetServiceInfo handles GET /.
func (s *APIV1Service) GetServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "concierge",
		"version": s.Profile.Version,
	})
}

// GetHealth handles GET /healthz. Dependency failures report degraded
// rather than an error status code so monitors see the detail.
func (s *APIV1Service) GetHealth(c echo.Context) error {
	ctx := c.Request().Context()

	resp := HealthResponse{
		Status: "healthy",
		Details: map[string]string{
			"api": "healthy",
		},
	}

	count, err := s.Store.CountDocuments(ctx)
	if err != nil {
		slog.Error("database health check failed", slog.Any("error", err))
		resp.Details["database"] = "unhealthy: " + err.Error()
		resp.Status = "degraded"
	} else {
		resp.Details["database"] = "healthy"
		if count > 0 {
			resp.Details["retrieval_corpus"] = fmt.Sprintf("healthy (%d documents)", count)
		} else {
			resp.Details["retrieval_corpus"] = "degraded: empty corpus"
			resp.Status = "degraded"
		}
	}

	if s.Profile.IsLLMEnabled() {
		resp.Details["llm"] = "configured (" + s.Profile.LLMProvider + ")"
	} else {
		resp.Details["llm"] = "rule-only"
	}

	return c.JSON(http.StatusOK, resp)
}

// GetSystemMetrics handles GET /api/v1/system/metrics.
func (s *APIV1Service) GetSystemMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Metrics.Snapshot())
}
