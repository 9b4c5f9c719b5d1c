package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/service"
)

type HealthHandler struct {
	service service.IProcurementService
	logger  zerolog.Logger
}

func NewHealthHandler(s service.IProcurementService, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		service: s,
		logger:  logger,
	}
}

// Check reports 503 when any registered dependency is down.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health(r.Context())
	if status.Status != "healthy" {
		h.logger.Warn().Interface("components", status.Components).Msg("health check degraded")
		respondWithJson(w, http.StatusServiceUnavailable, status)
		return
	}
	respondWithJson(w, http.StatusOK, status)
}
