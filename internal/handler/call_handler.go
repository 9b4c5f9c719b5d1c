package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/repository"
)

// CallHandler serves the upstream call log.
type CallHandler struct {
	calls  repository.ICallRepository
	logger zerolog.Logger
}

func NewCallHandler(calls repository.ICallRepository, l zerolog.Logger) *CallHandler {
	return &CallHandler{
		calls:  calls,
		logger: l,
	}
}

func (h *CallHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.calls.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read call log")
		respondWithError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}
	respondWithJson(w, http.StatusOK, map[string]any{"success": true, "calls": records})
}
