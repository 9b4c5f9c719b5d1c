package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/model"
	"github.com/naramarket/naramarket-mcp/internal/projection"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

type ProcurementHandler struct {
	service service.IProcurementService
	logger  zerolog.Logger
}

func NewProcurementHandler(s service.IProcurementService, l zerolog.Logger) *ProcurementHandler {
	return &ProcurementHandler{
		service: s,
		logger:  l,
	}
}

func (h *ProcurementHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, map[string]any{
		"name":    service.AppName,
		"version": service.AppVersion,
		"mcp":     "/mcp",
	})
}

func (h *ProcurementHandler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, h.service.ServerInfo())
}

func (h *ProcurementHandler) Services(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, map[string]any{"success": true, "services": h.service.ServicesInfo()})
}

func (h *ProcurementHandler) Operations(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Operations(chi.URLParam(r, "service"))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, info)
}

func (h *ProcurementHandler) RegionCodes(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, h.service.RegionCodes())
}

func (h *ProcurementHandler) Fields(w http.ResponseWriter, r *http.Request) {
	info := projection.AvailableFields(chi.URLParam(r, "serviceType"))
	if info.Error != "" {
		respondWithJson(w, http.StatusNotFound, info)
		return
	}
	respondWithJson(w, http.StatusOK, info)
}

func (h *ProcurementHandler) Formats(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, projection.AllFormats())
}

func (h *ProcurementHandler) SizeCheck(w http.ResponseWriter, r *http.Request) {
	var dto model.DTOSizeCheckRequest
	if err := decodeAndValidate(r, &dto); err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	var resp any
	if err := json.Unmarshal(dto.Response, &resp); err != nil {
		respondWithError(w, http.StatusBadRequest, "response must be valid JSON")
		return
	}
	respondWithJson(w, http.StatusOK, projection.CheckSize(resp, dto.MaxSize))
}

// Tool runs one catalog operation. ?paginate=true wraps the result with
// pagination guidance.
func (h *ProcurementHandler) Tool(w http.ResponseWriter, r *http.Request) {
	var dto model.DTOToolRequest
	if err := decodeAndValidate(r, &dto); err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	dto.Service = chi.URLParam(r, "service")
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		h.logger.Debug().Str("subject", claims.Subject).Str("service", dto.Service).Msg("authenticated tool call")
	}

	if r.URL.Query().Get("paginate") == "true" {
		res, err := h.service.Paginate(r.Context(), &dto)
		if err != nil {
			h.respondWithServiceError(w, err)
			return
		}
		respondWithJson(w, http.StatusOK, res)
		return
	}

	res, err := h.service.Search(r.Context(), &dto)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, res)
}

func (h *ProcurementHandler) CrawlList(w http.ResponseWriter, r *http.Request) {
	var dto model.DTOCrawlListRequest
	if err := decodeAndValidate(r, &dto); err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	res := h.service.CrawlList(r.Context(), &dto)
	if !res.Success {
		respondWithJson(w, http.StatusBadGateway, res)
		return
	}
	respondWithJson(w, http.StatusOK, res)
}

// respondWithServiceError maps service sentinels onto HTTP statuses. Only
// unexpected errors are logged at error level.
func (h *ProcurementHandler) respondWithServiceError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
		respondWithError(w, code, "An internal error occurred")
		return
	}
	h.logger.Warn().Err(err).Int("status", code).Msg("request rejected")
	respondWithError(w, code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnknownService), errors.Is(err, service.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRequestTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrUpstreamStatus), errors.Is(err, service.ErrUpstreamBody):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
