package analytics_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-booking/internal/analytics"
	"ms-booking/internal/apperr"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

type batchRequest struct {
	EventIDs []string `json:"eventIds"`
}

// RegisterRoutes mounts the analytics routes; callers guard them with admin auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events/{id}/analytics", h.GetEventAnalytics)
	r.Post("/analytics/events/batch", h.GetBatchEventAnalytics)
}

// GetEventAnalytics handles sales analytics for one event
func (h *Handler) GetEventAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.GetEventAnalytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// GetBatchEventAnalytics handles POST {"eventIds": [...]}. An empty body or
// list covers every event.
func (h *Handler) GetBatchEventAnalytics(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Batch analytics for %d events", len(req.EventIDs)))
	result, err := h.Service.GetBatchEventAnalytics(r.Context(), req.EventIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := utils.WriteError(w, err)
	if appErr.Kind == apperr.KindInternal {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("%s: %v", appErr.Message, err))
	}
}
