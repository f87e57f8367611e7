package ticket_api

import (
	"net/http"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// GetTotalTicketsCount handles the request to get the total ticket count
func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.TicketService.GetTotalTicketsCount(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.TicketCountResponse{TotalCount: count})
}

// GetEventSales handles GET /admin/events/{id}/sales.
func (h *Handler) GetEventSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.TicketService.GetSalesForEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sales)
}
