package ticket_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	tickets "ms-booking/internal/tickets/service"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

// ListTickets handles GET /tickets, optionally filtered with ?user=.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	views, err := h.TicketService.ListTickets(r.Context(), r.URL.Query().Get("user"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	view, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

// PurchaseTicket handles POST /tickets with {"eventId","user"}.
func (h *Handler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		h.Logger.Debug("API", fmt.Sprintf("Purchase for event %s by principal %s as %q", req.EventID, p.UserID, req.User))
	}

	ticket, err := h.TicketService.PurchaseTicket(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.TicketService.DeleteTicket(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Deleted Ticket"})
}

// CheckinTicket handles ticket check-in with QR code verification.
// Expected POST request body: {"encrypted_qr": "base64_encrypted_string"}
func (h *Handler) CheckinTicket(w http.ResponseWriter, r *http.Request) {
	var req models.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	view, err := h.TicketService.CheckinTicket(r.Context(), req.EncryptedQR)
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Checkin successful", view))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := utils.WriteError(w, err)
	if appErr.Kind == apperr.KindInternal {
		h.Logger.Error("TICKET", fmt.Sprintf("%s: %v", appErr.Message, err))
	}
}
