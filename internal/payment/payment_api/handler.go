package payment_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	payment "ms-booking/internal/payment/service"
	"ms-booking/internal/utils"
)

type Handler struct {
	PaymentService *payment.PaymentService
	Logger         *logger.Logger
}

func NewHandler(paymentService *payment.PaymentService, log *logger.Logger) *Handler {
	return &Handler{PaymentService: paymentService, Logger: log}
}

// Pay handles POST /payment with {"amount","payment_method","ticketId"}.
// amount is in minor currency units.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation(apperr.CodeValidation, "Invalid request body"))
		return
	}

	conf, err := h.PaymentService.Pay(r.Context(), req)
	if err != nil {
		appErr := utils.WriteError(w, err)
		if appErr.Kind == apperr.KindInternal {
			h.Logger.Error("PAYMENT", fmt.Sprintf("%s: %v", appErr.Message, err))
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.PaymentResponse{
		Success:         true,
		Message:         "Payment successful",
		PaymentIntentID: conf.ID,
		Status:          conf.Status,
	})
}
