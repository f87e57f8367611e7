package models

import "time"

type PaymentRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	TicketID      string `json:"ticketId"`
}

type PaymentResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Status          string `json:"status,omitempty"`
}

// PaymentConfirmation is what the payment processor hands back for an
// accepted charge.
type PaymentConfirmation struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentEvent struct {
	Type            string        `json:"type"`
	TicketID        string        `json:"ticket_id"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	Amount          int64         `json:"amount"`
	Status          PaymentStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}
