package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:tk"`

	ID           string     `bun:"id,pk" json:"_id"`
	EventID      string     `bun:"event_id,notnull" json:"event"`
	User         string     `bun:"username,notnull" json:"user"`
	PurchaseDate time.Time  `bun:"purchase_date,notnull" json:"purchaseDate"`
	QRCode       string     `bun:"qr_code,notnull" json:"qrCode"`
	QRPayload    string     `bun:"qr_payload,notnull" json:"-"`
	CheckedIn    bool       `bun:"checked_in,notnull" json:"checkedIn"`
	CheckedInAt  *time.Time `bun:"checked_in_at,nullzero" json:"checkedInAt,omitempty"`
}

// TicketView is a ticket with its event resolved, the shape every ticket
// read endpoint returns.
type TicketView struct {
	ID           string     `json:"_id"`
	Event        *Event     `json:"event"`
	User         string     `json:"user"`
	PurchaseDate time.Time  `json:"purchaseDate"`
	QRCode       string     `json:"qrCode"`
	CheckedIn    bool       `json:"checkedIn"`
	CheckedInAt  *time.Time `json:"checkedInAt,omitempty"`
}

func (t Ticket) ToView(event *Event) TicketView {
	return TicketView{
		ID:           t.ID,
		Event:        event,
		User:         t.User,
		PurchaseDate: t.PurchaseDate,
		QRCode:       t.QRCode,
		CheckedIn:    t.CheckedIn,
		CheckedInAt:  t.CheckedInAt,
	}
}

type PurchaseRequest struct {
	EventID string `json:"eventId"`
	User    string `json:"user"`
}

type CheckinRequest struct {
	EncryptedQR string `json:"encrypted_qr"`
}

// QRPayload is the structured data embedded (encrypted) in a ticket's QR code.
type QRPayload struct {
	TicketID     string    `json:"ticketId"`
	EventID      string    `json:"event"`
	User         string    `json:"user"`
	PurchaseDate time.Time `json:"purchaseDate"`
}
