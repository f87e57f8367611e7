package models

import "time"

// EventChanged is published whenever an event is created, updated or deleted.
type EventChanged struct {
	Type      string    `json:"type"`
	EventID   string    `json:"event_id"`
	Event     *Event    `json:"event,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketChanged is published on purchase and deletion of a ticket.
type TicketChanged struct {
	Type             string    `json:"type"`
	TicketID         string    `json:"ticket_id"`
	EventID          string    `json:"event_id"`
	User             string    `json:"user"`
	AvailableTickets int       `json:"available_tickets"`
	PurchaseDate     time.Time `json:"purchase_date"`
	Timestamp        time.Time `json:"timestamp"`
}
