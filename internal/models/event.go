package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:ev"`

	ID               string    `bun:"id,pk" json:"_id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description,notnull" json:"description"`
	Date             time.Time `bun:"date,notnull" json:"date"`
	Venue            string    `bun:"venue,notnull" json:"venue"`
	TotalTickets     int       `bun:"total_tickets,notnull" json:"totalTickets"`
	AvailableTickets int       `bun:"available_tickets,notnull" json:"availableTickets"`
	Price            float64   `bun:"price,notnull" json:"price"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// EventRequest is the body of create and partial-update calls. A nil field
// means "not supplied".
type EventRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	Date             *string  `json:"date"`
	Venue            *string  `json:"venue"`
	TotalTickets     *int     `json:"totalTickets"`
	AvailableTickets *int     `json:"availableTickets"`
	Price            *float64 `json:"price"`
}

// AvailabilityUpdate is pushed to live subscribers of an event.
type AvailabilityUpdate struct {
	EventID          string    `json:"eventId"`
	AvailableTickets int       `json:"availableTickets"`
	TotalTickets     int       `json:"totalTickets"`
	At               time.Time `json:"at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
