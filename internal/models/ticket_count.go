package models

import (
	"github.com/uptrace/bun"
)

// TicketCount is the number of tickets sold for an event on one UTC day.
type TicketCount struct {
	bun.BaseModel `bun:"table:ticket_counts,alias:tc"`

	ID      int64  `bun:"id,pk,autoincrement" json:"-"`
	EventID string `bun:"event_id,notnull,unique:ticket_counts_event_day" json:"eventId"`
	Day     string `bun:"day,notnull,unique:ticket_counts_event_day" json:"day"`
	Count   int    `bun:"count,notnull" json:"count"`
}

type TicketCountResponse struct {
	TotalCount int `json:"total_count"`
}

type EventSalesResponse struct {
	EventID string        `json:"eventId"`
	Total   int           `json:"total"`
	Days    []TicketCount `json:"days"`
}
