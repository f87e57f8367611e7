package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// GetTotalTicketsCount returns the total count of tickets in the database
func (d *DB) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Count(ctx)
}

// IncrementTicketCount adds one sale to the event's counter for the UTC day
// of timestamp. The first sale of a day inserts the row; concurrent first
// sales land on the conflict clause instead of failing.
func (d *DB) IncrementTicketCount(ctx context.Context, eventID string, timestamp time.Time) error {
	_, err := d.Bun.NewInsert().
		Model(&models.TicketCount{EventID: eventID, Day: utils.DayKey(timestamp), Count: 1}).
		On("CONFLICT (event_id, day) DO UPDATE").
		Set("count = ?TableAlias.count + 1").
		Exec(ctx)
	return err
}

// GetTicketCountsForEvent returns all ticket counts for a specific event
func (d *DB) GetTicketCountsForEvent(ctx context.Context, eventID string) ([]models.TicketCount, error) {
	counts := make([]models.TicketCount, 0)
	err := d.Bun.NewSelect().
		Model(&counts).
		Where("event_id = ?", eventID).
		Order("day ASC").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return counts, nil
	}
	return counts, err
}
