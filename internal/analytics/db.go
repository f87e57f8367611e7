package analytics

import (
	"context"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// TicketSale is the slice of a ticket row the aggregations need.
type TicketSale struct {
	EventID      string    `bun:"event_id"`
	PurchaseDate time.Time `bun:"purchase_date"`
	CheckedIn    bool      `bun:"checked_in"`
}

// DB handles analytics database operations
type DB struct {
	Bun bun.IDB
}

func NewDB(db bun.IDB) *DB {
	return &DB{Bun: db}
}

// GetSalesByEventIDs returns one row per issued ticket of the given events,
// oldest first.
func (db *DB) GetSalesByEventIDs(ctx context.Context, eventIDs []string) ([]TicketSale, error) {
	sales := make([]TicketSale, 0)
	if len(eventIDs) == 0 {
		return sales, nil
	}
	err := db.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("event_id", "purchase_date", "checked_in").
		Where("event_id IN (?)", bun.In(eventIDs)).
		OrderExpr("purchase_date ASC").
		Scan(ctx, &sales)
	return sales, err
}
