package database

import (
	"context"
	"fmt"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

var schemaModels = []interface{}{
	(*models.User)(nil),
	(*models.Event)(nil),
	(*models.Ticket)(nil),
	(*models.TicketCount)(nil),
}

// CreateSchema creates every table from the bun models. It is used for SQLite
// databases; PostgreSQL goes through the SQL migrations instead.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range schemaModels {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	if _, err := db.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("idx_tickets_event_id").
		Column("event_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create tickets index: %w", err)
	}
	return nil
}

// DropSchema drops all tables in reverse dependency order.
func DropSchema(ctx context.Context, db bun.IDB) error {
	for i := len(schemaModels) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(schemaModels[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", schemaModels[i], err)
		}
	}
	return nil
}
