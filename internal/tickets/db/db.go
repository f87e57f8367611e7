package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound      = errors.New("ticket not found")
	ErrEventNotFound = errors.New("event not found")
	ErrSoldOut       = errors.New("no tickets available")
)

type DB struct {
	Bun bun.IDB
}

func (d *DB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Order("purchase_date DESC").
		Scan(ctx)
	return tickets, err
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// PurchaseTicket takes one seat from the event and stores the ticket in a
// single transaction. The decrement only matches while tickets remain, so
// concurrent buyers of the last ticket cannot both succeed. It returns the
// event as it is after the purchase.
func (d *DB) PurchaseTicket(ctx context.Context, ticket *models.Ticket) (*models.Event, error) {
	var event models.Event
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("available_tickets = available_tickets - 1").
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", ticket.EventID).
			Where("available_tickets > 0").
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			exists, err := tx.NewSelect().
				Model((*models.Event)(nil)).
				Where("id = ?", ticket.EventID).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return ErrEventNotFound
			}
			return ErrSoldOut
		}

		if _, err := tx.NewInsert().Model(ticket).Exec(ctx); err != nil {
			return err
		}

		return tx.NewSelect().
			Model(&event).
			Where("id = ?", ticket.EventID).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteTicket removes the ticket. Inventory is left as it is.
func (d *DB) DeleteTicket(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckinTicket marks the ticket as used. It reports false when the ticket
// was already checked in.
func (d *DB) CheckinTicket(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("checked_in = ?", true).
		Set("checked_in_at = ?", at).
		Where("id = ?", id).
		Where("checked_in = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetTicketsByUser returns the tickets bought under the given user name.
func (d *DB) GetTicketsByUser(ctx context.Context, user string) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("username = ?", user).
		Order("purchase_date DESC").
		Scan(ctx)
	return tickets, err
}
