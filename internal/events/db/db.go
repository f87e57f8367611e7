package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrInventory = errors.New("available tickets would exceed total tickets")
)

type DB struct {
	Bun bun.IDB
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC", "created_at ASC").
		Scan(ctx)
	return events, err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventsByIDs returns the events keyed by id. Unknown ids are absent.
func (d *DB) GetEventsByIDs(ctx context.Context, ids []string) (map[string]*models.Event, error) {
	out := make(map[string]*models.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		out[events[i].ID] = &events[i]
	}
	return out, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// UpdateEvent writes only the given columns and reloads event from the
// stored row. Stock columns are guarded in the WHERE clause against the
// current row, so a purchase committed since event was read is never
// overwritten and available_tickets never exceeds total_tickets.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event, columns []string) error {
	setsTotal := hasColumn(columns, "total_tickets")
	setsAvailable := hasColumn(columns, "available_tickets")

	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model(event).
			Column(columns...).
			WherePK()
		switch {
		case setsTotal && !setsAvailable:
			q = q.Where("available_tickets <= ?", event.TotalTickets)
		case setsAvailable && !setsTotal:
			q = q.Where("total_tickets >= ?", event.AvailableTickets)
		}

		res, err := q.Exec(ctx)
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
				Where("id = ?", event.ID).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInventory
		}

		return tx.NewSelect().
			Model(event).
			WherePK().
			Scan(ctx)
	})
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// DeleteEvent removes the event together with its tickets.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Ticket)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
