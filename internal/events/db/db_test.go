package db_test

import (
	"context"
	"testing"
	"time"

	"ms-booking/internal/database"
	"ms-booking/internal/events/db"
	"ms-booking/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	bunDB, err := database.NewInMemory(context.Background())
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}, bunDB
}

func newEvent(title string, date time.Time) *models.Event {
	now := time.Now().UTC()
	return &models.Event{
		ID:               uuid.New().String(),
		Title:            title,
		Description:      "desc",
		Date:             date,
		Venue:            "Arena",
		TotalTickets:     100,
		AvailableTickets: 100,
		Price:            19.5,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateGetAndList(t *testing.T) {
	eventDB, _ := setupTestDB(t)
	ctx := context.Background()

	later := newEvent("Later", time.Now().Add(48*time.Hour).UTC())
	sooner := newEvent("Sooner", time.Now().Add(24*time.Hour).UTC())
	require.NoError(t, eventDB.CreateEvent(ctx, later))
	require.NoError(t, eventDB.CreateEvent(ctx, sooner))

	got, err := eventDB.GetEventByID(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "Later", got.Title)
	assert.Equal(t, 19.5, got.Price)

	events, err := eventDB.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Sooner", events[0].Title)

	_, err = eventDB.GetEventByID(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestListEvents_EmptyIsNotNil(t *testing.T) {
	eventDB, _ := setupTestDB(t)
	events, err := eventDB.ListEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Len(t, events, 0)
}

func TestGetEventsByIDs(t *testing.T) {
	eventDB, _ := setupTestDB(t)
	ctx := context.Background()

	a := newEvent("A", time.Now().UTC())
	b := newEvent("B", time.Now().UTC())
	require.NoError(t, eventDB.CreateEvent(ctx, a))
	require.NoError(t, eventDB.CreateEvent(ctx, b))

	byID, err := eventDB.GetEventsByIDs(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Equal(t, "B", byID[b.ID].Title)

	empty, err := eventDB.GetEventsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateEvent(t *testing.T) {
	eventDB, _ := setupTestDB(t)
	ctx := context.Background()

	event := newEvent("Old", time.Now().UTC())
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	event.Title = "New"
	event.AvailableTickets = 50
	require.NoError(t, eventDB.UpdateEvent(ctx, event, []string{"title", "available_tickets"}))

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, 50, got.AvailableTickets)

	ghost := newEvent("Ghost", time.Now().UTC())
	assert.ErrorIs(t, eventDB.UpdateEvent(ctx, ghost, []string{"title"}), db.ErrNotFound)
}

func TestUpdateEvent_WritesOnlyGivenColumns(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	ctx := context.Background()

	event := newEvent("Concert", time.Now().UTC())
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	stale := *event
	_, err := bunDB.NewUpdate().Model((*models.Event)(nil)).
		Set("available_tickets = 99").
		Where("id = ?", event.ID).
		Exec(ctx)
	require.NoError(t, err)

	stale.Title = "Concert II"
	require.NoError(t, eventDB.UpdateEvent(ctx, &stale, []string{"title"}))
	assert.Equal(t, 99, stale.AvailableTickets)

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Concert II", got.Title)
	assert.Equal(t, 99, got.AvailableTickets)
}

func TestUpdateEvent_StockGuardUsesStoredRow(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	ctx := context.Background()

	event := newEvent("Festival", time.Now().UTC())
	event.TotalTickets, event.AvailableTickets = 5, 5
	require.NoError(t, eventDB.CreateEvent(ctx, event))

	_, err := bunDB.NewUpdate().Model((*models.Event)(nil)).
		Set("total_tickets = 10").
		Set("available_tickets = 8").
		Where("id = ?", event.ID).
		Exec(ctx)
	require.NoError(t, err)

	lowered := *event
	lowered.TotalTickets = 6
	assert.ErrorIs(t, eventDB.UpdateEvent(ctx, &lowered, []string{"total_tickets"}), db.ErrInventory)

	raised := *event
	raised.AvailableTickets = 9
	require.NoError(t, eventDB.UpdateEvent(ctx, &raised, []string{"available_tickets"}))

	got, err := eventDB.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalTickets)
	assert.Equal(t, 9, got.AvailableTickets)

	tooMany := *event
	tooMany.AvailableTickets = 11
	assert.ErrorIs(t, eventDB.UpdateEvent(ctx, &tooMany, []string{"available_tickets"}), db.ErrInventory)
}

func TestDeleteEvent_RemovesTickets(t *testing.T) {
	eventDB, bunDB := setupTestDB(t)
	ctx := context.Background()

	event := newEvent("Gone", time.Now().UTC())
	require.NoError(t, eventDB.CreateEvent(ctx, event))
	_, err := bunDB.NewInsert().Model(&models.Ticket{
		ID: uuid.New().String(), EventID: event.ID, User: "alice",
		PurchaseDate: time.Now().UTC(), QRCode: "qr", QRPayload: "p",
	}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, eventDB.DeleteEvent(ctx, event.ID))

	_, err = eventDB.GetEventByID(ctx, event.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	count, err := bunDB.NewSelect().Model((*models.Ticket)(nil)).Where("event_id = ?", event.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, eventDB.DeleteEvent(ctx, event.ID), db.ErrNotFound)
}
