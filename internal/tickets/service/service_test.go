package tickets_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ms-booking/internal/apperr"
	"ms-booking/internal/database"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	ticketdb "ms-booking/internal/tickets/db"
	"ms-booking/internal/tickets/qr"
	tickets "ms-booking/internal/tickets/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const qrSecret = "test-qr-secret"

var topics = kafka.NewTopics("test")

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	return m.Called(topic, key, payload).Error(0)
}

func (m *MockPublisher) Close() error { return nil }

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.AvailabilityUpdate
}

func (n *recordingNotifier) NotifyAvailability(u models.AvailabilityUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
}

type fixture struct {
	svc      *tickets.TicketService
	bun      *bun.DB
	events   *eventdb.DB
	tickets  *ticketdb.DB
	notifier *recordingNotifier
}

func setup(t *testing.T, publisher kafka.Publisher) *fixture {
	bunDB, err := database.NewInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	f := &fixture{
		bun:      bunDB,
		events:   &eventdb.DB{Bun: bunDB},
		tickets:  &ticketdb.DB{Bun: bunDB},
		notifier: &recordingNotifier{},
	}
	f.svc = tickets.NewTicketService(f.tickets, f.events, qr.NewQRGenerator(qrSecret), publisher, topics, f.notifier, logger.NewNopLogger())
	return f
}

func (f *fixture) seedEvent(t *testing.T, total, available int) *models.Event {
	now := time.Now().UTC()
	event := &models.Event{
		ID: uuid.New().String(), Title: "Gig", Description: "d", Date: now.Add(24 * time.Hour), Venue: "Hall",
		TotalTickets: total, AvailableTickets: available, Price: 20, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.events.CreateEvent(context.Background(), event))
	return event
}

func (f *fixture) available(t *testing.T, id string) int {
	event, err := f.events.GetEventByID(context.Background(), id)
	require.NoError(t, err)
	return event.AvailableTickets
}

func TestPurchaseTicket_Success(t *testing.T) {
	pub := new(MockPublisher)
	f := setup(t, pub)
	event := f.seedEvent(t, 10, 10)

	pub.On("Publish", topics.TicketPurchased, event.ID, mock.MatchedBy(func(m models.TicketChanged) bool {
		return m.User == "alice" && m.AvailableTickets == 9
	})).Return(nil)

	ticket, err := f.svc.PurchaseTicket(context.Background(), models.PurchaseRequest{EventID: event.ID, User: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, event.ID, ticket.EventID)
	assert.Contains(t, ticket.QRCode, "data:image/png;base64,")
	assert.Equal(t, 9, f.available(t, event.ID))

	require.Len(t, f.notifier.updates, 1)
	assert.Equal(t, 9, f.notifier.updates[0].AvailableTickets)
	pub.AssertExpectations(t)
}

func TestPurchaseTicket_QRPayloadMatchesPurchase(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 3, 3)

	ticket, err := f.svc.PurchaseTicket(context.Background(), models.PurchaseRequest{EventID: event.ID, User: "bob"})
	require.NoError(t, err)

	payload, err := qr.NewQRGenerator(qrSecret).Decrypt(ticket.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, "bob", payload.User)
	assert.Equal(t, ticket.ID, payload.TicketID)
}

func TestPurchaseTicket_Errors(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	soldOut := f.seedEvent(t, 5, 0)
	ctx := context.Background()

	_, err := f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: "", User: "carol"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: "missing", User: "carol"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: soldOut.ID, User: "carol"})
	appErr := apperr.From(err)
	assert.Equal(t, apperr.KindSoldOut, appErr.Kind)
	assert.Equal(t, apperr.CodeSoldOut, appErr.Code)
	assert.Equal(t, 0, f.available(t, soldOut.ID))
}

func TestPurchaseTicket_LastTicketRace(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 1, 1)

	const buyers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.PurchaseTicket(context.Background(), models.PurchaseRequest{EventID: event.ID, User: "racer"})
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var ok, soldOut int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperr.IsKind(err, apperr.KindSoldOut):
			soldOut++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, soldOut)
	assert.Equal(t, 0, f.available(t, event.ID))

	count, err := f.svc.GetTotalTicketsCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAvailabilityInvariantAcrossPurchases(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 3, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "loop"})
		got, err := f.events.GetEventByID(ctx, event.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.AvailableTickets, 0)
		assert.LessOrEqual(t, got.AvailableTickets, got.TotalTickets)
	}
	assert.Equal(t, 0, f.available(t, event.ID))
}

func TestListAndGetTicket_EmbedEvent(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 4, 4)
	ctx := context.Background()

	ticket, err := f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "dana"})
	require.NoError(t, err)
	_, err = f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "eli"})
	require.NoError(t, err)

	views, err := f.svc.ListTickets(ctx, "")
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		require.NotNil(t, v.Event)
		assert.Equal(t, "Gig", v.Event.Title)
	}

	mine, err := f.svc.ListTickets(ctx, "dana")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	view, err := f.svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, view.Event.ID)

	_, err = f.svc.GetTicket(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteTicket_DoesNotRestoreInventory(t *testing.T) {
	pub := new(MockPublisher)
	f := setup(t, pub)
	event := f.seedEvent(t, 2, 2)
	ctx := context.Background()

	pub.On("Publish", topics.TicketPurchased, mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", topics.TicketDeleted, event.ID, mock.Anything).Return(nil)

	ticket, err := f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "finn"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTicket(ctx, ticket.ID))
	assert.Equal(t, 1, f.available(t, event.ID))

	views, err := f.svc.ListTickets(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, views)

	err = f.svc.DeleteTicket(ctx, ticket.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	pub.AssertExpectations(t)
}

func TestCheckinTicket(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 2, 2)
	ctx := context.Background()

	ticket, err := f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "gwen"})
	require.NoError(t, err)

	view, err := f.svc.CheckinTicket(ctx, ticket.QRPayload)
	require.NoError(t, err)
	assert.True(t, view.CheckedIn)
	assert.NotNil(t, view.CheckedInAt)

	_, err = f.svc.CheckinTicket(ctx, ticket.QRPayload)
	assert.Equal(t, apperr.CodeAlreadyCheckedIn, apperr.From(err).Code)

	_, err = f.svc.CheckinTicket(ctx, "garbage")
	assert.Equal(t, apperr.CodeInvalidQR, apperr.From(err).Code)

	// A validly encrypted code that was never issued for this ticket.
	forged, err := qr.NewQRGenerator(qrSecret).Generate(models.QRPayload{TicketID: ticket.ID, EventID: event.ID, User: "gwen"})
	require.NoError(t, err)
	_, err = f.svc.CheckinTicket(ctx, forged.Encrypted)
	assert.Equal(t, apperr.CodeInvalidQR, apperr.From(err).Code)
}

func TestSalesCounters(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	f.svc.CountInline = true
	event := f.seedEvent(t, 5, 5)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.PurchaseTicket(ctx, models.PurchaseRequest{EventID: event.ID, User: "hal"})
		require.NoError(t, err)
	}

	sales, err := f.svc.GetSalesForEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sales.Total)
	require.Len(t, sales.Days, 1)

	_, err = f.svc.GetSalesForEvent(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRecordSale(t *testing.T) {
	f := setup(t, kafka.NopPublisher{})
	event := f.seedEvent(t, 5, 5)
	ctx := context.Background()

	require.NoError(t, f.svc.RecordSale(ctx, models.TicketChanged{EventID: event.ID, PurchaseDate: time.Now().UTC()}))
	sales, err := f.svc.GetSalesForEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sales.Total)
}

type MockTicketDBLayer struct {
	mock.Mock
	tickets.TicketDBLayer
}

func (m *MockTicketDBLayer) GetTotalTicketsCount(ctx context.Context) (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func TestGetTotalTicketsCount_Error(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil, nil, nil, topics, nil, logger.NewNopLogger())
	mockDB.On("GetTotalTicketsCount").Return(0, errors.New("db down"))

	_, err := svc.GetTotalTicketsCount(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	mockDB.AssertExpectations(t)
}
