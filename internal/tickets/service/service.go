package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/apperr"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	ticketdb "ms-booking/internal/tickets/db"
	"ms-booking/internal/tickets/qr"
	"ms-booking/internal/utils"
)

type TicketDBLayer interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	GetTicketsByUser(ctx context.Context, user string) ([]models.Ticket, error)
	PurchaseTicket(ctx context.Context, ticket *models.Ticket) (*models.Event, error)
	DeleteTicket(ctx context.Context, id string) error
	CheckinTicket(ctx context.Context, id string, at time.Time) (bool, error)
	GetTotalTicketsCount(ctx context.Context) (int, error)
	IncrementTicketCount(ctx context.Context, eventID string, timestamp time.Time) error
	GetTicketCountsForEvent(ctx context.Context, eventID string) ([]models.TicketCount, error)
}

// EventLookup resolves the events tickets refer to.
type EventLookup interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetEventsByIDs(ctx context.Context, ids []string) (map[string]*models.Event, error)
}

type AvailabilityNotifier interface {
	NotifyAvailability(update models.AvailabilityUpdate)
}

type TicketService struct {
	DB        TicketDBLayer
	Events    EventLookup
	QR        *qr.QRGenerator
	Publisher kafka.Publisher
	Topics    kafka.Topics
	Notifier  AvailabilityNotifier
	Logger    *logger.Logger
	// CountInline updates the daily sales counters synchronously. Set when no
	// Kafka consumer is running to do it from the ticket.purchased stream.
	CountInline bool

	now func() time.Time
}

func NewTicketService(db TicketDBLayer, events EventLookup, qrGen *qr.QRGenerator, publisher kafka.Publisher, topics kafka.Topics, notifier AvailabilityNotifier, log *logger.Logger) *TicketService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &TicketService{
		DB:        db,
		Events:    events,
		QR:        qrGen,
		Publisher: publisher,
		Topics:    topics,
		Notifier:  notifier,
		Logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func ticketNotFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeTicketNotFound, "Cannot find ticket")
}

func eventNotFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeEventNotFound, "Event not found")
}

func soldOut() *apperr.Error {
	return apperr.SoldOut("No tickets available for this event")
}

// PurchaseTicket issues a ticket for req.User against the event's inventory.
func (s *TicketService) PurchaseTicket(ctx context.Context, req models.PurchaseRequest) (*models.Ticket, error) {
	eventID := strings.TrimSpace(req.EventID)
	user := strings.TrimSpace(req.User)
	if eventID == "" || user == "" {
		return nil, apperr.Validation(apperr.CodeValidation, "eventId and user are required")
	}

	event, err := s.Events.GetEventByID(ctx, eventID)
	if errors.Is(err, eventdb.ErrNotFound) {
		return nil, eventNotFound()
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to load event", err)
	}
	if event.AvailableTickets <= 0 {
		return nil, soldOut()
	}

	ticket := &models.Ticket{
		ID:           utils.GenerateID(),
		EventID:      event.ID,
		User:         user,
		PurchaseDate: s.now(),
	}
	code, err := s.QR.Generate(models.QRPayload{
		TicketID:     ticket.ID,
		EventID:      ticket.EventID,
		User:         ticket.User,
		PurchaseDate: ticket.PurchaseDate,
	})
	if err != nil {
		return nil, apperr.Internal("", "Failed to generate QR code", err)
	}
	ticket.QRCode = code.DataURL
	ticket.QRPayload = code.Encrypted

	updated, err := s.DB.PurchaseTicket(ctx, ticket)
	switch {
	case errors.Is(err, ticketdb.ErrSoldOut):
		s.Logger.LogTicket("SOLD_OUT", eventID, "lost the race for the last ticket")
		return nil, soldOut()
	case errors.Is(err, ticketdb.ErrEventNotFound):
		return nil, eventNotFound()
	case err != nil:
		return nil, apperr.Internal("", "Failed to purchase ticket", err)
	}

	s.Logger.LogTicket("PURCHASE", ticket.ID, fmt.Sprintf("event=%s user=%s remaining=%d", eventID, user, updated.AvailableTickets))

	s.publish(ctx, s.Topics.TicketPurchased, models.TicketChanged{
		Type:             s.Topics.TicketPurchased,
		TicketID:         ticket.ID,
		EventID:          ticket.EventID,
		User:             ticket.User,
		AvailableTickets: updated.AvailableTickets,
		PurchaseDate:     ticket.PurchaseDate,
		Timestamp:        s.now(),
	})
	if s.Notifier != nil {
		s.Notifier.NotifyAvailability(models.AvailabilityUpdate{
			EventID:          updated.ID,
			AvailableTickets: updated.AvailableTickets,
			TotalTickets:     updated.TotalTickets,
			At:               s.now(),
		})
	}
	if s.CountInline {
		if err := s.DB.IncrementTicketCount(ctx, ticket.EventID, ticket.PurchaseDate); err != nil {
			s.Logger.Error("TICKET", fmt.Sprintf("Failed to update sales counter for %s: %v", ticket.EventID, err))
		}
	}

	return ticket, nil
}

// ListTickets returns every ticket with its event resolved. A user filter
// narrows the list to that buyer.
func (s *TicketService) ListTickets(ctx context.Context, user string) ([]models.TicketView, error) {
	var list []models.Ticket
	var err error
	if user != "" {
		list, err = s.DB.GetTicketsByUser(ctx, user)
	} else {
		list, err = s.DB.ListTickets(ctx)
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to list tickets", err)
	}
	return s.compose(ctx, list)
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (*models.TicketView, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if errors.Is(err, ticketdb.ErrNotFound) {
		return nil, ticketNotFound()
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to load ticket", err)
	}

	views, err := s.compose(ctx, []models.Ticket{*ticket})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// compose attaches each ticket's event with a single batched lookup.
func (s *TicketService) compose(ctx context.Context, list []models.Ticket) ([]models.TicketView, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range list {
		if !seen[t.EventID] {
			seen[t.EventID] = true
			ids = append(ids, t.EventID)
		}
	}

	byID, err := s.Events.GetEventsByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("", "Failed to load ticket events", err)
	}

	views := make([]models.TicketView, 0, len(list))
	for _, t := range list {
		views = append(views, t.ToView(byID[t.EventID]))
	}
	return views, nil
}

// DeleteTicket removes a ticket without returning its seat to the event.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if errors.Is(err, ticketdb.ErrNotFound) {
		return ticketNotFound()
	}
	if err != nil {
		return apperr.Internal("", "Failed to load ticket", err)
	}

	if err := s.DB.DeleteTicket(ctx, id); err != nil {
		if errors.Is(err, ticketdb.ErrNotFound) {
			return ticketNotFound()
		}
		return apperr.Internal("", "Failed to delete ticket", err)
	}

	s.Logger.LogTicket("DELETE", id, "event="+ticket.EventID)
	s.publish(ctx, s.Topics.TicketDeleted, models.TicketChanged{
		Type:         s.Topics.TicketDeleted,
		TicketID:     ticket.ID,
		EventID:      ticket.EventID,
		User:         ticket.User,
		PurchaseDate: ticket.PurchaseDate,
		Timestamp:    s.now(),
	})
	return nil
}

// CheckinTicket admits the holder of the scanned QR code. Each ticket can be
// checked in once.
func (s *TicketService) CheckinTicket(ctx context.Context, encrypted string) (*models.TicketView, error) {
	if strings.TrimSpace(encrypted) == "" {
		return nil, apperr.Validation(apperr.CodeValidation, "encrypted_qr is required")
	}

	payload, err := s.QR.Decrypt(encrypted)
	if err != nil {
		s.Logger.LogSecurity("CHECKIN", fmt.Sprintf("rejected QR code: %v", err))
		return nil, apperr.Validation(apperr.CodeInvalidQR, "Invalid QR code")
	}

	ticket, err := s.DB.GetTicketByID(ctx, payload.TicketID)
	if errors.Is(err, ticketdb.ErrNotFound) {
		return nil, ticketNotFound()
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to load ticket", err)
	}
	if ticket.QRPayload != encrypted || ticket.EventID != payload.EventID || ticket.User != payload.User {
		s.Logger.LogSecurity("CHECKIN", "QR code does not match ticket "+ticket.ID)
		return nil, apperr.Validation(apperr.CodeInvalidQR, "Invalid QR code")
	}

	at := s.now()
	ok, err := s.DB.CheckinTicket(ctx, ticket.ID, at)
	if err != nil {
		return nil, apperr.Internal("", "Failed to check in ticket", err)
	}
	if !ok {
		return nil, apperr.Validation(apperr.CodeAlreadyCheckedIn, "Ticket already checked in")
	}

	ticket.CheckedIn = true
	ticket.CheckedInAt = &at
	s.Logger.LogTicket("CHECKIN", ticket.ID, "user="+ticket.User)

	views, err := s.compose(ctx, []models.Ticket{*ticket})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TicketService) publish(ctx context.Context, topic string, msg models.TicketChanged) {
	if err := s.Publisher.Publish(ctx, topic, msg.EventID, msg); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for ticket %s: %v", topic, msg.TicketID, err))
	}
}
