package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/apperr"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	paymentredis "ms-booking/internal/payment/redis"
	ticketdb "ms-booking/internal/tickets/db"
)

// Processor charges a payment method. Declines are reported as
// apperr.Declined errors.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, amount int64, paymentMethod, ticketID string) (*models.PaymentConfirmation, error)
}

type Locker interface {
	Lock(ctx context.Context, ticketID string) (func(), error)
}

type TicketLookup interface {
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
}

type PaymentService struct {
	Processor Processor
	Lock      Locker
	Tickets   TicketLookup
	Publisher kafka.Publisher
	Topics    kafka.Topics
	Logger    *logger.Logger

	now func() time.Time
}

func NewPaymentService(processor Processor, lock Locker, tickets TicketLookup, publisher kafka.Publisher, topics kafka.Topics, log *logger.Logger) *PaymentService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &PaymentService{
		Processor: processor,
		Lock:      lock,
		Tickets:   tickets,
		Publisher: publisher,
		Topics:    topics,
		Logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Pay charges req.Amount for the ticket. Only one payment per ticket may be in
// flight at a time.
func (s *PaymentService) Pay(ctx context.Context, req models.PaymentRequest) (*models.PaymentConfirmation, error) {
	ticketID := strings.TrimSpace(req.TicketID)
	method := strings.TrimSpace(req.PaymentMethod)
	if req.Amount <= 0 {
		return nil, apperr.Validation(apperr.CodeValidation, "amount must be greater than zero")
	}
	if method == "" || ticketID == "" {
		return nil, apperr.Validation(apperr.CodeValidation, "payment_method and ticketId are required")
	}

	if s.Lock != nil {
		release, err := s.Lock.Lock(ctx, ticketID)
		if errors.Is(err, paymentredis.ErrLockHeld) {
			s.Logger.Warn("PAYMENT", fmt.Sprintf("Rejected concurrent payment for ticket %s", ticketID))
			return nil, apperr.Conflict(apperr.CodePaymentInProgress, "A payment for this ticket is already in progress")
		}
		if err != nil {
			return nil, apperr.Internal("", "Failed to process payment", err)
		}
		defer release()
	}

	conf, err := s.Processor.CreatePaymentIntent(ctx, req.Amount, method, ticketID)
	if err != nil {
		s.publish(ctx, models.PaymentEvent{
			Type:     s.Topics.PaymentFailed,
			TicketID: ticketID,
			Amount:   req.Amount,
			Status:   models.PaymentFailed,
			Reason:   apperr.From(err).Message,
		})
		if apperr.IsKind(err, apperr.KindPaymentDeclined) {
			return nil, err
		}
		return nil, apperr.Internal("", "Failed to process payment", err)
	}

	// The card is already charged here.
	if _, err := s.Tickets.GetTicketByID(ctx, ticketID); err != nil {
		if errors.Is(err, ticketdb.ErrNotFound) {
			s.Logger.Error("PAYMENT", fmt.Sprintf("Payment %s charged for unknown ticket %s", conf.ID, ticketID))
			return nil, apperr.Validation(apperr.CodeTicketNotFound, "Could not find ticket")
		}
		return nil, apperr.Internal("", "Failed to load ticket", err)
	}

	s.Logger.Info("PAYMENT", fmt.Sprintf("Payment %s succeeded for ticket %s (%d)", conf.ID, ticketID, req.Amount))
	s.publish(ctx, models.PaymentEvent{
		Type:            s.Topics.PaymentSucceeded,
		TicketID:        ticketID,
		PaymentIntentID: conf.ID,
		Amount:          req.Amount,
		Status:          models.PaymentSucceeded,
	})
	return conf, nil
}

func (s *PaymentService) publish(ctx context.Context, msg models.PaymentEvent) {
	msg.Timestamp = s.now()
	if err := s.Publisher.Publish(ctx, msg.Type, msg.TicketID, msg); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for ticket %s: %v", msg.Type, msg.TicketID, err))
	}
}
