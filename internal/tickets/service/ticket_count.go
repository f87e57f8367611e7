package tickets

import (
	"context"
	"errors"

	"ms-booking/internal/apperr"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/models"
)

// GetTotalTicketsCount returns the number of tickets currently issued.
func (s *TicketService) GetTotalTicketsCount(ctx context.Context) (int, error) {
	count, err := s.DB.GetTotalTicketsCount(ctx)
	if err != nil {
		return 0, apperr.Internal("", "Error retrieving ticket count", err)
	}
	return count, nil
}

// GetSalesForEvent returns the per-day sales counters of an event.
func (s *TicketService) GetSalesForEvent(ctx context.Context, eventID string) (*models.EventSalesResponse, error) {
	if _, err := s.Events.GetEventByID(ctx, eventID); err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeEventNotFound, "Cannot find event")
		}
		return nil, apperr.Internal("", "Failed to load event", err)
	}

	counts, err := s.DB.GetTicketCountsForEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal("", "Error retrieving ticket counts", err)
	}

	resp := &models.EventSalesResponse{EventID: eventID, Days: counts}
	for _, c := range counts {
		resp.Total += c.Count
	}
	return resp, nil
}

// RecordSale consumes a ticket.purchased message into the daily counters.
func (s *TicketService) RecordSale(ctx context.Context, evt models.TicketChanged) error {
	return s.DB.IncrementTicketCount(ctx, evt.EventID, evt.PurchaseDate)
}
