package analytics

import (
	"context"
	"errors"
	"sort"

	"ms-booking/internal/apperr"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

type EventLookup interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetEventsByIDs(ctx context.Context, ids []string) (map[string]*models.Event, error)
}

type SalesDBLayer interface {
	GetSalesByEventIDs(ctx context.Context, eventIDs []string) ([]TicketSale, error)
}

// Service handles analytics operations
type Service struct {
	DB     SalesDBLayer
	Events EventLookup
}

func NewService(db SalesDBLayer, events EventLookup) *Service {
	return &Service{DB: db, Events: events}
}

// EventAnalytics represents aggregated analytics data for an event
type EventAnalytics struct {
	EventID          string              `json:"eventId"`
	Title            string              `json:"title"`
	TotalTickets     int                 `json:"totalTickets"`
	AvailableTickets int                 `json:"availableTickets"`
	TicketsSold      int                 `json:"ticketsSold"`
	CheckedIn        int                 `json:"checkedIn"`
	Revenue          float64             `json:"revenue"`
	DailySales       []DailySalesMetrics `json:"dailySales"`
}

// BatchEventAnalytics represents aggregated analytics data for multiple events
type BatchEventAnalytics struct {
	EventIDs         []string            `json:"eventIds"`
	TotalRevenue     float64             `json:"totalRevenue"`
	TotalTicketsSold int                 `json:"totalTicketsSold"`
	TotalCheckedIn   int                 `json:"totalCheckedIn"`
	DailySales       []DailySalesMetrics `json:"dailySales"`
	Events           []EventAnalytics    `json:"events"`
}

// DailySalesMetrics contains metrics for a single day
type DailySalesMetrics struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	TicketsSold int     `json:"ticketsSold"`
}

// Revenue is tickets sold at the event's current price.
func (s *Service) GetEventAnalytics(ctx context.Context, eventID string) (*EventAnalytics, error) {
	event, err := s.Events.GetEventByID(ctx, eventID)
	if errors.Is(err, eventdb.ErrNotFound) {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "Cannot find event")
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to load event", err)
	}

	sales, err := s.DB.GetSalesByEventIDs(ctx, []string{eventID})
	if err != nil {
		return nil, apperr.Internal("", "Failed to get analytics", err)
	}

	result := summarize(event, sales)
	return &result, nil
}

// GetBatchEventAnalytics aggregates over eventIDs, or over every event when
// none are given. Unknown ids are ignored.
func (s *Service) GetBatchEventAnalytics(ctx context.Context, eventIDs []string) (*BatchEventAnalytics, error) {
	var events []*models.Event
	if len(eventIDs) == 0 {
		list, err := s.Events.ListEvents(ctx)
		if err != nil {
			return nil, apperr.Internal("", "Failed to list events", err)
		}
		for i := range list {
			events = append(events, &list[i])
		}
	} else {
		byID, err := s.Events.GetEventsByIDs(ctx, eventIDs)
		if err != nil {
			return nil, apperr.Internal("", "Failed to load events", err)
		}
		for _, id := range eventIDs {
			if e, ok := byID[id]; ok {
				events = append(events, e)
			}
		}
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	sales, err := s.DB.GetSalesByEventIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("", "Failed to get analytics", err)
	}

	byEvent := make(map[string][]TicketSale)
	for _, sale := range sales {
		byEvent[sale.EventID] = append(byEvent[sale.EventID], sale)
	}

	result := &BatchEventAnalytics{
		EventIDs: ids,
		Events:   make([]EventAnalytics, 0, len(events)),
	}
	daily := make(map[string]*DailySalesMetrics)
	for _, e := range events {
		ea := summarize(e, byEvent[e.ID])
		result.Events = append(result.Events, ea)
		result.TotalRevenue += ea.Revenue
		result.TotalTicketsSold += ea.TicketsSold
		result.TotalCheckedIn += ea.CheckedIn
		for _, d := range ea.DailySales {
			m, ok := daily[d.Date]
			if !ok {
				m = &DailySalesMetrics{Date: d.Date}
				daily[d.Date] = m
			}
			m.Revenue += d.Revenue
			m.TicketsSold += d.TicketsSold
		}
	}
	result.DailySales = sortedDays(daily)
	return result, nil
}

func summarize(event *models.Event, sales []TicketSale) EventAnalytics {
	result := EventAnalytics{
		EventID:          event.ID,
		Title:            event.Title,
		TotalTickets:     event.TotalTickets,
		AvailableTickets: event.AvailableTickets,
		TicketsSold:      len(sales),
		Revenue:          float64(len(sales)) * event.Price,
	}

	daily := make(map[string]*DailySalesMetrics)
	for _, sale := range sales {
		if sale.CheckedIn {
			result.CheckedIn++
		}
		day := utils.DayKey(sale.PurchaseDate)
		m, ok := daily[day]
		if !ok {
			m = &DailySalesMetrics{Date: day}
			daily[day] = m
		}
		m.TicketsSold++
		m.Revenue += event.Price
	}
	result.DailySales = sortedDays(daily)
	return result
}

func sortedDays(daily map[string]*DailySalesMetrics) []DailySalesMetrics {
	out := make([]DailySalesMetrics, 0, len(daily))
	for _, m := range daily {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
