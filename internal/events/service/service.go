package events

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
	"ms-booking/internal/utils"
)

type EventDBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event, columns []string) error
	DeleteEvent(ctx context.Context, id string) error
}

// AvailabilityNotifier receives inventory changes for live subscribers.
type AvailabilityNotifier interface {
	NotifyAvailability(update models.AvailabilityUpdate)
	CloseEvent(eventID string)
}

type EventService struct {
	DB        EventDBLayer
	Publisher kafka.Publisher
	Topics    kafka.Topics
	Notifier  AvailabilityNotifier
	Logger    *logger.Logger
}

func NewEventService(db EventDBLayer, publisher kafka.Publisher, topics kafka.Topics, notifier AvailabilityNotifier, log *logger.Logger) *EventService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &EventService{DB: db, Publisher: publisher, Topics: topics, Notifier: notifier, Logger: log}
}

func notFound() *apperr.Error {
	return apperr.NotFound(apperr.CodeEventNotFound, "Cannot find event")
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, apperr.Internal("", "Failed to list events", err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if errors.Is(err, eventdb.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to load event", err)
	}
	return event, nil
}

// CreateEvent stores a new event with all of its tickets available.
func (s *EventService) CreateEvent(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	var missing []string
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		missing = append(missing, "title")
	}
	if req.Description == nil || strings.TrimSpace(*req.Description) == "" {
		missing = append(missing, "description")
	}
	if req.Date == nil || *req.Date == "" {
		missing = append(missing, "date")
	}
	if req.Venue == nil || strings.TrimSpace(*req.Venue) == "" {
		missing = append(missing, "venue")
	}
	if req.TotalTickets == nil {
		missing = append(missing, "totalTickets")
	}
	if req.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation(apperr.CodeValidation, "Missing required fields: "+strings.Join(missing, ", "))
	}

	date, err := utils.ParseTimestamp(*req.Date)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeValidation, "Invalid date")
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:               utils.GenerateID(),
		Title:            strings.TrimSpace(*req.Title),
		Description:      *req.Description,
		Date:             date,
		Venue:            strings.TrimSpace(*req.Venue),
		TotalTickets:     *req.TotalTickets,
		AvailableTickets: *req.TotalTickets,
		Price:            *req.Price,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateInventory(event); err != nil {
		return nil, err
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, apperr.Internal("", "Failed to create event", err)
	}

	s.Logger.LogEvent("CREATE", event.ID, event.Title)
	s.publish(ctx, s.Topics.EventCreated, event.ID, event)
	return event, nil
}

// UpdateEvent writes the supplied fields only. The result must still satisfy
// 0 <= availableTickets <= totalTickets.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req models.EventRequest) (*models.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperr.Validation(apperr.CodeValidation, "Title cannot be empty")
		}
		event.Title = strings.TrimSpace(*req.Title)
		columns = append(columns, "title")
	}
	if req.Description != nil {
		event.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Date != nil {
		date, err := utils.ParseTimestamp(*req.Date)
		if err != nil {
			return nil, apperr.Validation(apperr.CodeValidation, "Invalid date")
		}
		event.Date = date
		columns = append(columns, "date")
	}
	if req.Venue != nil {
		if strings.TrimSpace(*req.Venue) == "" {
			return nil, apperr.Validation(apperr.CodeValidation, "Venue cannot be empty")
		}
		event.Venue = strings.TrimSpace(*req.Venue)
		columns = append(columns, "venue")
	}
	if req.TotalTickets != nil {
		event.TotalTickets = *req.TotalTickets
		columns = append(columns, "total_tickets")
	}
	if req.AvailableTickets != nil {
		event.AvailableTickets = *req.AvailableTickets
		columns = append(columns, "available_tickets")
	}
	if req.Price != nil {
		event.Price = *req.Price
		columns = append(columns, "price")
	}
	if err := validateInventory(event); err != nil {
		return nil, err
	}
	event.UpdatedAt = time.Now().UTC()
	columns = append(columns, "updated_at")

	if err := s.DB.UpdateEvent(ctx, event, columns); err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return nil, notFound()
		}
		if errors.Is(err, eventdb.ErrInventory) {
			return nil, apperr.Validation(apperr.CodeValidation, "availableTickets must not exceed totalTickets")
		}
		return nil, apperr.Internal("", "Failed to update event", err)
	}

	s.Logger.LogEvent("UPDATE", event.ID, event.Title)
	s.publish(ctx, s.Topics.EventUpdated, event.ID, event)
	if s.Notifier != nil {
		s.Notifier.NotifyAvailability(models.AvailabilityUpdate{
			EventID:          event.ID,
			AvailableTickets: event.AvailableTickets,
			TotalTickets:     event.TotalTickets,
			At:               event.UpdatedAt,
		})
	}
	return event, nil
}

// DeleteEvent removes the event and every ticket issued for it.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return notFound()
		}
		return apperr.Internal("", "Failed to delete event", err)
	}

	s.Logger.LogEvent("DELETE", id, "event and its tickets removed")
	s.publish(ctx, s.Topics.EventDeleted, id, nil)
	if s.Notifier != nil {
		s.Notifier.CloseEvent(id)
	}
	return nil
}

func validateInventory(event *models.Event) error {
	switch {
	case event.TotalTickets < 0:
		return apperr.Validation(apperr.CodeValidation, "totalTickets must not be negative")
	case event.AvailableTickets < 0:
		return apperr.Validation(apperr.CodeValidation, "availableTickets must not be negative")
	case event.AvailableTickets > event.TotalTickets:
		return apperr.Validation(apperr.CodeValidation, "availableTickets must not exceed totalTickets")
	case event.Price < 0:
		return apperr.Validation(apperr.CodeValidation, "price must not be negative")
	}
	return nil
}

// publish is best effort; the database is the source of truth.
func (s *EventService) publish(ctx context.Context, topic, id string, event *models.Event) {
	msg := models.EventChanged{
		Type:      topic,
		EventID:   id,
		Event:     event,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Publisher.Publish(ctx, topic, id, msg); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for %s: %v", topic, id, err))
	}
}
