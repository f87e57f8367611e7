package sse

import (
	"context"
	"sync"

	"ms-booking/internal/models"
)

const clientBuffer = 10

// InventoryEmitter fans out availability changes to live subscribers of an event.
type InventoryEmitter struct {
	mu      sync.RWMutex
	clients map[string][]chan models.AvailabilityUpdate
}

func NewInventoryEmitter() *InventoryEmitter {
	return &InventoryEmitter{
		clients: make(map[string][]chan models.AvailabilityUpdate),
	}
}

// Subscribe registers a client for eventID. The returned channel is closed
// once ctx is done.
func (e *InventoryEmitter) Subscribe(ctx context.Context, eventID string) <-chan models.AvailabilityUpdate {
	ch := make(chan models.AvailabilityUpdate, clientBuffer)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, ch)
	}()

	return ch
}

// NotifyAvailability broadcasts update to the event's subscribers. Slow
// clients whose buffer is full miss the update.
func (e *InventoryEmitter) NotifyAvailability(update models.AvailabilityUpdate) {
	if e == nil {
		return
	}
	// Sends happen under the read lock so remove cannot close a channel mid-send.
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.clients[update.EventID] {
		select {
		case ch <- update:
		default:
		}
	}
}

// CloseEvent disconnects every subscriber of eventID, e.g. after deletion.
func (e *InventoryEmitter) CloseEvent(eventID string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.clients[eventID] {
		close(ch)
	}
	delete(e.clients, eventID)
}

func (e *InventoryEmitter) remove(eventID string, target chan models.AvailabilityUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[eventID]
	for i, ch := range clients {
		if ch == target {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(target)
			break
		}
	}

	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns the number of clients currently subscribed to an event
func (e *InventoryEmitter) ClientCount(eventID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[eventID])
}
