package event_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

const keepAliveInterval = 30 * time.Second

// StreamAvailability streams availability updates for one event as
// server-sent events until the client disconnects or the event is deleted.
func (h *Handler) StreamAvailability(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	event, err := h.EventService.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Streaming unsupported", "INTERNAL_ERROR"))
		return
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ctx := r.Context()
	updates := h.Emitter.Subscribe(ctx, eventID)

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	// The current state goes first so clients never start blank.
	writeUpdate(w, models.AvailabilityUpdate{
		EventID:          event.ID,
		AvailableTickets: event.AvailableTickets,
		TotalTickets:     event.TotalTickets,
		At:               time.Now().UTC(),
	})
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client subscribed to availability of event %s", eventID))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			writeUpdate(w, update)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from event %s", eventID))
			return
		}
	}
}

func writeUpdate(w http.ResponseWriter, update models.AvailabilityUpdate) {
	data, _ := json.Marshal(update)
	fmt.Fprintf(w, "event: availability\ndata: %s\n\n", data)
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
