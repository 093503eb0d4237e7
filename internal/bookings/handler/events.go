package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"chairside/pkg/logger"
	"chairside/pkg/middleware"
	"chairside/pkg/notifier"
)

const keepAliveInterval = 30 * time.Second

// EventStreamHandler serves ledger change events over Server-Sent Events.
// Each connection gets its own hub subscription for its lifetime, receiving
// a `connected` event on attach and then every change published while it
// stays attached.
type EventStreamHandler struct {
	hub *notifier.Hub
	log *logger.Logger
}

func NewEventStreamHandler(hub *notifier.Hub, log *logger.Logger) *EventStreamHandler {
	return &EventStreamHandler{
		hub: hub,
		log: log,
	}
}

func (h *EventStreamHandler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"Streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe()
	defer sub.Close()

	requestID := middleware.RequestID(r.Context())
	h.log.Info("Event stream client connected",
		"request_id", requestID,
		"subscribers", h.hub.Count(),
	)
	defer func() {
		h.log.Info("Event stream client disconnected",
			"request_id", requestID,
		)
	}()

	if err := writeSSE(w, "connected", map[string]string{"status": "connected"}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeSSE(w, event.Kind, event.Booking); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func (h *EventStreamHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/bookings/events", h.Stream)
}
