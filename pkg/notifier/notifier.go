// Package notifier implements the broadcast hub that fans ledger change
// events out to every currently attached subscriber. Delivery is
// best-effort and at-most-once per subscriber; there is no replay, so a
// subscriber attached after an event was published never sees it.
package notifier

import (
	"sync"

	"github.com/google/uuid"

	"chairside/pkg/logger"
	"chairside/pkg/model"
)

// Event kinds, matching the names delivered on the wire.
const (
	EventBookingCreated   = "new_booking"
	EventBookingCancelled = "booking_cancelled"
)

// Event is a single ledger change. Booking carries the full row: for a
// cancellation it is the pre-delete snapshot, since the row no longer
// exists to query.
type Event struct {
	Kind    string
	Booking *model.Booking
}

// Subscription is one attached viewer. The Events channel is closed when
// the subscription is detached.
type Subscription struct {
	id   string
	ch   chan Event
	hub  *Hub
	once sync.Once
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the hub and closes its channel.
// Safe to call more than once and concurrently with Publish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.detach(s)
	})
}

// Hub is a concurrency-safe registry of subscriptions. Publish holds the
// read lock while sending so a detach (write lock) can never race a send
// into a closed channel.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	buffer      int
	log         *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscription),
		buffer:      16,
		log:         log,
	}
}

// Subscribe attaches a new viewer and returns its subscription. The caller
// owns the subscription and must Close it on disconnect.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		id:  uuid.New().String(),
		ch:  make(chan Event, h.buffer),
		hub: h,
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	h.log.Debug("Subscriber attached", "subscriber_id", sub.id)
	return sub
}

func (h *Hub) detach(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub.id]; !ok {
		return
	}
	delete(h.subscribers, sub.id)
	close(sub.ch)
	h.log.Debug("Subscriber detached", "subscriber_id", sub.id)
}

// Publish delivers the event to every currently attached subscriber. A
// subscriber whose buffer is full is skipped rather than waited on, so one
// slow viewer cannot stall the others or the publishing request.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subscribers {
		select {
		case sub.ch <- event:
		default:
			h.log.Warn("Subscriber buffer full, event dropped",
				"subscriber_id", id,
				"event", event.Kind,
			)
		}
	}
}

// Count returns the number of currently attached subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
