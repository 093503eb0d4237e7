// Package events bridges the in-process notifier hub to Kafka so external
// consumers can follow ledger changes. The relay is best-effort: a broker
// failure is logged and never surfaces to the request that triggered the
// event.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chairside/pkg/kafka"
	"chairside/pkg/logger"
	"chairside/pkg/notifier"
)

const publishTimeout = 5 * time.Second

// Publisher is the producer-side surface the relay needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Relay forwards every hub event to a Kafka topic for the lifetime of its
// subscription.
type Relay struct {
	sub      *notifier.Subscription
	producer Publisher
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewRelay(hub *notifier.Hub, producer Publisher, log *logger.Logger) *Relay {
	return &Relay{
		sub:      hub.Subscribe(),
		producer: producer,
		log:      log,
	}
}

// Start begins forwarding in the background. Call Stop to end it.
func (r *Relay) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for event := range r.sub.Events() {
			r.forward(event)
		}
	}()
	r.log.Info("Kafka event relay started")
}

// Stop detaches from the hub and waits for in-flight publishes to finish.
func (r *Relay) Stop() {
	r.sub.Close()
	r.wg.Wait()
	r.log.Info("Kafka event relay stopped")
}

func (r *Relay) forward(event notifier.Event) {
	// Keying by slot keeps events for the same slot on one partition.
	key := fmt.Sprintf("%s %s", event.Booking.Date, event.Booking.Time)

	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(event.Booking).
		WithEventType(event.Kind).
		WithSource("chairside").
		Build()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.producer.Publish(ctx, msg); err != nil {
		r.log.Warn("Failed to relay event to Kafka",
			"event", event.Kind,
			"booking_id", event.Booking.ID,
			"error", err,
		)
		return
	}

	r.log.Debug("Event relayed to Kafka",
		"event", event.Kind,
		"booking_id", event.Booking.ID,
	)
}
