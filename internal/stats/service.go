package stats

import (
	"context"
	"fmt"
	"log"

	kafkax "github.com/ariefcatur/go-hotel-reservations/internal/kafka"
	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	kafkago "github.com/segmentio/kafka-go"
)

// Projection is where the per-status booking counters live (Redis in production).
type Projection interface {
	FirstSeen(ctx context.Context, service, eventID string) (bool, error)
	Forget(ctx context.Context, service, eventID string) error
	ApplyStatusDeltas(ctx context.Context, deltas map[reservation.Status]int64) error
}

// Service keeps the admin dashboard's Pending/Confirmed/Cancelled counters in
// step with booking lifecycle events.
type Service struct {
	Projection  Projection
	ServiceName string
}

// HandleBookingEvent is installed as the consumer handler. A returned error
// means the event should be tried again; events that can never be decoded are
// logged and skipped so they do not hold up their partition.
func (s *Service) HandleBookingEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		log.Printf("stats: skip %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return nil
	}
	switch env.EventType {
	case reservation.EventBookingCreated, reservation.EventBookingConfirmed,
		reservation.EventBookingCancelled, reservation.EventBookingDeleted,
		reservation.EventBookingRebooked:
	default:
		return nil // ignore
	}
	p, err := kafkax.UnwrapPayload[reservation.BookingEventPayload](env.Payload)
	if err != nil {
		log.Printf("stats: skip %s: %v", env.EventID, err)
		return nil
	}

	// 2) dedup on event_id
	first, err := s.Projection.FirstSeen(ctx, s.ServiceName, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	// 3) payload -> counter deltas
	if err := s.Projection.ApplyStatusDeltas(ctx, Deltas(p)); err != nil {
		_ = s.Projection.Forget(ctx, s.ServiceName, env.EventID)
		return fmt.Errorf("apply %s: %w", env.EventID, err)
	}
	return nil
}

// Deltas turns one status change into counter increments: the old status loses
// a booking, the new one gains it.
func Deltas(p reservation.BookingEventPayload) map[reservation.Status]int64 {
	d := make(map[reservation.Status]int64, 2)
	if p.FromStatus != "" {
		d[p.FromStatus]--
	}
	if p.ToStatus != "" {
		d[p.ToStatus]++
	}
	return d
}
