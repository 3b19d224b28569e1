package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkax "github.com/ariefcatur/go-hotel-reservations/internal/kafka"
	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjection struct {
	seen     map[string]bool
	counts   map[reservation.Status]int64
	applyErr error
}

func newFakeProjection() *fakeProjection {
	return &fakeProjection{seen: map[string]bool{}, counts: map[reservation.Status]int64{}}
}

func (f *fakeProjection) FirstSeen(_ context.Context, service, id string) (bool, error) {
	k := service + ":" + id
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func (f *fakeProjection) Forget(_ context.Context, service, id string) error {
	delete(f.seen, service+":"+id)
	return nil
}

func (f *fakeProjection) ApplyStatusDeltas(_ context.Context, d map[reservation.Status]int64) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	for k, v := range d {
		f.counts[k] += v
	}
	return nil
}

func message(id, typ string, from, to reservation.Status) kafkago.Message {
	env := reservation.Envelope{
		EventID:      id,
		EventType:    typ,
		EventVersion: 1,
		OccurredAt:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Payload: kafkax.MustMarshal(reservation.BookingEventPayload{
			BookingID: "b-1", RoomID: "R1", FromStatus: from, ToStatus: to,
		}),
	}
	return kafkago.Message{Key: []byte("b-1"), Value: kafkax.MustMarshal(env)}
}

func TestHandleBookingEvent_Lifecycle(t *testing.T) {
	ctx := context.Background()
	proj := newFakeProjection()
	s := &Service{Projection: proj, ServiceName: "stats"}

	msgs := []kafkago.Message{
		message("e1", reservation.EventBookingCreated, "", reservation.StatusPending),
		message("e2", reservation.EventBookingConfirmed, reservation.StatusPending, reservation.StatusConfirmed),
		message("e3", reservation.EventBookingRebooked, reservation.StatusConfirmed, reservation.StatusConfirmed),
		message("e4", reservation.EventBookingCancelled, reservation.StatusConfirmed, reservation.StatusCancelled),
		message("e5", reservation.EventBookingCreated, "", reservation.StatusPending),
		message("e6", reservation.EventBookingDeleted, reservation.StatusPending, ""),
	}
	for _, m := range msgs {
		require.NoError(t, s.HandleBookingEvent(ctx, m))
	}
	assert.Equal(t, int64(0), proj.counts[reservation.StatusPending])
	assert.Equal(t, int64(0), proj.counts[reservation.StatusConfirmed])
	assert.Equal(t, int64(1), proj.counts[reservation.StatusCancelled])
}

func TestHandleBookingEvent_DedupsRedelivery(t *testing.T) {
	ctx := context.Background()
	proj := newFakeProjection()
	s := &Service{Projection: proj, ServiceName: "stats"}

	m := message("e1", reservation.EventBookingCreated, "", reservation.StatusPending)
	require.NoError(t, s.HandleBookingEvent(ctx, m))
	require.NoError(t, s.HandleBookingEvent(ctx, m))
	assert.Equal(t, int64(1), proj.counts[reservation.StatusPending])
}

func TestHandleBookingEvent_FailedApplyCanBeRetried(t *testing.T) {
	ctx := context.Background()
	proj := newFakeProjection()
	proj.applyErr = errors.New("redis down")
	s := &Service{Projection: proj, ServiceName: "stats"}

	m := message("e1", reservation.EventBookingCreated, "", reservation.StatusPending)
	assert.Error(t, s.HandleBookingEvent(ctx, m))

	proj.applyErr = nil
	require.NoError(t, s.HandleBookingEvent(ctx, m))
	assert.Equal(t, int64(1), proj.counts[reservation.StatusPending])
}

func TestHandleBookingEvent_SkipsForeignAndUndecodable(t *testing.T) {
	ctx := context.Background()
	proj := newFakeProjection()
	s := &Service{Projection: proj, ServiceName: "stats"}

	assert.NoError(t, s.HandleBookingEvent(ctx, message("e1", "OrderCreated", "", "x")))
	assert.NoError(t, s.HandleBookingEvent(ctx, kafkago.Message{Value: []byte("not json")}))

	future := reservation.Envelope{EventID: "e2", EventType: reservation.EventBookingCreated, EventVersion: reservation.EventVersion + 1}
	assert.NoError(t, s.HandleBookingEvent(ctx, kafkago.Message{Value: kafkax.MustMarshal(future)}))

	assert.Empty(t, proj.seen)
	assert.Empty(t, proj.counts)
}

func TestDeltas(t *testing.T) {
	d := Deltas(reservation.BookingEventPayload{FromStatus: reservation.StatusPending, ToStatus: reservation.StatusConfirmed})
	assert.Equal(t, map[reservation.Status]int64{reservation.StatusPending: -1, reservation.StatusConfirmed: 1}, d)

	d = Deltas(reservation.BookingEventPayload{FromStatus: reservation.StatusPending, ToStatus: reservation.StatusPending})
	assert.Equal(t, map[reservation.Status]int64{reservation.StatusPending: 0}, d)
}
