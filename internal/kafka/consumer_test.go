package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUntilDone_RetriesFailedMessage(t *testing.T) {
	var calls int
	h := func(_ context.Context, m kafka.Message) error {
		calls++
		if calls == 1 {
			return errors.New("redis down")
		}
		return nil
	}
	var waits []int
	backoff := func(attempt int) time.Duration {
		waits = append(waits, attempt)
		return time.Millisecond
	}

	err := handleUntilDone(context.Background(), h, kafka.Message{Offset: 5}, backoff)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{0}, waits)
}

func TestHandleUntilDone_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("still failing")
	}

	err := handleUntilDone(ctx, h, kafka.Message{}, func(int) time.Duration { return time.Millisecond })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
}

func TestDefaultBackoff_Capped(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, defaultBackoff(0))
	assert.Equal(t, 400*time.Millisecond, defaultBackoff(1))
	assert.Equal(t, 5*time.Second, defaultBackoff(5))
	assert.Equal(t, 5*time.Second, defaultBackoff(40))
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		BookingID string `json:"booking_id"`
	}
	p, err := UnwrapPayload[payload](json.RawMessage(`{"booking_id":"b-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "b-1", p.BookingID)

	_, err = UnwrapPayload[payload](json.RawMessage(`{`))
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestDecodeEnvelope(t *testing.T) {
	env := reservation.Envelope{
		EventID:      "e-1",
		EventType:    reservation.EventBookingCreated,
		EventVersion: reservation.EventVersion,
		Payload:      json.RawMessage(`{}`),
	}
	got, err := DecodeEnvelope(MustMarshal(env))
	require.NoError(t, err)
	assert.Equal(t, "e-1", got.EventID)
	assert.Equal(t, reservation.EventBookingCreated, got.EventType)

	future := env
	future.EventVersion = reservation.EventVersion + 1
	_, err = DecodeEnvelope(MustMarshal(future))
	assert.ErrorIs(t, err, ErrUndecodable)

	noID := env
	noID.EventID = ""
	_, err = DecodeEnvelope(MustMarshal(noID))
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = DecodeEnvelope([]byte("not json"))
	assert.ErrorIs(t, err, ErrUndecodable)
}
