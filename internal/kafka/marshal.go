package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
)

// ErrUndecodable marks a message that can never be processed, whatever the
// number of attempts.
var ErrUndecodable = errors.New("undecodable event")

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// DecodeEnvelope reads a booking event envelope. Envelopes newer than
// reservation.EventVersion are refused.
func DecodeEnvelope(b []byte) (reservation.Envelope, error) {
	var env reservation.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return reservation.Envelope{}, fmt.Errorf("%w: envelope: %v", ErrUndecodable, err)
	}
	if env.EventID == "" || env.EventType == "" {
		return reservation.Envelope{}, fmt.Errorf("%w: envelope without id or type", ErrUndecodable)
	}
	if env.EventVersion < 1 || env.EventVersion > reservation.EventVersion {
		return reservation.Envelope{}, fmt.Errorf("%w: %s version %d", ErrUndecodable, env.EventType, env.EventVersion)
	}
	return env, nil
}

// UnwrapPayload decodes an event-specific payload.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("%w: payload: %v", ErrUndecodable, err)
	}
	return t, nil
}
