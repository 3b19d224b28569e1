package reservation

import (
	"encoding/json"
	"time"
)

// EventVersion is the envelope version written by this build.
const EventVersion = 1

const (
	EventBookingCreated   = "BookingCreated"
	EventBookingConfirmed = "BookingConfirmed"
	EventBookingCancelled = "BookingCancelled"
	EventBookingDeleted   = "BookingDeleted"
	EventBookingRebooked  = "BookingRebooked"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // EventVersion
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "reservation-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking id
	Payload       json.RawMessage `json:"payload"`
}

// BookingEventPayload is shared by every lifecycle event. FromStatus is empty
// on creation, ToStatus on deletion.
type BookingEventPayload struct {
	BookingID  string `json:"booking_id"`
	RoomID     string `json:"room_id"`
	UserID     string `json:"user_id"`
	CheckIn    Date   `json:"check_in"`
	CheckOut   Date   `json:"check_out"`
	TotalCost  Money  `json:"total_cost"`
	FromStatus Status `json:"from_status,omitempty"`
	ToStatus   Status `json:"to_status,omitempty"`
}

func PayloadOf(ch Change) BookingEventPayload {
	b := ch.Booking
	return BookingEventPayload{
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		UserID:     b.UserID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		TotalCost:  b.TotalCost,
		FromStatus: ch.From,
		ToStatus:   ch.To,
	}
}

// Created wraps a freshly created booking as a Change.
func Created(b Booking) Change {
	return Change{Booking: b, To: b.Status}
}
