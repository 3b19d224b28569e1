package reservation

import (
	"strings"
	"time"
)

// Room carries no availability flag; availability is derived from active bookings.
type Room struct {
	ID        string    `json:"id"`
	Type      string    `json:"room_type"`
	Rate      Money     `json:"nightly_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Booking struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GuestName *string   `json:"guest_name,omitempty"`
	RoomID    string    `json:"room_id"`
	CheckIn   Date      `json:"check_in"`
	CheckOut  Date      `json:"check_out"`
	Guests    int       `json:"guests"`
	TotalCost Money     `json:"total_cost"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b Booking) Stay() DateRange { return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut} }

func (b Booking) Active() bool { return b.Status.Active() }

// Filter holds the optional predicates of a ledger listing. Zero fields match everything.
type Filter struct {
	Status *Status
	// Overlaps keeps bookings whose stay intersects the range.
	Overlaps *DateRange
	// Text is a case-insensitive substring matched against room type or guest name.
	Text string
}

func (f Filter) Match(b Booking, roomType string) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.Overlaps != nil && !b.Stay().Overlaps(*f.Overlaps) {
		return false
	}
	if f.Text != "" && !containsFold(roomType, f.Text) &&
		(b.GuestName == nil || !containsFold(*b.GuestName, f.Text)) {
		return false
	}
	return true
}

// StatusCounts is the number of bookings per status.
type StatusCounts map[Status]int64

// MonthTotal aggregates the non-cancelled bookings that check in during one
// calendar month.
type MonthTotal struct {
	Month    string `json:"month"` // YYYY-MM
	Bookings int64  `json:"bookings"`
	Revenue  Money  `json:"revenue"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
