package reservation

import "context"

// Availability decides whether a room is free for a stay by scanning the
// room's active bookings for overlap. It never writes.
type Availability struct {
	bookings BookingReader
}

func NewAvailability(r BookingReader) *Availability {
	return &Availability{bookings: r}
}

// IsAvailable reports whether [checkIn, checkOut) is free on roomID. A
// non-empty excluding id leaves that booking out of the scan, for re-checking
// an existing booking against new dates.
func (a *Availability) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut Date, excluding string) (bool, error) {
	stay := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := stay.Validate(); err != nil {
		return false, err
	}
	conflicts, err := a.Conflicts(ctx, roomID, stay, excluding)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Conflicts returns the active bookings on roomID that overlap stay.
func (a *Availability) Conflicts(ctx context.Context, roomID string, stay DateRange, excluding string) ([]Booking, error) {
	return conflicts(ctx, a.bookings, roomID, stay, excluding)
}

func conflicts(ctx context.Context, r BookingReader, roomID string, stay DateRange, excluding string) ([]Booking, error) {
	active, err := r.ActiveBookings(ctx, roomID, excluding)
	if err != nil {
		return nil, err
	}
	var out []Booking
	for _, b := range active {
		if !b.Active() || b.ID == excluding {
			continue
		}
		if b.Stay().Overlaps(stay) {
			out = append(out, b)
		}
	}
	return out, nil
}

func unavailable(roomID string, stay DateRange, bs []Booking) *UnavailableError {
	e := &UnavailableError{RoomID: roomID, Requested: stay}
	for _, b := range bs {
		e.Conflicts = append(e.Conflicts, b.Stay())
	}
	return e
}
