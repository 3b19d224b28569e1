package reservation

import "context"

// BookingReader is the read view the availability check needs.
type BookingReader interface {
	// ActiveBookings returns the Pending and Confirmed bookings of a room,
	// leaving out the booking with id excluding when it is non-empty.
	ActiveBookings(ctx context.Context, roomID, excluding string) ([]Booking, error)
}

// BookingTx is the booking surface available inside a room-scoped unit.
type BookingTx interface {
	BookingReader
	Booking(ctx context.Context, id string) (Booking, error)
	InsertBooking(ctx context.Context, b Booking) error
	UpdateBooking(ctx context.Context, b Booking) error
	DeleteBooking(ctx context.Context, id string) error
}

// Store is the persistence boundary of the reservation core.
//
// Lookups return ErrRoomNotFound / ErrBookingNotFound for unknown ids; other
// failures are wrapped in ErrPersistence.
type Store interface {
	BookingTx

	Room(ctx context.Context, id string) (Room, error)
	RoomsByType(ctx context.Context, roomType string) ([]Room, error)
	InsertRoom(ctx context.Context, r Room) error
	UpdateRoomRate(ctx context.Context, id string, rate Money) (Room, error)

	BookingsByUser(ctx context.Context, userID string) ([]Booking, error)
	Bookings(ctx context.Context, f Filter) ([]Booking, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
	// Revenue sums the total cost of all non-cancelled bookings.
	Revenue(ctx context.Context) (Money, error)
	// MonthlyTotals groups non-cancelled bookings checking in within r by
	// month, oldest first. Months without bookings are left out.
	MonthlyTotals(ctx context.Context, r DateRange) ([]MonthTotal, error)

	// InRoomScope runs fn as one atomic unit over the bookings of roomID. While
	// fn runs, no other InRoomScope call for the same room can read or write
	// that room's bookings. Scopes of different rooms do not contend.
	InRoomScope(ctx context.Context, roomID string, fn func(tx BookingTx) error) error
}
