package reservation

import (
	"context"
	"fmt"
	"strings"
)

// BookingRequest is a guest's request for one room over one stay. UserID is the
// opaque identifier handed over by the identity provider.
type BookingRequest struct {
	UserID    string
	GuestName *string
	RoomID    string
	CheckIn   Date
	CheckOut  Date
	Guests    int
}

func (r BookingRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.RoomID) == "" {
		return ErrMissingField
	}
	if err := (DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}).Validate(); err != nil {
		return err
	}
	if r.Guests < 1 {
		return ErrInvalidGuestCount
	}
	return nil
}

// Coordinator is the entry point for callers. It pairs every availability
// check with the write that depends on it inside one room-scoped unit, so two
// overlapping requests for the same room can never both succeed.
type Coordinator struct {
	store   Store
	catalog *Catalog
	avail   *Availability
	ledger  *Ledger
	opts    Options
}

func NewCoordinator(store Store, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		store:   store,
		catalog: NewCatalog(store, opts),
		avail:   NewAvailability(store),
		ledger:  NewLedger(store, opts),
		opts:    opts,
	}
}

func (c *Coordinator) Catalog() *Catalog { return c.catalog }
func (c *Coordinator) Availability() *Availability { return c.avail }
func (c *Coordinator) Ledger() *Ledger { return c.ledger }

// CreateBooking validates the request, prices the stay and commits a new
// booking if the room is free. Overlap yields an *UnavailableError.
func (c *Coordinator) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	if err := req.Validate(); err != nil {
		return Booking{}, err
	}
	room, err := c.catalog.Room(ctx, req.RoomID)
	if err != nil {
		return Booking{}, err
	}
	stay := DateRange{CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	cost, err := Price(room.Rate, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return Booking{}, err
	}

	var created Booking
	err = c.atomically(ctx, room.ID, func(tx BookingTx) error {
		clash, err := conflicts(ctx, tx, room.ID, stay, "")
		if err != nil {
			return err
		}
		if len(clash) > 0 {
			return unavailable(room.ID, stay, clash)
		}
		created, err = c.ledger.create(ctx, tx, newBooking{
			userID:    req.UserID,
			guestName: req.GuestName,
			roomID:    room.ID,
			stay:      stay,
			guests:    req.Guests,
			cost:      cost,
			status:    c.opts.initialStatus(),
		})
		return err
	})
	if err != nil {
		return Booking{}, err
	}
	return created, nil
}

func (c *Coordinator) ConfirmBooking(ctx context.Context, id string) (Change, error) {
	return c.ledger.transition(ctx, id, StatusConfirmed)
}

// CancelBooking is idempotent: a second call reports a Noop change.
func (c *Coordinator) CancelBooking(ctx context.Context, id string) (Change, error) {
	return c.ledger.transition(ctx, id, StatusCancelled)
}

func (c *Coordinator) DeleteBooking(ctx context.Context, id string) (Change, error) {
	return c.ledger.remove(ctx, id)
}

// RebookDates moves an active booking to a new stay on the same room. The
// booking's own interval is excluded from the availability check and the cost
// is quoted again at the room's current rate.
func (c *Coordinator) RebookDates(ctx context.Context, id string, checkIn, checkOut Date) (Change, error) {
	stay, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return Change{}, err
	}
	b, err := c.ledger.Get(ctx, id)
	if err != nil {
		return Change{}, err
	}
	room, err := c.catalog.Room(ctx, b.RoomID)
	if err != nil {
		return Change{}, err
	}
	cost, err := Price(room.Rate, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return Change{}, err
	}

	var ch Change
	err = c.atomically(ctx, room.ID, func(tx BookingTx) error {
		cur, err := tx.Booking(ctx, id)
		if err != nil {
			return err
		}
		if !cur.Active() {
			return &TransitionError{BookingID: id, From: cur.Status, To: cur.Status, Op: "change dates"}
		}
		clash, err := conflicts(ctx, tx, room.ID, stay, id)
		if err != nil {
			return err
		}
		if len(clash) > 0 {
			return unavailable(room.ID, stay, clash)
		}
		cur.CheckIn, cur.CheckOut = stay.CheckIn, stay.CheckOut
		cur.TotalCost = cost
		cur.UpdatedAt = c.opts.Now().UTC()
		if err := tx.UpdateBooking(ctx, cur); err != nil {
			return err
		}
		ch = Change{Booking: cur, From: cur.Status, To: cur.Status}
		return nil
	})
	if err != nil {
		return Change{}, err
	}
	return ch, nil
}

// AvailableRooms lists rooms of roomType that are free for the whole stay,
// cheapest first.
func (c *Coordinator) AvailableRooms(ctx context.Context, roomType string, checkIn, checkOut Date) ([]Room, error) {
	stay, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	rooms, err := c.catalog.RoomsByType(ctx, roomType)
	if err != nil {
		return nil, err
	}
	out := rooms[:0]
	for _, r := range rooms {
		clash, err := c.avail.Conflicts(ctx, r.ID, stay, "")
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", r.ID, err)
		}
		if len(clash) == 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Coordinator) atomically(ctx context.Context, roomID string, fn func(tx BookingTx) error) error {
	return retry(ctx, c.opts.MaxRetries, func() error {
		return c.store.InRoomScope(ctx, roomID, fn)
	})
}
