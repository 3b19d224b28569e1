package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Change describes the effect of a lifecycle operation on one booking.
type Change struct {
	// Booking is the record after the operation; for a deletion, the erased record.
	Booking Booking
	// From is empty for a creation.
	From Status
	// To is empty for a deletion.
	To Status
	// Noop is set when cancelling an already cancelled booking.
	Noop bool
}

// Ledger owns booking records and enforces the status state machine:
//
//	Pending   -> Confirmed | Cancelled
//	Confirmed -> Cancelled
//	Cancelled is terminal
//
// Deletion is allowed from any status and erases the record.
type Ledger struct {
	store      Store
	now        func() time.Time
	newID      func() string
	maxRetries int
}

func NewLedger(store Store, opts Options) *Ledger {
	opts = opts.withDefaults()
	return &Ledger{store: store, now: opts.Now, newID: opts.NewID, maxRetries: opts.MaxRetries}
}

type newBooking struct {
	userID    string
	guestName *string
	roomID    string
	stay      DateRange
	guests    int
	cost      Money
	status    Status
}

// create inserts a booking inside a room scope. It must only be reached from
// the coordinator, after the availability check on the same tx.
func (l *Ledger) create(ctx context.Context, tx BookingTx, in newBooking) (Booking, error) {
	now := l.now().UTC()
	b := Booking{
		ID:        l.newID(),
		UserID:    in.userID,
		GuestName: in.guestName,
		RoomID:    in.roomID,
		CheckIn:   in.stay.CheckIn,
		CheckOut:  in.stay.CheckOut,
		Guests:    in.guests,
		TotalCost: in.cost,
		Status:    in.status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.InsertBooking(ctx, b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (Booking, error) {
	return l.store.Booking(ctx, id)
}

// Confirm moves a Pending booking to Confirmed.
func (l *Ledger) Confirm(ctx context.Context, id string) (Booking, error) {
	ch, err := l.transition(ctx, id, StatusConfirmed)
	return ch.Booking, err
}

// Cancel moves a Pending or Confirmed booking to Cancelled. Cancelling a
// Cancelled booking returns it unchanged.
func (l *Ledger) Cancel(ctx context.Context, id string) (Booking, error) {
	ch, err := l.transition(ctx, id, StatusCancelled)
	return ch.Booking, err
}

func (l *Ledger) Delete(ctx context.Context, id string) error {
	_, err := l.remove(ctx, id)
	return err
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]Booking, error) {
	bs, err := l.store.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortBookings(bs)
	return bs, nil
}

// ListAll returns bookings matching f, most recent check-in first.
func (l *Ledger) ListAll(ctx context.Context, f Filter) ([]Booking, error) {
	f.Text = strings.TrimSpace(f.Text)
	if f.Overlaps != nil {
		if err := f.Overlaps.Validate(); err != nil {
			return nil, err
		}
	}
	bs, err := l.store.Bookings(ctx, f)
	if err != nil {
		return nil, err
	}
	SortBookings(bs)
	return bs, nil
}

func (l *Ledger) StatusCounts(ctx context.Context) (StatusCounts, error) {
	return l.store.CountByStatus(ctx)
}

// Revenue is the summed cost of every Pending and Confirmed booking.
func (l *Ledger) Revenue(ctx context.Context) (Money, error) {
	return l.store.Revenue(ctx)
}

const maxSummaryMonths = 120

// MonthlySummary returns one entry per calendar month, oldest first, for the
// months calendar months ending with the month of through. Months without
// bookings are reported with zero totals.
func (l *Ledger) MonthlySummary(ctx context.Context, through Date, months int) ([]MonthTotal, error) {
	if through.IsZero() {
		return nil, fmt.Errorf("%w: through date", ErrMissingField)
	}
	if months < 1 || months > maxSummaryMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", ErrValidation, maxSummaryMonths)
	}
	end := through.MonthStart().AddMonths(1)
	start := end.AddMonths(-months)
	totals, err := l.store.MonthlyTotals(ctx, DateRange{CheckIn: start, CheckOut: end})
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]MonthTotal, len(totals))
	for _, t := range totals {
		byMonth[t.Month] = t
	}
	out := make([]MonthTotal, 0, months)
	for m := start; m.Before(end); m = m.AddMonths(1) {
		t, ok := byMonth[m.Month()]
		if !ok {
			t = MonthTotal{Month: m.Month()}
		}
		out = append(out, t)
	}
	return out, nil
}

func (l *Ledger) transition(ctx context.Context, id string, to Status) (Change, error) {
	b, err := l.store.Booking(ctx, id)
	if err != nil {
		return Change{}, err
	}
	var ch Change
	err = retry(ctx, l.maxRetries, func() error {
		return l.store.InRoomScope(ctx, b.RoomID, func(tx BookingTx) error {
			cur, err := tx.Booking(ctx, id)
			if err != nil {
				return err
			}
			ch = Change{Booking: cur, From: cur.Status, To: to}
			if to == StatusCancelled && cur.Status == StatusCancelled {
				ch.Noop = true
				return nil
			}
			if !CanTransition(cur.Status, to) {
				return &TransitionError{BookingID: id, From: cur.Status, To: to}
			}
			cur.Status = to
			cur.UpdatedAt = l.now().UTC()
			if err := tx.UpdateBooking(ctx, cur); err != nil {
				return err
			}
			ch.Booking = cur
			return nil
		})
	})
	if err != nil {
		return Change{}, err
	}
	return ch, nil
}

func (l *Ledger) remove(ctx context.Context, id string) (Change, error) {
	b, err := l.store.Booking(ctx, id)
	if err != nil {
		return Change{}, err
	}
	var ch Change
	err = retry(ctx, l.maxRetries, func() error {
		return l.store.InRoomScope(ctx, b.RoomID, func(tx BookingTx) error {
			cur, err := tx.Booking(ctx, id)
			if err != nil {
				return err
			}
			if err := tx.DeleteBooking(ctx, id); err != nil {
				return fmt.Errorf("delete booking %s: %w", id, err)
			}
			ch = Change{Booking: cur, From: cur.Status}
			return nil
		})
	})
	if err != nil {
		return Change{}, err
	}
	return ch, nil
}
