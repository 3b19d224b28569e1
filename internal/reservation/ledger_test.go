package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLedger(t *testing.T) (*Coordinator, []Booking) {
	t.Helper()
	ctx := context.Background()
	c, _ := newTestCoordinator(t, Options{})
	alice, bob := "Alice Carter", "Bob Stone"
	reqs := []BookingRequest{
		{UserID: "u1", GuestName: &alice, RoomID: "R1", CheckIn: MustDate("2024-06-01"), CheckOut: MustDate("2024-06-03"), Guests: 2},
		{UserID: "u2", GuestName: &bob, RoomID: "R3", CheckIn: MustDate("2024-06-10"), CheckOut: MustDate("2024-06-12"), Guests: 1},
		{UserID: "u1", RoomID: "R2", CheckIn: MustDate("2024-07-01"), CheckOut: MustDate("2024-07-04"), Guests: 3},
	}
	var out []Booking
	for _, r := range reqs {
		b, err := c.CreateBooking(ctx, r)
		require.NoError(t, err)
		out = append(out, b)
	}
	return c, out
}

func ids(bs []Booking) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func TestLedger_ConfirmOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()

	b, err := l.Confirm(ctx, bs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)

	_, err = l.Confirm(ctx, bs[0].ID)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusConfirmed, te.From)
	assert.Equal(t, StatusConfirmed, te.To)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLedger_CancelledIsTerminal(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()

	_, err := l.Cancel(ctx, bs[1].ID)
	require.NoError(t, err)

	_, err = l.Confirm(ctx, bs[1].ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	b, err := l.Cancel(ctx, bs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestLedger_UnknownBooking(t *testing.T) {
	ctx := context.Background()
	c, _ := seedLedger(t)
	l := c.Ledger()

	_, err := l.Confirm(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	_, err = l.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.ErrorIs(t, l.Delete(ctx, "missing"), ErrNotFound)
}

func TestLedger_DeleteFromAnyStatus(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()

	_, err := l.Cancel(ctx, bs[0].ID)
	require.NoError(t, err)
	_, err = l.Confirm(ctx, bs[1].ID)
	require.NoError(t, err)

	for _, b := range bs {
		require.NoError(t, l.Delete(ctx, b.ID))
	}
	all, err := l.ListAll(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLedger_ListByUser(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)

	got, err := c.Ledger().ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{bs[2].ID, bs[0].ID}, ids(got))

	got, err = c.Ledger().ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLedger_ListAllFilters(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()
	_, err := l.Confirm(ctx, bs[1].ID)
	require.NoError(t, err)

	all, err := l.ListAll(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{bs[2].ID, bs[1].ID, bs[0].ID}, ids(all))

	confirmed := StatusConfirmed
	got, err := l.ListAll(ctx, Filter{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, []string{bs[1].ID}, ids(got))

	june := stay("2024-06-02", "2024-06-11")
	got, err = l.ListAll(ctx, Filter{Overlaps: &june})
	require.NoError(t, err)
	assert.Equal(t, []string{bs[1].ID, bs[0].ID}, ids(got))

	got, err = l.ListAll(ctx, Filter{Text: "  suite "})
	require.NoError(t, err)
	assert.Equal(t, []string{bs[1].ID}, ids(got))

	got, err = l.ListAll(ctx, Filter{Text: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{bs[0].ID}, ids(got))

	got, err = l.ListAll(ctx, Filter{Text: "deluxe", Status: &confirmed})
	require.NoError(t, err)
	assert.Empty(t, got)

	bad := stay("2024-06-05", "2024-06-01")
	_, err = l.ListAll(ctx, Filter{Overlaps: &bad})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestLedger_StatusCounts(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()
	_, err := l.Confirm(ctx, bs[0].ID)
	require.NoError(t, err)
	_, err = l.Cancel(ctx, bs[1].ID)
	require.NoError(t, err)

	counts, err := l.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCounts{StatusPending: 1, StatusConfirmed: 1, StatusCancelled: 1}, counts)
}

func TestLedger_RevenueExcludesCancelled(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()

	rev, err := l.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1260.00", rev.String())

	_, err = l.Cancel(ctx, bs[1].ID)
	require.NoError(t, err)
	rev, err = l.Revenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "660.00", rev.String())
}

func TestLedger_MonthlySummary(t *testing.T) {
	ctx := context.Background()
	c, bs := seedLedger(t)
	l := c.Ledger()

	_, err := l.Cancel(ctx, bs[1].ID)
	require.NoError(t, err)

	got, err := l.MonthlySummary(ctx, MustDate("2024-07-15"), 3)
	require.NoError(t, err)
	assert.Equal(t, []MonthTotal{
		{Month: "2024-05"},
		{Month: "2024-06", Bookings: 1, Revenue: MustMoney("300.00")},
		{Month: "2024-07", Bookings: 1, Revenue: MustMoney("360.00")},
	}, got)

	got, err = l.MonthlySummary(ctx, MustDate("2025-02-01"), 2)
	require.NoError(t, err)
	assert.Equal(t, []MonthTotal{{Month: "2025-01"}, {Month: "2025-02"}}, got)
}

func TestLedger_MonthlySummaryRejectsBadWindow(t *testing.T) {
	ctx := context.Background()
	c, _ := seedLedger(t)
	l := c.Ledger()

	_, err := l.MonthlySummary(ctx, MustDate("2024-07-15"), 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = l.MonthlySummary(ctx, MustDate("2024-07-15"), 121)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = l.MonthlySummary(ctx, Date{}, 6)
	assert.ErrorIs(t, err, ErrMissingField)
}
