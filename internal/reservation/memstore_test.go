package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InRoomScopeDiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testRooms()...)
	boom := errors.New("boom")

	err := store.InRoomScope(ctx, "R1", func(tx BookingTx) error {
		require.NoError(t, tx.InsertBooking(ctx, Booking{ID: "x", RoomID: "R1", Status: StatusPending,
			CheckIn: MustDate("2024-06-01"), CheckOut: MustDate("2024-06-02")}))
		active, err := tx.ActiveBookings(ctx, "R1", "")
		require.NoError(t, err)
		assert.Len(t, active, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Booking(ctx, "x")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestMemoryStore_InRoomScopeRejectsOtherRooms(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testRooms()...)
	err := store.InRoomScope(ctx, "R1", func(tx BookingTx) error {
		return tx.InsertBooking(ctx, Booking{ID: "x", RoomID: "R2", Status: StatusPending})
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestMemoryStore_InRoomScopeUnknownRoom(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testRooms()...)
	err := store.InRoomScope(ctx, "R9", func(tx BookingTx) error {
		return tx.InsertBooking(ctx, Booking{ID: "x", RoomID: "R9", Status: StatusPending})
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Zero(t, store.locks.held())
}

func TestRoomLocks_SerializesSameRoomOnly(t *testing.T) {
	ctx := context.Background()
	l := newRoomLocks()

	unlockA, err := l.lock(ctx, "R1")
	require.NoError(t, err)

	// another room is not blocked
	unlockB, err := l.lock(ctx, "R2")
	require.NoError(t, err)
	unlockB()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.lock(waitCtx, "R1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrContention)

	acquired := make(chan struct{})
	go func() {
		unlock, err := l.lock(ctx, "R1")
		if err == nil {
			unlock()
		}
		close(acquired)
	}()
	unlockA()
	unlockA() // second call is a no-op
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the room lock")
	}
	assert.Zero(t, l.held())
}
