package redisx

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a disposable Redis: RESERVATION_TEST_REDIS_ADDR=localhost:6379
func testCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("RESERVATION_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RESERVATION_TEST_REDIS_ADDR not set")
	}
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	require.NoError(t, rdb.Del(context.Background(), KeyStatusCounts).Err())
	return &Cache{RDB: rdb}
}

func TestCache_Idempotency(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())

	_, ok, err := c.CreatedBooking(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.RememberCreate(ctx, key, "b-1"))
	id, ok, err := c.CreatedBooking(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b-1", id)
}

func TestCache_BookingRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	b := reservation.Booking{ID: fmt.Sprintf("b-%d", time.Now().UnixNano()), RoomID: "R1", Status: reservation.StatusPending}

	require.NoError(t, c.PutBooking(ctx, b))
	raw, ok, err := c.CachedBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, string(raw), `"status":"Pending"`)

	require.NoError(t, c.DropBooking(ctx, b.ID))
	_, ok, err = c.CachedBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_DedupAndCounters(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	ev := fmt.Sprintf("ev-%d", time.Now().UnixNano())

	first, err := c.FirstSeen(ctx, "stats", ev)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := c.FirstSeen(ctx, "stats", ev)
	require.NoError(t, err)
	assert.False(t, again)

	_, ok, err := c.StatusCounts(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ApplyStatusDeltas(ctx, map[reservation.Status]int64{reservation.StatusPending: 2}))
	require.NoError(t, c.ApplyStatusDeltas(ctx, map[reservation.Status]int64{
		reservation.StatusPending:   -1,
		reservation.StatusConfirmed: 1,
	}))
	counts, ok, err := c.StatusCounts(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), counts[reservation.StatusPending])
	assert.Equal(t, int64(1), counts[reservation.StatusConfirmed])
	assert.Len(t, counts, 3)
}

func TestParseCounts_ReportsEveryStatus(t *testing.T) {
	counts, err := parseCounts(map[string]string{"Pending": "4"})
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCounts{
		reservation.StatusPending:   4,
		reservation.StatusConfirmed: 0,
		reservation.StatusCancelled: 0,
	}, counts)

	_, err = parseCounts(map[string]string{"Pending": "x"})
	assert.ErrorContains(t, err, "counter Pending")
}
