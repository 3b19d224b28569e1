package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/redis/go-redis/v9"
)

// Cache holds the Redis side of the service: idempotent creates, the booking
// read cache, event dedup and the dashboard status counters. The database
// stays the source of truth for all of them.
type Cache struct {
	RDB *redis.Client
}

func (c *Cache) RememberCreate(ctx context.Context, idemKey, bookingID string) error {
	return c.RDB.Set(ctx, fmt.Sprintf(KeyIdemBookingCreate, idemKey), bookingID, TTLIdempotency).Err()
}

// CreatedBooking returns the booking id recorded under an idempotency key.
func (c *Cache) CreatedBooking(ctx context.Context, idemKey string) (string, bool, error) {
	id, err := c.RDB.Get(ctx, fmt.Sprintf(KeyIdemBookingCreate, idemKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (c *Cache) PutBooking(ctx context.Context, b reservation.Booking) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, fmt.Sprintf(KeyBooking, b.ID), raw, TTLBookingCache).Err()
}

func (c *Cache) CachedBooking(ctx context.Context, id string) ([]byte, bool, error) {
	raw, err := c.RDB.Get(ctx, fmt.Sprintf(KeyBooking, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *Cache) DropBooking(ctx context.Context, id string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyBooking, id)).Err()
}

// FirstSeen marks an event as processed for service and reports whether this
// call was the first to do so.
func (c *Cache) FirstSeen(ctx context.Context, service, eventID string) (bool, error) {
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
}

// Forget undoes FirstSeen so a failed event can be processed again.
func (c *Cache) Forget(ctx context.Context, service, eventID string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}

// ApplyStatusDeltas adjusts the dashboard counters in one round trip.
func (c *Cache) ApplyStatusDeltas(ctx context.Context, deltas map[reservation.Status]int64) error {
	nonZero := 0
	for _, n := range deltas {
		if n != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		return nil
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for st, n := range deltas {
			if n != 0 {
				p.HIncrBy(ctx, KeyStatusCounts, string(st), n)
			}
		}
		return nil
	})
	return err
}

// StatusCounts reads the dashboard counters. ok is false until the projector
// has written at least once.
func (c *Cache) StatusCounts(ctx context.Context) (counts reservation.StatusCounts, ok bool, err error) {
	m, err := c.RDB.HGetAll(ctx, KeyStatusCounts).Result()
	if err != nil {
		return nil, false, err
	}
	if len(m) == 0 {
		return nil, false, nil
	}
	counts, err = parseCounts(m)
	if err != nil {
		return nil, false, err
	}
	return counts, true, nil
}

// parseCounts reports every status, with 0 for the ones never incremented.
func parseCounts(m map[string]string) (reservation.StatusCounts, error) {
	counts := reservation.StatusCounts{
		reservation.StatusPending:   0,
		reservation.StatusConfirmed: 0,
		reservation.StatusCancelled: 0,
	}
	for k, v := range m {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", k, err)
		}
		counts[reservation.Status(k)] = n
	}
	return counts, nil
}
