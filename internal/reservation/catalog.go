package reservation

import (
	"context"
	"strings"
	"time"
)

// Catalog owns rooms and their static attributes.
type Catalog struct {
	store Store
	now   func() time.Time
}

func NewCatalog(store Store, opts Options) *Catalog {
	opts = opts.withDefaults()
	return &Catalog{store: store, now: opts.Now}
}

func (c *Catalog) Room(ctx context.Context, id string) (Room, error) {
	return c.store.Room(ctx, id)
}

// RoomsByType returns rooms of the given type ordered by rate, then id, ascending.
func (c *Catalog) RoomsByType(ctx context.Context, roomType string) ([]Room, error) {
	rooms, err := c.store.RoomsByType(ctx, roomType)
	if err != nil {
		return nil, err
	}
	sortRooms(rooms)
	return rooms, nil
}

func (c *Catalog) AddRoom(ctx context.Context, id, roomType string, rate Money) (Room, error) {
	id, roomType = strings.TrimSpace(id), strings.TrimSpace(roomType)
	if id == "" || roomType == "" {
		return Room{}, ErrMissingField
	}
	if rate <= 0 {
		return Room{}, ErrInvalidRate
	}
	now := c.now().UTC()
	r := Room{ID: id, Type: roomType, Rate: rate, CreatedAt: now, UpdatedAt: now}
	if err := c.store.InsertRoom(ctx, r); err != nil {
		return Room{}, err
	}
	return r, nil
}

// UpdateRate changes the nightly rate for future bookings; existing bookings
// keep the cost computed when they were made.
func (c *Catalog) UpdateRate(ctx context.Context, id string, rate Money) (Room, error) {
	if rate <= 0 {
		return Room{}, ErrInvalidRate
	}
	return c.store.UpdateRoomRate(ctx, id, rate)
}
