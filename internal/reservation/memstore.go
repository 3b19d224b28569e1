package reservation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var errOutOfScope = errors.New("booking belongs to another room")

// MemoryStore keeps rooms and bookings in process memory. It is used by tests
// and by the API when STORE_DRIVER=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]Room
	bookings map[string]Booking
	locks    *roomLocks
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(rooms ...Room) *MemoryStore {
	m := &MemoryStore{
		rooms:    make(map[string]Room),
		bookings: make(map[string]Booking),
		locks:    newRoomLocks(),
	}
	for _, r := range rooms {
		m.rooms[r.ID] = r
	}
	return m
}

func (m *MemoryStore) Room(_ context.Context, id string) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r, nil
}

func (m *MemoryStore) RoomsByType(_ context.Context, roomType string) ([]Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Room
	for _, r := range m.rooms {
		if r.Type == roomType {
			out = append(out, r)
		}
	}
	sortRooms(out)
	return out, nil
}

func (m *MemoryStore) InsertRoom(_ context.Context, r Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, r.ID)
	}
	m.rooms[r.ID] = r
	return nil
}

func (m *MemoryStore) UpdateRoomRate(_ context.Context, id string, rate Money) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	r.Rate = rate
	m.rooms[id] = r
	return r, nil
}

func (m *MemoryStore) Booking(_ context.Context, id string) (Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	return b, nil
}

func (m *MemoryStore) ActiveBookings(_ context.Context, roomID, excluding string) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.Active() && b.ID != excluding {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryStore) BookingsByUser(_ context.Context, userID string) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	SortBookings(out)
	return out, nil
}

func (m *MemoryStore) Bookings(_ context.Context, f Filter) ([]Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Booking
	for _, b := range m.bookings {
		if f.Match(b, m.rooms[b.RoomID].Type) {
			out = append(out, b)
		}
	}
	SortBookings(out)
	return out, nil
}

func (m *MemoryStore) CountByStatus(_ context.Context) (StatusCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := StatusCounts{StatusPending: 0, StatusConfirmed: 0, StatusCancelled: 0}
	for _, b := range m.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

func (m *MemoryStore) Revenue(_ context.Context) (Money, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum Money
	for _, b := range m.bookings {
		if b.Status != StatusCancelled {
			sum += b.TotalCost
		}
	}
	return sum, nil
}

func (m *MemoryStore) MonthlyTotals(_ context.Context, r DateRange) ([]MonthTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byMonth := make(map[string]*MonthTotal)
	for _, b := range m.bookings {
		if b.Status == StatusCancelled || b.CheckIn.Before(r.CheckIn) || !b.CheckIn.Before(r.CheckOut) {
			continue
		}
		key := b.CheckIn.Month()
		t, ok := byMonth[key]
		if !ok {
			t = &MonthTotal{Month: key}
			byMonth[key] = t
		}
		t.Bookings++
		t.Revenue += b.TotalCost
	}
	out := make([]MonthTotal, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b MonthTotal) int { return cmp.Compare(a.Month, b.Month) })
	return out, nil
}

func (m *MemoryStore) InsertBooking(_ context.Context, b Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return Persistence("insert booking", fmt.Errorf("duplicate id %s", b.ID))
	}
	if _, ok := m.rooms[b.RoomID]; !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, b.RoomID)
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *MemoryStore) UpdateBooking(_ context.Context, b Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrBookingNotFound, b.ID)
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *MemoryStore) DeleteBooking(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	delete(m.bookings, id)
	return nil
}

// InRoomScope holds the room's slot for the duration of fn and applies fn's
// writes only if it returns nil.
func (m *MemoryStore) InRoomScope(ctx context.Context, roomID string, fn func(tx BookingTx) error) error {
	unlock, err := m.locks.lock(ctx, roomID)
	if err != nil {
		return err
	}
	defer unlock()

	tx := &memTx{store: m, roomID: roomID, pending: make(map[string]*Booking)}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// memTx buffers writes on top of the store; a nil entry marks a deletion.
type memTx struct {
	store   *MemoryStore
	roomID  string
	pending map[string]*Booking
	order   []string
}

func (t *memTx) Booking(ctx context.Context, id string) (Booking, error) {
	if p, ok := t.pending[id]; ok {
		if p == nil {
			return Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
		}
		return *p, nil
	}
	return t.store.Booking(ctx, id)
}

func (t *memTx) ActiveBookings(ctx context.Context, roomID, excluding string) ([]Booking, error) {
	if roomID != t.roomID {
		return nil, Persistence("read active bookings", errOutOfScope)
	}
	base, err := t.store.ActiveBookings(ctx, roomID, excluding)
	if err != nil {
		return nil, err
	}
	out := base[:0]
	for _, b := range base {
		if _, ok := t.pending[b.ID]; !ok {
			out = append(out, b)
		}
	}
	for _, id := range t.order {
		if p := t.pending[id]; p != nil && p.Active() && p.ID != excluding {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b Booking) error {
	if b.RoomID != t.roomID {
		return Persistence("insert booking", errOutOfScope)
	}
	if _, err := t.Booking(ctx, b.ID); err == nil {
		return Persistence("insert booking", fmt.Errorf("duplicate id %s", b.ID))
	}
	t.stage(b.ID, &b)
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b Booking) error {
	cur, err := t.Booking(ctx, b.ID)
	if err != nil {
		return err
	}
	if cur.RoomID != t.roomID || b.RoomID != t.roomID {
		return Persistence("update booking", errOutOfScope)
	}
	t.stage(b.ID, &b)
	return nil
}

func (t *memTx) DeleteBooking(ctx context.Context, id string) error {
	cur, err := t.Booking(ctx, id)
	if err != nil {
		return err
	}
	if cur.RoomID != t.roomID {
		return Persistence("delete booking", errOutOfScope)
	}
	t.stage(id, nil)
	return nil
}

func (t *memTx) stage(id string, b *Booking) {
	if _, ok := t.pending[id]; !ok {
		t.order = append(t.order, id)
	}
	t.pending[id] = b
}

func (t *memTx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, ok := t.store.rooms[t.roomID]; !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, t.roomID)
	}
	for _, id := range t.order {
		if b := t.pending[id]; b != nil {
			t.store.bookings[id] = *b
		} else {
			delete(t.store.bookings, id)
		}
	}
	return nil
}

func sortRooms(rs []Room) {
	slices.SortFunc(rs, func(a, b Room) int {
		if c := cmp.Compare(a.Rate, b.Rate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortBookings orders by check-in descending, most recent stay first; ties by id.
func SortBookings(bs []Booking) {
	slices.SortFunc(bs, func(a, b Booking) int {
		if c := b.CheckIn.Compare(a.CheckIn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
