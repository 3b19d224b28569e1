package reservation

import (
	"context"
	"sync"
)

// roomLocks hands out one mutual-exclusion slot per room id. Entries are
// reference counted and dropped once nobody holds or waits on them.
type roomLocks struct {
	mu    sync.Mutex
	slots map[string]*roomSlot
}

type roomSlot struct {
	ch   chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{slots: make(map[string]*roomSlot)}
}

// lock blocks until the room slot is free or ctx is done.
func (l *roomLocks) lock(ctx context.Context, roomID string) (unlock func(), err error) {
	l.mu.Lock()
	s, ok := l.slots[roomID]
	if !ok {
		s = &roomSlot{ch: make(chan struct{}, 1)}
		l.slots[roomID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(roomID, s)
		return nil, Contention("wait for room lock", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(roomID, s)
		})
	}, nil
}

func (l *roomLocks) release(roomID string, s *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, roomID)
	}
}

// held reports how many rooms currently have a slot; used by tests.
func (l *roomLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
