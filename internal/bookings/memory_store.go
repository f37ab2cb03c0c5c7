package bookings

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]Booking
	slots map[Slot]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]Booking),
		slots: make(map[Slot]string),
	}
}

func (s *MemoryStore) FindBooking(_ context.Context, slot Slot) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slots[slot]
	if !ok {
		return nil, nil
	}
	b := s.byID[id]
	return &b, nil
}

// InsertBooking checks and claims the slot under one lock.
func (s *MemoryStore) InsertBooking(_ context.Context, b Booking) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.slots[b.Slot()]; taken {
		return nil, ErrConflict
	}
	b.ID = newBookingID()
	s.byID[b.ID] = b
	s.slots[b.Slot()] = b.ID
	return &b, nil
}

func (s *MemoryStore) ListBookings(_ context.Context) ([]Booking, error) {
	s.mu.RLock()
	out := make([]Booking, 0, len(s.byID))
	for _, b := range s.byID {
		out = append(out, b)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out, nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) UpdateBooking(_ context.Context, b Booking) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[b.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if holder, taken := s.slots[b.Slot()]; taken && holder != b.ID {
		return nil, ErrConflict
	}
	delete(s.slots, current.Slot())
	b.CreatedAt = current.CreatedAt
	s.byID[b.ID] = b
	s.slots[b.Slot()] = b.ID
	return &b, nil
}

func (s *MemoryStore) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.slots, b.Slot())
	return nil
}

// newBookingID returns a time-ordered id so id order follows insertion order.
func newBookingID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
