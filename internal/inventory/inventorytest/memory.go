// Package inventorytest holds an in-memory inventory store for tests.
package inventorytest

import (
	"context"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
)

type MemoryRepository struct {
	mu           sync.Mutex
	stocks       map[string]inventory.Stock
	reservations map[string]inventory.Reservation
}

func NewMemoryRepository(stocks ...inventory.Stock) *MemoryRepository {
	r := &MemoryRepository{
		stocks:       make(map[string]inventory.Stock),
		reservations: make(map[string]inventory.Reservation),
	}
	for _, s := range stocks {
		r.stocks[s.RoomTypeID] = s
	}
	return r
}

// Snapshot implements dbtest.Snapshotter.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]inventory.Reservation, len(r.reservations))
	for k, v := range r.reservations {
		saved[k] = v
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.reservations = saved
		r.mu.Unlock()
	}
}

// Reservations returns a copy of every stored reservation.
func (r *MemoryRepository) Reservations() []inventory.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Reservation, 0, len(r.reservations))
	for _, v := range r.reservations {
		out = append(out, v)
	}
	return out
}

func (r *MemoryRepository) LockRoomType(ctx context.Context, roomTypeID string) (*inventory.Stock, error) {
	return r.GetStock(ctx, roomTypeID)
}

func (r *MemoryRepository) GetStock(_ context.Context, roomTypeID string) (*inventory.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[roomTypeID]
	if !ok {
		return nil, inventory.ErrRoomTypeNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) ListOverlapping(_ context.Context, roomTypeID string, from, to time.Time) ([]inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Reservation
	for _, res := range r.reservations {
		if res.RoomTypeID == roomTypeID && res.Overlaps(from, to) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetReservation(_ context.Context, bookingID string) (*inventory.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[bookingID]
	if !ok {
		return nil, inventory.ErrReservationNotFound
	}
	return &res, nil
}

func (r *MemoryRepository) Insert(_ context.Context, res inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.BookingID]; ok {
		return inventory.ErrAlreadyReserved
	}
	r.reservations[res.BookingID] = res
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, res inventory.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.BookingID]; !ok {
		return inventory.ErrReservationNotFound
	}
	r.reservations[res.BookingID] = res
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, bookingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reservations[bookingID]
	delete(r.reservations, bookingID)
	return ok, nil
}
