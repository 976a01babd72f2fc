// Package bookingtest holds an in-memory booking store for tests.
package bookingtest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
)

type MemoryRepository struct {
	mu       sync.Mutex
	bookings map[string]booking.Booking
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bookings: make(map[string]booking.Booking)}
}

// Snapshot implements dbtest.Snapshotter.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]booking.Booking, len(r.bookings))
	for k, v := range r.bookings {
		saved[k] = v
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.bookings = saved
		r.mu.Unlock()
	}
}

// Put stores b as-is, for arranging test state.
func (r *MemoryRepository) Put(b booking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = b
}

func (r *MemoryRepository) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) Update(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	b.UpdatedAt = time.Now()
	r.bookings[b.ID] = *b
	return nil
}

func (r *MemoryRepository) List(_ context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	slices.SortFunc(out, func(a, b *booking.Booking) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, len(out), nil
}

func (r *MemoryRepository) ListExpired(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, b := range r.bookings {
		if b.AwaitingPayment() && b.PaymentExpiresAt != nil && b.PaymentExpiresAt.Before(now) {
			ids = append(ids, b.ID)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
