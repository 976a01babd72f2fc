// Package loyaltytest holds an in-memory loyalty ledger for tests.
package loyaltytest

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
)

type MemoryRepository struct {
	mu      sync.Mutex
	entries []loyalty.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Snapshot implements dbtest.Snapshotter.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	saved := slices.Clone(r.entries)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.entries = saved
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) Entries() []loyalty.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

func (r *MemoryRepository) GetByBooking(_ context.Context, bookingID string) (*loyalty.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.entries {
		if t.BookingID == bookingID {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(_ context.Context, t *loyalty.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.BookingID == t.BookingID {
			return loyalty.ErrAlreadyCredited
		}
	}
	t.ID = strconv.Itoa(len(r.entries) + 1)
	t.CreatedAt = time.Now()
	r.entries = append(r.entries, *t)
	return nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string, page, pageSize int) ([]*loyalty.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*loyalty.Transaction
	for _, t := range r.entries {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}
	return out, len(out), nil
}
