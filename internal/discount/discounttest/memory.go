// Package discounttest holds an in-memory discount store for tests.
package discounttest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
)

type MemoryRepository struct {
	mu        sync.Mutex
	discounts map[string]discount.Discount
	usages    []discount.Usage
}

func NewMemoryRepository(discounts ...discount.Discount) *MemoryRepository {
	r := &MemoryRepository{discounts: make(map[string]discount.Discount)}
	for _, d := range discounts {
		r.discounts[d.ID] = d
	}
	return r
}

// Snapshot implements dbtest.Snapshotter.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	savedDiscounts := make(map[string]discount.Discount, len(r.discounts))
	for k, v := range r.discounts {
		savedDiscounts[k] = v
	}
	savedUsages := slices.Clone(r.usages)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.discounts = savedDiscounts
		r.usages = savedUsages
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) Usages() []discount.Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.usages)
}

func (r *MemoryRepository) Get(id string) discount.Discount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discounts[id]
}

func (r *MemoryRepository) ListActiveFestivals(_ context.Context, at time.Time) ([]discount.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []discount.Discount
	for _, d := range r.discounts {
		if d.Kind == discount.KindFestival && d.ActiveAt(at) {
			out = append(out, d)
		}
	}
	// Stable order like the SQL query.
	slices.SortFunc(out, func(a, b discount.Discount) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *MemoryRepository) GetByCodes(_ context.Context, codes []string) ([]discount.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []discount.Discount
	for _, d := range r.discounts {
		if d.Code != "" && slices.Contains(codes, discount.NormalizeCode(d.Code)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CountUserUsage(_ context.Context, discountID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.usages {
		if u.DiscountID == discountID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) RecordUsage(_ context.Context, u discount.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages = append(r.usages, u)
	d := r.discounts[u.DiscountID]
	d.UsedCount++
	r.discounts[u.DiscountID] = d
	return nil
}

func (r *MemoryRepository) DeleteUsages(_ context.Context, bookingID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.usages[:0:0]
	removed := 0
	for _, u := range r.usages {
		if u.BookingID != bookingID {
			kept = append(kept, u)
			continue
		}
		removed++
		d := r.discounts[u.DiscountID]
		if d.UsedCount > 0 {
			d.UsedCount--
		}
		r.discounts[u.DiscountID] = d
	}
	r.usages = kept
	return removed, nil
}
