// Package catalogtest holds an in-memory catalog for tests in other packages.
package catalogtest

import (
	"context"
	"sync"

	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
)

type MemoryRepository struct {
	mu        sync.RWMutex
	roomTypes map[string]catalog.RoomType
}

func NewMemoryRepository(roomTypes ...catalog.RoomType) *MemoryRepository {
	r := &MemoryRepository{roomTypes: make(map[string]catalog.RoomType)}
	for _, rt := range roomTypes {
		r.roomTypes[rt.ID] = rt
	}
	return r
}

func (r *MemoryRepository) Put(rt catalog.RoomType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomTypes[rt.ID] = rt
}

func (r *MemoryRepository) GetRoomType(_ context.Context, id string) (*catalog.RoomType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.roomTypes[id]
	if !ok {
		return nil, catalog.ErrRoomTypeNotFound
	}
	return &rt, nil
}

func (r *MemoryRepository) ListRoomTypes(_ context.Context, filter catalog.Filter) ([]*catalog.RoomType, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*catalog.RoomType
	for _, rt := range r.roomTypes {
		if filter.HotelID != "" && rt.HotelID != filter.HotelID {
			continue
		}
		if filter.Category != "" && rt.Category != filter.Category {
			continue
		}
		rt := rt
		items = append(items, &rt)
	}
	return items, len(items), nil
}
