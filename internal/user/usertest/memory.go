// Package usertest holds an in-memory user store for tests.
package usertest

import (
	"context"
	"strings"
	"sync"

	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]user.User
}

func NewMemoryRepository(users ...user.User) *MemoryRepository {
	r := &MemoryRepository{users: make(map[string]user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Snapshot implements dbtest.Snapshotter.
func (r *MemoryRepository) Snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]user.User, len(r.users))
	for k, v := range r.users {
		saved[k] = v
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.users = saved
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) UpdatePoints(_ context.Context, id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PointsBalance += delta
	r.users[id] = u
	return nil
}

func (r *MemoryRepository) Put(u user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}
