// Package dbtest provides an in-process Transactor for service tests that run
// against in-memory repositories.
package dbtest

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can roll back.
type Snapshotter interface {
	Snapshot() (restore func())
}

type serialKey struct{}

// Serial runs one transaction at a time and restores every registered store
// when fn fails, approximating the row locks and rollback of Postgres.
type Serial struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewSerial(stores ...Snapshotter) *Serial {
	return &Serial{stores: stores}
}

// Track registers more stores after construction.
func (s *Serial) Track(stores ...Snapshotter) {
	s.stores = append(s.stores, stores...)
}

func (s *Serial) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(serialKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restores := make([]func(), 0, len(s.stores))
	for _, st := range s.stores {
		restores = append(restores, st.Snapshot())
	}

	if err := fn(context.WithValue(ctx, serialKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
