package expiry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const lockKey = "hotel-booking:expiry-sweep"

// Bookings is the part of the booking service the sweeper drives.
type Bookings interface {
	ListExpired(ctx context.Context, limit int) ([]string, error)
	ExpireUnpaid(ctx context.Context, id string) (bool, error)
}

// Sweeper periodically cancels unpaid bookings whose payment deadline passed.
// The deadline lives on the booking row, so nothing is lost across restarts.
type Sweeper struct {
	bookings  Bookings
	locker    Locker
	interval  time.Duration
	batchSize int
	logger    *zap.Logger

	started  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewSweeper(bookings Bookings, locker Locker, interval time.Duration, batchSize int, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Sweeper{
		bookings:  bookings,
		locker:    locker,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs a sweep immediately and then every interval until Stop or ctx ends.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("starting expiry sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping expiry sweeper")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("expiry sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("expired unpaid bookings", zap.Int("count", n))
	}
}

// SweepOnce expires every overdue booking in batches and returns how many it
// canceled. It does nothing when another sweeper holds the lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	unlock, ok, err := s.locker.TryLock(ctx, lockKey, s.interval)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.logger.Debug("expiry sweep skipped, lock held elsewhere")
		return 0, nil
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release sweep lock failed", zap.Error(err))
		}
	}()

	total := 0
	for {
		ids, err := s.bookings.ListExpired(ctx, s.batchSize)
		if err != nil {
			return total, err
		}

		expired := 0
		for _, id := range ids {
			ok, err := s.bookings.ExpireUnpaid(ctx, id)
			if err != nil {
				s.logger.Error("expire booking failed", zap.String("booking_id", id), zap.Error(err))
				continue
			}
			if ok {
				expired++
			}
		}
		total += expired

		// A short page means nothing is left; a page with no progress would loop forever.
		if len(ids) < s.batchSize || expired == 0 {
			return total, nil
		}
	}
}
