package loyalty

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// PointsUpdater adjusts a user's points balance.
type PointsUpdater interface {
	UpdatePoints(ctx context.Context, userID string, delta int64) error
}

type Service interface {
	// Accrue credits points for a paid and confirmed booking exactly once.
	// Repeated calls for the same booking change nothing.
	Accrue(ctx context.Context, b *booking.Booking) error
	History(ctx context.Context, userID string, page, pageSize int) ([]*Transaction, int, error)
}

type service struct {
	repo   Repository
	users  PointsUpdater
	tx     db.Transactor
	logger *zap.Logger
}

func NewService(repo Repository, users PointsUpdater, tx db.Transactor, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		users:  users,
		tx:     tx,
		logger: logger,
	}
}

func (s *service) Accrue(ctx context.Context, b *booking.Booking) error {
	if !b.Settled() {
		return ErrNotEligible
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		amount := b.NetAmount()
		t := &Transaction{
			UserID:    b.UserID,
			BookingID: b.ID,
			Amount:    amount,
			Points:    PointsFor(amount),
			Status:    StatusCredited,
		}
		if err := s.repo.Create(ctx, t); err != nil {
			if errors.Is(err, ErrAlreadyCredited) {
				return nil
			}
			return err
		}
		if t.Points > 0 {
			if err := s.users.UpdatePoints(ctx, b.UserID, t.Points); err != nil {
				return err
			}
		}

		s.logger.Info("loyalty points credited",
			zap.String("booking_id", b.ID),
			zap.String("user_id", b.UserID),
			zap.Int64("points", t.Points),
		)
		return nil
	})
}

func (s *service) History(ctx context.Context, userID string, page, pageSize int) ([]*Transaction, int, error) {
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}
