package inventory

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// Service is the inventory ledger. Every mutation locks the affected room
// type rows, so concurrent callers for one room type are serialized, and it
// joins the caller's transaction when there is one.
type Service interface {
	Reserve(ctx context.Context, r Reservation) error
	Release(ctx context.Context, bookingID string) error
	Reassign(ctx context.Context, bookingID, roomTypeID string) error
	Extend(ctx context.Context, bookingID string, checkOut time.Time) error
	Availability(ctx context.Context, roomTypeID string, from, to time.Time) ([]DayAvailability, error)
}

type service struct {
	repo   Repository
	tx     db.Transactor
	logger *zap.Logger
}

func NewService(repo Repository, tx db.Transactor, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tx:     tx,
		logger: logger,
	}
}

func (s *service) Reserve(ctx context.Context, r Reservation) error {
	r = r.normalized()
	if err := r.validate(); err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		stock, err := s.repo.LockRoomType(ctx, r.RoomTypeID)
		if err != nil {
			return err
		}

		if _, err := s.repo.GetReservation(ctx, r.BookingID); err == nil {
			return ErrAlreadyReserved
		} else if !errors.Is(err, ErrReservationNotFound) {
			return err
		}

		existing, err := s.repo.ListOverlapping(ctx, r.RoomTypeID, r.CheckIn, r.CheckOut)
		if err != nil {
			return err
		}
		if err := CheckCapacity(stock.TotalStock, existing, r); err != nil {
			s.logger.Info("reservation rejected",
				zap.String("booking_id", r.BookingID),
				zap.String("room_type_id", r.RoomTypeID),
				zap.Error(errors.Unwrap(err)),
			)
			return err
		}

		return s.repo.Insert(ctx, r)
	})
}

// Release is a no-op for bookings without a reservation.
func (s *service) Release(ctx context.Context, bookingID string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		removed, err := s.repo.Delete(ctx, bookingID)
		if err != nil {
			return err
		}
		if removed {
			s.logger.Debug("reservation released", zap.String("booking_id", bookingID))
		}
		return nil
	})
}

func (s *service) Reassign(ctx context.Context, bookingID, roomTypeID string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetReservation(ctx, bookingID)
		if err != nil {
			return err
		}
		if cur.RoomTypeID == roomTypeID {
			return nil
		}

		// Lock both rows in a fixed order so two opposite moves cannot deadlock.
		first, second := cur.RoomTypeID, roomTypeID
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*Stock, 2)
		for _, id := range []string{first, second} {
			st, err := s.repo.LockRoomType(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = st
		}

		from, to := locked[cur.RoomTypeID], locked[roomTypeID]
		if from.Category != to.Category {
			return ErrCategoryMismatch
		}

		next := *cur
		next.RoomTypeID = roomTypeID
		existing, err := s.repo.ListOverlapping(ctx, roomTypeID, next.CheckIn, next.CheckOut)
		if err != nil {
			return err
		}
		if err := CheckCapacity(to.TotalStock, existing, next); err != nil {
			return err
		}

		return s.repo.Update(ctx, next)
	})
}

func (s *service) Extend(ctx context.Context, bookingID string, checkOut time.Time) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetReservation(ctx, bookingID)
		if err != nil {
			return err
		}

		next := *cur
		next.CheckOut = Day(checkOut)
		if err := next.validate(); err != nil {
			return err
		}

		stock, err := s.repo.LockRoomType(ctx, cur.RoomTypeID)
		if err != nil {
			return err
		}
		existing, err := s.repo.ListOverlapping(ctx, cur.RoomTypeID, next.CheckIn, next.CheckOut)
		if err != nil {
			return err
		}
		if err := CheckCapacity(stock.TotalStock, existing, next); err != nil {
			return err
		}

		return s.repo.Update(ctx, next)
	})
}

func (s *service) Availability(ctx context.Context, roomTypeID string, from, to time.Time) ([]DayAvailability, error) {
	from, to = Day(from), Day(to)
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}
	if nightsBetween(from, to) > MaxRangeDays {
		return nil, ErrRangeTooLong
	}

	stock, err := s.repo.GetStock(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListOverlapping(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, err
	}
	return DailyAvailability(stock.TotalStock, existing, from, to), nil
}
