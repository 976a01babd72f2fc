package discount

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// Service resolves prices and records voucher redemptions.
type Service interface {
	// Quote prices a stay without writing anything. Inside a transaction the
	// submitted vouchers stay locked until commit.
	Quote(ctx context.Context, in QuoteInput) (*Quote, error)
	// Redeem records the usage of every voucher applied in q.
	Redeem(ctx context.Context, bookingID, userID string, q *Quote) error
	// ReleaseUsage gives back the voucher usages of a booking that never got paid.
	ReleaseUsage(ctx context.Context, bookingID string) error
}

type service struct {
	repo   Repository
	tx     db.Transactor
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, tx db.Transactor, now func() time.Time, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		tx:     tx,
		now:    now,
		logger: logger,
	}
}

func (s *service) Quote(ctx context.Context, in QuoteInput) (*Quote, error) {
	if in.Rate < 0 || in.Rooms < 1 || !in.CheckIn.Before(in.CheckOut) {
		return nil, ErrInvalidInput
	}
	at := s.now()

	festivals, err := s.repo.ListActiveFestivals(ctx, at)
	if err != nil {
		return nil, err
	}
	festival := BestFestival(festivals, in.HotelID, in.RoomTypeID, at)

	codes := make([]string, 0, len(in.VoucherCodes))
	for _, c := range in.VoucherCodes {
		if c = NormalizeCode(c); c != "" {
			codes = append(codes, c)
		}
	}

	found, err := s.repo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*Discount, len(found))
	for i := range found {
		byCode[NormalizeCode(found[i].Code)] = &found[i]
	}

	candidates := make([]VoucherCandidate, 0, len(codes))
	for _, code := range codes {
		c := VoucherCandidate{Code: code, Discount: byCode[code]}
		if c.Discount != nil && c.Discount.UsageLimitPerUser > 0 {
			if c.Used, err = s.repo.CountUserUsage(ctx, c.Discount.ID, in.UserID); err != nil {
				return nil, err
			}
		}
		candidates = append(candidates, c)
	}

	q := Compose(in, at, festival, candidates)
	if len(q.Rejected) > 0 {
		s.logger.Debug("vouchers skipped",
			zap.String("user_id", in.UserID),
			zap.Any("rejected", q.Rejected),
		)
	}
	return q, nil
}

func (s *service) Redeem(ctx context.Context, bookingID, userID string, q *Quote) error {
	if len(q.Vouchers) == 0 {
		return nil
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		codes := make([]string, 0, len(q.Vouchers))
		for _, v := range q.Vouchers {
			codes = append(codes, NormalizeCode(v.Code))
		}
		locked, err := s.repo.GetByCodes(ctx, codes)
		if err != nil {
			return err
		}
		limits := make(map[string]int, len(locked))
		for _, d := range locked {
			limits[d.ID] = d.UsageLimitPerUser
		}

		for _, v := range q.Vouchers {
			if limit := limits[v.ID]; limit > 0 {
				used, err := s.repo.CountUserUsage(ctx, v.ID, userID)
				if err != nil {
					return err
				}
				if used >= limit {
					return ErrUsageLimitReached
				}
			}
			if err := s.repo.RecordUsage(ctx, Usage{
				DiscountID: v.ID,
				UserID:     userID,
				BookingID:  bookingID,
				Amount:     v.AmountReduced,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) ReleaseUsage(ctx context.Context, bookingID string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.DeleteUsages(ctx, bookingID)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("voucher usage released", zap.String("booking_id", bookingID), zap.Int("count", n))
		}
		return nil
	})
}
