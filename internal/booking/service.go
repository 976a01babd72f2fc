package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
)

// LoyaltyAccruer credits points for a booking that just became paid.
type LoyaltyAccruer interface {
	Accrue(ctx context.Context, b *Booking) error
}

// Notifier sends the booking confirmation message.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, bookingID string) error
}

// StayRequest describes the stay being priced or booked. Dates are calendar
// days; the service turns them into hotel-local check-in and check-out times.
type StayRequest struct {
	UserID       string
	RoomTypeID   string
	CheckInDate  time.Time
	CheckOutDate time.Time
	Adults       int
	Children     int
	Rooms        int
	VoucherCodes []string
}

type CreateRequest struct {
	StayRequest
	GuestName  string
	GuestEmail string
	GuestPhone string
	Terms      PaymentTerms
}

type Service interface {
	Quote(ctx context.Context, req StayRequest) (*discount.Quote, error)
	Create(ctx context.Context, req CreateRequest) (*Booking, *discount.Quote, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Cancel(ctx context.Context, id, reason string, actor Actor) (*Booking, error)
	// Confirm marks a booking paid. Confirming a settled booking is a no-op.
	Confirm(ctx context.Context, id string) (*Booking, error)
	// FailPayment cancels a booking whose payment was declined. It is a no-op
	// once the booking left the awaiting-payment state.
	FailPayment(ctx context.Context, id, reason string) (*Booking, error)
	// ExpireUnpaid cancels the booking if its payment deadline passed while it
	// was still unpaid. It reports whether it canceled anything.
	ExpireUnpaid(ctx context.Context, id string) (bool, error)
	ListExpired(ctx context.Context, limit int) ([]string, error)
	ChangeRoomType(ctx context.Context, id, roomTypeID string) (*Booking, error)
	ExtendStay(ctx context.Context, id string, checkOutDate time.Time, actor Actor) (*Booking, error)
}

// Dependencies wires the booking service.
type Dependencies struct {
	Repo      Repository
	Tx        db.Transactor
	Catalog   catalog.Service
	Inventory inventory.Service
	Pricer    discount.Service
	Loyalty   LoyaltyAccruer
	Notifier  Notifier
	Logger    *zap.Logger

	Location     *time.Location
	CheckInHour  int
	CheckOutHour int
	Now          func() time.Time
}

type service struct {
	Dependencies
}

func NewService(deps Dependencies) Service {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{Dependencies: deps}
}

func (s *service) at(date time.Time, hour int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, s.Location)
}

func (s *service) prepare(ctx context.Context, req StayRequest) (*catalog.RoomType, discount.QuoteInput, error) {
	if req.Adults < 1 || req.Children < 0 || req.Rooms < 1 {
		return nil, discount.QuoteInput{}, ErrInvalidGuests
	}

	checkIn := s.at(req.CheckInDate, s.CheckInHour)
	checkOut := s.at(req.CheckOutDate, s.CheckOutHour)
	if !inventory.Day(checkIn).Before(inventory.Day(checkOut)) {
		return nil, discount.QuoteInput{}, ErrInvalidDates
	}
	if inventory.Day(checkIn).Before(inventory.Day(s.Now().In(s.Location))) {
		return nil, discount.QuoteInput{}, ErrCheckInPast
	}

	rt, err := s.Catalog.GetRoomType(ctx, req.RoomTypeID)
	if err != nil {
		if errors.Is(err, catalog.ErrRoomTypeNotFound) {
			return nil, discount.QuoteInput{}, ErrRoomTypeNotFound
		}
		return nil, discount.QuoteInput{}, err
	}
	if req.Adults+req.Children > rt.MaxGuests*req.Rooms {
		return nil, discount.QuoteInput{}, ErrTooManyGuests
	}

	return rt, discount.QuoteInput{
		UserID:       req.UserID,
		HotelID:      rt.HotelID,
		RoomTypeID:   rt.ID,
		Rate:         rt.Rate,
		Rooms:        req.Rooms,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		VoucherCodes: req.VoucherCodes,
	}, nil
}

func (s *service) Quote(ctx context.Context, req StayRequest) (*discount.Quote, error) {
	_, in, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Pricer.Quote(ctx, in)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, *discount.Quote, error) {
	if !req.Terms.Method.Valid() {
		return nil, nil, ErrInvalidPayment
	}
	rt, in, err := s.prepare(ctx, req.StayRequest)
	if err != nil {
		return nil, nil, err
	}

	b := &Booking{
		ID:                uuid.NewString(),
		RoomTypeID:        rt.ID,
		HotelID:           rt.HotelID,
		UserID:            req.UserID,
		GuestName:         req.GuestName,
		GuestEmail:        req.GuestEmail,
		GuestPhone:        req.GuestPhone,
		CheckIn:           in.CheckIn,
		CheckOut:          in.CheckOut,
		Adults:            req.Adults,
		Children:          req.Children,
		Rooms:             req.Rooms,
		PaymentMethod:     req.Terms.Method,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		TransferReference: req.Terms.TransferReference,
		TransferMemo:      req.Terms.TransferMemo,
		PaymentExpiresAt:  req.Terms.PaymentExpiresAt,
	}

	var quote *discount.Quote
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		q, err := s.Pricer.Quote(ctx, in)
		if err != nil {
			return err
		}
		b.BaseAmount = q.BaseAmount
		b.Discount = q.Festival
		b.Vouchers = q.Vouchers
		b.VoucherDiscount = q.VoucherDiscount
		b.TotalAmount = q.Total

		if err := s.Inventory.Reserve(ctx, inventory.Reservation{
			BookingID:  b.ID,
			RoomTypeID: b.RoomTypeID,
			CheckIn:    b.CheckIn,
			CheckOut:   b.CheckOut,
			Rooms:      b.Rooms,
		}); err != nil {
			return err
		}
		if err := s.Pricer.Redeem(ctx, b.ID, b.UserID, q); err != nil {
			return err
		}
		if err := s.Repo.Create(ctx, b); err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.Logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_type_id", b.RoomTypeID),
		zap.String("payment_method", string(b.PaymentMethod)),
		zap.Int64("total_amount", b.TotalAmount),
	)
	return b, quote, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.Repo.List(ctx, filter)
}

// cancel moves b to canceled and gives back its rooms. Voucher usage is only
// returned when the guest never paid.
func (s *service) cancel(ctx context.Context, b *Booking, reason string, payment PaymentStatus) error {
	wasPaid := b.PaymentStatus == PaymentPaid
	now := s.Now()

	b.Status = StatusCanceled
	b.PaymentStatus = payment
	b.CancelReason = reason
	b.CanceledAt = &now

	if err := s.Repo.Update(ctx, b); err != nil {
		return err
	}
	if err := s.Inventory.Release(ctx, b.ID); err != nil {
		return err
	}
	if !wasPaid {
		if err := s.Pricer.ReleaseUsage(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Cancel(ctx context.Context, id, reason string, actor Actor) (*Booking, error) {
	var out *Booking
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(b) {
			return ErrPermissionDenied
		}
		switch {
		case b.Status == StatusCanceled:
			return ErrAlreadyCanceled
		case b.Settled():
			return ErrNotCancelable
		}

		payment := PaymentPending
		if b.PaymentStatus == PaymentPaid {
			payment = PaymentRefunded
		}
		if err := s.cancel(ctx, b, reason, payment); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking canceled",
		zap.String("booking_id", id),
		zap.String("actor_id", actor.UserID),
		zap.String("reason", reason),
	)
	return out, nil
}

func (s *service) Confirm(ctx context.Context, id string) (*Booking, error) {
	var out *Booking
	var confirmed bool
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		out = b
		if b.Status == StatusCanceled {
			return ErrCanceled
		}
		if b.Settled() {
			return nil
		}

		now := s.Now()
		b.Status = StatusConfirmed
		b.PaymentStatus = PaymentPaid
		b.ConfirmedAt = &now
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		if err := s.Loyalty.Accrue(ctx, b); err != nil {
			return err
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		s.Logger.Info("booking confirmed", zap.String("booking_id", id))
		s.notify(id)
	}
	return out, nil
}

// notify runs detached from the request; a failed send never affects the booking.
func (s *service) notify(bookingID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Notifier.SendBookingConfirmation(ctx, bookingID); err != nil {
			s.Logger.Warn("booking confirmation not sent",
				zap.String("booking_id", bookingID),
				zap.Error(err),
			)
		}
	}()
}

func (s *service) FailPayment(ctx context.Context, id, reason string) (*Booking, error) {
	if reason == "" {
		reason = ReasonPaymentFailed
	}

	var out *Booking
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		out = b
		if !b.AwaitingPayment() {
			return nil
		}
		return s.cancel(ctx, b, reason, PaymentCanceled)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("payment failed", zap.String("booking_id", id), zap.String("reason", reason))
	return out, nil
}

func (s *service) ExpireUnpaid(ctx context.Context, id string) (bool, error) {
	var expired bool
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !b.AwaitingPayment() || b.PaymentExpiresAt == nil || s.Now().Before(*b.PaymentExpiresAt) {
			return nil
		}
		if err := s.cancel(ctx, b, ReasonPaymentTimeout, PaymentPending); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if expired {
		s.Logger.Info("unpaid booking expired", zap.String("booking_id", id))
	}
	return expired, nil
}

func (s *service) ListExpired(ctx context.Context, limit int) ([]string, error) {
	return s.Repo.ListExpired(ctx, s.Now(), limit)
}

func (s *service) ChangeRoomType(ctx context.Context, id, roomTypeID string) (*Booking, error) {
	var out *Booking
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !b.HoldsInventory() {
			return ErrNotModifiable
		}

		rt, err := s.Catalog.GetRoomType(ctx, roomTypeID)
		if err != nil {
			if errors.Is(err, catalog.ErrRoomTypeNotFound) {
				return ErrRoomTypeNotFound
			}
			return err
		}
		if rt.HotelID != b.HotelID {
			return ErrHotelMismatch
		}
		if b.Adults+b.Children > rt.MaxGuests*b.Rooms {
			return ErrTooManyGuests
		}

		if err := s.Inventory.Reassign(ctx, b.ID, rt.ID); err != nil {
			return err
		}
		b.RoomTypeID = rt.ID
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking moved", zap.String("booking_id", id), zap.String("room_type_id", roomTypeID))
	return out, nil
}

// ExtendStay moves check-out later while the booking is unpaid. The frozen
// discount amounts stay as they were; only the base amount grows.
func (s *service) ExtendStay(ctx context.Context, id string, checkOutDate time.Time, actor Actor) (*Booking, error) {
	var out *Booking
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(b) {
			return ErrPermissionDenied
		}
		if !b.AwaitingPayment() {
			return ErrNotModifiable
		}

		checkOut := s.at(checkOutDate, s.CheckOutHour)
		if !checkOut.After(b.CheckOut) {
			return ErrCheckOutNotLater
		}

		rt, err := s.Catalog.GetRoomType(ctx, b.RoomTypeID)
		if err != nil {
			return err
		}
		if err := s.Inventory.Extend(ctx, b.ID, checkOut); err != nil {
			return err
		}

		b.CheckOut = checkOut
		b.BaseAmount = discount.BaseAmount(rt.Rate, discount.Nights(b.CheckIn, checkOut), b.Rooms)
		b.TotalAmount = b.NetAmount()
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("stay extended",
		zap.String("booking_id", id),
		zap.Time("check_out", out.CheckOut),
		zap.Int64("total_amount", out.TotalAmount),
	)
	return out, nil
}
