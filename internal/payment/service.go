package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// transferAttempts bounds retries when a generated transfer reference collides.
const transferAttempts = 3

type Service interface {
	// Checkout creates the booking and starts its payment. When the booking
	// was stored but payment could not start, the result carries the booking
	// together with the error.
	Checkout(ctx context.Context, req booking.CreateRequest) (*Checkout, error)
	// Instructions repeats the payment instructions of an unpaid booking.
	Instructions(ctx context.Context, bookingID string, actor booking.Actor) (*Instructions, error)
	// RetryPayment starts a new gateway payment for an unpaid booking.
	RetryPayment(ctx context.Context, bookingID string, actor booking.Actor) (*Instructions, error)
	// ConfirmManual records a cash or transfer payment seen by staff.
	ConfirmManual(ctx context.Context, bookingID string) (*booking.Booking, error)
	HandleGatewayNotification(ctx context.Context, provider string, n Notification) error
}

// Dependencies wires the payment coordinator.
type Dependencies struct {
	Bookings   booking.Service
	Strategies []Strategy
	Events     EventRepository
	// GatewayKind names the provider accepted on the webhook route.
	GatewayKind      string
	GatewaySecret    string
	GatewayAccessKey string
	Logger           *zap.Logger
	Now              func() time.Time
}

type service struct {
	Dependencies
	strategies map[booking.PaymentMethod]Strategy
}

func NewService(deps Dependencies) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	strategies := make(map[booking.PaymentMethod]Strategy, len(deps.Strategies))
	for _, st := range deps.Strategies {
		strategies[st.Method()] = st
	}
	return &service{Dependencies: deps, strategies: strategies}
}

func (s *service) strategy(method booking.PaymentMethod) (Strategy, error) {
	if !method.Valid() {
		return nil, booking.ErrInvalidPayment
	}
	st, ok := s.strategies[method]
	if !ok {
		return nil, ErrMethodUnavailable
	}
	return st, nil
}

func (s *service) Checkout(ctx context.Context, req booking.CreateRequest) (*Checkout, error) {
	st, err := s.strategy(req.Terms.Method)
	if err != nil {
		return nil, err
	}

	var created *booking.Booking
	out := &Checkout{}
	for attempt := 1; ; attempt++ {
		terms, err := st.Prepare(s.Now())
		if err != nil {
			return nil, err
		}
		req.Terms = terms

		created, out.Quote, err = s.Bookings.Create(ctx, req)
		if err == nil {
			break
		}
		if !db.IsUniqueViolation(err) || terms.TransferReference == "" || attempt == transferAttempts {
			return nil, err
		}
		s.Logger.Warn("transfer reference collision, retrying", zap.Int("attempt", attempt))
	}
	out.Booking = created

	instructions, err := st.Initiate(ctx, created)
	if err != nil {
		s.Logger.Warn("payment initiation failed",
			zap.String("booking_id", created.ID),
			zap.String("method", string(st.Method())),
			zap.Error(err),
		)
		return out, err
	}
	out.Instructions = instructions
	return out, nil
}

func (s *service) unpaid(ctx context.Context, bookingID string, actor booking.Actor) (*booking.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(b) {
		return nil, booking.ErrPermissionDenied
	}
	if !b.AwaitingPayment() {
		return nil, ErrNotAwaitingPayment
	}
	return b, nil
}

func (s *service) Instructions(ctx context.Context, bookingID string, actor booking.Actor) (*Instructions, error) {
	b, err := s.unpaid(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	if b.PaymentMethod == booking.MethodGateway {
		return nil, ErrRetryRequired
	}
	st, err := s.strategy(b.PaymentMethod)
	if err != nil {
		return nil, err
	}
	return st.Initiate(ctx, b)
}

func (s *service) RetryPayment(ctx context.Context, bookingID string, actor booking.Actor) (*Instructions, error) {
	b, err := s.unpaid(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	if b.PaymentMethod != booking.MethodGateway {
		return nil, ErrNotGatewayBooking
	}
	st, err := s.strategy(booking.MethodGateway)
	if err != nil {
		return nil, err
	}

	instructions, err := st.Initiate(ctx, b)
	if err != nil {
		s.Logger.Warn("payment retry failed", zap.String("booking_id", b.ID), zap.Error(err))
		return nil, err
	}
	return instructions, nil
}

func (s *service) ConfirmManual(ctx context.Context, bookingID string) (*booking.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PaymentMethod == booking.MethodGateway {
		return nil, ErrGatewayConfirm
	}
	return s.Bookings.Confirm(ctx, bookingID)
}

func (s *service) HandleGatewayNotification(ctx context.Context, provider string, n Notification) error {
	if s.GatewayKind == "" || provider != s.GatewayKind {
		return ErrUnknownProvider
	}
	if !VerifyNotification(s.GatewaySecret, s.GatewayAccessKey, n) {
		s.Logger.Warn("rejected gateway notification with bad signature",
			zap.String("provider", provider),
			zap.String("order_id", n.OrderID),
		)
		return ErrInvalidSignature
	}

	if err := s.Events.Record(ctx, &Event{
		Provider:   provider,
		OrderID:    n.OrderID,
		RequestID:  n.RequestID,
		TransID:    n.TransID,
		ResultCode: n.ResultCode,
		Amount:     n.Amount,
		Message:    n.Message,
	}); err != nil {
		return err
	}

	b, err := s.Bookings.GetByID(ctx, n.OrderID)
	if err != nil {
		return err
	}
	if b.PaymentMethod != booking.MethodGateway {
		return ErrNotGatewayBooking
	}
	if n.Amount != b.TotalAmount {
		s.Logger.Warn("gateway amount mismatch",
			zap.String("booking_id", b.ID),
			zap.Int64("paid", n.Amount),
			zap.Int64("expected", b.TotalAmount),
		)
		return ErrAmountMismatch
	}

	if !n.Succeeded() {
		_, err := s.Bookings.FailPayment(ctx, b.ID, booking.ReasonPaymentFailed+": "+n.Message)
		return err
	}

	if _, err := s.Bookings.Confirm(ctx, b.ID); err != nil {
		if errors.Is(err, booking.ErrCanceled) {
			// The guest paid after the booking was canceled; staff must refund by hand.
			s.Logger.Error("payment received for canceled booking",
				zap.String("booking_id", b.ID),
				zap.Int64("trans_id", n.TransID),
			)
			return nil
		}
		return err
	}
	return nil
}
