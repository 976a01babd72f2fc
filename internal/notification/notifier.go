package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RoutingKeyBookingConfirmed is the topic confirmed bookings are published under.
const RoutingKeyBookingConfirmed = "booking.confirmed"

// BookingConfirmed is the message consumers receive after a booking is paid.
type BookingConfirmed struct {
	Event      string    `json:"event"`
	BookingID  string    `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingConfirmed(bookingID string, at time.Time) BookingConfirmed {
	return BookingConfirmed{
		Event:      RoutingKeyBookingConfirmed,
		BookingID:  bookingID,
		OccurredAt: at.UTC(),
	}
}

// LogNotifier writes confirmations to the log when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(_ context.Context, bookingID string) error {
	n.logger.Info("booking confirmation", zap.String("booking_id", bookingID))
	return nil
}
