package payment

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidSignature   = apperror.New(http.StatusUnauthorized, "invalid payment signature")
	ErrUnknownProvider    = apperror.New(http.StatusNotFound, "unknown payment provider")
	ErrAmountMismatch     = apperror.New(http.StatusBadRequest, "paid amount does not match the booking total")
	ErrGatewayUnavailable = apperror.New(http.StatusBadGateway, "payment gateway unavailable, please retry")
	ErrMethodUnavailable  = apperror.New(http.StatusBadRequest, "payment method is not available")
	ErrNotGatewayBooking  = apperror.New(http.StatusConflict, "booking is not paid through the gateway")
	ErrNotAwaitingPayment = apperror.New(http.StatusConflict, "booking is not awaiting payment")
	ErrGatewayConfirm     = apperror.New(http.StatusConflict, "gateway payments are confirmed by the gateway")
	ErrRetryRequired      = apperror.New(http.StatusConflict, "gateway payments must be restarted")
)

// Instructions tell the guest how to pay for a booking.
type Instructions struct {
	Method    booking.PaymentMethod
	Amount    int64
	Message   string
	ExpiresAt *time.Time

	// Bank transfer only.
	BankName          string
	AccountName       string
	AccountNumber     string
	TransferReference string
	TransferMemo      string

	// Gateway only.
	RedirectURL string
}

// Checkout is the result of placing a booking and starting its payment.
type Checkout struct {
	Booking      *booking.Booking
	Quote        *discount.Quote
	Instructions *Instructions
}

// Notification is the gateway's asynchronous payment result.
type Notification struct {
	PartnerCode  string
	OrderID      string
	RequestID    string
	Amount       int64
	OrderInfo    string
	OrderType    string
	TransID      int64
	ResultCode   int
	Message      string
	PayType      string
	ResponseTime int64
	ExtraData    string
	Signature    string
}

// Succeeded reports a successful payment result.
func (n Notification) Succeeded() bool {
	return n.ResultCode == 0
}

// Event is the audit record of one verified gateway notification.
type Event struct {
	ID         string
	Provider   string
	OrderID    string
	RequestID  string
	TransID    int64
	ResultCode int
	Amount     int64
	Message    string
	CreatedAt  time.Time
}
