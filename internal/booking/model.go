package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrRoomTypeNotFound = apperror.New(http.StatusNotFound, "room type not found")
	ErrInvalidDates     = apperror.New(http.StatusBadRequest, "check-in must be before check-out")
	ErrCheckInPast      = apperror.New(http.StatusBadRequest, "cannot book a stay in the past")
	ErrInvalidGuests    = apperror.New(http.StatusBadRequest, "at least one adult and one room are required")
	ErrTooManyGuests    = apperror.New(http.StatusBadRequest, "too many guests for the selected rooms")
	ErrAlreadyCanceled  = apperror.New(http.StatusConflict, "booking is already canceled")
	ErrNotCancelable    = apperror.New(http.StatusConflict, "paid and confirmed bookings cannot be canceled")
	ErrCanceled         = apperror.New(http.StatusConflict, "booking is canceled")
	ErrNotModifiable    = apperror.New(http.StatusConflict, "booking can no longer be changed")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrHotelMismatch    = apperror.New(http.StatusConflict, "room type belongs to another hotel")
	ErrInvalidPayment   = apperror.New(http.StatusBadRequest, "unsupported payment method")
	ErrCheckOutNotLater = apperror.New(http.StatusBadRequest, "new check-out must be after the current one")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentCanceled PaymentStatus = "canceled"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodGateway      PaymentMethod = "gateway"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodGateway:
		return true
	}
	return false
}

// Cancel reasons written by the system.
const (
	ReasonPaymentTimeout = "payment timeout"
	ReasonPaymentFailed  = "payment failed"
)

// Booking is one guest's hold on rooms of a single room type.
// CheckIn and CheckOut carry the hotel-local arrival and departure times.
type Booking struct {
	ID         string
	RoomTypeID string
	HotelID    string
	UserID     string

	GuestName  string
	GuestEmail string
	GuestPhone string

	CheckIn  time.Time
	CheckOut time.Time
	Adults   int
	Children int
	Rooms    int

	PaymentMethod PaymentMethod
	Status        Status
	PaymentStatus PaymentStatus

	BaseAmount      int64
	Discount        *discount.Applied
	Vouchers        []discount.Applied
	VoucherDiscount int64
	TotalAmount     int64

	TransferReference string
	TransferMemo      string
	PaymentExpiresAt  *time.Time

	CancelReason string
	ConfirmedAt  *time.Time
	CanceledAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HoldsInventory reports whether the booking should own a reservation.
func (b *Booking) HoldsInventory() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// Settled is the terminal paid state.
func (b *Booking) Settled() bool {
	return b.Status == StatusConfirmed && b.PaymentStatus == PaymentPaid
}

// AwaitingPayment is true while the guest may still pay.
func (b *Booking) AwaitingPayment() bool {
	return b.Status == StatusPending && b.PaymentStatus == PaymentPending
}

// FestivalReduction is what the festival snapshot took off the base amount.
func (b *Booking) FestivalReduction() int64 {
	if b.Discount == nil {
		return 0
	}
	return b.Discount.AmountReduced
}

// NetAmount is what the guest pays after every discount.
func (b *Booking) NetAmount() int64 {
	net := b.BaseAmount - b.VoucherDiscount - b.FestivalReduction()
	if net < 0 {
		return 0
	}
	return net
}

// PaymentTerms are decided by the payment strategy before the booking exists.
type PaymentTerms struct {
	Method            PaymentMethod
	TransferReference string
	TransferMemo      string
	PaymentExpiresAt  *time.Time
}

// Actor is whoever asks for a change.
type Actor struct {
	UserID  string
	IsStaff bool
}

func (a Actor) Owns(b *Booking) bool {
	return a.IsStaff || a.UserID == b.UserID
}

type Filter struct {
	UserID      string
	HotelID     string
	RoomTypeID  string
	Status      string
	CheckInFrom *time.Time
	CheckInTo   *time.Time
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
