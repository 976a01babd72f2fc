package discount

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrInvalidInput      = apperror.New(http.StatusBadRequest, "invalid pricing input")
	ErrUsageLimitReached = apperror.New(http.StatusConflict, "voucher usage limit reached")
)

type Kind string

const (
	KindVoucher     Kind = "voucher"
	KindFestival    Kind = "festival"
	KindAccumulated Kind = "accumulated"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

// Discount is a price reduction rule. Empty scope lists match every hotel or
// room type. Zero MaxDiscount and UsageLimitPerUser mean unlimited.
type Discount struct {
	ID                string
	Code              string
	Name              string
	Kind              Kind
	Type              Type
	Value             int64
	StartsAt          time.Time
	EndsAt            time.Time
	MinBookingValue   int64
	MaxDiscount       int64
	Stackable         bool
	UsageLimitPerUser int
	UsedCount         int
	HotelIDs          []string
	RoomTypeIDs       []string
	IsActive          bool
}

// Applied is the frozen snapshot stored on a booking.
type Applied struct {
	ID            string `json:"id"`
	Code          string `json:"code,omitempty"`
	Name          string `json:"name"`
	Type          Type   `json:"type"`
	Value         int64  `json:"value"`
	AmountReduced int64  `json:"amount_reduced"`
}

// Rejected explains why a submitted voucher code was skipped.
type Rejected struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Reasons reported for skipped vouchers.
const (
	ReasonUnknown       = "unknown code"
	ReasonNotVoucher    = "code is not a voucher"
	ReasonInactive      = "voucher is inactive"
	ReasonNotInWindow   = "voucher is not valid at this time"
	ReasonOutOfScope    = "voucher does not apply to this room"
	ReasonBelowMinimum  = "booking value is below the voucher minimum"
	ReasonUsageLimit    = "voucher usage limit reached"
	ReasonNotStackable  = "voucher cannot be combined with another voucher"
	ReasonDuplicate     = "duplicate code"
	ReasonNothingToTake = "nothing left to discount"
)

// QuoteInput is everything pricing needs about a prospective stay.
type QuoteInput struct {
	UserID       string
	HotelID      string
	RoomTypeID   string
	Rate         int64
	Rooms        int
	CheckIn      time.Time
	CheckOut     time.Time
	VoucherCodes []string
}

// Quote is the computed price of a stay. Total never goes below zero.
type Quote struct {
	Nights          int
	BaseAmount      int64
	Festival        *Applied
	Vouchers        []Applied
	VoucherDiscount int64
	Rejected        []Rejected
	Total           int64
}

// FestivalReduction is the amount taken off by the festival discount, if any.
func (q *Quote) FestivalReduction() int64 {
	if q.Festival == nil {
		return 0
	}
	return q.Festival.AmountReduced
}

// Usage records one voucher redemption by one booking.
type Usage struct {
	DiscountID string
	UserID     string
	BookingID  string
	Amount     int64
}

// VoucherCandidate pairs a submitted code with its stored rule and how often
// the user already redeemed it. Discount is nil for unknown codes.
type VoucherCandidate struct {
	Code     string
	Discount *Discount
	Used     int
}
