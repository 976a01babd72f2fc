package loyalty

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotEligible     = apperror.New(http.StatusConflict, "only paid and confirmed bookings earn points")
	ErrAlreadyCredited = apperror.New(http.StatusConflict, "points already credited for this booking")
)

// AmountPerPoint is the spend that earns one point.
const AmountPerPoint = 100

const StatusCredited = "credited"

// Transaction is the single points credit of one booking.
type Transaction struct {
	ID        string
	UserID    string
	BookingID string
	Amount    int64
	Points    int64
	Status    string
	CreatedAt time.Time
}

// PointsFor converts a paid amount into points, rounding down.
func PointsFor(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount / AmountPerPoint
}
