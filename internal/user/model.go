package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, "user not found")

// User is the guest profile kept by the account service. Bookings only read
// it and adjust the loyalty points balance.
type User struct {
	ID            string
	Email         string
	FullName      string
	Phone         string
	Role          string
	PointsBalance int64
	CreatedAt     time.Time
}
