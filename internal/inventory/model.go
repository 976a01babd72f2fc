package inventory

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var (
	ErrInsufficientStock   = apperror.New(http.StatusConflict, "not enough rooms available for the requested dates")
	ErrInvalidRange        = apperror.New(http.StatusBadRequest, "check-in must be before check-out")
	ErrInvalidRooms        = apperror.New(http.StatusBadRequest, "at least one room must be requested")
	ErrRangeTooLong        = apperror.New(http.StatusBadRequest, "date range is too long")
	ErrCategoryMismatch    = apperror.New(http.StatusConflict, "room types belong to different categories")
	ErrRoomTypeNotFound    = apperror.New(http.StatusNotFound, "room type not found")
	ErrReservationNotFound = apperror.New(http.StatusNotFound, "reservation not found")
	ErrAlreadyReserved     = apperror.New(http.StatusConflict, "booking already holds a reservation")
)

// MaxRangeDays bounds availability queries and single stays.
const MaxRangeDays = 366

// Reservation holds rooms of one room type for the nights in [CheckIn, CheckOut).
// Both dates are calendar days at UTC midnight.
type Reservation struct {
	BookingID  string
	RoomTypeID string
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      int
}

// Stock is the capacity side of a room type.
type Stock struct {
	RoomTypeID string
	Category   string
	TotalStock int
}

// DayAvailability describes one night of a room type.
type DayAvailability struct {
	Date      time.Time
	Booked    int
	Available int
}
