package catalog

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
)

var ErrRoomTypeNotFound = apperror.New(http.StatusNotFound, "room type not found")

// RoomType is the sellable unit of a hotel. Rate is per room per night in
// whole currency units.
type RoomType struct {
	ID         string
	HotelID    string
	HotelName  string
	Name       string
	Category   string
	Rate       int64
	TotalStock int
	MaxGuests  int
	CreatedAt  time.Time
}

type Filter struct {
	HotelID   string
	Category  string
	Page      int
	PageSize  int
	SortOrder string
}
