package http

import (
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
)

type ListRoomTypesRequest struct {
	request.ListParams
	HotelID  string `form:"hotel_id" binding:"omitempty,uuid"`
	Category string `form:"category"`
}

// HotelTag is a brief representation of a hotel.
type HotelTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomTypeResponse struct {
	ID         string   `json:"id"`
	Hotel      HotelTag `json:"hotel"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Rate       int64    `json:"rate"`
	TotalStock int      `json:"total_stock"`
	MaxGuests  int      `json:"max_guests"`
}

func NewRoomTypeResponse(rt *catalog.RoomType) RoomTypeResponse {
	return RoomTypeResponse{
		ID:         rt.ID,
		Hotel:      HotelTag{ID: rt.HotelID, Name: rt.HotelName},
		Name:       rt.Name,
		Category:   rt.Category,
		Rate:       rt.Rate,
		TotalStock: rt.TotalStock,
		MaxGuests:  rt.MaxGuests,
	}
}
