package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
)

type AvailabilityRequest struct {
	request.DateRange
}

// Range parses the query dates; the ledger validates ordering.
func (r *AvailabilityRequest) Range() (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, r.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.DateOnly, r.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

type DayResponse struct {
	Date      string `json:"date"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

type AvailabilityResponse struct {
	RoomTypeID string        `json:"room_type_id"`
	Days       []DayResponse `json:"days"`
}

func NewAvailabilityResponse(roomTypeID string, days []inventory.DayAvailability) AvailabilityResponse {
	out := make([]DayResponse, len(days))
	for i, d := range days {
		out[i] = DayResponse{
			Date:      d.Date.Format(time.DateOnly),
			Booked:    d.Booked,
			Available: d.Available,
		}
	}
	return AvailabilityResponse{RoomTypeID: roomTypeID, Days: out}
}
