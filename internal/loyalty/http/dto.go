package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

type HistoryRequest struct {
	request.ListParams
}

type TransactionResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Amount    int64     `json:"amount"`
	Points    int64     `json:"points"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTransactionResponse(t *loyalty.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		BookingID: t.BookingID,
		Amount:    t.Amount,
		Points:    t.Points,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

type LoyaltyResponse struct {
	PointsBalance int64                                      `json:"points_balance"`
	History       response.PageResponse[TransactionResponse] `json:"history"`
}
