package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

type Handler struct {
	loyalty loyalty.Service
	users   user.Service
}

func NewHandler(loyaltyService loyalty.Service, users user.Service) *Handler {
	return &Handler{loyalty: loyaltyService, users: users}
}

// Me returns the caller's points balance and credit history.
func (h *Handler) Me(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	userID := auth.GetUserID(c)
	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	txs, total, err := h.loyalty.History(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		items[i] = NewTransactionResponse(t)
	}
	c.JSON(http.StatusOK, LoyaltyResponse{
		PointsBalance: u.PointsBalance,
		History:       response.NewPageResponse(items, req.Page, req.PageSize, total),
	})
}
