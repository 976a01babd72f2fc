package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

type Handler struct {
	service payment.Service
}

func NewHandler(service payment.Service) *Handler {
	return &Handler{service: service}
}

// Webhook receives asynchronous payment results. The gateway expects 204 on success.
func (h *Handler) Webhook(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid notification", err)
		return
	}

	if err := h.service.HandleGatewayNotification(c.Request.Context(), c.Param("provider"), req.toDomain()); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
