package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	staffOnly := auth.RequireStaff()

	group := g.Group("/bookings", authMiddleware)
	{
		group.POST("", h.Create)
		group.POST("/quote", h.Quote)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/confirm", staffOnly, h.Confirm)
		group.GET("/:id/payment", h.PaymentInstructions)
		group.POST("/:id/payment", h.RetryPayment)
		group.PATCH("/:id/room-type", staffOnly, h.ChangeRoomType)
		group.PATCH("/:id/check-out", h.ExtendStay)
	}
}
