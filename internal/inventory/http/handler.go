package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

type Handler struct {
	service inventory.Service
}

func NewHandler(service inventory.Service) *Handler {
	return &Handler{service: service}
}

// Availability returns per-night free rooms of a room type.
func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid room type id", err)
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	from, to, err := req.Range()
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	days, err := h.service.Availability(c.Request.Context(), uri.ID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAvailabilityResponse(uri.ID, days))
}
