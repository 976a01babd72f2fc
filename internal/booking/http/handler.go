package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/response"
)

type Handler struct {
	bookings booking.Service
	payments payment.Service
}

func NewHandler(bookings booking.Service, payments payment.Service) *Handler {
	return &Handler{bookings: bookings, payments: payments}
}

func actorOf(c *gin.Context) booking.Actor {
	return booking.Actor{UserID: auth.GetUserID(c), IsStaff: auth.IsStaff(c)}
}

// Create places a booking and starts its payment.
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	stay, err := req.StayRequest.toDomain(auth.GetUserID(c))
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	out, err := h.payments.Checkout(c.Request.Context(), booking.CreateRequest{
		StayRequest: stay,
		GuestName:   req.GuestName,
		GuestEmail:  req.GuestEmail,
		GuestPhone:  req.GuestPhone,
		Terms:       booking.PaymentTerms{Method: booking.PaymentMethod(req.PaymentMethod)},
	})
	if err != nil {
		if out != nil && out.Booking != nil {
			// The booking exists; the guest can retry payment against it.
			c.JSON(apperror.StatusOf(err, http.StatusBadGateway), gin.H{
				"error":      err.Error(),
				"booking_id": out.Booking.ID,
			})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateBookingResponse{
		Booking:             NewBookingResponse(out.Booking),
		Quote:               NewQuoteResponse(out.Quote),
		PaymentInstructions: NewInstructionsResponse(out.Instructions),
	})
}

// Quote prices a stay without reserving anything.
func (h *Handler) Quote(c *gin.Context) {
	var req StayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	stay, err := req.toDomain(auth.GetUserID(c))
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	q, err := h.bookings.Quote(c.Request.Context(), stay)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewQuoteResponse(q))
}

// List returns the caller's bookings, or every booking for staff.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := req.toFilter()
	if !auth.IsStaff(c) {
		filter.UserID = auth.GetUserID(c)
	}

	items, total, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]BookingResponse, len(items))
	for i, b := range items {
		resp[i] = NewBookingResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, req.Page, req.PageSize, total))
}

func (h *Handler) load(c *gin.Context) (*booking.Booking, bool) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return nil, false
	}
	b, err := h.bookings.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !actorOf(c).Owns(b) {
		response.Error(c, booking.ErrPermissionDenied)
		return nil, false
	}
	return b, true
}

func (h *Handler) Get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	b, err := h.bookings.Cancel(c.Request.Context(), uri.ID, req.Reason, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Confirm records a cash or bank transfer payment received by staff.
func (h *Handler) Confirm(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.payments.ConfirmManual(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// PaymentInstructions repeats how to pay an unpaid cash or transfer booking.
func (h *Handler) PaymentInstructions(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	in, err := h.payments.Instructions(c.Request.Context(), uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewInstructionsResponse(in))
}

// RetryPayment starts a new gateway payment.
func (h *Handler) RetryPayment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	in, err := h.payments.RetryPayment(c.Request.Context(), uri.ID, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewInstructionsResponse(in))
}

func (h *Handler) ChangeRoomType(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var req ChangeRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.bookings.ChangeRoomType(c.Request.Context(), uri.ID, req.RoomTypeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) ExtendStay(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}
	var req ExtendStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		response.BadRequest(c, "invalid date", err)
		return
	}

	b, err := h.bookings.ExtendStay(c.Request.Context(), uri.ID, checkOut, actorOf(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}
