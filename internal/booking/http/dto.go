package http

import (
	"time"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
	"github.com/nekogravitycat/hotel-booking-backend/internal/pkg/request"
)

const dateLayout = "2006-01-02"

type StayRequest struct {
	RoomTypeID   string   `json:"room_type_id" binding:"required,uuid"`
	CheckIn      string   `json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut     string   `json:"check_out" binding:"required,datetime=2006-01-02"`
	Adults       int      `json:"adults" binding:"required,min=1"`
	Children     int      `json:"children" binding:"omitempty,min=0"`
	Rooms        int      `json:"rooms" binding:"required,min=1"`
	VoucherCodes []string `json:"voucher_codes" binding:"omitempty,max=5,dive,required,max=64"`
}

func (r StayRequest) toDomain(userID string) (booking.StayRequest, error) {
	checkIn, err := time.Parse(dateLayout, r.CheckIn)
	if err != nil {
		return booking.StayRequest{}, err
	}
	checkOut, err := time.Parse(dateLayout, r.CheckOut)
	if err != nil {
		return booking.StayRequest{}, err
	}
	return booking.StayRequest{
		UserID:       userID,
		RoomTypeID:   r.RoomTypeID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Adults:       r.Adults,
		Children:     r.Children,
		Rooms:        r.Rooms,
		VoucherCodes: r.VoucherCodes,
	}, nil
}

type CreateBookingRequest struct {
	StayRequest
	GuestName     string `json:"guest_name" binding:"required,max=200"`
	GuestEmail    string `json:"guest_email" binding:"required,email"`
	GuestPhone    string `json:"guest_phone" binding:"omitempty,max=32"`
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cash bank_transfer gateway"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type ChangeRoomTypeRequest struct {
	RoomTypeID string `json:"room_type_id" binding:"required,uuid"`
}

type ExtendStayRequest struct {
	CheckOut string `json:"check_out" binding:"required,datetime=2006-01-02"`
}

type ListBookingsRequest struct {
	request.ListParams
	Status      string `form:"status" binding:"omitempty,oneof=pending confirmed canceled"`
	HotelID     string `form:"hotel_id" binding:"omitempty,uuid"`
	RoomTypeID  string `form:"room_type_id" binding:"omitempty,uuid"`
	CheckInFrom string `form:"check_in_from" binding:"omitempty,datetime=2006-01-02"`
	CheckInTo   string `form:"check_in_to" binding:"omitempty,datetime=2006-01-02"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=check_in created_at total_amount"`
}

func parseOptionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func (r ListBookingsRequest) toFilter() booking.Filter {
	return booking.Filter{
		HotelID:     r.HotelID,
		RoomTypeID:  r.RoomTypeID,
		Status:      r.Status,
		CheckInFrom: parseOptionalDate(r.CheckInFrom),
		CheckInTo:   parseOptionalDate(r.CheckInTo),
		Page:        r.Page,
		PageSize:    r.PageSize,
		SortBy:      r.SortBy,
		SortOrder:   r.SortOrder,
	}
}

type BookingResponse struct {
	ID               string             `json:"id"`
	RoomTypeID       string             `json:"room_type_id"`
	HotelID          string             `json:"hotel_id"`
	UserID           string             `json:"user_id"`
	GuestName        string             `json:"guest_name"`
	GuestEmail       string             `json:"guest_email"`
	GuestPhone       string             `json:"guest_phone,omitempty"`
	CheckIn          time.Time          `json:"check_in"`
	CheckOut         time.Time          `json:"check_out"`
	Adults           int                `json:"adults"`
	Children         int                `json:"children"`
	Rooms            int                `json:"rooms"`
	PaymentMethod    string             `json:"payment_method"`
	Status           string             `json:"status"`
	PaymentStatus    string             `json:"payment_status"`
	BaseAmount       int64              `json:"base_amount"`
	Discount         *discount.Applied  `json:"discount,omitempty"`
	Vouchers         []discount.Applied `json:"vouchers"`
	VoucherDiscount  int64              `json:"voucher_discount"`
	TotalAmount      int64              `json:"total_amount"`
	TransferMemo     string             `json:"transfer_memo,omitempty"`
	PaymentExpiresAt *time.Time         `json:"payment_expires_at,omitempty"`
	CancelReason     string             `json:"cancel_reason,omitempty"`
	ConfirmedAt      *time.Time         `json:"confirmed_at,omitempty"`
	CanceledAt       *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	vouchers := b.Vouchers
	if vouchers == nil {
		vouchers = []discount.Applied{}
	}
	return BookingResponse{
		ID:               b.ID,
		RoomTypeID:       b.RoomTypeID,
		HotelID:          b.HotelID,
		UserID:           b.UserID,
		GuestName:        b.GuestName,
		GuestEmail:       b.GuestEmail,
		GuestPhone:       b.GuestPhone,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Adults:           b.Adults,
		Children:         b.Children,
		Rooms:            b.Rooms,
		PaymentMethod:    string(b.PaymentMethod),
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		BaseAmount:       b.BaseAmount,
		Discount:         b.Discount,
		Vouchers:         vouchers,
		VoucherDiscount:  b.VoucherDiscount,
		TotalAmount:      b.TotalAmount,
		TransferMemo:     b.TransferMemo,
		PaymentExpiresAt: b.PaymentExpiresAt,
		CancelReason:     b.CancelReason,
		ConfirmedAt:      b.ConfirmedAt,
		CanceledAt:       b.CanceledAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

type QuoteResponse struct {
	Nights           int                 `json:"nights"`
	BaseAmount       int64               `json:"base_amount"`
	Festival         *discount.Applied   `json:"festival_discount,omitempty"`
	Vouchers         []discount.Applied  `json:"vouchers"`
	VoucherDiscount  int64               `json:"voucher_discount"`
	RejectedVouchers []discount.Rejected `json:"rejected_vouchers"`
	Total            int64               `json:"total"`
}

func NewQuoteResponse(q *discount.Quote) QuoteResponse {
	resp := QuoteResponse{
		Nights:           q.Nights,
		BaseAmount:       q.BaseAmount,
		Festival:         q.Festival,
		Vouchers:         q.Vouchers,
		VoucherDiscount:  q.VoucherDiscount,
		RejectedVouchers: q.Rejected,
		Total:            q.Total,
	}
	if resp.Vouchers == nil {
		resp.Vouchers = []discount.Applied{}
	}
	if resp.RejectedVouchers == nil {
		resp.RejectedVouchers = []discount.Rejected{}
	}
	return resp
}

type InstructionsResponse struct {
	Method            string     `json:"method"`
	Amount            int64      `json:"amount"`
	Message           string     `json:"message"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	BankName          string     `json:"bank_name,omitempty"`
	AccountName       string     `json:"account_name,omitempty"`
	AccountNumber     string     `json:"account_number,omitempty"`
	TransferReference string     `json:"transfer_reference,omitempty"`
	TransferMemo      string     `json:"transfer_memo,omitempty"`
	RedirectURL       string     `json:"redirect_url,omitempty"`
}

func NewInstructionsResponse(in *payment.Instructions) *InstructionsResponse {
	if in == nil {
		return nil
	}
	return &InstructionsResponse{
		Method:            string(in.Method),
		Amount:            in.Amount,
		Message:           in.Message,
		ExpiresAt:         in.ExpiresAt,
		BankName:          in.BankName,
		AccountName:       in.AccountName,
		AccountNumber:     in.AccountNumber,
		TransferReference: in.TransferReference,
		TransferMemo:      in.TransferMemo,
		RedirectURL:       in.RedirectURL,
	}
}

type CreateBookingResponse struct {
	Booking             BookingResponse       `json:"booking"`
	Quote               QuoteResponse         `json:"quote"`
	PaymentInstructions *InstructionsResponse `json:"payment_instructions"`
}
