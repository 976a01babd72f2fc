package http

import "github.com/nekogravitycat/hotel-booking-backend/internal/payment"

// NotificationRequest is the gateway's instant payment notification body.
type NotificationRequest struct {
	PartnerCode  string `json:"partnerCode" binding:"required"`
	OrderID      string `json:"orderId" binding:"required"`
	RequestID    string `json:"requestId" binding:"required"`
	Amount       int64  `json:"amount" binding:"min=0"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature" binding:"required,hexadecimal"`
}

func (r NotificationRequest) toDomain() payment.Notification {
	return payment.Notification{
		PartnerCode:  r.PartnerCode,
		OrderID:      r.OrderID,
		RequestID:    r.RequestID,
		Amount:       r.Amount,
		OrderInfo:    r.OrderInfo,
		OrderType:    r.OrderType,
		TransID:      r.TransID,
		ResultCode:   r.ResultCode,
		Message:      r.Message,
		PayType:      r.PayType,
		ResponseTime: r.ResponseTime,
		ExtraData:    r.ExtraData,
		Signature:    r.Signature,
	}
}
