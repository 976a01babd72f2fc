package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

type field struct {
	key   string
	value string
}

// canonical joins fields as key=value pairs with '&' in the given order.
func canonical(fields []field) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(f.key)
		sb.WriteByte('=')
		sb.WriteString(f.value)
	}
	return sb.String()
}

// Sign returns the hex HMAC-SHA256 of raw.
func Sign(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// NotificationPayload is the string the gateway signs for a payment result.
func NotificationPayload(accessKey string, n Notification) string {
	return canonical([]field{
		{"accessKey", accessKey},
		{"amount", strconv.FormatInt(n.Amount, 10)},
		{"extraData", n.ExtraData},
		{"message", n.Message},
		{"orderId", n.OrderID},
		{"orderInfo", n.OrderInfo},
		{"orderType", n.OrderType},
		{"partnerCode", n.PartnerCode},
		{"payType", n.PayType},
		{"requestId", n.RequestID},
		{"responseTime", strconv.FormatInt(n.ResponseTime, 10)},
		{"resultCode", strconv.Itoa(n.ResultCode)},
		{"transId", strconv.FormatInt(n.TransID, 10)},
	})
}

// SignNotification computes the signature a genuine notification carries.
func SignNotification(secret, accessKey string, n Notification) string {
	return Sign(secret, NotificationPayload(accessKey, n))
}

// VerifyNotification compares signatures in constant time.
func VerifyNotification(secret, accessKey string, n Notification) bool {
	want := SignNotification(secret, accessKey, n)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(n.Signature)))
}
