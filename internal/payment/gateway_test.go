package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
)

func gatewayConfig(endpoint string) config.GatewayConfig {
	return config.GatewayConfig{
		Kind:        "momo",
		Endpoint:    endpoint,
		PartnerCode: "PARTNER",
		AccessKey:   "AK",
		SecretKey:   "SK",
		RedirectURL: "https://hotel.example/return",
		IPNURL:      "https://hotel.example/v1/payments/webhooks/momo",
		Timeout:     time.Second,
	}
}

func TestHMACGateway_CreatePaymentRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId":    got["orderId"],
			"resultCode": 0,
			"message":    "Successful.",
			"payUrl":     "https://pay.example/checkout/123",
		})
	}))
	defer srv.Close()

	gw := payment.NewHMACGateway(gatewayConfig(srv.URL))
	assert.Equal(t, "momo", gw.Kind())

	url, err := gw.CreatePaymentRequest(context.Background(), payment.PaymentRequest{
		OrderID: "b-1", Amount: 900_000, OrderInfo: "Booking b-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout/123", url)

	assert.Equal(t, "b-1", got["orderId"])
	assert.Equal(t, float64(900_000), got["amount"])
	assert.Equal(t, "captureWallet", got["requestType"])

	raw := "accessKey=AK&amount=" + strconv.Itoa(900_000) + "&extraData=" +
		"&ipnUrl=https://hotel.example/v1/payments/webhooks/momo&orderId=b-1&orderInfo=Booking b-1" +
		"&partnerCode=PARTNER&redirectUrl=https://hotel.example/return&requestId=" + got["requestId"].(string) +
		"&requestType=captureWallet"
	assert.Equal(t, payment.Sign("SK", raw), got["signature"])
}

func TestHMACGateway_RejectedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"resultCode": 41, "message": "duplicate order"})
	}))
	defer srv.Close()

	_, err := payment.NewHMACGateway(gatewayConfig(srv.URL)).CreatePaymentRequest(context.Background(), payment.PaymentRequest{OrderID: "b-1", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate order")
}

func TestHMACGateway_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := gatewayConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	_, err := payment.NewHMACGateway(cfg).CreatePaymentRequest(context.Background(), payment.PaymentRequest{OrderID: "b-1", Amount: 1})
	assert.Error(t, err)
}
