package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
)

// PaymentRequest asks the gateway for a checkout page.
type PaymentRequest struct {
	OrderID   string
	Amount    int64
	OrderInfo string
}

// GatewayClient creates hosted payment pages on a redirect gateway.
type GatewayClient interface {
	Kind() string
	CreatePaymentRequest(ctx context.Context, req PaymentRequest) (redirectURL string, err error)
}

const requestTypeCaptureWallet = "captureWallet"

type createRequestBody struct {
	PartnerCode string `json:"partnerCode"`
	RequestType string `json:"requestType"`
	IPNURL      string `json:"ipnUrl"`
	RedirectURL string `json:"redirectUrl"`
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	OrderInfo   string `json:"orderInfo"`
	RequestID   string `json:"requestId"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type createResponseBody struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
	PayURL      string `json:"payUrl"`
}

// HMACGateway talks to a gateway that signs requests with HMAC-SHA256.
type HMACGateway struct {
	cfg    config.GatewayConfig
	client *http.Client
}

func NewHMACGateway(cfg config.GatewayConfig) *HMACGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HMACGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *HMACGateway) Kind() string {
	return g.cfg.Kind
}

func (g *HMACGateway) CreatePaymentRequest(ctx context.Context, req PaymentRequest) (string, error) {
	body := createRequestBody{
		PartnerCode: g.cfg.PartnerCode,
		RequestType: requestTypeCaptureWallet,
		IPNURL:      g.cfg.IPNURL,
		RedirectURL: g.cfg.RedirectURL,
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		OrderInfo:   req.OrderInfo,
		RequestID:   uuid.NewString(),
		Lang:        "en",
	}
	body.Signature = Sign(g.cfg.SecretKey, canonical([]field{
		{"accessKey", g.cfg.AccessKey},
		{"amount", strconv.FormatInt(body.Amount, 10)},
		{"extraData", body.ExtraData},
		{"ipnUrl", body.IPNURL},
		{"orderId", body.OrderID},
		{"orderInfo", body.OrderInfo},
		{"partnerCode", body.PartnerCode},
		{"redirectUrl", body.RedirectURL},
		{"requestId", body.RequestID},
		{"requestType", body.RequestType},
	}))

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	var out createResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response (status %d): %w", resp.StatusCode, err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		return "", fmt.Errorf("gateway rejected order %s: code %d: %s", req.OrderID, out.ResultCode, out.Message)
	}
	return out.PayURL, nil
}
