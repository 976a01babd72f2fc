package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
)

// Strategy is one way of paying for a booking.
type Strategy interface {
	Method() booking.PaymentMethod
	// Prepare fixes the payment terms stored with a new booking.
	Prepare(now time.Time) (booking.PaymentTerms, error)
	// Initiate produces the guest's payment instructions for a stored booking.
	Initiate(ctx context.Context, b *booking.Booking) (*Instructions, error)
}

type cashStrategy struct{}

// NewCash returns the pay-at-the-desk strategy. Staff confirm on check-in.
func NewCash() Strategy {
	return cashStrategy{}
}

func (cashStrategy) Method() booking.PaymentMethod { return booking.MethodCash }

func (cashStrategy) Prepare(time.Time) (booking.PaymentTerms, error) {
	return booking.PaymentTerms{Method: booking.MethodCash}, nil
}

func (cashStrategy) Initiate(_ context.Context, b *booking.Booking) (*Instructions, error) {
	return &Instructions{
		Method:  booking.MethodCash,
		Amount:  b.TotalAmount,
		Message: "Pay at the front desk when you check in.",
	}, nil
}

const referenceLength = 10

type bankTransferStrategy struct {
	bank config.BankConfig
	ttl  time.Duration
}

// NewBankTransfer returns the manual transfer strategy. Unpaid bookings
// expire ttl after creation.
func NewBankTransfer(bank config.BankConfig, ttl time.Duration) Strategy {
	if bank.MemoPrefix == "" {
		bank.MemoPrefix = "HOTEL"
	}
	return &bankTransferStrategy{bank: bank, ttl: ttl}
}

func (s *bankTransferStrategy) Method() booking.PaymentMethod { return booking.MethodBankTransfer }

// NewTransferReference returns a short upper-case reference guests can type.
func NewTransferReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:referenceLength])
}

func (s *bankTransferStrategy) Prepare(now time.Time) (booking.PaymentTerms, error) {
	if s.ttl <= 0 {
		return booking.PaymentTerms{}, fmt.Errorf("bank transfer ttl must be positive, got %s", s.ttl)
	}
	ref := NewTransferReference()
	expires := now.Add(s.ttl)
	return booking.PaymentTerms{
		Method:            booking.MethodBankTransfer,
		TransferReference: ref,
		TransferMemo:      s.bank.MemoPrefix + " " + ref,
		PaymentExpiresAt:  &expires,
	}, nil
}

func (s *bankTransferStrategy) Initiate(_ context.Context, b *booking.Booking) (*Instructions, error) {
	return &Instructions{
		Method:            booking.MethodBankTransfer,
		Amount:            b.TotalAmount,
		Message:           "Transfer the exact amount with the memo below before the deadline.",
		ExpiresAt:         b.PaymentExpiresAt,
		BankName:          s.bank.BankName,
		AccountName:       s.bank.AccountName,
		AccountNumber:     s.bank.AccountNumber,
		TransferReference: b.TransferReference,
		TransferMemo:      b.TransferMemo,
	}, nil
}

type gatewayStrategy struct {
	client GatewayClient
}

// NewGateway returns the redirect strategy backed by client.
func NewGateway(client GatewayClient) Strategy {
	return &gatewayStrategy{client: client}
}

func (s *gatewayStrategy) Method() booking.PaymentMethod { return booking.MethodGateway }

func (s *gatewayStrategy) Prepare(time.Time) (booking.PaymentTerms, error) {
	return booking.PaymentTerms{Method: booking.MethodGateway}, nil
}

// Initiate always charges the stored total, never a client supplied amount.
func (s *gatewayStrategy) Initiate(ctx context.Context, b *booking.Booking) (*Instructions, error) {
	url, err := s.client.CreatePaymentRequest(ctx, PaymentRequest{
		OrderID:   b.ID,
		Amount:    b.TotalAmount,
		OrderInfo: "Booking " + b.ID,
	})
	if err != nil {
		return nil, ErrGatewayUnavailable.WithCause(err)
	}
	return &Instructions{
		Method:      booking.MethodGateway,
		Amount:      b.TotalAmount,
		Message:     "Continue to the payment page to finish your booking.",
		RedirectURL: url,
	}, nil
}
