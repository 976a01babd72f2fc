package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db/dbtest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty/loyaltytest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user/usertest"
)

func newLedger() (loyalty.Service, *loyaltytest.MemoryRepository, *usertest.MemoryRepository) {
	repo := loyaltytest.NewMemoryRepository()
	users := usertest.NewMemoryRepository(user.User{ID: "u1", Email: "u1@example.com"})
	return loyalty.NewService(repo, users, dbtest.NewSerial(repo, users), zap.NewNop()), repo, users
}

func settled() *booking.Booking {
	return &booking.Booking{
		ID:              "b1",
		UserID:          "u1",
		Status:          booking.StatusConfirmed,
		PaymentStatus:   booking.PaymentPaid,
		BaseAmount:      1_000_000,
		Discount:        &discount.Applied{ID: "f1", AmountReduced: 100_000},
		VoucherDiscount: 90_000,
		TotalAmount:     810_000,
	}
}

func TestPointsFor(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{0, 0},
		{-500, 0},
		{99, 0},
		{100, 1},
		{199, 1},
		{810_000, 8_100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, loyalty.PointsFor(tt.amount), "amount %d", tt.amount)
	}
}

func TestAccrue_CreditsNetAmountOnce(t *testing.T) {
	svc, repo, users := newLedger()
	ctx := context.Background()

	require.NoError(t, svc.Accrue(ctx, settled()))
	require.NoError(t, svc.Accrue(ctx, settled()))

	entries := repo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(810_000), entries[0].Amount)
	assert.Equal(t, int64(8_100), entries[0].Points)
	assert.Equal(t, loyalty.StatusCredited, entries[0].Status)

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(8_100), u.PointsBalance)
}

func TestAccrue_RequiresPaidAndConfirmed(t *testing.T) {
	svc, repo, _ := newLedger()

	for _, mutate := range []func(b *booking.Booking){
		func(b *booking.Booking) { b.Status = booking.StatusPending },
		func(b *booking.Booking) { b.PaymentStatus = booking.PaymentPending },
		func(b *booking.Booking) { b.Status, b.PaymentStatus = booking.StatusCanceled, booking.PaymentRefunded },
	} {
		b := settled()
		mutate(b)
		assert.ErrorIs(t, svc.Accrue(context.Background(), b), loyalty.ErrNotEligible)
	}
	assert.Empty(t, repo.Entries())
}

func TestAccrue_UnknownUserRollsBack(t *testing.T) {
	svc, repo, _ := newLedger()

	b := settled()
	b.UserID = "ghost"
	assert.ErrorIs(t, svc.Accrue(context.Background(), b), user.ErrNotFound)
	assert.Empty(t, repo.Entries())
}

func TestHistory(t *testing.T) {
	svc, _, _ := newLedger()
	ctx := context.Background()

	require.NoError(t, svc.Accrue(ctx, settled()))
	second := settled()
	second.ID = "b2"
	require.NoError(t, svc.Accrue(ctx, second))

	items, total, err := svc.History(ctx, "u1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	_, total, err = svc.History(ctx, "u2", 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}
