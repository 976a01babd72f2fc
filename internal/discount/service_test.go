package discount_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db/dbtest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount/discounttest"
)

var now = time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)

func newResolver(ds ...discount.Discount) (discount.Service, *discounttest.MemoryRepository) {
	repo := discounttest.NewMemoryRepository(ds...)
	svc := discount.NewService(repo, dbtest.NewSerial(repo), func() time.Time { return now }, zap.NewNop())
	return svc, repo
}

func input(codes ...string) discount.QuoteInput {
	return discount.QuoteInput{
		UserID:       "u1",
		HotelID:      "h1",
		RoomTypeID:   "rt1",
		Rate:         500_000,
		Rooms:        1,
		CheckIn:      time.Date(2026, 12, 10, 14, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2026, 12, 12, 12, 0, 0, 0, time.UTC),
		VoucherCodes: codes,
	}
}

func TestQuote_UsesFestivalAndLowercaseCodes(t *testing.T) {
	svc, _ := newResolver(
		discount.Discount{
			ID: "f1", Name: "Tet", Kind: discount.KindFestival, Type: discount.TypeFixed, Value: 100_000,
			StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), IsActive: true,
		},
		discount.Discount{
			ID: "v1", Code: "WELCOME", Name: "Welcome", Kind: discount.KindAccumulated, Type: discount.TypePercentage,
			Value: 10, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), IsActive: true,
		},
	)

	q, err := svc.Quote(context.Background(), input(" welcome "))
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), q.BaseAmount)
	assert.Equal(t, int64(100_000), q.FestivalReduction())
	assert.Equal(t, int64(90_000), q.VoucherDiscount)
	assert.Equal(t, int64(810_000), q.Total)
}

func TestQuote_InvalidInput(t *testing.T) {
	svc, _ := newResolver()
	in := input()
	in.Rooms = 0
	_, err := svc.Quote(context.Background(), in)
	assert.ErrorIs(t, err, discount.ErrInvalidInput)
}

func TestRedeem_EnforcesPerUserLimit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newResolver(discount.Discount{
		ID: "v1", Code: "ONCE", Name: "Once", Kind: discount.KindVoucher, Type: discount.TypeFixed, Value: 50_000,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), IsActive: true, Stackable: true,
		UsageLimitPerUser: 1,
	})

	first, err := svc.Quote(ctx, input("ONCE"))
	require.NoError(t, err)
	second, err := svc.Quote(ctx, input("ONCE"))
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, "b1", "u1", first))
	// Both quotes were taken before either redemption; the second must still lose.
	assert.ErrorIs(t, svc.Redeem(ctx, "b2", "u1", second), discount.ErrUsageLimitReached)
	assert.Len(t, repo.Usages(), 1)
	assert.Equal(t, 1, repo.Get("v1").UsedCount)

	third, err := svc.Quote(ctx, input("ONCE"))
	require.NoError(t, err)
	assert.Empty(t, third.Vouchers)
	assert.Equal(t, discount.ReasonUsageLimit, third.Rejected[0].Reason)
}

func TestReleaseUsage(t *testing.T) {
	ctx := context.Background()
	svc, repo := newResolver(discount.Discount{
		ID: "v1", Code: "ONCE", Name: "Once", Kind: discount.KindVoucher, Type: discount.TypeFixed, Value: 50_000,
		StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), IsActive: true, UsageLimitPerUser: 1,
	})

	q, err := svc.Quote(ctx, input("ONCE"))
	require.NoError(t, err)
	require.NoError(t, svc.Redeem(ctx, "b1", "u1", q))

	require.NoError(t, svc.ReleaseUsage(ctx, "b1"))
	assert.Empty(t, repo.Usages())
	assert.Equal(t, 0, repo.Get("v1").UsedCount)

	again, err := svc.Quote(ctx, input("ONCE"))
	require.NoError(t, err)
	assert.Len(t, again.Vouchers, 1)
}
