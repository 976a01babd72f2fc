package booking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking/bookingtest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
)

var start = time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	*bookingtest.Stack
	svc booking.Service
}

func newHarness(t *testing.T, stock int, ds ...discount.Discount) *harness {
	t.Helper()
	st := bookingtest.NewStack(start, []catalog.RoomType{
		{ID: "deluxe", HotelID: "h1", Name: "Deluxe", Category: "double", Rate: 500_000, TotalStock: stock, MaxGuests: 2},
		{ID: "premier", HotelID: "h1", Name: "Premier", Category: "double", Rate: 800_000, TotalStock: 1, MaxGuests: 3},
		{ID: "seaview", HotelID: "h2", Name: "Sea View", Category: "double", Rate: 600_000, TotalStock: 5, MaxGuests: 2},
	}, ds...)
	return &harness{Stack: st, svc: st.Service}
}

func day(d int) time.Time {
	return time.Date(2026, 12, d, 0, 0, 0, 0, time.UTC)
}

func stay(userID string, codes ...string) booking.CreateRequest {
	return booking.CreateRequest{
		StayRequest: booking.StayRequest{
			UserID:       userID,
			RoomTypeID:   "deluxe",
			CheckInDate:  day(10),
			CheckOutDate: day(12),
			Adults:       2,
			Rooms:        1,
			VoucherCodes: codes,
		},
		GuestName:  "Guest " + userID,
		GuestEmail: userID + "@example.com",
		Terms:      booking.PaymentTerms{Method: booking.MethodCash},
	}
}

func owner(id string) booking.Actor { return booking.Actor{UserID: id} }

var staff = booking.Actor{UserID: "staff-1", IsStaff: true}

func TestCreate_ThirdGuestFindsRoomTypeSoldOut(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	a, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	b, _, err := h.svc.Create(ctx, stay("u2"))
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), a.TotalAmount)
	assert.Equal(t, int64(1_000_000), b.TotalAmount)
	assert.Equal(t, booking.StatusPending, a.Status)
	assert.Equal(t, booking.PaymentPending, a.PaymentStatus)
	assert.Equal(t, time.Date(2026, 12, 10, 14, 0, 0, 0, time.UTC), a.CheckIn)
	assert.Equal(t, time.Date(2026, 12, 12, 12, 0, 0, 0, time.UTC), a.CheckOut)

	_, _, err = h.svc.Create(ctx, stay("u1"))
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	assert.Len(t, h.Inventory.Reservations(), 2)
	_, total, err := h.svc.List(ctx, booking.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCreate_ConcurrentCallersNeverOversell(t *testing.T) {
	const callers = 8
	h := newHarness(t, 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created, soldOut int
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := h.svc.Create(context.Background(), stay(fmt.Sprintf("user-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, inventory.ErrInsufficientStock):
				soldOut++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, callers-3, soldOut)
	assert.Len(t, h.Inventory.Reservations(), 3)
}

func TestCreate_RejectsBadRequests(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *booking.CreateRequest)
		want   error
	}{
		{"no adults", func(r *booking.CreateRequest) { r.Adults = 0 }, booking.ErrInvalidGuests},
		{"no rooms", func(r *booking.CreateRequest) { r.Rooms = 0 }, booking.ErrInvalidGuests},
		{"same day", func(r *booking.CreateRequest) { r.CheckOutDate = r.CheckInDate }, booking.ErrInvalidDates},
		{"reversed", func(r *booking.CreateRequest) { r.CheckOutDate = day(9) }, booking.ErrInvalidDates},
		{"past", func(r *booking.CreateRequest) {
			r.CheckInDate = start.AddDate(0, 0, -1)
			r.CheckOutDate = start.AddDate(0, 0, 1)
		}, booking.ErrCheckInPast},
		{"unknown room type", func(r *booking.CreateRequest) { r.RoomTypeID = "missing" }, booking.ErrRoomTypeNotFound},
		{"too many guests", func(r *booking.CreateRequest) { r.Adults = 3 }, booking.ErrTooManyGuests},
		{"bad payment method", func(r *booking.CreateRequest) { r.Terms.Method = "crypto" }, booking.ErrInvalidPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := stay("u1")
			tt.mutate(&req)
			_, _, err := h.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, h.Inventory.Reservations())
}

func TestCreate_CheckInTodayIsAllowed(t *testing.T) {
	h := newHarness(t, 1)

	req := stay("u1")
	req.CheckInDate = start
	req.CheckOutDate = start.AddDate(0, 0, 1)

	b, _, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), b.BaseAmount)
}

func save10() discount.Discount {
	return discount.Discount{
		ID: "v-save10", Code: "SAVE10", Name: "Save 10%", Kind: discount.KindVoucher, Type: discount.TypePercentage,
		Value: 10, StartsAt: start.Add(-time.Hour), EndsAt: start.AddDate(0, 1, 0), Stackable: true, IsActive: true,
	}
}

func TestCreate_FreezesVoucherAndRecordsUsage(t *testing.T) {
	h := newHarness(t, 2, save10())

	b, q, err := h.svc.Create(context.Background(), stay("u1", "save10", "NOPE"))
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), b.BaseAmount)
	assert.Equal(t, int64(100_000), b.VoucherDiscount)
	assert.Equal(t, int64(900_000), b.TotalAmount)
	require.Len(t, b.Vouchers, 1)
	assert.Equal(t, "SAVE10", b.Vouchers[0].Code)
	require.Len(t, q.Rejected, 1)
	assert.Equal(t, discount.ReasonUnknown, q.Rejected[0].Reason)

	usages := h.Discounts.Usages()
	require.Len(t, usages, 1)
	assert.Equal(t, b.ID, usages[0].BookingID)
}

func TestQuote_DoesNotReserve(t *testing.T) {
	h := newHarness(t, 1, save10())

	q, err := h.svc.Quote(context.Background(), stay("u1", "SAVE10").StayRequest)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Nights)
	assert.Equal(t, int64(900_000), q.Total)
	assert.Empty(t, h.Inventory.Reservations())
	assert.Empty(t, h.Discounts.Usages())
}

func TestCancel_UnpaidBookingReleasesRoomsAndVouchers(t *testing.T) {
	h := newHarness(t, 1, save10())
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1", "SAVE10"))
	require.NoError(t, err)

	_, err = h.svc.Cancel(ctx, b.ID, "plans changed", owner("u2"))
	assert.ErrorIs(t, err, booking.ErrPermissionDenied)

	canceled, err := h.svc.Cancel(ctx, b.ID, "plans changed", owner("u1"))
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCanceled, canceled.Status)
	assert.Equal(t, booking.PaymentPending, canceled.PaymentStatus)
	assert.Equal(t, "plans changed", canceled.CancelReason)
	assert.NotNil(t, canceled.CanceledAt)
	assert.Empty(t, h.Inventory.Reservations())
	assert.Empty(t, h.Discounts.Usages())

	_, err = h.svc.Cancel(ctx, b.ID, "again", owner("u1"))
	assert.ErrorIs(t, err, booking.ErrAlreadyCanceled)

	// The freed room can be booked again.
	_, _, err = h.svc.Create(ctx, stay("u2"))
	assert.NoError(t, err)
}

func TestCancel_PaidButUnconfirmedIsRefunded(t *testing.T) {
	h := newHarness(t, 1, save10())
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1", "SAVE10"))
	require.NoError(t, err)

	// Payment arrived but the booking was never confirmed.
	paid, err := h.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	paid.PaymentStatus = booking.PaymentPaid
	h.Bookings.Put(*paid)

	canceled, err := h.svc.Cancel(ctx, b.ID, "", staff)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentRefunded, canceled.PaymentStatus)
	assert.Empty(t, h.Inventory.Reservations())
	assert.Len(t, h.Discounts.Usages(), 1, "paid vouchers stay consumed")
}

func TestCancel_SettledBookingIsRejected(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)

	_, err = h.svc.Cancel(ctx, b.ID, "", owner("u1"))
	assert.ErrorIs(t, err, booking.ErrNotCancelable)
	assert.Len(t, h.Inventory.Reservations(), 1)
}

func TestConfirm_IsIdempotentAndCreditsPointsOnce(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)

	first, err := h.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, first.Status)
	assert.Equal(t, booking.PaymentPaid, first.PaymentStatus)
	require.NotNil(t, first.ConfirmedAt)

	second, err := h.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.ConfirmedAt, *second.ConfirmedAt)

	entries := h.Loyalty.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10_000), entries[0].Points)

	u, err := h.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), u.PointsBalance)

	assert.Eventually(t, func() bool {
		return len(h.Notifier.Sent()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{b.ID}, h.Notifier.Sent())
}

func TestConfirm_CanceledBooking(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, b.ID, "", owner("u1"))
	require.NoError(t, err)

	_, err = h.svc.Confirm(ctx, b.ID)
	assert.ErrorIs(t, err, booking.ErrCanceled)
	assert.Empty(t, h.Loyalty.Entries())
}

func TestConfirm_UnknownBooking(t *testing.T) {
	h := newHarness(t, 1)
	_, err := h.svc.Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestFailPayment(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)

	failed, err := h.svc.FailPayment(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCanceled, failed.Status)
	assert.Equal(t, booking.PaymentCanceled, failed.PaymentStatus)
	assert.Equal(t, booking.ReasonPaymentFailed, failed.CancelReason)
	assert.Empty(t, h.Inventory.Reservations())

	again, err := h.svc.FailPayment(ctx, b.ID, "declined")
	require.NoError(t, err)
	assert.Equal(t, booking.ReasonPaymentFailed, again.CancelReason)
}

func TestFailPayment_LeavesSettledBookingAlone(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)

	got, err := h.svc.FailPayment(ctx, b.ID, "late failure")
	require.NoError(t, err)
	assert.True(t, got.Settled())
	assert.Len(t, h.Inventory.Reservations(), 1)
}

func TestExpireUnpaid_OnlyAfterDeadline(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	deadline := start.Add(30 * time.Minute)
	req := stay("u1")
	req.Terms = booking.PaymentTerms{
		Method:            booking.MethodBankTransfer,
		TransferReference: "ABC123",
		TransferMemo:      "HOTEL ABC123",
		PaymentExpiresAt:  &deadline,
	}
	b, _, err := h.svc.Create(ctx, req)
	require.NoError(t, err)

	ids, err := h.svc.ListExpired(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	expired, err := h.svc.ExpireUnpaid(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, expired)

	h.Clock.Advance(31 * time.Minute)

	ids, err = h.svc.ListExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)

	expired, err = h.svc.ExpireUnpaid(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, expired)

	got, err := h.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCanceled, got.Status)
	assert.Equal(t, booking.PaymentPending, got.PaymentStatus)
	assert.Equal(t, booking.ReasonPaymentTimeout, got.CancelReason)
	assert.Empty(t, h.Inventory.Reservations())

	expired, err = h.svc.ExpireUnpaid(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestExpireUnpaid_IgnoresCashBookings(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	h.Clock.Advance(48 * time.Hour)

	expired, err := h.svc.ExpireUnpaid(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestChangeRoomType(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)

	_, err = h.svc.ChangeRoomType(ctx, b.ID, "seaview")
	assert.ErrorIs(t, err, booking.ErrHotelMismatch)

	_, err = h.svc.ChangeRoomType(ctx, b.ID, "missing")
	assert.ErrorIs(t, err, booking.ErrRoomTypeNotFound)

	moved, err := h.svc.ChangeRoomType(ctx, b.ID, "premier")
	require.NoError(t, err)
	assert.Equal(t, "premier", moved.RoomTypeID)
	assert.Equal(t, b.TotalAmount, moved.TotalAmount)

	res := h.Inventory.Reservations()
	require.Len(t, res, 1)
	assert.Equal(t, "premier", res[0].RoomTypeID)

	// Deluxe is free again while premier is now full.
	_, _, err = h.svc.Create(ctx, stay("u2"))
	assert.NoError(t, err)
	req := stay("u2")
	req.RoomTypeID = "premier"
	_, _, err = h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
}

func TestChangeRoomType_CanceledBooking(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, b.ID, "", owner("u1"))
	require.NoError(t, err)

	_, err = h.svc.ChangeRoomType(ctx, b.ID, "premier")
	assert.ErrorIs(t, err, booking.ErrNotModifiable)
}

func TestExtendStay_KeepsFrozenDiscounts(t *testing.T) {
	h := newHarness(t, 1, save10())
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1", "SAVE10"))
	require.NoError(t, err)

	_, err = h.svc.ExtendStay(ctx, b.ID, day(13), owner("u2"))
	assert.ErrorIs(t, err, booking.ErrPermissionDenied)

	_, err = h.svc.ExtendStay(ctx, b.ID, day(12), owner("u1"))
	assert.ErrorIs(t, err, booking.ErrCheckOutNotLater)

	extended, err := h.svc.ExtendStay(ctx, b.ID, day(13), owner("u1"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 13, 12, 0, 0, 0, time.UTC), extended.CheckOut)
	assert.Equal(t, int64(1_500_000), extended.BaseAmount)
	assert.Equal(t, int64(100_000), extended.VoucherDiscount)
	assert.Equal(t, int64(1_400_000), extended.TotalAmount)

	res := h.Inventory.Reservations()
	require.Len(t, res, 1)
	assert.Equal(t, day(13), res[0].CheckOut)
}

func TestExtendStay_RequiresFreeNights(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)

	next := stay("u2")
	next.CheckInDate, next.CheckOutDate = day(12), day(14)
	_, _, err = h.svc.Create(ctx, next)
	require.NoError(t, err)

	_, err = h.svc.ExtendStay(ctx, b.ID, day(13), staff)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	got, err := h.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), got.BaseAmount)
}

func TestExtendStay_PaidBookingIsFrozen(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	b, _, err := h.svc.Create(ctx, stay("u1"))
	require.NoError(t, err)
	_, err = h.svc.Confirm(ctx, b.ID)
	require.NoError(t, err)

	_, err = h.svc.ExtendStay(ctx, b.ID, day(13), owner("u1"))
	assert.ErrorIs(t, err, booking.ErrNotModifiable)
}
