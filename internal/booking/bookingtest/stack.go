package bookingtest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog/catalogtest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db/dbtest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount/discounttest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory/inventorytest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty/loyaltytest"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user/usertest"
)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RecordingNotifier remembers every confirmation it was asked to send.
type RecordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *RecordingNotifier) SendBookingConfirmation(_ context.Context, bookingID string) error {
	n.mu.Lock()
	n.ids = append(n.ids, bookingID)
	n.mu.Unlock()
	return nil
}

func (n *RecordingNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ids...)
}

// Stack is a booking service wired to in-memory stores, with check-in at
// 14:00 and check-out at 12:00 UTC.
type Stack struct {
	Service   booking.Service
	Clock     *Clock
	Tx        *dbtest.Serial
	Bookings  *MemoryRepository
	Rooms     *catalogtest.MemoryRepository
	Inventory *inventorytest.MemoryRepository
	Discounts *discounttest.MemoryRepository
	Loyalty   *loyaltytest.MemoryRepository
	Users     *usertest.MemoryRepository
	Notifier  *RecordingNotifier
}

// NewStack seeds stock from roomTypes and creates users u1 and u2.
func NewStack(now time.Time, roomTypes []catalog.RoomType, discounts ...discount.Discount) *Stack {
	stocks := make([]inventory.Stock, 0, len(roomTypes))
	for _, rt := range roomTypes {
		stocks = append(stocks, inventory.Stock{RoomTypeID: rt.ID, Category: rt.Category, TotalStock: rt.TotalStock})
	}

	st := &Stack{
		Clock:     NewClock(now),
		Bookings:  NewMemoryRepository(),
		Rooms:     catalogtest.NewMemoryRepository(roomTypes...),
		Inventory: inventorytest.NewMemoryRepository(stocks...),
		Discounts: discounttest.NewMemoryRepository(discounts...),
		Loyalty:   loyaltytest.NewMemoryRepository(),
		Users: usertest.NewMemoryRepository(
			user.User{ID: "u1", Email: "u1@example.com", Role: "guest"},
			user.User{ID: "u2", Email: "u2@example.com", Role: "guest"},
		),
		Notifier: &RecordingNotifier{},
	}
	st.Tx = dbtest.NewSerial(st.Inventory, st.Discounts, st.Bookings, st.Loyalty, st.Users)

	logger := zap.NewNop()
	st.Service = booking.NewService(booking.Dependencies{
		Repo:         st.Bookings,
		Tx:           st.Tx,
		Catalog:      catalog.NewService(st.Rooms),
		Inventory:    inventory.NewService(st.Inventory, st.Tx, logger),
		Pricer:       discount.NewService(st.Discounts, st.Tx, st.Clock.Now, logger),
		Loyalty:      loyalty.NewService(st.Loyalty, st.Users, st.Tx, logger),
		Notifier:     st.Notifier,
		Logger:       logger,
		Location:     time.UTC,
		CheckInHour:  14,
		CheckOutHour: 12,
		Now:          st.Clock.Now,
	})
	return st
}
