package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/app"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

var (
	testRouter *gin.Engine
	testPool   *pgxpool.Pool
	jwtManager *auth.JWTManager
)

func TestMain(m *testing.M) {
	// Attempt to load .env from the repository root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		// Only the Postgres-backed tests need the pool; they skip on their own.
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	migrator, err := db.NewMigrator(testPool, zap.NewNop())
	if err != nil {
		log.Fatalf("Unable to prepare migrations: %v\n", err)
	}
	if err := migrator.Up(ctx); err != nil {
		log.Fatalf("Unable to migrate: %v\n", err)
	}

	container := app.NewContainer(&config.Config{
		HTTPAddr:        ":0",
		JWTSecret:       "integration-secret",
		JWTTTL:          30 * time.Minute,
		HotelLocation:   time.UTC,
		CheckInHour:     14,
		CheckOutHour:    12,
		BankTransferTTL: 30 * time.Minute,
		Bank: config.BankConfig{
			BankName:      "Test Bank",
			AccountName:   "HOTEL",
			AccountNumber: "0001",
			MemoPrefix:    "HOTEL",
		},
		Gateway: config.GatewayConfig{Kind: "momo"},
	}, testPool, zap.NewNop())
	defer container.Close()

	testRouter = container.Router
	jwtManager = container.JWTManager

	exitCode := m.Run()

	testPool.Close()
	os.Exit(exitCode)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DB_DSN not set")
	}
}

func clearTables(t *testing.T) {
	queries := []string{
		"TRUNCATE TABLE public.payment_events CASCADE",
		"TRUNCATE TABLE public.loyalty_transactions CASCADE",
		"TRUNCATE TABLE public.discount_usages CASCADE",
		"TRUNCATE TABLE public.discounts CASCADE",
		"TRUNCATE TABLE public.room_reservations CASCADE",
		"TRUNCATE TABLE public.bookings CASCADE",
		"TRUNCATE TABLE public.room_types CASCADE",
		"TRUNCATE TABLE public.hotels CASCADE",
		"TRUNCATE TABLE public.users CASCADE",
	}
	for _, q := range queries {
		_, err := testPool.Exec(context.Background(), q)
		require.NoError(t, err, "Failed to clean table")
	}
}

type seed struct {
	guestID    string
	staffID    string
	roomTypeID string
}

func seedHotel(t *testing.T, stock int) seed {
	ctx := context.Background()
	var s seed
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO public.users (email, full_name, role) VALUES ('guest@example.com', 'Guest', 'guest') RETURNING id`,
	).Scan(&s.guestID))
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO public.users (email, full_name, role) VALUES ('staff@example.com', 'Staff', 'staff') RETURNING id`,
	).Scan(&s.staffID))

	var hotelID string
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO public.hotels (name) VALUES ('Riverside') RETURNING id`,
	).Scan(&hotelID))
	require.NoError(t, testPool.QueryRow(ctx,
		`INSERT INTO public.room_types (hotel_id, name, category, rate, total_stock, max_guests)
		 VALUES ($1, 'Deluxe', 'deluxe', 500000, $2, 2) RETURNING id`,
		hotelID, stock,
	).Scan(&s.roomTypeID))
	return s
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func generateToken(t *testing.T, userID, role string) string {
	token, err := jwtManager.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func stayBody(roomTypeID string, method string) map[string]any {
	checkIn := time.Now().UTC().AddDate(0, 0, 7)
	return map[string]any{
		"room_type_id":   roomTypeID,
		"check_in":       checkIn.Format("2006-01-02"),
		"check_out":      checkIn.AddDate(0, 0, 2).Format("2006-01-02"),
		"adults":         2,
		"rooms":          1,
		"guest_name":     "Guest",
		"guest_email":    "guest@example.com",
		"payment_method": method,
	}
}

func TestBookingLifecycle(t *testing.T) {
	requireDB(t)
	clearTables(t)
	s := seedHotel(t, 1)

	guestToken := generateToken(t, s.guestID, auth.RoleGuest)
	staffToken := generateToken(t, s.staffID, auth.RoleStaff)

	w := executeRequest(http.MethodPost, "/v1/bookings", stayBody(s.roomTypeID, "bank_transfer"), guestToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Booking struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			TotalAmount int64  `json:"total_amount"`
		} `json:"booking"`
		PaymentInstructions struct {
			TransferMemo string `json:"transfer_memo"`
		} `json:"payment_instructions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Booking.Status)
	assert.Equal(t, int64(1_000_000), created.Booking.TotalAmount)
	assert.Regexp(t, `^HOTEL [0-9A-F]{10}$`, created.PaymentInstructions.TransferMemo)

	// The only room is held, so a second booking for the same nights fails.
	w = executeRequest(http.MethodPost, "/v1/bookings", stayBody(s.roomTypeID, "cash"), guestToken)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Guests cannot confirm their own payment.
	w = executeRequest(http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/confirm", nil, guestToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = executeRequest(http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/confirm", nil, staffToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = executeRequest(http.MethodGet, "/v1/me/loyalty", nil, guestToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loyalty struct {
		PointsBalance int64 `json:"points_balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loyalty))
	assert.Equal(t, int64(10_000), loyalty.PointsBalance)

	// Settled bookings stay put.
	w = executeRequest(http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/cancel", nil, guestToken)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingCancelReleasesRooms(t *testing.T) {
	requireDB(t)
	clearTables(t)
	s := seedHotel(t, 1)
	guestToken := generateToken(t, s.guestID, auth.RoleGuest)

	w := executeRequest(http.MethodPost, "/v1/bookings", stayBody(s.roomTypeID, "cash"), guestToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Booking struct {
			ID string `json:"id"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = executeRequest(http.MethodPost, "/v1/bookings/"+created.Booking.ID+"/cancel", map[string]string{"reason": "change of plans"}, guestToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = executeRequest(http.MethodPost, "/v1/bookings", stayBody(s.roomTypeID, "cash"), guestToken)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGatewayDisabledWithoutEndpoint(t *testing.T) {
	requireDB(t)
	clearTables(t)
	s := seedHotel(t, 1)

	w := executeRequest(http.MethodPost, "/v1/bookings", stayBody(s.roomTypeID, "gateway"), generateToken(t, s.guestID, auth.RoleGuest))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}
