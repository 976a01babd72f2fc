package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/hotel-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	catalogHttp "github.com/nekogravitycat/hotel-booking-backend/internal/catalog/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
	inventoryHttp "github.com/nekogravitycat/hotel-booking-backend/internal/inventory/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	loyaltyHttp "github.com/nekogravitycat/hotel-booking-backend/internal/loyalty/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
	paymentHttp "github.com/nekogravitycat/hotel-booking-backend/internal/payment/http"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/hotel-booking-backend/internal/user/http"
)

// Config carries the services the HTTP layer exposes.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger

	UserService      user.Service
	CatalogService   catalog.Service
	InventoryService inventory.Service
	BookingService   booking.Service
	PaymentService   payment.Service
	LoyaltyService   loyalty.Service
	JWTManager       *auth.JWTManager
}

// NewRouter assembles middleware (CORS, logging, auth) and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHttp.NewUserHandler(cfg.UserService), authMiddleware)
		catalogHttp.RegisterRoutes(v1, catalogHttp.NewHandler(cfg.CatalogService))
		inventoryHttp.RegisterRoutes(v1, inventoryHttp.NewHandler(cfg.InventoryService))
		bookingHttp.RegisterRoutes(v1, bookingHttp.NewHandler(cfg.BookingService, cfg.PaymentService), authMiddleware)
		paymentHttp.RegisterRoutes(v1, paymentHttp.NewHandler(cfg.PaymentService))
		loyaltyHttp.RegisterRoutes(v1, loyaltyHttp.NewHandler(cfg.LoyaltyService, cfg.UserService), authMiddleware)
	}

	return r
}
