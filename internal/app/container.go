package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/hotel-booking-backend/internal/api"
	"github.com/nekogravitycat/hotel-booking-backend/internal/auth"
	"github.com/nekogravitycat/hotel-booking-backend/internal/booking"
	"github.com/nekogravitycat/hotel-booking-backend/internal/catalog"
	"github.com/nekogravitycat/hotel-booking-backend/internal/config"
	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
	"github.com/nekogravitycat/hotel-booking-backend/internal/discount"
	"github.com/nekogravitycat/hotel-booking-backend/internal/expiry"
	"github.com/nekogravitycat/hotel-booking-backend/internal/inventory"
	"github.com/nekogravitycat/hotel-booking-backend/internal/loyalty"
	"github.com/nekogravitycat/hotel-booking-backend/internal/notification"
	"github.com/nekogravitycat/hotel-booking-backend/internal/payment"
	"github.com/nekogravitycat/hotel-booking-backend/internal/user"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Bookings   booking.Service
	Sweeper    *expiry.Sweeper

	logger    *zap.Logger
	publisher *notification.Publisher
	redis     *redis.Client
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) *Container {
	c := &Container{logger: logger}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	tx := db.NewTransactor(pool, logger)

	// User Module
	userService := user.NewService(user.NewPgxRepository(pool))

	// Catalog and Inventory Modules
	catalogService := catalog.NewService(catalog.NewPgxRepository(pool))
	inventoryService := inventory.NewService(inventory.NewPgxRepository(pool), tx, logger)

	// Discount Module
	discountService := discount.NewService(discount.NewPgxRepository(pool), tx, time.Now, logger)

	// Loyalty Module
	loyaltyService := loyalty.NewService(loyalty.NewPgxRepository(pool), userService, tx, logger)

	// Notifications go to RabbitMQ when configured, otherwise to the log.
	var notifier booking.Notifier = notification.NewLogNotifier(logger)
	if cfg.RabbitMQURL != "" {
		publisher, err := notification.NewPublisher(cfg.RabbitMQURL, cfg.NotifyExchange, logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, logging confirmations instead", zap.Error(err))
		} else {
			c.publisher = publisher
			notifier = publisher
		}
	}

	// Booking Module
	bookingService := booking.NewService(booking.Dependencies{
		Repo:         booking.NewPgxRepository(pool),
		Tx:           tx,
		Catalog:      catalogService,
		Inventory:    inventoryService,
		Pricer:       discountService,
		Loyalty:      loyaltyService,
		Notifier:     notifier,
		Logger:       logger,
		Location:     cfg.HotelLocation,
		CheckInHour:  cfg.CheckInHour,
		CheckOutHour: cfg.CheckOutHour,
	})

	// Payment Module
	strategies := []payment.Strategy{
		payment.NewCash(),
		payment.NewBankTransfer(cfg.Bank, cfg.BankTransferTTL),
	}
	if cfg.Gateway.Endpoint != "" {
		strategies = append(strategies, payment.NewGateway(payment.NewHMACGateway(cfg.Gateway)))
	} else {
		logger.Info("payment gateway not configured, gateway bookings are disabled")
	}
	paymentService := payment.NewService(payment.Dependencies{
		Bookings:         bookingService,
		Strategies:       strategies,
		Events:           payment.NewPgxEventRepository(pool),
		GatewayKind:      cfg.Gateway.Kind,
		GatewaySecret:    cfg.Gateway.SecretKey,
		GatewayAccessKey: cfg.Gateway.AccessKey,
		Logger:           logger,
	})

	// Expiry sweep; Redis makes the lock shared between instances.
	var locker expiry.Locker = expiry.NewLocalLocker()
	if c.redis = config.NewRedisClient(cfg); c.redis != nil {
		locker = expiry.NewRedisLocker(c.redis)
	} else if cfg.RedisAddr != "" {
		logger.Warn("redis unavailable, expiry lock is local to this instance", zap.String("addr", cfg.RedisAddr))
	}
	c.Sweeper = expiry.NewSweeper(bookingService, locker, cfg.ExpirySweepInterval, cfg.ExpiryBatchSize, logger)

	c.Router = api.NewRouter(api.Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		Logger:           logger,
		UserService:      userService,
		CatalogService:   catalogService,
		InventoryService: inventoryService,
		BookingService:   bookingService,
		PaymentService:   paymentService,
		LoyaltyService:   loyaltyService,
		JWTManager:       jwtManager,
	})
	c.JWTManager = jwtManager
	c.Bookings = bookingService

	return c
}

// Close releases the broker and cache connections.
func (c *Container) Close() {
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.logger.Warn("close rabbitmq publisher", zap.Error(err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("close redis client", zap.Error(err))
		}
	}
}
