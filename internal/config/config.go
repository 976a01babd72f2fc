package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv       string
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string
	JWTSecret    string
	JWTTTL       time.Duration

	HotelLocation *time.Location
	CheckInHour   int
	CheckOutHour  int

	BankTransferTTL     time.Duration
	ExpirySweepInterval time.Duration
	ExpiryBatchSize     int
	Bank                BankConfig

	Gateway GatewayConfig

	RabbitMQURL    string
	NotifyExchange string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BankConfig describes the account guests transfer money to.
type BankConfig struct {
	BankName      string
	AccountName   string
	AccountNumber string
	MemoPrefix    string
}

// GatewayConfig holds the redirect payment gateway credentials.
type GatewayConfig struct {
	Kind        string
	Endpoint    string
	PartnerCode string
	AccessKey   string
	SecretKey   string
	RedirectURL string
	IPNURL      string
	Timeout     time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.IsProduction = cfg.AppEnv == PROD_STRING

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// Tokens are issued by the auth service; we only verify them.
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	tz := getEnv("HOTEL_TIMEZONE", "Asia/Ho_Chi_Minh")
	cfg.HotelLocation, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid HOTEL_TIMEZONE %q: %w", tz, err)
	}
	if cfg.CheckInHour, err = getEnvAsInt("CHECK_IN_HOUR", 14); err != nil {
		return nil, err
	}
	if cfg.CheckOutHour, err = getEnvAsInt("CHECK_OUT_HOUR", 12); err != nil {
		return nil, err
	}

	if cfg.BankTransferTTL, err = getEnvAsDuration("BANK_TRANSFER_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExpirySweepInterval, err = getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExpiryBatchSize, err = getEnvAsInt("EXPIRY_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	cfg.Bank = BankConfig{
		BankName:      getEnv("BANK_NAME", ""),
		AccountName:   getEnv("BANK_ACCOUNT_NAME", ""),
		AccountNumber: getEnv("BANK_ACCOUNT_NUMBER", ""),
		MemoPrefix:    getEnv("TRANSFER_MEMO_PREFIX", "HOTEL"),
	}

	cfg.Gateway = GatewayConfig{
		Kind:        getEnv("GATEWAY_KIND", "momo"),
		Endpoint:    getEnv("GATEWAY_ENDPOINT", ""),
		PartnerCode: getEnv("GATEWAY_PARTNER_CODE", ""),
		AccessKey:   getEnv("GATEWAY_ACCESS_KEY", ""),
		SecretKey:   getEnv("GATEWAY_SECRET_KEY", ""),
		RedirectURL: getEnv("GATEWAY_REDIRECT_URL", ""),
		IPNURL:      getEnv("GATEWAY_IPN_URL", ""),
	}
	if cfg.Gateway.Timeout, err = getEnvAsDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Empty values disable the publisher and the distributed sweep lock.
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", "")
	cfg.NotifyExchange = getEnv("NOTIFY_EXCHANGE", "hotel.events")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values such as "30m" or "10s".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive", key)
	}

	return val, nil
}
