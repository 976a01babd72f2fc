package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/hotel")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.HotelLocation.String())
	assert.Equal(t, 14, cfg.CheckInHour)
	assert.Equal(t, 12, cfg.CheckOutHour)
	assert.Equal(t, 30*time.Minute, cfg.BankTransferTTL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "momo", cfg.Gateway.Kind)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/hotel")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BANK_TRANSFER_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "BANK_TRANSFER_TTL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/hotel")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", PROD_STRING)
	t.Setenv("HOTEL_TIMEZONE", "UTC")
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "15s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, time.UTC, cfg.HotelLocation)
	assert.Equal(t, 15*time.Second, cfg.ExpirySweepInterval)
}
