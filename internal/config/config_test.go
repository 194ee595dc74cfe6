package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
server:
  port: 8080
database:
  host: db
  user: rental
  database: equipment_rental
jwt:
  secret: "0123456789abcdef0123456789abcdef"
plans:
  free:
    max_bookings_per_month: 20
    upgrade_url: "https://example.com/upgrade"
  enterprise:
    max_bookings_per_month: 0
`

func TestParse(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(baseYAML))
		require.NoError(t, err)

		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, 2, cfg.Activity.Workers)
		assert.Equal(t, 1000, cfg.Activity.QueueSize)
		assert.Equal(t, 20, cfg.Stock.RecentMovementsLimit)
		assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL())
		assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
		assert.Equal(t, "0 0 * * * *", cfg.Scheduler.StockInvariantCheck)
		assert.Equal(t, 20, cfg.Plans["free"].MaxBookingsPerMonth)
		assert.Equal(t, "postgres://rental:@db:5432/equipment_rental?sslmode=disable", cfg.GetDatabaseConnectionString())
	})

	t.Run("Env Overrides", func(t *testing.T) {
		t.Setenv("DB_HOST", "pg.internal")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("LOG_FORMAT", "json")

		cfg, err := Parse([]byte(baseYAML))
		require.NoError(t, err)
		assert.Equal(t, "pg.internal", cfg.Database.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, ":9090", cfg.GetServerAddress())
	})

	t.Run("Short Secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "too-short")
		_, err := Parse([]byte(baseYAML))
		assert.ErrorContains(t, err, "at least 32 characters")
	})

	t.Run("Invalid Port", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  port: 0\n"))
		assert.ErrorContains(t, err, "invalid server port")
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := Parse([]byte("server: ["))
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("/healthz"))
	assert.Equal(t, SecurityTenant, GetSecurityLevel("/bookings/{id}/return"))
	assert.Equal(t, SecurityTenant, GetSecurityLevel("/unknown"))
}
