package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "licencias-api", cfg.App.Name)
	assert.Equal(t, StoragePostgres, cfg.DB.Storage)
	assert.Equal(t, 5000, cfg.DB.StatementTimeoutMs)
	assert.Equal(t, 30, cfg.License.ExpiringHorizonDays)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.License.SigningEnabled())
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, time.Hour, cfg.License.SweepInterval)
	assert.Equal(t, "es-CO", cfg.License.DocumentLang)
	assert.Empty(t, cfg.License.SweepMetricsAddr)
	assert.Equal(t, "postgres://postgres:@localhost:5432/licencias?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("APP_STORAGE", "MEMORY")
	v.Set("HTTP_PORT", "9090")
	v.Set("LICENSE_EXPIRING_HORIZON_DAYS", "7")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")
	v.Set("DB_PASSWORD", "p@ss/word")
	v.Set("DB_AUTO_MIGRATE", "true")
	v.Set("LICENSE_SWEEP_INTERVAL_MINUTES", "15")
	v.Set("LICENSE_SWEEP_METRICS_ADDR", ":9102")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.DB.Storage)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 7, cfg.License.ExpiringHorizonDays)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
	assert.Contains(t, cfg.DB.DSN(), "p%40ss%2Fword")
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 15*time.Minute, cfg.License.SweepInterval)
	assert.Equal(t, ":9102", cfg.License.SweepMetricsAddr)
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("APP_STORAGE", "sqlite")
	_, err := fromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("APP_ENV", "production")
	_, err = fromViper(v)
	assert.Error(t, err, "producción sin JWT_SECRET")
}
