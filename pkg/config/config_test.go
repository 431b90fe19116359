package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANALYTICS_REFERENCE_DATE", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "city_metrics", cfg.Database.DBName)
	assert.Equal(t, 5000, cfg.HTTP.Port)
	assert.Equal(t, ":5000", cfg.HTTP.Addr())
	assert.Equal(t, "city.analytics.alerts", cfg.Kafka.TopicAlerts)
	assert.Equal(t, 10*time.Second, cfg.Analytics.QueryTimeout)
	assert.False(t, cfg.Analytics.ReferenceFromClock)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), cfg.Analytics.Reference)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/metrics.db")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ANALYTICS_REFERENCE_DATE", "2025-08-15T06:30:00+02:00")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/metrics.db?_busy_timeout=5000&_foreign_keys=ON", cfg.Database.DSN())
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Date(2025, 8, 15, 4, 30, 0, 0, time.UTC), cfg.Analytics.Reference)
}

func TestLoad_ReferenceNow(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ANALYTICS_REFERENCE_DATE", "NOW")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Analytics.ReferenceFromClock)
	assert.True(t, cfg.Analytics.Reference.IsZero())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ANALYTICS_REFERENCE_DATE", "yesterday")
	_, err := Load()
	assert.ErrorContains(t, err, "ANALYTICS_REFERENCE_DATE")

	t.Setenv("ANALYTICS_REFERENCE_DATE", "")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "city_metrics", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=city_metrics sslmode=disable", d.DSN())
}
