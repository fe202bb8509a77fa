package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/craftid/internal/credential"
	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/services"
	"github.com/charlesng35/craftid/internal/store"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "staging", cfg.Server.Environment)
	require.False(t, cfg.Server.IsProduction())
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, 25, cfg.Database.MaxOpenConns)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])

	require.Equal(t, StoreBackendRedis, cfg.Store.BackendName())
	require.Equal(t, 2500*time.Millisecond, cfg.Store.Timeout)

	require.Equal(t, "redis.example.com:6380", cfg.Redis.Address)
	require.Equal(t, 3, cfg.Redis.DB)
	require.Equal(t, 20, cfg.Redis.PoolSize)
	require.True(t, cfg.Redis.TLS)
	require.Equal(t, 5*time.Second, cfg.Redis.DialTimeout)

	require.Equal(t, "file-signing-key", cfg.CraftID.SigningKey)
	require.Equal(t, "craftid-test", cfg.CraftID.Issuer)
	require.Equal(t, 720*time.Hour, cfg.CraftID.CredentialTTL)
	require.Equal(t, "https://craftid.example.com", cfg.CraftID.BaseURL)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.True(t, cfg.Monitoring.Health.Enabled)
	require.Equal(t, 3*time.Second, cfg.Monitoring.Health.Timeout)
	require.Equal(t, "@every 5m", cfg.Maintenance.StatsSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "development", cfg.Server.Environment)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/craftid.sqlite", cfg.Database.Path)
	require.Equal(t, StoreBackendDatabase, cfg.Store.BackendName())
	require.Equal(t, 4*time.Second, cfg.Store.Timeout)
	require.Equal(t, "craftid_seq", cfg.Store.Counter)
	require.Equal(t, "127.0.0.1:6379", cfg.Redis.Address)
	require.Equal(t, "craftid:", cfg.Redis.KeyPrefix)
	require.Empty(t, cfg.CraftID.SigningKey)
	require.Equal(t, "craftid", cfg.CraftID.Issuer)
	require.Equal(t, 365*24*time.Hour, cfg.CraftID.CredentialTTL)
	require.Equal(t, "http://localhost:8000", cfg.CraftID.BaseURL)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "@every 1m", cfg.Maintenance.StatsSchedule)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("CRAFTID_SERVER_PORT", "7000")
	t.Setenv("CRAFTID_STORE_TIMEOUT", "750ms")
	t.Setenv("CRAFTID_CRAFTID_SIGNING_KEY", "env-key")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7000, cfg.Server.Port)
	require.Equal(t, 750*time.Millisecond, cfg.Store.Timeout)
	require.Equal(t, "env-key", cfg.CraftID.SigningKey)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CRAFTID_STORE_BACKEND", "mongo")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "store.backend")
}

func TestDatabaseOptionsAdapter(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: " Postgres ",
		Postgres: DBAuthConfig{
			Host:     "db",
			Port:     5432,
			Database: "craftid",
			Username: "user",
			Password: "pass",
			Options:  map[string]string{"sslmode": "disable"},
		},
		MaxOpenConns: 5,
	}

	require.Equal(t, database.Config{
		Driver:       "postgres",
		Host:         "db",
		Port:         5432,
		Name:         "craftid",
		User:         "user",
		Password:     "pass",
		Options:      map[string]string{"sslmode": "disable"},
		MaxOpenConns: 5,
	}, cfg.DatabaseOptions())

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/test.sqlite"}.DatabaseOptions()
	require.Equal(t, "./data/test.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}

func TestComponentAdapters(t *testing.T) {
	redisCfg := RedisConfig{Address: " cache:6379 ", DB: 2, PoolSize: 4, DialTimeout: time.Second, TLS: true}
	require.Equal(t, store.RedisConfig{
		Address:     "cache:6379",
		DB:          2,
		PoolSize:    4,
		DialTimeout: time.Second,
		TLS:         true,
	}, redisCfg.ClientConfig())

	craft := CraftIDConfig{SigningKey: "k", Issuer: " craftid ", CredentialTTL: time.Hour}
	require.Equal(t, credential.Config{Secret: "k", Issuer: "craftid", TTL: time.Hour}, craft.SignerConfig())

	storeCfg := StoreConfig{Timeout: time.Second, Counter: " craftid_seq "}
	require.Equal(t, services.CraftIDConfig{Timeout: time.Second, Counter: "craftid_seq"}, storeCfg.ServiceConfig())
}
