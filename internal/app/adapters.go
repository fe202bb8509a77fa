package app

import (
	"strings"

	"github.com/charlesng35/craftid/internal/credential"
	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/services"
	"github.com/charlesng35/craftid/internal/store"
)

// Supported store backends.
const (
	StoreBackendDatabase = "database"
	StoreBackendRedis    = "redis"
)

// DatabaseOptions converts the database configuration into the database package representation.
func (c DatabaseConfig) DatabaseOptions() database.Config {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	cfg := database.Config{
		Driver:          driver,
		Path:            strings.TrimSpace(c.Path),
		DSN:             strings.TrimSpace(c.DSN),
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}

	var auth DBAuthConfig
	switch driver {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(auth.Host)
	cfg.Port = auth.Port
	cfg.Name = strings.TrimSpace(auth.Database)
	cfg.User = strings.TrimSpace(auth.Username)
	cfg.Password = auth.Password
	if len(auth.Options) > 0 {
		cfg.Options = make(map[string]string, len(auth.Options))
		for key, value := range auth.Options {
			cfg.Options[key] = value
		}
	}
	return cfg
}

// ClientConfig converts the Redis configuration into the store package representation.
func (c RedisConfig) ClientConfig() store.RedisConfig {
	return store.RedisConfig{
		Address:     strings.TrimSpace(c.Address),
		Username:    strings.TrimSpace(c.Username),
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: c.DialTimeout,
		TLS:         c.TLS,
	}
}

// SignerConfig converts the CraftID configuration into the credential package representation.
func (c CraftIDConfig) SignerConfig() credential.Config {
	return credential.Config{
		Secret: c.SigningKey,
		Issuer: strings.TrimSpace(c.Issuer),
		TTL:    c.CredentialTTL,
	}
}

// ServiceConfig converts the store configuration into the issuance service representation.
func (c StoreConfig) ServiceConfig() services.CraftIDConfig {
	return services.CraftIDConfig{
		Timeout: c.Timeout,
		Counter: strings.TrimSpace(c.Counter),
	}
}

// BackendName returns the normalised store backend.
func (c StoreConfig) BackendName() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}
