package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charlesng35/craftid/internal/models"
)

const (
	defaultRedisPrefix      = "craftid:"
	defaultRedisDialTimeout = 5 * time.Second
)

// RedisConfig captures the connection parameters for the Redis backend.
type RedisConfig struct {
	Address     string
	Username    string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	TLS         bool
}

// NewRedisClient creates a go-redis client and verifies the connection so that
// misconfiguration is surfaced during application startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultRedisDialTimeout
	}

	opts := &redis.Options{
		Addr:        cfg.Address,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// insertScript writes a record only when neither its name key nor its public id
// key exists. Record, public id index and timeline entry land atomically.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[2])
return 1
`)

// RedisStore implements Store as JSON documents in Redis.
//
// Layout, relative to the key prefix:
//
//	record:<art_name_norm>  JSON encoded CraftID
//	public:<public_id>      art_name_norm of the owning record
//	timeline                sorted set of art_name_norm scored by creation time
//	counter:<name>          INCR counter
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key the store touches.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return
		}
		if !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		s.prefix = prefix
	}
}

// NewRedisStore constructs a Redis backed Store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	if client == nil {
		return nil
	}
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) recordKey(norm string) string {
	return s.prefix + "record:" + norm
}

func (s *RedisStore) publicKey(id string) string {
	return s.prefix + "public:" + id
}

func (s *RedisStore) timelineKey() string {
	return s.prefix + "timeline"
}

func (s *RedisStore) counterKey(name string) string {
	return s.prefix + "counter:" + name
}

func (s *RedisStore) FindByNormalizedName(ctx context.Context, name string) (*models.CraftID, bool, error) {
	return s.findByNorm(ctx, "find_by_name", models.NormalizeArtName(name))
}

func (s *RedisStore) FindByPublicID(ctx context.Context, publicID string) (*models.CraftID, bool, error) {
	norm, err := s.client.Get(ctx, s.publicKey(publicID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("find_by_public_id", err)
	}
	return s.findByNorm(ctx, "find_by_public_id", norm)
}

func (s *RedisStore) findByNorm(ctx context.Context, op, norm string) (*models.CraftID, bool, error) {
	raw, err := s.client.Get(ctx, s.recordKey(norm)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(op, err)
	}

	var record models.CraftID
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, fmt.Errorf("store: %s: decode record: %w", op, err)
	}
	return &record, true, nil
}

func (s *RedisStore) AllocateNextSequence(ctx context.Context, counter string) (int64, error) {
	counter = strings.TrimSpace(counter)
	if counter == "" {
		return 0, errors.New("store: counter name is required")
	}
	value, err := s.client.Incr(ctx, s.counterKey(counter)).Result()
	if err != nil {
		return 0, wrap("allocate", err)
	}
	return value, nil
}

func (s *RedisStore) Insert(ctx context.Context, record *models.CraftID) error {
	if record == nil {
		return errors.New("store: nil record")
	}
	if record.ArtNameNorm == "" {
		record.ArtNameNorm = models.NormalizeArtName(record.ArtName)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: insert: encode record: %w", err)
	}

	written, err := insertScript.Run(ctx, s.client,
		[]string{s.recordKey(record.ArtNameNorm), s.publicKey(record.PublicID), s.timelineKey()},
		payload, record.ArtNameNorm, record.CreatedAt.UnixMicro(),
	).Int()
	if err != nil {
		return wrap("insert", err)
	}
	if written == 0 {
		return fmt.Errorf("store: insert %s: %w", record.PublicID, ErrDuplicateKey)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]models.CraftID, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	names, err := s.client.ZRevRange(ctx, s.timelineKey(), 0, stop).Result()
	if err != nil {
		return nil, wrap("list", err)
	}
	if len(names) == 0 {
		return []models.CraftID{}, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.recordKey(name)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrap("list", err)
	}

	records := make([]models.CraftID, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var record models.CraftID
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("store: list: decode record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	count, err := s.client.ZCard(ctx, s.timelineKey()).Result()
	if err != nil {
		return 0, wrap("count", err)
	}
	return count, nil
}

// EnsureSchema has nothing to create; it verifies the server is reachable.
func (s *RedisStore) EnsureSchema(ctx context.Context) error {
	return s.Ping(ctx)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return wrap("ping", s.client.Ping(ctx).Err())
}

// Reset is a no-op; go-redis redials broken pool connections on demand.
func (s *RedisStore) Reset(context.Context) error {
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
