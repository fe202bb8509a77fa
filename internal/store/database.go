package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/models"
)

// DatabaseStore implements Store on top of the relational database.
type DatabaseStore struct {
	db       *gorm.DB
	counters []string
	maxIdle  int
}

// defaultMaxIdleConns mirrors database/sql's own default.
const defaultMaxIdleConns = 2

// NewDatabaseStore constructs a database backed Store. The counters are the
// sequences EnsureSchema creates; DefaultCounter is used when none are given.
func NewDatabaseStore(db *gorm.DB, counters ...string) *DatabaseStore {
	if db == nil {
		return nil
	}
	if len(counters) == 0 {
		counters = []string{database.DefaultCounter}
	}
	return &DatabaseStore{db: db, counters: counters, maxIdle: defaultMaxIdleConns}
}

// WithMaxIdleConns sets the idle pool size restored after Reset.
func (s *DatabaseStore) WithMaxIdleConns(n int) *DatabaseStore {
	if n > 0 {
		s.maxIdle = n
	}
	return s
}

func (s *DatabaseStore) FindByNormalizedName(ctx context.Context, name string) (*models.CraftID, bool, error) {
	return s.findOne(ctx, "find_by_name", "art_name_norm = ?", models.NormalizeArtName(name))
}

func (s *DatabaseStore) FindByPublicID(ctx context.Context, publicID string) (*models.CraftID, bool, error) {
	return s.findOne(ctx, "find_by_public_id", "public_id = ?", publicID)
}

func (s *DatabaseStore) findOne(ctx context.Context, op, query string, arg any) (*models.CraftID, bool, error) {
	var record models.CraftID
	err := s.db.WithContext(ctx).Take(&record, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap(op, err)
	}
	return &record, true, nil
}

// AllocateNextSequence draws from a native sequence on PostgreSQL. Other
// dialects increment a counter row under a row lock inside one transaction.
func (s *DatabaseStore) AllocateNextSequence(ctx context.Context, counter string) (int64, error) {
	if err := database.ValidateCounterName(counter); err != nil {
		return 0, err
	}

	if database.IsPostgres(s.db) {
		var value int64
		// counter is validated as a plain identifier above.
		err := s.db.WithContext(ctx).
			Raw(fmt.Sprintf("SELECT nextval('%s')", counter)).
			Scan(&value).Error
		if err != nil {
			return 0, wrap("allocate", err)
		}
		return value, nil
	}

	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Counter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&entry, "name = ?", counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			value = 1
			return tx.Create(&models.Counter{Name: counter, Value: value}).Error
		}
		if err != nil {
			return err
		}

		value = entry.Value + 1
		return tx.Model(&models.Counter{}).
			Where("name = ?", counter).
			Update("value", value).Error
	})
	if err != nil {
		return 0, wrap("allocate", err)
	}
	return value, nil
}

func (s *DatabaseStore) Insert(ctx context.Context, record *models.CraftID) error {
	if record == nil {
		return errors.New("store: nil record")
	}
	err := s.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		return fmt.Errorf("store: insert %s: %w", record.PublicID, ErrDuplicateKey)
	}
	return wrap("insert", err)
}

func (s *DatabaseStore) List(ctx context.Context, limit int) ([]models.CraftID, error) {
	var records []models.CraftID
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, wrap("list", err)
	}
	return records, nil
}

func (s *DatabaseStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CraftID{}).Count(&count).Error; err != nil {
		return 0, wrap("count", err)
	}
	return count, nil
}

func (s *DatabaseStore) EnsureSchema(ctx context.Context) error {
	return wrap("ensure_schema", database.Migrate(ctx, s.db, s.counters...))
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

// Reset closes idle pooled connections. SQLite keeps its single connection
// because an in-memory database lives only as long as it does.
func (s *DatabaseStore) Reset(ctx context.Context) error {
	if s.db.Dialector.Name() == "sqlite" {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("reset", err)
	}
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetMaxIdleConns(s.maxIdle)
	return nil
}

func (s *DatabaseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
