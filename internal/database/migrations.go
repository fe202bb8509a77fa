package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/craftid/internal/models"
)

// DefaultCounter names the sequence that numbers public CraftIDs.
const DefaultCounter = "craftid_seq"

var counterNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidateCounterName guards counter names that end up as SQL identifiers.
func ValidateCounterName(name string) error {
	if !counterNamePattern.MatchString(name) {
		return fmt.Errorf("invalid counter name %q", name)
	}
	return nil
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CraftID{},
		&models.Counter{},
	)
}

// Migrate runs the idempotent schema bootstrap: tables and indexes, then the
// sequence objects for each counter. It is safe to run on every cold start.
func Migrate(ctx context.Context, db *gorm.DB, counters ...string) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(counters) == 0 {
		counters = []string{DefaultCounter}
	}

	tx := db.WithContext(ctx)
	if err := AutoMigrate(tx); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, name := range counters {
		if err := ValidateCounterName(name); err != nil {
			return err
		}
		if err := ensureCounter(tx, name); err != nil {
			return fmt.Errorf("ensure counter %s: %w", name, err)
		}
	}

	return nil
}

func ensureCounter(db *gorm.DB, name string) error {
	if IsPostgres(db) {
		return db.Exec(fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH 1 INCREMENT BY 1", name)).Error
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Counter{Name: name, Value: 0}).Error
}
