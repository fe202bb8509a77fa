//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/store"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("craftid"),
		tcpostgres.WithUsername("craftid"),
		tcpostgres.WithPassword("craftid"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := database.Open(database.Config{Driver: "postgres", DSN: dsn, MaxOpenConns: 10})
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

// fresh returns a store over emptied tables with the sequence rewound.
func (s *PostgresStoreSuite) fresh(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()

	st := store.NewDatabaseStore(s.db)
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, s.db.Exec("TRUNCATE craftids, craftid_counters").Error)
	require.NoError(t, s.db.Exec("ALTER SEQUENCE "+database.DefaultCounter+" RESTART WITH 1").Error)
	return st
}

func (s *PostgresStoreSuite) TestContract() {
	runStoreContract(s.T(), s.fresh)
}

func (s *PostgresStoreSuite) TestSequenceStartsAtOne() {
	st := s.fresh(s.T())

	value, err := st.AllocateNextSequence(context.Background(), database.DefaultCounter)
	s.Require().NoError(err)
	s.Equal(int64(1), value)
}

// TestConcurrentSameNameSingleWinner verifies the unique index lets exactly one
// of many concurrent inserts for the same name through.
func (s *PostgresStoreSuite) TestConcurrentSameNameSingleWinner() {
	st := s.fresh(s.T())
	ctx := context.Background()
	const goroutines = 25

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := st.AllocateNextSequence(ctx, database.DefaultCounter)
			if err != nil {
				return
			}
			err = st.Insert(ctx, newRecord("Contested Pot", seq, time.Now()))
			switch {
			case err == nil:
				successes.Add(1)
			case errorsIsDuplicate(err):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
