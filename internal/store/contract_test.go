package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/charlesng35/craftid/internal/database"
	"github.com/charlesng35/craftid/internal/models"
	"github.com/charlesng35/craftid/internal/store"
)

// storeFactory returns an empty store with its schema in place.
type storeFactory func(t *testing.T) store.Store

func newRecord(name string, seq int64, createdAt time.Time) *models.CraftID {
	data := models.OnboardingData{
		Artisan: models.Artisan{Name: "Asha", Email: "asha@example.com", Location: "Jaipur"},
		Art:     models.Art{Name: name, Description: "hand thrown", Photo: "aGVsbG8="},
	}
	return &models.CraftID{
		PublicID:               models.FormatPublicID(seq),
		PrivateKey:             fmt.Sprintf("token-%d", seq),
		PublicHash:             fmt.Sprintf("%064d", seq),
		ArtName:                name,
		ArtNameNorm:            models.NormalizeArtName(name),
		OriginalOnboardingData: datatypes.NewJSONType(data),
		CreatedAt:              createdAt.UTC(),
	}
}

func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("find missing", func(t *testing.T) {
		s := newStore(t)

		rec, ok, err := s.FindByNormalizedName(ctx, "nothing here")
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, rec)

		rec, ok, err = s.FindByPublicID(ctx, "CID-99999")
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, rec)
	})

	t.Run("insert and find", func(t *testing.T) {
		s := newStore(t)
		record := newRecord("Blue Vase", 1, base)
		require.NoError(t, s.Insert(ctx, record))

		found, ok, err := s.FindByNormalizedName(ctx, "  BLUE vase ")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "CID-00001", found.PublicID)
		require.Equal(t, "Blue Vase", found.ArtName)
		require.Equal(t, "blue vase", found.ArtNameNorm)
		require.Equal(t, record.PrivateKey, found.PrivateKey)
		require.Equal(t, record.PublicHash, found.PublicHash)
		require.True(t, base.Equal(found.CreatedAt))
		require.Equal(t, record.Onboarding(), found.Onboarding())

		byID, ok, err := s.FindByPublicID(ctx, "CID-00001")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "blue vase", byID.ArtNameNorm)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, newRecord("Blue Vase", 1, base)))

		err := s.Insert(ctx, newRecord(" blue VASE", 2, base.Add(time.Second)))
		require.ErrorIs(t, err, store.ErrDuplicateKey)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("duplicate public id rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, newRecord("Blue Vase", 7, base)))

		err := s.Insert(ctx, newRecord("Red Bowl", 7, base.Add(time.Second)))
		require.ErrorIs(t, err, store.ErrDuplicateKey)
	})

	t.Run("allocation is strictly increasing", func(t *testing.T) {
		s := newStore(t)

		var last int64
		for i := 0; i < 5; i++ {
			next, err := s.AllocateNextSequence(ctx, database.DefaultCounter)
			require.NoError(t, err)
			require.Greater(t, next, last)
			last = next
		}
	})

	t.Run("concurrent allocation yields distinct values", func(t *testing.T) {
		s := newStore(t)
		const workers = 20

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			values = make(map[int64]struct{}, workers)
		)
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := s.AllocateNextSequence(ctx, database.DefaultCounter)
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				values[v] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		require.Len(t, values, workers)
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 5; i++ {
			require.NoError(t, s.Insert(ctx, newRecord(fmt.Sprintf("Piece %d", i), int64(i), base.Add(time.Duration(i)*time.Minute))))
		}

		records, err := s.List(ctx, 3)
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, "CID-00005", records[0].PublicID)
		require.Equal(t, "CID-00004", records[1].PublicID)
		require.Equal(t, "CID-00003", records[2].PublicID)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 5, count)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)

		records, err := s.List(ctx, 10)
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("ensure schema is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, newRecord("Blue Vase", 1, base)))

		require.NoError(t, s.EnsureSchema(ctx))
		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.Reset(ctx))

		_, ok, err := s.FindByNormalizedName(ctx, "blue vase")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func errorsIsDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicateKey)
}
