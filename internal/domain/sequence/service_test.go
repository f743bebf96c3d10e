// internal/domain/sequence/service_test.go
package sequence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes
	// writes the way the scope locks expect.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&sequence.Counter{}))
	return db
}

func newTestService() *sequence.Service {
	return sequence.NewService(lock.NewKeyedMutex())
}

func TestNext_StartsAtOneAndIncreases(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		var got int64
		err := db.Transaction(func(tx *gorm.DB) error {
			n, err := svc.Next(ctx, tx, "batch:1")
			got = n
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNext_ScopesAreIndependent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < 3; i++ {
			if _, err := svc.Next(ctx, tx, "batch:1"); err != nil {
				return err
			}
		}
		n, err := svc.Next(ctx, tx, "batch:2")
		require.NoError(t, err)
		// A fresh scope starts over at 1 regardless of other scopes
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestNext_GapFromRollbackIsTolerated(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	var first int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		n, err := svc.Next(ctx, tx, "txn-ref:2026")
		first = n
		return err
	}))
	require.Equal(t, int64(1), first)

	// A rolled-back allocation abandons its value
	rollback := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Next(ctx, tx, "txn-ref:2026"); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, rollback)

	var next int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		n, err := svc.Next(ctx, tx, "txn-ref:2026")
		next = n
		return err
	}))
	// Strictly greater than the last committed value; a gap is acceptable
	assert.Greater(t, next, first)
}

func TestNext_ConcurrentFirstAllocationOfFreshScope(t *testing.T) {
	// GIVEN: a scope no transaction has ever touched, allocated by two
	// sessions at once. First allocation is a single atomic upsert, so
	// neither session can fail on the other's uncommitted counter row.
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	const sessions = 2
	results := make(chan int64, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				n, err := svc.Next(ctx, tx, "txn-ref:2030")
				if err != nil {
					return err
				}
				results <- n
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	close(results)

	// THEN: both succeed, receiving 1 and 2 in some order
	seen := make(map[int64]bool)
	for n := range results {
		seen[n] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true}, seen)
}

func TestNext_ConcurrentCallersNeverDuplicate(t *testing.T) {
	// GIVEN: N concurrent callers allocating from one scope
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	const callers = 20
	results := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				n, err := svc.Next(ctx, tx, "item-code:7")
				if err != nil {
					return err
				}
				results <- n
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	close(results)

	// THEN: every value is distinct and the full range 1..N was handed out
	seen := make(map[int64]bool)
	for n := range results {
		assert.False(t, seen[n], "value %d handed out twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, callers)
	for want := int64(1); want <= callers; want++ {
		assert.True(t, seen[want], "missing value %d", want)
	}
}

func TestNextItemCode_Format(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	var code string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		c, err := svc.NextItemCode(ctx, tx, 1)
		code = c
		return err
	}))
	// Brand prefix is brand id + 100, counter zero-padded to three digits
	assert.Equal(t, "101-001", code)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		c, err := svc.NextItemCode(ctx, tx, 1)
		code = c
		return err
	}))
	assert.Equal(t, "101-002", code)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		c, err := svc.NextItemCode(ctx, tx, 42)
		code = c
		return err
	}))
	assert.Equal(t, "142-001", code)
}

func TestNextBatchNumber_PerItem(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		n, err := svc.NextBatchNumber(ctx, tx, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = svc.NextBatchNumber(ctx, tx, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		// A different item has its own counter
		n, err = svc.NextBatchNumber(ctx, tx, 4)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	}))
}

func TestNextReference_YearScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService()
	ctx := context.Background()

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		ref, err := svc.NextReference(ctx, tx, 2026)
		require.NoError(t, err)
		assert.Equal(t, "2026-0001", ref)

		ref, err = svc.NextReference(ctx, tx, 2026)
		require.NoError(t, err)
		assert.Equal(t, "2026-0002", ref)

		// Numbering restarts for a new year
		ref, err = svc.NextReference(ctx, tx, 2027)
		require.NoError(t, err)
		assert.Equal(t, "2027-0001", ref)
		return nil
	}))
}
