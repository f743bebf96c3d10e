// internal/domain/ledger/service_test.go
package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestLedger(t *testing.T) (*ledger.Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&sequence.Counter{}, &ledger.ItemBatch{}))

	seq := sequence.NewService(lock.NewKeyedMutex())
	return ledger.NewService(db, seq), db
}

func mustCreateBatch(t *testing.T, svc *ledger.Service, db *gorm.DB, itemID uint, cost string, qty int) *ledger.ItemBatch {
	t.Helper()
	var batch *ledger.ItemBatch
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := svc.CreateBatch(context.Background(), tx, itemID, decimal.RequireFromString(cost), qty, nil)
		batch = b
		return err
	})
	require.NoError(t, err)
	return batch
}

func TestCreateBatch_NumbersStartAtOneAndIncrease(t *testing.T) {
	svc, db := newTestLedger(t)

	b1 := mustCreateBatch(t, svc, db, 1, "30.00", 10)
	b2 := mustCreateBatch(t, svc, db, 1, "32.00", 10)
	other := mustCreateBatch(t, svc, db, 2, "5.00", 4)

	assert.Equal(t, 1, b1.BatchNumber)
	assert.Equal(t, 2, b2.BatchNumber)
	// Numbering is per item
	assert.Equal(t, 1, other.BatchNumber)

	assert.Equal(t, b1.InitialQuantity, b1.RemainingQuantity)
	assert.False(t, b1.IsDepleted())
}

func TestCreateBatch_RejectsNonPositiveQuantity(t *testing.T) {
	svc, db := newTestLedger(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.CreateBatch(context.Background(), tx, 1, decimal.NewFromInt(10), 0, nil)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.CreateBatch(context.Background(), tx, 1, decimal.NewFromInt(10), -3, nil)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
}

func TestDeplete_SpecificBatch(t *testing.T) {
	svc, db := newTestLedger(t)
	batch := mustCreateBatch(t, svc, db, 1, "30.00", 10)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.Deplete(tx, batch, 4)
	}))
	assert.Equal(t, 6, batch.RemainingQuantity)

	// More than remaining fails without mutating
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Deplete(tx, batch, 7)
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var stored ledger.ItemBatch
	require.NoError(t, db.First(&stored, batch.ID).Error)
	assert.Equal(t, 6, stored.RemainingQuantity)
}

func TestDepleteFIFO_ConsumesOldestFirst(t *testing.T) {
	// GIVEN: item X with batch 1 (qty 10, cost 30) and batch 2 (qty 10, cost 32)
	svc, db := newTestLedger(t)
	b1 := mustCreateBatch(t, svc, db, 1, "30.00", 10)
	b2 := mustCreateBatch(t, svc, db, 1, "32.00", 10)

	// WHEN: depleting 15
	var consumptions []ledger.Consumption
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		c, err := svc.DepleteFIFO(tx, 1, 15)
		consumptions = c
		return err
	}))

	// THEN: batch 1 is emptied first, batch 2 covers the remainder
	require.Len(t, consumptions, 2)
	assert.Equal(t, b1.ID, consumptions[0].Batch.ID)
	assert.Equal(t, 10, consumptions[0].Quantity)
	assert.Equal(t, b2.ID, consumptions[1].Batch.ID)
	assert.Equal(t, 5, consumptions[1].Quantity)

	var stored1, stored2 ledger.ItemBatch
	require.NoError(t, db.First(&stored1, b1.ID).Error)
	require.NoError(t, db.First(&stored2, b2.ID).Error)
	assert.Equal(t, 0, stored1.RemainingQuantity)
	assert.Equal(t, 5, stored2.RemainingQuantity)
}

func TestDepleteLIFO_ConsumesNewestFirst(t *testing.T) {
	svc, db := newTestLedger(t)
	b1 := mustCreateBatch(t, svc, db, 1, "30.00", 10)
	b2 := mustCreateBatch(t, svc, db, 1, "32.00", 10)

	var consumptions []ledger.Consumption
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		c, err := svc.DepleteLIFO(tx, 1, 12)
		consumptions = c
		return err
	}))

	require.Len(t, consumptions, 2)
	assert.Equal(t, b2.ID, consumptions[0].Batch.ID)
	assert.Equal(t, 10, consumptions[0].Quantity)
	assert.Equal(t, b1.ID, consumptions[1].Batch.ID)
	assert.Equal(t, 2, consumptions[1].Quantity)
}

func TestDepleteFIFO_InsufficientStockLeavesBatchesUntouched(t *testing.T) {
	// GIVEN: 15 units available across two batches
	svc, db := newTestLedger(t)
	b1 := mustCreateBatch(t, svc, db, 1, "30.00", 10)
	mustCreateBatch(t, svc, db, 1, "32.00", 5)

	// WHEN: requesting far more than available
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DepleteFIFO(tx, 1, 999)
		return err
	})

	// THEN: the depletion fails and no batch was partially drained
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	var stored ledger.ItemBatch
	require.NoError(t, db.First(&stored, b1.ID).Error)
	assert.Equal(t, 10, stored.RemainingQuantity)

	available, err := svc.AvailableQuantity(1)
	require.NoError(t, err)
	assert.Equal(t, 15, available)
}

func TestDepleteFIFO_RejectsNonPositiveQuantity(t *testing.T) {
	svc, db := newTestLedger(t)
	mustCreateBatch(t, svc, db, 1, "30.00", 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DepleteFIFO(tx, 1, 0)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
}

func TestAvailableQuantity_IsDerivedFromBatches(t *testing.T) {
	svc, db := newTestLedger(t)

	// No batches yet
	available, err := svc.AvailableQuantity(1)
	require.NoError(t, err)
	assert.Equal(t, 0, available)

	mustCreateBatch(t, svc, db, 1, "30.00", 10)
	mustCreateBatch(t, svc, db, 1, "32.00", 10)

	available, err = svc.AvailableQuantity(1)
	require.NoError(t, err)
	assert.Equal(t, 20, available)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.DepleteFIFO(tx, 1, 13)
		return err
	}))

	available, err = svc.AvailableQuantity(1)
	require.NoError(t, err)
	assert.Equal(t, 7, available)

	count, err := svc.ActiveBatchCount(1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListBatches_OrderedByBatchNumber(t *testing.T) {
	svc, db := newTestLedger(t)
	mustCreateBatch(t, svc, db, 1, "30.00", 10)
	mustCreateBatch(t, svc, db, 1, "32.00", 5)
	mustCreateBatch(t, svc, db, 2, "9.00", 3)

	batches, err := svc.ListBatches(1)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, 1, batches[0].BatchNumber)
	assert.Equal(t, 2, batches[1].BatchNumber)
	assert.True(t, batches[0].CostPrice.Equal(decimal.RequireFromString("30.00")))
}
