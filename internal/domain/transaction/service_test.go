// internal/domain/transaction/service_test.go
package transaction_test

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/domain/transaction"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testWorld struct {
	db      *gorm.DB
	txns    *transaction.Service
	ledger  *ledger.Service
	pricing *pricing.Service

	brandID    uint
	customerID uint
	itemID     uint
}

func newTestWorld(t *testing.T) *testWorld {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&catalog.Brand{},
		&catalog.Customer{},
		&catalog.Item{},
		&sequence.Counter{},
		&ledger.ItemBatch{},
		&pricing.CustomerBrandTier{},
		&pricing.ItemTierPrice{},
		&pricing.CustomerSpecialDiscount{},
		&transaction.Transaction{},
		&transaction.Line{},
	))

	locker := lock.NewKeyedMutex()
	seq := sequence.NewService(locker)
	ledgerSvc := ledger.NewService(db, seq)
	pricingSvc := pricing.NewService(db)
	txnSvc := transaction.NewService(db, &config.Config{}, locker, seq, ledgerSvc, pricingSvc)

	brand := catalog.Brand{Name: "Acme Foods", Status: catalog.StatusActive}
	require.NoError(t, db.Create(&brand).Error)

	customer := catalog.Customer{
		CompanyName:  "Sari-Sari Central",
		CustomerType: catalog.CustomerReseller,
		Status:       catalog.StatusActive,
	}
	require.NoError(t, db.Create(&customer).Error)

	item := catalog.Item{BrandID: brand.ID, Name: "Instant Noodles", SKU: "101-001"}
	require.NoError(t, db.Create(&item).Error)

	return &testWorld{
		db:         db,
		txns:       txnSvc,
		ledger:     ledgerSvc,
		pricing:    pricingSvc,
		brandID:    brand.ID,
		customerID: customer.ID,
		itemID:     item.ID,
	}
}

func (w *testWorld) receiveStock(t *testing.T, cost string, qty int) *transaction.Transaction {
	t.Helper()
	txn, err := w.txns.RecordIncoming(context.Background(), 1, &transaction.RecordIncomingRequest{
		BrandID: w.brandID,
		Lines: []transaction.IncomingLine{
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString(cost), Quantity: qty},
		},
	})
	require.NoError(t, err)
	return txn
}

func (w *testWorld) assignTierAndPrice(t *testing.T, tier pricing.Tier, price string) {
	t.Helper()
	_, err := w.pricing.AssignTier(&pricing.AssignTierRequest{
		CustomerID: w.customerID, BrandID: w.brandID, Tier: tier,
	})
	require.NoError(t, err)
	_, err = w.pricing.SetItemTierPrice(&pricing.SetItemTierPriceRequest{
		ItemID: w.itemID, Tier: tier, Price: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
}

func unrestricted() []pricing.Tier {
	return pricing.AllowedSellingTiers("")
}

func TestRecordIncoming_CreatesBatchesAndReference(t *testing.T) {
	w := newTestWorld(t)

	txn, err := w.txns.RecordIncoming(context.Background(), 1, &transaction.RecordIncomingRequest{
		BrandID: w.brandID,
		Lines: []transaction.IncomingLine{
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString("30.00"), Quantity: 10},
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString("32.00"), Quantity: 10},
		},
		Notes: "first delivery",
	})
	require.NoError(t, err)

	assert.Equal(t, transaction.TypeIncoming, txn.Type)
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-0001$`), txn.ReferenceNumber)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("620.00")))
	require.Len(t, txn.Lines, 2)

	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, 1, batches[0].BatchNumber)
	assert.Equal(t, 2, batches[1].BatchNumber)
	// Batches link back to the transaction that created them
	require.NotNil(t, batches[0].TransactionID)
	assert.Equal(t, txn.ID, *batches[0].TransactionID)

	available, err := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, err)
	assert.Equal(t, 20, available)

	// Incoming transactions are complete on creation
	assert.True(t, txn.IsCompleted())
}

func TestRecordIncoming_RejectsWholeTransactionOnBadLine(t *testing.T) {
	// GIVEN: a two-line delivery whose second line has an invalid quantity
	w := newTestWorld(t)

	_, err := w.txns.RecordIncoming(context.Background(), 1, &transaction.RecordIncomingRequest{
		BrandID: w.brandID,
		Lines: []transaction.IncomingLine{
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString("30.00"), Quantity: 10},
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString("32.00"), Quantity: -5},
		},
	})

	// THEN: the rejection names the offending line and nothing was persisted
	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, 1, rejection.Line)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	available, availErr := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, availErr)
	assert.Equal(t, 0, available)

	var count int64
	require.NoError(t, w.db.Model(&transaction.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecordIncoming_RejectsItemOfAnotherBrand(t *testing.T) {
	w := newTestWorld(t)

	other := catalog.Brand{Name: "Rival Goods", Status: catalog.StatusActive}
	require.NoError(t, w.db.Create(&other).Error)

	_, err := w.txns.RecordIncoming(context.Background(), 1, &transaction.RecordIncomingRequest{
		BrandID: other.ID,
		Lines: []transaction.IncomingLine{
			{ItemID: w.itemID, CostPrice: decimal.RequireFromString("30.00"), Quantity: 10},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, 0, rejection.Line)
	assert.ErrorIs(t, err, catalog.ErrUnknownReference)
}

func TestRecordOutgoing_ExplicitBatchUsesBatchCostAsDefaultPrice(t *testing.T) {
	// GIVEN: two batches at different costs
	w := newTestWorld(t)
	incoming := w.receiveStock(t, "30.00", 10)
	require.NotNil(t, incoming)
	w.receiveStock(t, "32.00", 10)

	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	second := batches[1]

	// WHEN: selling from the second batch explicitly, without a price
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 4, BatchID: &second.ID},
		},
	})
	require.NoError(t, err)

	// THEN: exactly that batch was depleted and its cost priced the line
	require.Len(t, txn.Lines, 1)
	require.NotNil(t, txn.Lines[0].BatchID)
	assert.Equal(t, second.ID, *txn.Lines[0].BatchID)
	assert.True(t, txn.Lines[0].UnitPrice.Equal(decimal.RequireFromString("32.00")))
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("128.00")))

	batches, err = w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	assert.Equal(t, 10, batches[0].RemainingQuantity)
	assert.Equal(t, 6, batches[1].RemainingQuantity)
}

func TestRecordOutgoing_FIFOSpansBatchesOneLineEach(t *testing.T) {
	// GIVEN: batch 1 (qty 10) and batch 2 (qty 10)
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)
	w.receiveStock(t, "32.00", 10)

	price := decimal.RequireFromString("45.00")
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 15, UnitPrice: &price},
		},
	})
	require.NoError(t, err)

	// THEN: the sale is recorded as one line per consumed batch
	require.Len(t, txn.Lines, 2)
	assert.Equal(t, 10, txn.Lines[0].Quantity)
	assert.Equal(t, 5, txn.Lines[1].Quantity)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("675.00")))

	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	assert.Equal(t, 0, batches[0].RemainingQuantity)
	assert.Equal(t, 5, batches[1].RemainingQuantity)
}

func TestRecordOutgoing_ResolvesPriceThroughPricingChain(t *testing.T) {
	// GIVEN: PD assignment, 90.00 list price and a -15.00 special discount
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)
	w.assignTierAndPrice(t, pricing.TierProvincial, "90.00")
	_, err := w.pricing.SetSpecialDiscount(&pricing.SetSpecialDiscountRequest{
		CustomerID: w.customerID, ItemID: w.itemID, Discount: decimal.RequireFromString("-15.00"),
	}, 1)
	require.NoError(t, err)

	// WHEN: selling without a supplied unit price
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// THEN: the resolved final price and tier land on the line
	require.Len(t, txn.Lines, 1)
	assert.True(t, txn.Lines[0].UnitPrice.Equal(decimal.RequireFromString("75.00")))
	assert.Equal(t, pricing.TierProvincial, txn.Lines[0].PricingTier)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("150.00")))
}

func TestRecordOutgoing_SellerGateRejectsDisallowedTier(t *testing.T) {
	// GIVEN: customer assigned PD; the seller buys at RS and may only sell below it
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)
	w.assignTierAndPrice(t, pricing.TierProvincial, "90.00")

	allowed := pricing.AllowedSellingTiers(pricing.TierReseller)
	_, err := w.txns.RecordOutgoing(context.Background(), 1, allowed, &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 2},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.ErrorIs(t, err, pricing.ErrTierNotAllowed)

	// No stock moved
	available, availErr := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, availErr)
	assert.Equal(t, 10, available)
}

func TestRecordOutgoing_InsufficientStockRejectsWholeTransaction(t *testing.T) {
	// GIVEN: 10 units on hand and a two-line sale needing more
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("45.00")
	_, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 6, UnitPrice: &price},
			{ItemID: w.itemID, Quantity: 6, UnitPrice: &price},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, 1, rejection.Line)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	// The first line's depletion was rolled back with the rest
	available, availErr := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, availErr)
	assert.Equal(t, 10, available)

	var count int64
	require.NoError(t, w.db.Model(&transaction.Transaction{}).
		Where("type = ?", transaction.TypeOutgoing).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecordOutgoing_AutoCreatesCustomerByCompanyName(t *testing.T) {
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("50.00")
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:      w.brandID,
		CustomerName: "Corner Store",
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 1, UnitPrice: &price},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, txn.CustomerID)

	var customer catalog.Customer
	require.NoError(t, w.db.First(&customer, *txn.CustomerID).Error)
	assert.Equal(t, "Corner Store", customer.CompanyName)
	assert.Equal(t, "Unknown", customer.ContactPerson)
	assert.Equal(t, catalog.CustomerDirectCustomer, customer.CustomerType)

	// A second sale under the same name reuses the customer
	again, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:      w.brandID,
		CustomerName: "Corner Store",
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 1, UnitPrice: &price},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, *txn.CustomerID, *again.CustomerID)
}

func TestRecordOutgoing_RejectionDiscardsAutoCreatedCustomer(t *testing.T) {
	// GIVEN: no stock; an outgoing sale naming a brand-new company
	w := newTestWorld(t)

	price := decimal.RequireFromString("50.00")
	_, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:      w.brandID,
		CustomerName: "Phantom Trading",
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 1, UnitPrice: &price},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	// THEN: the auto-created customer rolled back with the rejection
	var count int64
	require.NoError(t, w.db.Model(&catalog.Customer{}).
		Where("company_name = ?", "Phantom Trading").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecordOutgoing_RejectsItemOfAnotherBrand(t *testing.T) {
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	other := catalog.Brand{Name: "Rival Goods", Status: catalog.StatusActive}
	require.NoError(t, w.db.Create(&other).Error)

	price := decimal.RequireFromString("45.00")
	_, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    other.ID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 2, UnitPrice: &price},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, 0, rejection.Line)
	assert.ErrorIs(t, err, catalog.ErrUnknownReference)

	available, availErr := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, availErr)
	assert.Equal(t, 10, available)
}

func TestRecordOutgoing_RejectsUnknownPricingTier(t *testing.T) {
	// GIVEN: a supplied unit price, which skips the resolver, plus a bogus
	// tier label on the line
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("45.00")
	_, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 2, UnitPrice: &price, PricingTier: pricing.Tier("XX")},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.ErrorIs(t, err, pricing.ErrTierNotAllowed)

	available, availErr := w.ledger.AvailableQuantity(w.itemID)
	require.NoError(t, availErr)
	assert.Equal(t, 10, available)
}

func TestRecordAdjustment_PositiveCreatesBatch(t *testing.T) {
	w := newTestWorld(t)

	txn, err := w.txns.RecordAdjustment(context.Background(), 1, &transaction.RecordAdjustmentRequest{
		Lines: []transaction.AdjustmentLine{
			{ItemID: w.itemID, Quantity: 7},
		},
		Notes: "found stock during count",
	})
	require.NoError(t, err)

	assert.Equal(t, transaction.TypeAdjustment, txn.Type)
	// Brand is derived from the adjusted item
	assert.Equal(t, w.brandID, txn.BrandID)

	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 7, batches[0].RemainingQuantity)
	// Found stock without a supplied cost is carried at zero
	assert.True(t, batches[0].CostPrice.IsZero())
}

func TestRecordAdjustment_NegativeDepletesNewestFirst(t *testing.T) {
	// GIVEN: two batches; a shrinkage correction of 12 units
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)
	w.receiveStock(t, "32.00", 10)

	txn, err := w.txns.RecordAdjustment(context.Background(), 1, &transaction.RecordAdjustmentRequest{
		Lines: []transaction.AdjustmentLine{
			{ItemID: w.itemID, Quantity: -12},
		},
	})
	require.NoError(t, err)

	// THEN: the newest batch empties before the oldest is touched
	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	assert.Equal(t, 8, batches[0].RemainingQuantity)
	assert.Equal(t, 0, batches[1].RemainingQuantity)

	require.Len(t, txn.Lines, 2)
	assert.Equal(t, -10, txn.Lines[0].Quantity)
	assert.Equal(t, -2, txn.Lines[1].Quantity)
}

func TestRecordAdjustment_ZeroQuantityRejected(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.txns.RecordAdjustment(context.Background(), 1, &transaction.RecordAdjustmentRequest{
		Lines: []transaction.AdjustmentLine{
			{ItemID: w.itemID, Quantity: 0},
		},
	})

	var rejection *transaction.RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)
}

func TestSetCompletionFlags_DerivedCompletion(t *testing.T) {
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("45.00")
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 2, UnitPrice: &price},
		},
	})
	require.NoError(t, err)
	assert.False(t, txn.IsCompleted())

	yes := true
	updated, err := w.txns.SetCompletionFlags(txn.ID, &transaction.CompletionFlagsRequest{
		IsReleased: &yes,
		IsPaid:     &yes,
	})
	require.NoError(t, err)
	// Two of three flags is not complete
	assert.False(t, updated.IsCompleted())

	updated, err = w.txns.SetCompletionFlags(txn.ID, &transaction.CompletionFlagsRequest{
		IsOrSent: &yes,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted())
	// Earlier flags survived the partial update
	assert.True(t, updated.IsReleased)
	assert.True(t, updated.IsPaid)
}

func TestSetCompletionFlags_OnlyForOutgoing(t *testing.T) {
	w := newTestWorld(t)
	incoming := w.receiveStock(t, "30.00", 10)

	yes := true
	_, err := w.txns.SetCompletionFlags(incoming.ID, &transaction.CompletionFlagsRequest{
		IsPaid: &yes,
	})
	assert.Error(t, err)
}

func TestSetCompletionFlags_ConcurrentUpdatesEachApplyOwnFlags(t *testing.T) {
	// GIVEN: three collaborators each flipping one flag at the same time
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("45.00")
	txn, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 1, UnitPrice: &price},
		},
	})
	require.NoError(t, err)

	yes := true
	requests := []*transaction.CompletionFlagsRequest{
		{IsReleased: &yes},
		{IsPaid: &yes},
		{IsOrSent: &yes},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(requests))
	for _, req := range requests {
		wg.Add(1)
		go func(req *transaction.CompletionFlagsRequest) {
			defer wg.Done()
			_, err := w.txns.SetCompletionFlags(txn.ID, req)
			errs <- err
		}(req)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// THEN: no update clobbered another; all three flags stuck
	final, err := w.txns.GetTransaction(txn.ID)
	require.NoError(t, err)
	assert.True(t, final.IsReleased)
	assert.True(t, final.IsPaid)
	assert.True(t, final.IsOrSent)
	assert.True(t, final.IsCompleted())
}

func TestSetCompletionFlags_UnknownTransaction(t *testing.T) {
	w := newTestWorld(t)

	yes := true
	_, err := w.txns.SetCompletionFlags(9999, &transaction.CompletionFlagsRequest{IsPaid: &yes})
	assert.ErrorIs(t, err, catalog.ErrUnknownReference)
}

func TestRecordIncoming_ConcurrentBatchNumbersDistinctAndContiguous(t *testing.T) {
	// GIVEN: 10 concurrent deliveries of the same item
	w := newTestWorld(t)

	const deliveries = 10
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.txns.RecordIncoming(context.Background(), 1, &transaction.RecordIncomingRequest{
				BrandID: w.brandID,
				Lines: []transaction.IncomingLine{
					{ItemID: w.itemID, CostPrice: decimal.RequireFromString("30.00"), Quantity: 5},
				},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// THEN: batch numbers are exactly 1..N with no duplicates or holes
	batches, err := w.ledger.ListBatches(w.itemID)
	require.NoError(t, err)
	require.Len(t, batches, deliveries)
	for i, batch := range batches {
		assert.Equal(t, i+1, batch.BatchNumber)
	}

	// Reference numbers are likewise unique
	var refs []string
	require.NoError(t, w.db.Model(&transaction.Transaction{}).
		Order("reference_number").Pluck("reference_number", &refs).Error)
	require.Len(t, refs, deliveries)
	seen := make(map[string]bool)
	for _, ref := range refs {
		assert.False(t, seen[ref], "reference %s issued twice", ref)
		seen[ref] = true
	}
}

func TestGetTransactions_FilterByType(t *testing.T) {
	w := newTestWorld(t)
	w.receiveStock(t, "30.00", 10)

	price := decimal.RequireFromString("45.00")
	_, err := w.txns.RecordOutgoing(context.Background(), 1, unrestricted(), &transaction.RecordOutgoingRequest{
		BrandID:    w.brandID,
		CustomerID: &w.customerID,
		Lines: []transaction.OutgoingLine{
			{ItemID: w.itemID, Quantity: 1, UnitPrice: &price},
		},
	})
	require.NoError(t, err)

	all, err := w.txns.GetTransactions("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	outgoing, err := w.txns.GetTransactions(transaction.TypeOutgoing)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, transaction.TypeOutgoing, outgoing[0].Type)
	require.Len(t, outgoing[0].Lines, 1)
}
