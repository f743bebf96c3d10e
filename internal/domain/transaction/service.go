// internal/domain/transaction/service.go
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/gorm"
)

// Service orchestrates the batch ledger, the sequence generator and the
// pricing resolver: it validates a typed transaction request line by line and
// commits all ledger mutations in one database transaction, or rejects the
// whole request. Per-item scope locks serialize concurrent mutations of the
// same item's batch set; unrelated items proceed in parallel.
type Service struct {
	db      *gorm.DB
	config  *config.Config
	locker  lock.Locker
	seq     *sequence.Service
	ledger  *ledger.Service
	pricing *pricing.Service
}

// NewService creates a new transaction service
func NewService(db *gorm.DB, cfg *config.Config, locker lock.Locker, seq *sequence.Service, ledgerSvc *ledger.Service, pricingSvc *pricing.Service) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		locker:  locker,
		seq:     seq,
		ledger:  ledgerSvc,
		pricing: pricingSvc,
	}
}

// IncomingLine is one received lot: the item, its cost and the quantity
type IncomingLine struct {
	ItemID    uint            `json:"item_id" binding:"required"`
	CostPrice decimal.Decimal `json:"cost_price" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
}

// RecordIncomingRequest represents stock received from a brand
type RecordIncomingRequest struct {
	BrandID uint           `json:"brand_id" binding:"required"`
	Lines   []IncomingLine `json:"lines" binding:"required,min=1,dive"`
	Notes   string         `json:"notes"`
}

// OutgoingLine is one sold item. Batch, unit price and pricing tier are all
// optional: without a batch the depletion is FIFO, without a unit price the
// pricing resolver supplies one, and a pricing tier requests a price at that
// tier instead of the customer's assignment.
type OutgoingLine struct {
	ItemID      uint             `json:"item_id" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required"`
	BatchID     *uint            `json:"batch_id"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	PricingTier pricing.Tier     `json:"pricing_tier"`
}

// RecordOutgoingRequest represents a sale to a customer. Either CustomerID
// or CustomerName must be given; an unknown company name auto-creates the
// customer.
type RecordOutgoingRequest struct {
	BrandID      uint           `json:"brand_id" binding:"required"`
	CustomerID   *uint          `json:"customer_id"`
	CustomerName string         `json:"customer_name"`
	Lines        []OutgoingLine `json:"lines" binding:"required,min=1,dive"`
	DueDate      *time.Time     `json:"due_date"`
	Notes        string         `json:"notes"`
}

// AdjustmentLine is one manual correction. Quantity is signed: positive
// creates a batch of found stock, negative removes stock newest-batch-first.
type AdjustmentLine struct {
	ItemID    uint             `json:"item_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// RecordAdjustmentRequest represents a manual stock correction
type RecordAdjustmentRequest struct {
	Lines []AdjustmentLine `json:"lines" binding:"required,min=1,dive"`
	Notes string           `json:"notes"`
}

// CompletionFlagsRequest updates the post-creation flags of an outgoing
// transaction. Only the flags present in the request change.
type CompletionFlagsRequest struct {
	IsReleased *bool `json:"is_released"`
	IsPaid     *bool `json:"is_paid"`
	IsOrSent   *bool `json:"is_or_sent"`
}

// RecordIncoming creates an INCOMING transaction: one new batch per line,
// linked back to the transaction that created it.
func (s *Service) RecordIncoming(ctx context.Context, accountID uint, req *RecordIncomingRequest) (*Transaction, error) {
	itemIDs := make([]uint, 0, len(req.Lines))
	for _, line := range req.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}

	release, err := s.lockItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	txn := &Transaction{
		Type:        TypeIncoming,
		BrandID:     req.BrandID,
		AccountID:   &accountID,
		TotalAmount: decimal.Zero,
		Notes:       req.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var brand catalog.Brand
		if err := tx.First(&brand, req.BrandID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("brand %d: %w", req.BrandID, catalog.ErrUnknownReference)
			}
			return fmt.Errorf("failed to retrieve brand: %w", err)
		}

		ref, err := s.seq.NextReference(ctx, tx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		txn.ReferenceNumber = ref

		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		total := decimal.Zero
		for i, reqLine := range req.Lines {
			item, err := s.getItem(tx, reqLine.ItemID)
			if err != nil {
				return rejectLine(i, err)
			}
			if item.BrandID != req.BrandID {
				return rejectLine(i, fmt.Errorf("item %d belongs to brand %d, not %d: %w",
					item.ID, item.BrandID, req.BrandID, catalog.ErrUnknownReference))
			}

			batch, err := s.ledger.CreateBatch(ctx, tx, reqLine.ItemID, reqLine.CostPrice, reqLine.Quantity, &txn.ID)
			if err != nil {
				return rejectLine(i, err)
			}

			line := Line{
				TransactionID: txn.ID,
				ItemID:        reqLine.ItemID,
				BatchID:       &batch.ID,
				Quantity:      reqLine.Quantity,
				UnitPrice:     reqLine.CostPrice,
				TotalPrice:    reqLine.CostPrice.Mul(decimal.NewFromInt(int64(reqLine.Quantity))),
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to create transaction line: %w", err)
			}

			txn.Lines = append(txn.Lines, line)
			total = total.Add(line.TotalPrice)
		}

		txn.TotalAmount = total
		if err := tx.Model(&Transaction{}).Where("id = ?", txn.ID).
			Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update transaction total: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// RecordOutgoing creates an OUTGOING transaction. A line naming a batch
// depletes exactly that batch, defaulting the unit price to the batch's cost;
// a line without one depletes FIFO and, when no unit price is supplied,
// resolves one through the pricing chain under the seller's tier
// restrictions. FIFO depletions spanning several batches are recorded as one
// line per batch consumed.
func (s *Service) RecordOutgoing(ctx context.Context, accountID uint, allowedTiers []pricing.Tier, req *RecordOutgoingRequest) (*Transaction, error) {
	itemIDs := make([]uint, 0, len(req.Lines))
	for _, line := range req.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}

	release, err := s.lockItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	txn := &Transaction{
		Type:        TypeOutgoing,
		BrandID:     req.BrandID,
		AccountID:   &accountID,
		TotalAmount: decimal.Zero,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}

	var customer *catalog.Customer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Resolved inside the transaction so a rejected request does not
		// leave behind an auto-created customer
		customer, err = s.resolveCustomer(tx, req)
		if err != nil {
			return err
		}
		txn.CustomerID = &customer.ID

		ref, err := s.seq.NextReference(ctx, tx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		txn.ReferenceNumber = ref

		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		resolver := s.pricing.WithTx(tx)
		total := decimal.Zero
		for i, reqLine := range req.Lines {
			if reqLine.Quantity <= 0 {
				return rejectLine(i, fmt.Errorf("quantity %d: %w", reqLine.Quantity, ledger.ErrInvalidQuantity))
			}
			item, err := s.getItem(tx, reqLine.ItemID)
			if err != nil {
				return rejectLine(i, err)
			}
			if item.BrandID != req.BrandID {
				return rejectLine(i, fmt.Errorf("item %d belongs to brand %d, not %d: %w",
					item.ID, item.BrandID, req.BrandID, catalog.ErrUnknownReference))
			}

			lines, err := s.depleteOutgoingLine(ctx, tx, resolver, customer.ID, allowedTiers, &reqLine)
			if err != nil {
				return rejectLine(i, err)
			}

			for _, line := range lines {
				line.TransactionID = txn.ID
				if err := tx.Create(&line).Error; err != nil {
					return fmt.Errorf("failed to create transaction line: %w", err)
				}
				txn.Lines = append(txn.Lines, line)
				total = total.Add(line.TotalPrice)
			}
		}

		txn.TotalAmount = total
		if err := tx.Model(&Transaction{}).Where("id = ?", txn.ID).
			Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update transaction total: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.Customer = customer
	return txn, nil
}

// depleteOutgoingLine performs the ledger depletion for one request line and
// returns the transaction lines to record, one per batch consumed.
func (s *Service) depleteOutgoingLine(ctx context.Context, tx *gorm.DB, resolver *pricing.Service, customerID uint, allowedTiers []pricing.Tier, reqLine *OutgoingLine) ([]Line, error) {
	if reqLine.PricingTier != "" && !reqLine.PricingTier.IsValid() {
		return nil, fmt.Errorf("pricing tier %q: %w", reqLine.PricingTier, pricing.ErrTierNotAllowed)
	}

	if reqLine.BatchID != nil {
		batch, err := s.ledger.GetBatch(tx, *reqLine.BatchID)
		if err != nil {
			return nil, err
		}
		if batch.ItemID != reqLine.ItemID {
			return nil, fmt.Errorf("batch %d belongs to item %d, not %d: %w",
				batch.ID, batch.ItemID, reqLine.ItemID, catalog.ErrUnknownReference)
		}
		if err := s.ledger.Deplete(tx, batch, reqLine.Quantity); err != nil {
			return nil, err
		}

		unitPrice := batch.CostPrice
		if reqLine.UnitPrice != nil {
			unitPrice = *reqLine.UnitPrice
		}
		return []Line{{
			ItemID:      reqLine.ItemID,
			BatchID:     &batch.ID,
			Quantity:    reqLine.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(reqLine.Quantity))),
			PricingTier: reqLine.PricingTier,
		}}, nil
	}

	var unitPrice decimal.Decimal
	tier := reqLine.PricingTier
	if reqLine.UnitPrice != nil {
		unitPrice = *reqLine.UnitPrice
	} else {
		quote, err := resolver.ResolveForSeller(customerID, reqLine.ItemID, allowedTiers, reqLine.PricingTier)
		if err != nil {
			return nil, err
		}
		unitPrice = quote.FinalPrice
		tier = quote.Tier
	}

	consumptions, err := s.ledger.DepleteFIFO(tx, reqLine.ItemID, reqLine.Quantity)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(consumptions))
	for _, c := range consumptions {
		lines = append(lines, Line{
			ItemID:      reqLine.ItemID,
			BatchID:     &c.Batch.ID,
			Quantity:    c.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(c.Quantity))),
			PricingTier: tier,
		})
	}
	return lines, nil
}

// RecordAdjustment creates an ADJUSTMENT transaction. Positive quantities
// create batches of found stock at the supplied cost (or zero); negative
// quantities remove stock newest-batch-first. The owning brand is taken from
// the first line's item.
func (s *Service) RecordAdjustment(ctx context.Context, accountID uint, req *RecordAdjustmentRequest) (*Transaction, error) {
	itemIDs := make([]uint, 0, len(req.Lines))
	for _, line := range req.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}

	release, err := s.lockItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	txn := &Transaction{
		Type:        TypeAdjustment,
		AccountID:   &accountID,
		TotalAmount: decimal.Zero,
		Notes:       req.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		first, err := s.getItem(tx, req.Lines[0].ItemID)
		if err != nil {
			return rejectLine(0, err)
		}
		txn.BrandID = first.BrandID

		ref, err := s.seq.NextReference(ctx, tx, time.Now().UTC().Year())
		if err != nil {
			return err
		}
		txn.ReferenceNumber = ref

		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		total := decimal.Zero
		for i, reqLine := range req.Lines {
			if reqLine.Quantity == 0 {
				return rejectLine(i, fmt.Errorf("quantity must be non-zero: %w", ledger.ErrInvalidQuantity))
			}
			if _, err := s.getItem(tx, reqLine.ItemID); err != nil {
				return rejectLine(i, err)
			}

			lines, err := s.adjustLine(ctx, tx, txn.ID, &reqLine)
			if err != nil {
				return rejectLine(i, err)
			}

			for _, line := range lines {
				line.TransactionID = txn.ID
				if err := tx.Create(&line).Error; err != nil {
					return fmt.Errorf("failed to create transaction line: %w", err)
				}
				txn.Lines = append(txn.Lines, line)
				total = total.Add(line.TotalPrice)
			}
		}

		txn.TotalAmount = total
		if err := tx.Model(&Transaction{}).Where("id = ?", txn.ID).
			Update("total_amount", total).Error; err != nil {
			return fmt.Errorf("failed to update transaction total: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

func (s *Service) adjustLine(ctx context.Context, tx *gorm.DB, txnID uint, reqLine *AdjustmentLine) ([]Line, error) {
	if reqLine.Quantity > 0 {
		cost := decimal.Zero
		if reqLine.UnitPrice != nil {
			cost = *reqLine.UnitPrice
		}
		batch, err := s.ledger.CreateBatch(ctx, tx, reqLine.ItemID, cost, reqLine.Quantity, &txnID)
		if err != nil {
			return nil, err
		}
		return []Line{{
			ItemID:     reqLine.ItemID,
			BatchID:    &batch.ID,
			Quantity:   reqLine.Quantity,
			UnitPrice:  cost,
			TotalPrice: cost.Mul(decimal.NewFromInt(int64(reqLine.Quantity))),
		}}, nil
	}

	consumptions, err := s.ledger.DepleteLIFO(tx, reqLine.ItemID, -reqLine.Quantity)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(consumptions))
	for _, c := range consumptions {
		unitPrice := c.Batch.CostPrice
		if reqLine.UnitPrice != nil {
			unitPrice = *reqLine.UnitPrice
		}
		lines = append(lines, Line{
			ItemID:     reqLine.ItemID,
			BatchID:    &c.Batch.ID,
			Quantity:   -c.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(-c.Quantity))),
		})
	}
	return lines, nil
}

// SetCompletionFlags updates the release / payment / receipt flags of an
// outgoing transaction. Flags absent from the request are left unchanged.
// The update is a single statement guarded by the transaction type, so
// concurrent partial updates cannot interleave and each applies only its own
// flags.
func (s *Service) SetCompletionFlags(id uint, req *CompletionFlagsRequest) (*Transaction, error) {
	updates := map[string]interface{}{}
	if req.IsReleased != nil {
		updates["is_released"] = *req.IsReleased
	}
	if req.IsPaid != nil {
		updates["is_paid"] = *req.IsPaid
	}
	if req.IsOrSent != nil {
		updates["is_or_sent"] = *req.IsOrSent
	}

	if len(updates) > 0 {
		res := s.db.Model(&Transaction{}).
			Where("id = ? AND type = ?", id, TypeOutgoing).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update completion flags: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Distinguish a missing transaction from a non-outgoing one
			txn, err := s.GetTransaction(id)
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("transaction %s is %s; completion flags apply to outgoing transactions only",
				txn.ReferenceNumber, txn.Type)
		}
	}

	txn, err := s.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if txn.Type != TypeOutgoing {
		return nil, fmt.Errorf("transaction %s is %s; completion flags apply to outgoing transactions only",
			txn.ReferenceNumber, txn.Type)
	}
	return txn, nil
}

// GetTransactions retrieves transactions, newest first, optionally filtered
// by type
func (s *Service) GetTransactions(txnType Type) ([]Transaction, error) {
	query := s.db.Preload("Lines").Preload("Customer").Order("created_at DESC")
	if txnType != "" {
		query = query.Where("type = ?", txnType)
	}

	var txns []Transaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}
	return txns, nil
}

// GetTransaction retrieves one transaction with its lines
func (s *Service) GetTransaction(id uint) (*Transaction, error) {
	var txn Transaction
	if err := s.db.Preload("Lines").Preload("Customer").First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction %d: %w", id, catalog.ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve transaction: %w", err)
	}
	return &txn, nil
}

// resolveCustomer finds the outgoing counterparty: by id when given, else by
// company name, auto-creating an unknown name as a direct customer. Runs in
// the caller's transaction so the auto-create rolls back with a rejection.
func (s *Service) resolveCustomer(tx *gorm.DB, req *RecordOutgoingRequest) (*catalog.Customer, error) {
	if req.CustomerID != nil {
		var customer catalog.Customer
		if err := tx.First(&customer, *req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("customer %d: %w", *req.CustomerID, catalog.ErrUnknownReference)
			}
			return nil, fmt.Errorf("failed to retrieve customer: %w", err)
		}
		return &customer, nil
	}

	if req.CustomerName == "" {
		return nil, errors.New("either customer_id or customer_name is required")
	}

	customer := catalog.Customer{
		CompanyName:   req.CustomerName,
		ContactPerson: "Unknown",
		CustomerType:  catalog.CustomerDirectCustomer,
		Platform:      catalog.PlatformWhatsApp,
		Status:        catalog.StatusActive,
	}
	if err := tx.Where("company_name = ?", req.CustomerName).
		FirstOrCreate(&customer).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve customer '%s': %w", req.CustomerName, err)
	}
	return &customer, nil
}

// lockItems acquires the scope lock of every distinct item, in ascending id
// order so concurrent multi-item transactions cannot deadlock
func (s *Service) lockItems(ctx context.Context, itemIDs []uint) (lock.ReleaseFunc, error) {
	distinct := make([]uint, 0, len(itemIDs))
	seen := make(map[uint]bool, len(itemIDs))
	for _, id := range itemIDs {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	releases := make([]lock.ReleaseFunc, 0, len(distinct))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, id := range distinct {
		release, err := s.locker.Acquire(ctx, fmt.Sprintf("item:%d", id))
		if err != nil {
			releaseAll()
			return nil, fmt.Errorf("failed to lock item %d: %w", id, err)
		}
		releases = append(releases, release)
	}

	return releaseAll, nil
}

func (s *Service) getItem(tx *gorm.DB, itemID uint) (*catalog.Item, error) {
	var item catalog.Item
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", itemID, catalog.ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve item: %w", err)
	}
	return &item, nil
}
