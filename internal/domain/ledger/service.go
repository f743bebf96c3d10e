// internal/domain/ledger/service.go
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"gorm.io/gorm"
)

var (
	// ErrInvalidQuantity indicates a non-positive quantity where a positive
	// one is required
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientStock indicates a depletion request exceeding the
	// available or remaining quantity; depletions are never partially applied
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Service owns the set of batches for each item: it creates batches from
// incoming stock, depletes them under FIFO/LIFO/explicit policies and
// answers availability queries. Callers serialize concurrent mutations of
// one item's batch set through a per-item scope lock before invoking the
// mutating operations inside a database transaction.
type Service struct {
	db  *gorm.DB
	seq *sequence.Service
}

// NewService creates a new batch ledger service
func NewService(db *gorm.DB, seq *sequence.Service) *Service {
	return &Service{
		db:  db,
		seq: seq,
	}
}

// CreateBatch allocates the next batch number for the item and creates a
// batch with remaining quantity equal to the initial quantity. The optional
// transactionID links the batch to the incoming transaction that created it.
func (s *Service) CreateBatch(ctx context.Context, tx *gorm.DB, itemID uint, costPrice decimal.Decimal, quantity int, transactionID *uint) (*ItemBatch, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("batch quantity %d: %w", quantity, ErrInvalidQuantity)
	}

	number, err := s.seq.NextBatchNumber(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	batch := &ItemBatch{
		ItemID:            itemID,
		BatchNumber:       number,
		CostPrice:         costPrice,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
		TransactionID:     transactionID,
	}

	if err := tx.Create(batch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("batch %d for item %d: %w", number, itemID, sequence.ErrDuplicateSequence)
		}
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	return batch, nil
}

// Deplete subtracts quantity from a specific batch
func (s *Service) Deplete(tx *gorm.DB, batch *ItemBatch, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("depletion quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	if quantity > batch.RemainingQuantity {
		return fmt.Errorf("batch %d has %d remaining, requested %d: %w",
			batch.BatchNumber, batch.RemainingQuantity, quantity, ErrInsufficientStock)
	}

	batch.RemainingQuantity -= quantity
	if err := tx.Model(batch).Update("remaining_quantity", batch.RemainingQuantity).Error; err != nil {
		return fmt.Errorf("failed to deplete batch: %w", err)
	}

	return nil
}

// DepleteFIFO consumes from the item's batches oldest first (ascending batch
// number). All-or-nothing: if total available stock cannot satisfy quantity,
// no batch is mutated and ErrInsufficientStock is returned.
func (s *Service) DepleteFIFO(tx *gorm.DB, itemID uint, quantity int) ([]Consumption, error) {
	return s.depleteOrdered(tx, itemID, quantity, "batch_number ASC")
}

// DepleteLIFO consumes from the item's batches newest first (descending
// batch number). Used for negative manual adjustments, where the most
// recently received stock is assumed wrong first. Same all-or-nothing
// contract as DepleteFIFO.
func (s *Service) DepleteLIFO(tx *gorm.DB, itemID uint, quantity int) ([]Consumption, error) {
	return s.depleteOrdered(tx, itemID, quantity, "batch_number DESC")
}

func (s *Service) depleteOrdered(tx *gorm.DB, itemID uint, quantity int, order string) ([]Consumption, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("depletion quantity %d: %w", quantity, ErrInvalidQuantity)
	}

	var batches []ItemBatch
	if err := tx.Where("item_id = ? AND remaining_quantity > 0", itemID).
		Order(order).
		Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to load batches: %w", err)
	}

	// Availability check before any mutation keeps the depletion atomic.
	available := 0
	for _, batch := range batches {
		available += batch.RemainingQuantity
	}
	if available < quantity {
		return nil, fmt.Errorf("item %d has %d available, requested %d: %w",
			itemID, available, quantity, ErrInsufficientStock)
	}

	var consumptions []Consumption
	remaining := quantity
	for i := range batches {
		if remaining <= 0 {
			break
		}
		batch := &batches[i]

		take := remaining
		if take > batch.RemainingQuantity {
			take = batch.RemainingQuantity
		}

		batch.RemainingQuantity -= take
		if err := tx.Model(batch).Update("remaining_quantity", batch.RemainingQuantity).Error; err != nil {
			return nil, fmt.Errorf("failed to deplete batch %d: %w", batch.BatchNumber, err)
		}

		consumptions = append(consumptions, Consumption{Batch: batch, Quantity: take})
		remaining -= take
	}

	return consumptions, nil
}

// AvailableQuantity returns the item's total stock, derived from its batches.
// It is never stored as an independent field.
func (s *Service) AvailableQuantity(itemID uint) (int, error) {
	var total int64
	if err := s.db.Model(&ItemBatch{}).
		Where("item_id = ? AND remaining_quantity > 0", itemID).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to compute available quantity: %w", err)
	}
	return int(total), nil
}

// ActiveBatchCount returns the number of batches with stock remaining
func (s *Service) ActiveBatchCount(itemID uint) (int, error) {
	var count int64
	if err := s.db.Model(&ItemBatch{}).
		Where("item_id = ? AND remaining_quantity > 0", itemID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return int(count), nil
}

// ListBatches returns all batches of an item by ascending batch number
func (s *Service) ListBatches(itemID uint) ([]ItemBatch, error) {
	var batches []ItemBatch
	if err := s.db.Where("item_id = ?", itemID).
		Order("batch_number ASC").
		Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// GetBatch retrieves a batch by id within the given transaction
func (s *Service) GetBatch(tx *gorm.DB, batchID uint) (*ItemBatch, error) {
	var batch ItemBatch
	if err := tx.First(&batch, batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch %d: %w", batchID, catalog.ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve batch: %w", err)
	}
	return &batch, nil
}
