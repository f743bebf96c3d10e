// internal/domain/ledger/entity.go
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemBatch is a lot of stock for one item, received at one cost and
// depleted independently of the item's other batches. Batch numbers are
// unique per item, start at 1 and strictly increase.
//
// Invariant: 0 <= RemainingQuantity <= InitialQuantity.
type ItemBatch struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ItemID            uint            `gorm:"not null;index;uniqueIndex:idx_item_batches_item_number" json:"item_id"`
	BatchNumber       int             `gorm:"not null;uniqueIndex:idx_item_batches_item_number" json:"batch_number"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"cost_price"`
	InitialQuantity   int             `gorm:"not null" json:"initial_quantity"`
	RemainingQuantity int             `gorm:"not null" json:"remaining_quantity"`
	TransactionID     *uint           `gorm:"index" json:"transaction_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName overrides the default table name
func (ItemBatch) TableName() string {
	return "item_batches"
}

// IsDepleted reports whether the batch has no stock left
func (b *ItemBatch) IsDepleted() bool {
	return b.RemainingQuantity <= 0
}

// Consumption records how much stock a depletion took from one batch
type Consumption struct {
	Batch    *ItemBatch `json:"batch"`
	Quantity int        `json:"quantity"`
}
