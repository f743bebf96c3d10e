// internal/domain/transaction/entity.go
package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
)

// Type classifies a transaction by its effect on the batch ledger
type Type string

const (
	// TypeIncoming adds stock received from a brand; every line creates a batch
	TypeIncoming Type = "INCOMING"
	// TypeOutgoing sells stock to a customer; every line depletes a batch
	TypeOutgoing Type = "OUTGOING"
	// TypeAdjustment corrects stock manually, with no counterparty
	TypeAdjustment Type = "ADJUSTMENT"
)

// Transaction is a typed stock event. It is the unit of atomicity: all its
// lines and the ledger mutations they cause commit or abort together. The
// reference number is assigned exactly once, at commit.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Type            Type            `gorm:"size:20;not null;index" json:"type"`
	ReferenceNumber string          `gorm:"uniqueIndex;not null;size:20" json:"reference_number"`
	BrandID         uint            `gorm:"not null;index" json:"brand_id"`
	CustomerID      *uint           `gorm:"index" json:"customer_id,omitempty"`
	AccountID       *uint           `gorm:"index" json:"account_id,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	IsReleased      bool            `gorm:"default:false" json:"is_released"`
	IsPaid          bool            `gorm:"default:false" json:"is_paid"`
	IsOrSent        bool            `gorm:"default:false" json:"is_or_sent"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relationships
	Brand    catalog.Brand     `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Customer *catalog.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines    []Line            `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"lines"`
}

// TableName overrides the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// IsCompleted derives the completion state of an outgoing transaction: goods
// released, payment received and official receipt sent. Never stored, so it
// cannot drift from the flags. Non-outgoing transactions are complete on
// creation.
func (t *Transaction) IsCompleted() bool {
	if t.Type != TypeOutgoing {
		return true
	}
	return t.IsReleased && t.IsPaid && t.IsOrSent
}

// Line is one item movement within a transaction. Outgoing lines always
// reference the specific batch consumed; when a FIFO depletion spans several
// batches, the movement is recorded as one line per batch.
type Line struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID uint            `gorm:"not null;index" json:"transaction_id"`
	ItemID        uint            `gorm:"not null;index" json:"item_id"`
	BatchID       *uint           `gorm:"index" json:"batch_id,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	PricingTier   pricing.Tier    `gorm:"size:10" json:"pricing_tier,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	// Relationships
	Item catalog.Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName overrides the table name for Line
func (Line) TableName() string {
	return "transaction_lines"
}

// RejectionError reports why a transaction was rejected and which request
// line caused it. No ledger mutation from any line survives a rejection.
type RejectionError struct {
	Line int
	Err  error
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	return fmt.Sprintf("transaction rejected at line %d: %v", e.Line, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *RejectionError) Unwrap() error {
	return e.Err
}

func rejectLine(line int, err error) error {
	return &RejectionError{Line: line, Err: err}
}
