// internal/domain/pricing/entity.go
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerBrandTier assigns a customer its pricing tier for one brand.
// Unique per (customer, brand) pair; it determines which tier's list price
// the customer normally pays for any item of that brand.
type CustomerBrandTier struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_customer_brand_tier" json:"customer_id"`
	BrandID    uint      `gorm:"not null;uniqueIndex:idx_customer_brand_tier" json:"brand_id"`
	Tier       Tier      `gorm:"size:10;not null" json:"tier"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (CustomerBrandTier) TableName() string {
	return "customer_brand_tiers"
}

// ItemTierPrice is an item's list price at one tier. At most one price per
// (item, tier) pair.
type ItemTierPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ItemID    uint            `gorm:"not null;uniqueIndex:idx_item_tier_price" json:"item_id"`
	Tier      Tier            `gorm:"size:10;not null;uniqueIndex:idx_item_tier_price" json:"tier"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName overrides the default table name
func (ItemTierPrice) TableName() string {
	return "item_tier_prices"
}

// CustomerSpecialDiscount is a per-customer-per-item price reduction applied
// after tier-based list pricing. The discount is always <= 0. At most one
// active override per (customer, item) pair.
type CustomerSpecialDiscount struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"not null;uniqueIndex:idx_customer_special_discount" json:"customer_id"`
	ItemID     uint            `gorm:"not null;uniqueIndex:idx_customer_special_discount" json:"item_id"`
	Discount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount"`
	CreatedBy  *uint           `gorm:"index" json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName overrides the default table name
func (CustomerSpecialDiscount) TableName() string {
	return "customer_special_discounts"
}
