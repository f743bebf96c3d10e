// internal/domain/catalog/entity.go
package catalog

import (
	"time"
)

// VatClassification represents a brand's VAT handling for tax purposes
type VatClassification string

const (
	VatInclusive VatClassification = "VAT"
	VatExempt    VatClassification = "NON_VAT"
	VatBoth      VatClassification = "BOTH"
)

// Status marks catalog records as active or archived; archived records are
// kept for history, never deleted
type Status string

const (
	StatusActive   Status = "Active"
	StatusArchived Status = "Archived"
)

// UnitOfMeasure represents how an item is counted
type UnitOfMeasure string

const (
	UnitPiece UnitOfMeasure = "pc"
	UnitPack  UnitOfMeasure = "pack"
)

// CustomerType categorizes customers by their sales channel
type CustomerType string

const (
	CustomerInternational  CustomerType = "International"
	CustomerDistributor    CustomerType = "Distributor"
	CustomerPhysicalStore  CustomerType = "Physical Store"
	CustomerReseller       CustomerType = "Reseller"
	CustomerDirectCustomer CustomerType = "Direct Customer"
)

// Platform is the customer's preferred communication channel
type Platform string

const (
	PlatformWhatsApp      Platform = "whatsapp"
	PlatformMessenger     Platform = "messenger"
	PlatformViber         Platform = "viber"
	PlatformBusinessSuite Platform = "business_suite"
)

// Brand represents a supplier brand whose goods are distributed
type Brand struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"uniqueIndex;not null;size:100" json:"name"`
	ContactPerson     string            `gorm:"size:100" json:"contact_person"`
	MobileNumber      string            `gorm:"size:20" json:"mobile_number"`
	Email             string            `gorm:"size:100" json:"email"`
	TIN               string            `gorm:"size:20" json:"tin"`
	VatClassification VatClassification `gorm:"size:20;default:'VAT'" json:"vat_classification"`
	Status            Status            `gorm:"size:20;default:'Active'" json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Customer represents a buyer of distributed goods
type Customer struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	CompanyName   string       `gorm:"uniqueIndex;not null;size:100" json:"company_name"`
	ContactPerson string       `gorm:"size:50" json:"contact_person"`
	Address       string       `gorm:"type:text" json:"address"`
	ContactNumber string       `gorm:"size:15" json:"contact_number"`
	TIN           string       `gorm:"size:15" json:"tin"`
	CustomerType  CustomerType `gorm:"size:20" json:"customer_type"`
	Platform      Platform     `gorm:"size:20;default:'whatsapp'" json:"platform"`
	Status        Status       `gorm:"size:10;default:'Active'" json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Item represents a distributed product. Its stock is never stored on the
// item itself; quantity is always derived from the item's batches.
type Item struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	BrandID   uint          `gorm:"not null;index;uniqueIndex:idx_items_brand_name" json:"brand_id"`
	Name      string        `gorm:"not null;size:100;uniqueIndex:idx_items_brand_name" json:"name"`
	SKU       string        `gorm:"uniqueIndex;size:50" json:"sku"`
	UOM       UnitOfMeasure `gorm:"size:10;default:'pc'" json:"uom"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Relationships
	Brand Brand `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
}
