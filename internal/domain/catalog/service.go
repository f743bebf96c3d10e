// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"gorm.io/gorm"
)

// ErrUnknownReference indicates a referenced brand, customer, item or batch
// does not exist
var ErrUnknownReference = errors.New("unknown reference")

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	seq    *sequence.Service
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config, seq *sequence.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		seq:    seq,
	}
}

// CreateBrandRequest represents brand creation data
type CreateBrandRequest struct {
	Name              string            `json:"name" binding:"required"`
	ContactPerson     string            `json:"contact_person"`
	MobileNumber      string            `json:"mobile_number"`
	Email             string            `json:"email"`
	TIN               string            `json:"tin"`
	VatClassification VatClassification `json:"vat_classification"`
}

// CreateCustomerRequest represents customer creation data
type CreateCustomerRequest struct {
	CompanyName   string       `json:"company_name" binding:"required"`
	ContactPerson string       `json:"contact_person" binding:"required"`
	Address       string       `json:"address" binding:"required"`
	ContactNumber string       `json:"contact_number" binding:"required"`
	TIN           string       `json:"tin"`
	CustomerType  CustomerType `json:"customer_type" binding:"required"`
	Platform      Platform     `json:"platform"`
}

// CreateItemRequest represents item creation data
type CreateItemRequest struct {
	BrandID uint          `json:"brand_id" binding:"required"`
	Name    string        `json:"name" binding:"required"`
	UOM     UnitOfMeasure `json:"uom"`
}

// BRAND MANAGEMENT

// CreateBrand creates a new brand
func (s *Service) CreateBrand(req *CreateBrandRequest) (*Brand, error) {
	var existing Brand
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("brand with name '%s' already exists", req.Name)
	}

	brand := &Brand{
		Name:              req.Name,
		ContactPerson:     req.ContactPerson,
		MobileNumber:      req.MobileNumber,
		Email:             req.Email,
		TIN:               req.TIN,
		VatClassification: req.VatClassification,
		Status:            StatusActive,
	}
	if brand.VatClassification == "" {
		brand.VatClassification = VatInclusive
	}

	if err := s.db.Create(brand).Error; err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}

	return brand, nil
}

// GetBrands retrieves all brands ordered by name
func (s *Service) GetBrands() ([]Brand, error) {
	var brands []Brand
	if err := s.db.Order("name").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve brands: %w", err)
	}
	return brands, nil
}

// GetBrand retrieves a brand by id
func (s *Service) GetBrand(id uint) (*Brand, error) {
	var brand Brand
	if err := s.db.First(&brand, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("brand %d: %w", id, ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve brand: %w", err)
	}
	return &brand, nil
}

// ArchiveBrand marks a brand as archived
func (s *Service) ArchiveBrand(id uint) error {
	brand, err := s.GetBrand(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(brand).Update("status", StatusArchived).Error; err != nil {
		return fmt.Errorf("failed to archive brand: %w", err)
	}
	return nil
}

// CUSTOMER MANAGEMENT

// CreateCustomer creates a new customer
func (s *Service) CreateCustomer(req *CreateCustomerRequest) (*Customer, error) {
	var existing Customer
	if err := s.db.Where("company_name = ?", req.CompanyName).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("customer with company name '%s' already exists", req.CompanyName)
	}

	customer := &Customer{
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
		TIN:           req.TIN,
		CustomerType:  req.CustomerType,
		Platform:      req.Platform,
		Status:        StatusActive,
	}
	if customer.Platform == "" {
		customer.Platform = PlatformWhatsApp
	}

	if err := s.db.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	return customer, nil
}

// GetCustomers retrieves all customers
func (s *Service) GetCustomers() ([]Customer, error) {
	var customers []Customer
	if err := s.db.Order("company_name").Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve customers: %w", err)
	}
	return customers, nil
}

// GetCustomer retrieves a customer by id
func (s *Service) GetCustomer(id uint) (*Customer, error) {
	var customer Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}
	return &customer, nil
}

// ITEM MANAGEMENT

// CreateItem creates a new item with a generated SKU. The code is assigned
// exactly once here and never regenerated afterwards.
func (s *Service) CreateItem(ctx context.Context, req *CreateItemRequest) (*Item, error) {
	if _, err := s.GetBrand(req.BrandID); err != nil {
		return nil, err
	}

	item := &Item{
		BrandID: req.BrandID,
		Name:    req.Name,
		UOM:     req.UOM,
	}
	if item.UOM == "" {
		item.UOM = UnitPiece
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sku, err := s.seq.NextItemCode(ctx, tx, req.BrandID)
		if err != nil {
			return err
		}
		item.SKU = sku

		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// GetItems retrieves all items with their brand
func (s *Service) GetItems() ([]Item, error) {
	var items []Item
	if err := s.db.Preload("Brand").Order("sku").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve items: %w", err)
	}
	return items, nil
}

// GetItem retrieves an item by id
func (s *Service) GetItem(id uint) (*Item, error) {
	var item Item
	if err := s.db.Preload("Brand").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve item: %w", err)
	}
	return &item, nil
}

// GetItemsByBrand retrieves all items belonging to a brand
func (s *Service) GetItemsByBrand(brandID uint) ([]Item, error) {
	var items []Item
	if err := s.db.Where("brand_id = ?", brandID).Order("sku").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve items: %w", err)
	}
	return items, nil
}
