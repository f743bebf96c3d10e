// internal/domain/pricing/service.go
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

var (
	// ErrNoTierAssigned indicates the customer has no tier assignment for
	// the item's brand
	ErrNoTierAssigned = errors.New("no pricing tier assigned")

	// ErrNoPriceAtTier indicates the item has no list price at the resolved
	// tier
	ErrNoPriceAtTier = errors.New("no price at tier")

	// ErrTierNotAllowed indicates a seller restriction violation
	ErrTierNotAllowed = errors.New("tier not allowed for seller")

	// ErrInvalidDiscount indicates a special discount that is not a price
	// reduction
	ErrInvalidDiscount = errors.New("special discount must not be positive")
)

// Quote is the complete derivation of a resolved sell price
type Quote struct {
	CustomerID         uint            `json:"customer_id"`
	ItemID             uint            `json:"item_id"`
	Tier               Tier            `json:"tier"`
	BasePrice          decimal.Decimal `json:"base_price"`
	Discount           decimal.Decimal `json:"discount"`
	FinalPrice         decimal.Decimal `json:"final_price"`
	HasSpecialDiscount bool            `json:"has_special_discount"`
	TierOverride       bool            `json:"tier_override"`
}

// Violation is a tier-price consistency breach on one item: a more
// favorable tier's list price exceeding a less favorable tier's
type Violation struct {
	ItemID         uint            `json:"item_id"`
	FavorableTier  Tier            `json:"favorable_tier"`
	FavorablePrice decimal.Decimal `json:"favorable_price"`
	HigherTier     Tier            `json:"higher_tier"`
	HigherPrice    decimal.Decimal `json:"higher_price"`
}

// Service resolves sell prices from the layered tier model. All resolution
// paths are pure lookups: safe to call repeatedly, never mutating.
type Service struct {
	db *gorm.DB
}

// NewService creates a new pricing service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
	}
}

// WithTx returns a copy of the service that reads through the given
// transaction, so resolution sees the transaction's snapshot
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{db: tx}
}

// Resolve determines the sell price for a (customer, item) pair:
// tier assignment for the item's brand, list price at that tier, then an
// optional special discount.
func (s *Service) Resolve(customerID, itemID uint) (*Quote, error) {
	var item catalog.Item
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", itemID, catalog.ErrUnknownReference)
		}
		return nil, fmt.Errorf("failed to retrieve item: %w", err)
	}

	var assignment CustomerBrandTier
	if err := s.db.Where("customer_id = ? AND brand_id = ?", customerID, item.BrandID).
		First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d, brand %d: %w", customerID, item.BrandID, ErrNoTierAssigned)
		}
		return nil, fmt.Errorf("failed to retrieve tier assignment: %w", err)
	}

	return s.quoteAtTier(customerID, itemID, assignment.Tier, false)
}

// ResolveForSeller resolves a price under a seller's tier restrictions.
// With a requested tier, that tier must be among the seller's allowed tiers
// and the price is taken directly from it, bypassing the customer's
// assignment. Without one, the customer's assigned tier itself must be
// allowed.
func (s *Service) ResolveForSeller(customerID, itemID uint, allowedTiers []Tier, requestedTier Tier) (*Quote, error) {
	if requestedTier != "" {
		if !requestedTier.IsValid() {
			return nil, fmt.Errorf("unknown tier %q", requestedTier)
		}
		if !ContainsTier(allowedTiers, requestedTier) {
			return nil, fmt.Errorf("tier %s: %w", requestedTier, ErrTierNotAllowed)
		}
		return s.quoteAtTier(customerID, itemID, requestedTier, true)
	}

	quote, err := s.Resolve(customerID, itemID)
	if err != nil {
		return nil, err
	}
	if !ContainsTier(allowedTiers, quote.Tier) {
		return nil, fmt.Errorf("customer's assigned tier %s: %w", quote.Tier, ErrTierNotAllowed)
	}
	return quote, nil
}

func (s *Service) quoteAtTier(customerID, itemID uint, tier Tier, override bool) (*Quote, error) {
	var tierPrice ItemTierPrice
	if err := s.db.Where("item_id = ? AND tier = ?", itemID, tier).
		First(&tierPrice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d at tier %s: %w", itemID, tier, ErrNoPriceAtTier)
		}
		return nil, fmt.Errorf("failed to retrieve tier price: %w", err)
	}

	quote := &Quote{
		CustomerID:   customerID,
		ItemID:       itemID,
		Tier:         tier,
		BasePrice:    tierPrice.Price,
		Discount:     decimal.Zero,
		FinalPrice:   tierPrice.Price,
		TierOverride: override,
	}

	var special CustomerSpecialDiscount
	err := s.db.Where("customer_id = ? AND item_id = ?", customerID, itemID).
		First(&special).Error
	if err == nil {
		quote.HasSpecialDiscount = true
		quote.Discount = special.Discount
		quote.FinalPrice = tierPrice.Price.Add(special.Discount)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve special discount: %w", err)
	}

	return quote, nil
}

// PriceAtTier returns an item's list price at a specific tier
func (s *Service) PriceAtTier(itemID uint, tier Tier) (decimal.Decimal, error) {
	var tierPrice ItemTierPrice
	if err := s.db.Where("item_id = ? AND tier = ?", itemID, tier).
		First(&tierPrice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, fmt.Errorf("item %d at tier %s: %w", itemID, tier, ErrNoPriceAtTier)
		}
		return decimal.Zero, fmt.Errorf("failed to retrieve tier price: %w", err)
	}
	return tierPrice.Price, nil
}

// AuditTierPrices checks one item's list prices against the hierarchy:
// walking from the most favorable tier to the least favorable, prices must
// never decrease. Violations are reported, never auto-corrected.
func (s *Service) AuditTierPrices(itemID uint) ([]Violation, error) {
	var prices []ItemTierPrice
	if err := s.db.Where("item_id = ?", itemID).Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tier prices: %w", err)
	}

	byTier := make(map[Tier]decimal.Decimal, len(prices))
	for _, p := range prices {
		byTier[p.Tier] = p.Price
	}

	var violations []Violation
	for i, favorable := range TierOrder {
		favorablePrice, ok := byTier[favorable]
		if !ok {
			continue
		}
		for _, higher := range TierOrder[i+1:] {
			higherPrice, ok := byTier[higher]
			if !ok {
				continue
			}
			if favorablePrice.GreaterThan(higherPrice) {
				violations = append(violations, Violation{
					ItemID:        itemID,
					FavorableTier: favorable,
					FavorablePrice: favorablePrice,
					HigherTier:    higher,
					HigherPrice:   higherPrice,
				})
			}
		}
	}

	return violations, nil
}

// CONFIGURATION

// AssignTierRequest represents a customer-brand tier assignment
type AssignTierRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	BrandID    uint `json:"brand_id" binding:"required"`
	Tier       Tier `json:"tier" binding:"required"`
}

// SetItemTierPriceRequest represents an item price at one tier
type SetItemTierPriceRequest struct {
	ItemID uint            `json:"item_id" binding:"required"`
	Tier   Tier            `json:"tier" binding:"required"`
	Price  decimal.Decimal `json:"price" binding:"required"`
}

// SetSpecialDiscountRequest represents a per-customer-per-item discount
type SetSpecialDiscountRequest struct {
	CustomerID uint            `json:"customer_id" binding:"required"`
	ItemID     uint            `json:"item_id" binding:"required"`
	Discount   decimal.Decimal `json:"discount" binding:"required"`
}

// AssignTier creates or updates the tier assignment for a customer and brand
func (s *Service) AssignTier(req *AssignTierRequest) (*CustomerBrandTier, error) {
	if !req.Tier.IsValid() {
		return nil, fmt.Errorf("unknown tier %q", req.Tier)
	}

	var assignment CustomerBrandTier
	err := s.db.Where("customer_id = ? AND brand_id = ?", req.CustomerID, req.BrandID).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		assignment = CustomerBrandTier{
			CustomerID: req.CustomerID,
			BrandID:    req.BrandID,
			Tier:       req.Tier,
		}
		if err := s.db.Create(&assignment).Error; err != nil {
			return nil, fmt.Errorf("failed to create tier assignment: %w", err)
		}
		return &assignment, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to check tier assignment: %w", err)
	}

	assignment.Tier = req.Tier
	if err := s.db.Save(&assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to update tier assignment: %w", err)
	}
	return &assignment, nil
}

// SetItemTierPrice creates or updates an item's list price at one tier
func (s *Service) SetItemTierPrice(req *SetItemTierPriceRequest) (*ItemTierPrice, error) {
	if !req.Tier.IsValid() {
		return nil, fmt.Errorf("unknown tier %q", req.Tier)
	}

	var price ItemTierPrice
	err := s.db.Where("item_id = ? AND tier = ?", req.ItemID, req.Tier).
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		price = ItemTierPrice{
			ItemID: req.ItemID,
			Tier:   req.Tier,
			Price:  req.Price,
		}
		if err := s.db.Create(&price).Error; err != nil {
			return nil, fmt.Errorf("failed to create tier price: %w", err)
		}
		return &price, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to check tier price: %w", err)
	}

	price.Price = req.Price
	if err := s.db.Save(&price).Error; err != nil {
		return nil, fmt.Errorf("failed to update tier price: %w", err)
	}
	return &price, nil
}

// SetSpecialDiscount creates or updates a customer's special discount on an
// item. The discount must be a price reduction (<= 0).
func (s *Service) SetSpecialDiscount(req *SetSpecialDiscountRequest, createdBy uint) (*CustomerSpecialDiscount, error) {
	if req.Discount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("discount %s: %w", req.Discount, ErrInvalidDiscount)
	}

	author := createdBy
	var discount CustomerSpecialDiscount
	err := s.db.Where("customer_id = ? AND item_id = ?", req.CustomerID, req.ItemID).
		First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		discount = CustomerSpecialDiscount{
			CustomerID: req.CustomerID,
			ItemID:     req.ItemID,
			Discount:   req.Discount,
			CreatedBy:  &author,
		}
		if err := s.db.Create(&discount).Error; err != nil {
			return nil, fmt.Errorf("failed to create special discount: %w", err)
		}
		return &discount, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to check special discount: %w", err)
	}

	discount.Discount = req.Discount
	discount.CreatedBy = &author
	if err := s.db.Save(&discount).Error; err != nil {
		return nil, fmt.Errorf("failed to update special discount: %w", err)
	}
	return &discount, nil
}

// GetSpecialDiscounts returns all special discounts for an item
func (s *Service) GetSpecialDiscounts(itemID uint) ([]CustomerSpecialDiscount, error) {
	var discounts []CustomerSpecialDiscount
	if err := s.db.Where("item_id = ?", itemID).Find(&discounts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve special discounts: %w", err)
	}
	return discounts, nil
}
