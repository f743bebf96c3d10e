// internal/interfaces/http/handlers/pricing.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PricingHandler handles tier, price and discount endpoints
type PricingHandler struct {
	pricingService *pricing.Service
	config         *config.Config
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(db *gorm.DB, cfg *config.Config) *PricingHandler {
	return &PricingHandler{
		pricingService: pricing.NewService(db),
		config:         cfg,
	}
}

// GetTiers handles GET /pricing/tiers
func (h *PricingHandler) GetTiers(c *gin.Context) {
	tiers := make([]gin.H, 0, len(pricing.TierOrder))
	for _, tier := range pricing.TierOrder {
		tiers = append(tiers, gin.H{
			"code":  tier,
			"label": tier.Label(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tiers retrieved successfully",
		"data":    tiers,
	})
}

// AssignTier handles POST /admin/pricing/assignments
func (h *PricingHandler) AssignTier(c *gin.Context) {
	var req pricing.AssignTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	assignment, err := h.pricingService.AssignTier(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tier assigned successfully",
		"data":    assignment,
	})
}

// SetItemTierPrice handles POST /admin/pricing/item-prices
func (h *PricingHandler) SetItemTierPrice(c *gin.Context) {
	var req pricing.SetItemTierPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	price, err := h.pricingService.SetItemTierPrice(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tier price set successfully",
		"data":    price,
	})
}

// SetSpecialDiscount handles POST /admin/pricing/special-discounts
func (h *PricingHandler) SetSpecialDiscount(c *gin.Context) {
	var req pricing.SetSpecialDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	accountID, _ := middleware.GetAccountIDFromContext(c)
	discount, err := h.pricingService.SetSpecialDiscount(&req, accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Special discount set successfully",
		"data":    discount,
	})
}

// GetSpecialDiscounts handles GET /pricing/special-discounts/:itemId
func (h *PricingHandler) GetSpecialDiscounts(c *gin.Context) {
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	discounts, err := h.pricingService.GetSpecialDiscounts(itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Special discounts retrieved successfully",
		"data":    discounts,
	})
}

// GetQuote handles GET /pricing/quote?customer_id=&item_id=&tier=
func (h *PricingHandler) GetQuote(c *gin.Context) {
	customerID, err := strconv.ParseUint(c.Query("customer_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id"})
		return
	}
	itemID, err := strconv.ParseUint(c.Query("item_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item_id"})
		return
	}

	requestedTier := pricing.Tier(c.Query("tier"))

	var quote *pricing.Quote
	if requestedTier != "" || !middleware.IsAdminFromContext(c) {
		allowed := middleware.GetAllowedTiersFromContext(c)
		quote, err = h.pricingService.ResolveForSeller(uint(customerID), uint(itemID), allowed, requestedTier)
	} else {
		quote, err = h.pricingService.Resolve(uint(customerID), uint(itemID))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Price resolved successfully",
		"data":    quote,
	})
}

// AuditItemPrices handles GET /admin/pricing/audit/:itemId
func (h *PricingHandler) AuditItemPrices(c *gin.Context) {
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	violations, err := h.pricingService.AuditTierPrices(itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Audit completed successfully",
		"data": gin.H{
			"item_id":    itemID,
			"violations": violations,
			"consistent": len(violations) == 0,
		},
	})
}
