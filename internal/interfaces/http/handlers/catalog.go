// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/pkg/lock"
	"gorm.io/gorm"
)

// CatalogHandler handles brand, customer and item endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	ledgerService  *ledger.Service
	config         *config.Config
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CatalogHandler {
	locker := lock.NewLocker(redisClient, cfg.Security.LockTTL)
	seq := sequence.NewService(locker)
	return &CatalogHandler{
		catalogService: catalog.NewService(db, cfg, seq),
		ledgerService:  ledger.NewService(db, seq),
		config:         cfg,
	}
}

// BRAND ENDPOINTS

// CreateBrand handles POST /admin/brands
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req catalog.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	brand, err := h.catalogService.CreateBrand(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Brand created successfully",
		"data":    brand,
	})
}

// GetBrands handles GET /brands
func (h *CatalogHandler) GetBrands(c *gin.Context) {
	brands, err := h.catalogService.GetBrands()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve brands",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Brands retrieved successfully",
		"data":    brands,
	})
}

// GetBrand handles GET /brands/:id
func (h *CatalogHandler) GetBrand(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	brand, err := h.catalogService.GetBrand(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Brand retrieved successfully",
		"data":    brand,
	})
}

// ArchiveBrand handles DELETE /admin/brands/:id
func (h *CatalogHandler) ArchiveBrand(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.ArchiveBrand(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Brand archived successfully",
	})
}

// GetBrandItems handles GET /brands/:id/items
func (h *CatalogHandler) GetBrandItems(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.catalogService.GetItemsByBrand(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items retrieved successfully",
		"data":    items,
	})
}

// CUSTOMER ENDPOINTS

// CreateCustomer handles POST /customers
func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req catalog.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	customer, err := h.catalogService.CreateCustomer(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Customer created successfully",
		"data":    customer,
	})
}

// GetCustomers handles GET /customers
func (h *CatalogHandler) GetCustomers(c *gin.Context) {
	customers, err := h.catalogService.GetCustomers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve customers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customers retrieved successfully",
		"data":    customers,
	})
}

// GetCustomer handles GET /customers/:id
func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.catalogService.GetCustomer(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer retrieved successfully",
		"data":    customer,
	})
}

// ITEM ENDPOINTS

// CreateItem handles POST /admin/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req catalog.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalogService.CreateItem(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item created successfully",
		"data":    item,
	})
}

// GetItems handles GET /items
func (h *CatalogHandler) GetItems(c *gin.Context) {
	items, err := h.catalogService.GetItems()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items retrieved successfully",
		"data":    items,
	})
}

// GetItem handles GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.catalogService.GetItem(id)
	if err != nil {
		respondError(c, err)
		return
	}

	available, err := h.ledgerService.AvailableQuantity(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item retrieved successfully",
		"data": gin.H{
			"item":               item,
			"available_quantity": available,
		},
	})
}

// GetItemBatches handles GET /items/:id/batches
func (h *CatalogHandler) GetItemBatches(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.catalogService.GetItem(id); err != nil {
		respondError(c, err)
		return
	}

	batches, err := h.ledgerService.ListBatches(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batches retrieved successfully",
		"data":    batches,
	})
}

// GetItemAvailability handles GET /items/:id/available
func (h *CatalogHandler) GetItemAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.catalogService.GetItem(id); err != nil {
		respondError(c, err)
		return
	}

	available, err := h.ledgerService.AvailableQuantity(id)
	if err != nil {
		respondError(c, err)
		return
	}

	activeBatches, err := h.ledgerService.ActiveBatchCount(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Availability retrieved successfully",
		"data": gin.H{
			"item_id":            id,
			"available_quantity": available,
			"active_batches":     activeBatches,
		},
	})
}
