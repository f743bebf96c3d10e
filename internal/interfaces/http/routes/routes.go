// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/distribution-backend/internal/config"
	"github.com/your-org/distribution-backend/internal/interfaces/http/handlers"
	"github.com/your-org/distribution-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupAuthRoutes(rg, db, redisClient, cfg)
	SetupCatalogRoutes(rg, db, redisClient, cfg)
	SetupPricingRoutes(rg, db, redisClient, cfg)
	SetupTransactionRoutes(rg, db, redisClient, cfg)
	SetupAdminRoutes(rg, db, redisClient, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/me", authHandler.Me)
		}
	}
}

// SetupCatalogRoutes sets up brand, customer and item routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, redisClient, cfg)

	brands := rg.Group("/brands")
	brands.Use(middleware.AuthMiddleware(cfg))
	{
		brands.GET("", catalogHandler.GetBrands)
		brands.GET("/:id", catalogHandler.GetBrand)
		brands.GET("/:id/items", catalogHandler.GetBrandItems)
	}

	customers := rg.Group("/customers")
	customers.Use(middleware.AuthMiddleware(cfg))
	{
		customers.GET("", catalogHandler.GetCustomers)
		customers.GET("/:id", catalogHandler.GetCustomer)
		customers.POST("", catalogHandler.CreateCustomer)
	}

	items := rg.Group("/items")
	items.Use(middleware.AuthMiddleware(cfg))
	{
		items.GET("", catalogHandler.GetItems)
		items.GET("/:id", catalogHandler.GetItem)
		items.GET("/:id/batches", catalogHandler.GetItemBatches)
		items.GET("/:id/available", catalogHandler.GetItemAvailability)
	}
}

// SetupPricingRoutes sets up pricing lookup routes
func SetupPricingRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	pricingHandler := handlers.NewPricingHandler(db, cfg)

	pricing := rg.Group("/pricing")
	pricing.Use(middleware.AuthMiddleware(cfg))
	{
		pricing.GET("/tiers", pricingHandler.GetTiers)
		pricing.GET("/quote", pricingHandler.GetQuote)
		pricing.GET("/special-discounts/:itemId", pricingHandler.GetSpecialDiscounts)
	}
}

// SetupTransactionRoutes sets up stock transaction routes
func SetupTransactionRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	transactionHandler := handlers.NewTransactionHandler(db, redisClient, cfg)

	transactions := rg.Group("/transactions")
	transactions.Use(middleware.AuthMiddleware(cfg))
	{
		transactions.POST("/incoming", transactionHandler.RecordIncoming)
		transactions.POST("/outgoing", transactionHandler.RecordOutgoing)
		transactions.POST("/adjustment", transactionHandler.RecordAdjustment)
		transactions.GET("", transactionHandler.GetTransactions)
		transactions.GET("/:id", transactionHandler.GetTransaction)
		transactions.PATCH("/:id/flags", transactionHandler.UpdateCompletionFlags)
	}
}

// SetupAdminRoutes sets up admin-only management routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, redisClient, cfg)
	pricingHandler := handlers.NewPricingHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		// Account management
		admin.POST("/accounts", authHandler.CreateAccount)
		admin.GET("/accounts", authHandler.GetAccounts)

		// Catalog management
		admin.POST("/brands", catalogHandler.CreateBrand)
		admin.DELETE("/brands/:id", catalogHandler.ArchiveBrand)
		admin.POST("/items", catalogHandler.CreateItem)

		// Pricing configuration
		admin.POST("/pricing/assignments", pricingHandler.AssignTier)
		admin.POST("/pricing/item-prices", pricingHandler.SetItemTierPrice)
		admin.POST("/pricing/special-discounts", pricingHandler.SetSpecialDiscount)
		admin.GET("/pricing/audit/:itemId", pricingHandler.AuditItemPrices)
	}
}
