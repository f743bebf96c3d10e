// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/distribution-backend/internal/domain/account"
	"github.com/your-org/distribution-backend/internal/domain/catalog"
	"github.com/your-org/distribution-backend/internal/domain/ledger"
	"github.com/your-org/distribution-backend/internal/domain/pricing"
	"github.com/your-org/distribution-backend/internal/domain/sequence"
	"github.com/your-org/distribution-backend/internal/domain/transaction"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Account domain - Base tables
		&account.Account{},

		// Catalog domain - Base tables
		&catalog.Brand{},
		&catalog.Customer{},
		&catalog.Item{},

		// Sequence counters
		&sequence.Counter{},

		// Batch ledger
		&ledger.ItemBatch{},

		// Pricing domain
		&pricing.CustomerBrandTier{},
		&pricing.ItemTierPrice{},
		&pricing.CustomerSpecialDiscount{},

		// Transaction domain - Dependent tables
		&transaction.Transaction{},
		&transaction.Line{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Account indexes
		"CREATE INDEX IF NOT EXISTS idx_accounts_role_active ON accounts(role, is_active)",

		// Catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_brands_status ON brands(status)",
		"CREATE INDEX IF NOT EXISTS idx_customers_status ON customers(status)",
		"CREATE INDEX IF NOT EXISTS idx_customers_type ON customers(customer_type)",
		"CREATE INDEX IF NOT EXISTS idx_items_brand_sku ON items(brand_id, sku)",

		// Batch ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_item_batches_remaining ON item_batches(item_id, remaining_quantity)",
		"CREATE INDEX IF NOT EXISTS idx_item_batches_transaction ON item_batches(transaction_id)",

		// Pricing indexes
		"CREATE INDEX IF NOT EXISTS idx_customer_brand_tiers_brand ON customer_brand_tiers(brand_id)",
		"CREATE INDEX IF NOT EXISTS idx_item_tier_prices_item ON item_tier_prices(item_id)",
		"CREATE INDEX IF NOT EXISTS idx_customer_special_discounts_item ON customer_special_discounts(item_id)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_type_created ON transactions(type, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_brand_created ON transactions(brand_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_flags ON transactions(is_released, is_paid, is_or_sent)",
		"CREATE INDEX IF NOT EXISTS idx_transaction_lines_transaction ON transaction_lines(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_transaction_lines_item ON transaction_lines(item_id)",
		"CREATE INDEX IF NOT EXISTS idx_transaction_lines_batch ON transaction_lines(batch_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	if err := m.seedAdminAccount(); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedAdminAccount creates the default admin account when none exists
func (m *Migration) seedAdminAccount() error {
	log.Println("👤 Seeding admin account...")

	var existing account.Account
	result := m.db.Where("username = ?", "admin").First(&existing)
	if result.Error == nil {
		log.Printf("⏭️ Admin account already exists with ID: %d", existing.ID)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin123"), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := account.Account{
		Username:     "admin",
		PasswordHash: string(hashedPassword),
		Role:         account.RoleAdmin,
		IsActive:     true,
	}

	if err := m.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	log.Println("✅ Created admin account: admin (password: admin123, change immediately)")
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Define tables in reverse dependency order
	tables := []string{
		"transaction_lines",
		"transactions",
		"customer_special_discounts",
		"item_tier_prices",
		"customer_brand_tiers",
		"item_batches",
		"sequence_counters",
		"items",
		"customers",
		"brands",
		"accounts",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	// Get list of tables
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
