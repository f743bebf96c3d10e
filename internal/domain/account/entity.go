// internal/domain/account/entity.go
package account

import (
	"strings"
	"time"

	"github.com/your-org/distribution-backend/internal/domain/pricing"
)

// Role determines what an account may do
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// Account represents a staff login. Sellers carry a cost tier: when set,
// the seller may only sell at tiers strictly below it in the hierarchy.
type Account struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"uniqueIndex;not null;size:100" json:"username"`
	PasswordHash string       `gorm:"not null;size:255" json:"-"`
	Role         Role         `gorm:"size:20;not null;default:'seller'" json:"role"`
	CostTier     pricing.Tier `gorm:"size:10" json:"cost_tier,omitempty"`
	IsActive     bool         `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName overrides the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// IsAdmin reports whether the account has administrative privileges
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AllowedSellingTiers returns the tiers this account may sell at. Admins
// and accounts without a cost tier are unrestricted (nil slice).
func (a *Account) AllowedSellingTiers() []pricing.Tier {
	if a.IsAdmin() {
		return nil
	}
	return pricing.AllowedSellingTiers(a.CostTier)
}

// NormalizeUsername lowercases and trims a username for lookup
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
