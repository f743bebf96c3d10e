// internal/domain/sequence/entity.go
package sequence

import (
	"time"
)

// Counter is the dedicated counter row backing one scope. The row is the
// single arbiter of the next value for its scope: allocation increments
// last_value atomically inside the caller's transaction, so two concurrent
// allocations can never observe the same value.
type Counter struct {
	Scope     string    `gorm:"primaryKey;size:64" json:"scope"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (Counter) TableName() string {
	return "sequence_counters"
}
