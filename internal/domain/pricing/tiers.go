// internal/domain/pricing/tiers.go
package pricing

// Tier represents a rung in the distributor pricing hierarchy
type Tier string

const (
	TierRegional    Tier = "RD"     // Regional Distributor
	TierProvincial  Tier = "PD"     // Provincial Distributor
	TierDistrict    Tier = "DD"     // District Distributor
	TierCity        Tier = "CD"     // City Distributor
	TierReseller    Tier = "RS"     // Reseller
	TierSubReseller Tier = "SUB-RS" // Sub-Reseller
	TierSRP         Tier = "SRP"    // Suggested Retail Price
)

// TierOrder is the single source of truth for the tier hierarchy, ordered
// from most favorable cost to least favorable. All tier comparisons go
// through this list.
var TierOrder = []Tier{
	TierRegional,
	TierProvincial,
	TierDistrict,
	TierCity,
	TierReseller,
	TierSubReseller,
	TierSRP,
}

var tierLabels = map[Tier]string{
	TierRegional:    "Regional Distributor",
	TierProvincial:  "Provincial Distributor",
	TierDistrict:    "District Distributor",
	TierCity:        "City Distributor",
	TierReseller:    "Reseller",
	TierSubReseller: "Sub-Reseller",
	TierSRP:         "Suggested Retail Price",
}

// Rank returns the tier's position in the hierarchy (0 = most favorable),
// or -1 for an unknown tier
func (t Tier) Rank() int {
	for i, tier := range TierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// IsValid reports whether t is a known tier
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// Label returns the display name for the tier
func (t Tier) Label() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}
	return string(t)
}

// MoreFavorableThan reports whether t sits above other in the hierarchy,
// i.e. pays a lower list price
func (t Tier) MoreFavorableThan(other Tier) bool {
	tr, or := t.Rank(), other.Rank()
	return tr >= 0 && or >= 0 && tr < or
}

// AllowedSellingTiers returns the tiers an account purchasing at costTier may
// sell at: every tier strictly less favorable than its own. An empty or
// unknown cost tier places no restriction (admin accounts).
func AllowedSellingTiers(costTier Tier) []Tier {
	rank := costTier.Rank()
	if costTier == "" || rank < 0 {
		allowed := make([]Tier, len(TierOrder))
		copy(allowed, TierOrder)
		return allowed
	}

	var allowed []Tier
	for i, tier := range TierOrder {
		if i > rank {
			allowed = append(allowed, tier)
		}
	}
	return allowed
}

// ContainsTier reports whether tiers includes t
func ContainsTier(tiers []Tier, t Tier) bool {
	for _, tier := range tiers {
		if tier == t {
			return true
		}
	}
	return false
}
