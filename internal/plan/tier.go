package plan

import (
	"errors"
	"strings"
)

// ErrInvalidTier is returned for values outside the known plan tiers.
var ErrInvalidTier = errors.New("plan: invalid tier")

// Tier is the subscription level of a tenant.
type Tier string

const (
	TierEssential  Tier = "essential"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists every tier in ascending capability order.
func Tiers() []Tier {
	return []Tier{TierEssential, TierPro, TierEnterprise}
}

// ParseTier normalizes and validates a tier string.
func ParseTier(value string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(value)))
	if !tier.Valid() {
		return "", ErrInvalidTier
	}
	return tier, nil
}

// Valid returns true when the tier is known.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// Rank orders tiers by capability. Unknown tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case TierEssential:
		return 1
	case TierPro:
		return 2
	case TierEnterprise:
		return 3
	default:
		return 0
	}
}

// AtLeast returns true when t satisfies the required tier.
func (t Tier) AtLeast(required Tier) bool {
	return t.Rank() >= required.Rank()
}
