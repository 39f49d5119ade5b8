package core

// Limit is a usage ceiling. Unlimited is a true sentinel: it is checked
// before any numeric comparison, never encoded as a large finite number.
type Limit int64

// Unlimited marks a ceiling that never applies.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit is the no-cap sentinel.
func (l Limit) IsUnlimited() bool {
	return l == Unlimited
}

// Allows reports whether one more unit of usage fits under the limit,
// given the current used count. The sentinel short-circuits.
func (l Limit) Allows(used int) bool {
	if l == Unlimited {
		return true
	}
	return int64(used) < int64(l)
}

// TierLimits is the static ceiling table for one subscription tier.
type TierLimits struct {
	MaxHabits             Limit
	MaxEntriesPerMonth    Limit
	MaxAIInsightsPerMonth Limit
}

var tierLimits = map[Tier]TierLimits{
	TierFree: {
		MaxHabits:             5,
		MaxEntriesPerMonth:    100,
		MaxAIInsightsPerMonth: 10,
	},
	TierPro: {
		MaxHabits:             25,
		MaxEntriesPerMonth:    Unlimited,
		MaxAIInsightsPerMonth: 100,
	},
	TierPremium: {
		MaxHabits:             Unlimited,
		MaxEntriesPerMonth:    Unlimited,
		MaxAIInsightsPerMonth: Unlimited,
	},
}

// LimitsFor returns the ceiling table for a tier. Unrecognized tiers fall
// back to the free limits; storage boundaries reject unknown tier strings
// before they get here.
func LimitsFor(tier Tier) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[TierFree]
}

// NextTier returns the tier an upgrade prompt should suggest.
func NextTier(tier Tier) Tier {
	if tier == TierFree {
		return TierPro
	}
	return TierPremium
}
