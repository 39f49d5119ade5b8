package core

import "testing"

func TestLimitsFor(t *testing.T) {
	free := LimitsFor(TierFree)
	if free.MaxHabits != 5 || free.MaxEntriesPerMonth != 100 || free.MaxAIInsightsPerMonth != 10 {
		t.Fatalf("free limits = %+v", free)
	}

	pro := LimitsFor(TierPro)
	if pro.MaxHabits != 25 {
		t.Fatalf("pro habit limit = %d", pro.MaxHabits)
	}
	if !pro.MaxEntriesPerMonth.IsUnlimited() {
		t.Fatalf("pro entries should be unlimited")
	}
	if pro.MaxAIInsightsPerMonth != 100 {
		t.Fatalf("pro insight limit = %d", pro.MaxAIInsightsPerMonth)
	}

	premium := LimitsFor(TierPremium)
	if !premium.MaxHabits.IsUnlimited() || !premium.MaxEntriesPerMonth.IsUnlimited() || !premium.MaxAIInsightsPerMonth.IsUnlimited() {
		t.Fatalf("premium limits should all be unlimited: %+v", premium)
	}

	// Unknown tiers fall back to free.
	if got := LimitsFor(Tier("enterprise")); got != free {
		t.Fatalf("unknown tier limits = %+v, want free", got)
	}
}

func TestLimitAllows(t *testing.T) {
	var l Limit = 5
	if !l.Allows(0) || !l.Allows(4) {
		t.Fatalf("limit 5 should allow usage below 5")
	}
	if l.Allows(5) || l.Allows(6) {
		t.Fatalf("limit 5 should block usage at or above 5")
	}

	// The sentinel short-circuits: any finite counter is allowed.
	if !Unlimited.Allows(0) || !Unlimited.Allows(1<<31) {
		t.Fatalf("unlimited should allow any usage")
	}
}

func TestNextTier(t *testing.T) {
	if NextTier(TierFree) != TierPro {
		t.Fatalf("free should upgrade to pro")
	}
	if NextTier(TierPro) != TierPremium {
		t.Fatalf("pro should upgrade to premium")
	}
}
