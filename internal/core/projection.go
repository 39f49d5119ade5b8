package core

import (
	"fmt"
	"math"
)

// DefaultAnnualReturn is the assumed yearly investment return used when
// projecting what redirected spending could grow into.
const DefaultAnnualReturn = 0.07

// OpportunityItem pairs a reference purchase with its price. The table is
// ordered ascending by amount.
type OpportunityItem struct {
	Label  string
	Amount Money
}

// OpportunityCosts is the fixed ladder of reference purchases used to
// translate an abstract amount into something concrete.
var OpportunityCosts = []OpportunityItem{
	{Label: "Cup of coffee", Amount: Money{Cents: 500}},
	{Label: "Nice dinner out", Amount: Money{Cents: 5_000}},
	{Label: "Weekend getaway", Amount: Money{Cents: 50_000}},
	{Label: "New iPhone", Amount: Money{Cents: 100_000}},
	{Label: "Vacation", Amount: Money{Cents: 250_000}},
	{Label: "Used car", Amount: Money{Cents: 1_000_000}},
	{Label: "Down payment on house", Amount: Money{Cents: 5_000_000}},
}

// ProjectLinear extrapolates a monthly spending amount over the given
// number of months. Exact: no rounding is involved.
func ProjectLinear(monthly Money, months int) Money {
	return Money{Cents: monthly.Cents * int64(months)}
}

// ProjectWithGrowth computes the future value of contributing the monthly
// amount at month-end for the given number of months under compound
// monthly growth (ordinary annuity):
//
//	FV = PMT * ((1 + r)^n - 1) / r, r = annualReturn / 12
//
// A zero rate degrades to the linear projection. Non-finite rates are
// rejected rather than letting NaN propagate into results.
func ProjectWithGrowth(monthly Money, months int, annualReturn float64) (Money, error) {
	if math.IsNaN(annualReturn) || math.IsInf(annualReturn, 0) {
		return Money{}, ErrNonFiniteRate
	}
	monthlyRate := annualReturn / 12
	if monthlyRate == 0 {
		return ProjectLinear(monthly, months), nil
	}
	fv := float64(monthly.Cents) * ((math.Pow(1+monthlyRate, float64(months)) - 1) / monthlyRate)
	return Money{Cents: int64(math.Round(fv))}, nil
}

// OpportunityCost maps an amount to its largest affordable reference
// purchase: the table is scanned from the most expensive entry downward
// and the first one the amount covers wins. The result reads like
// "2 Cup of coffees". Returns false when the amount is below every
// threshold.
func OpportunityCost(amount Money) (string, bool) {
	for i := len(OpportunityCosts) - 1; i >= 0; i-- {
		item := OpportunityCosts[i]
		if amount.Cents >= item.Amount.Cents {
			count := amount.Cents / item.Amount.Cents
			suffix := ""
			if count > 1 {
				suffix = "s"
			}
			return fmt.Sprintf("%d %s%s", count, item.Label, suffix), true
		}
	}
	return "", false
}
