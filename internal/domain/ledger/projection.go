package ledger

import (
	"math"

	"leaveledger/internal/domain/category"
)

// Aggregate derives the reported aggregate totals from per-category balances:
// the weighted sum over aggregate-eligible categories, rounded half-up to two
// decimal places. Academic leave is excluded by eligibility.
func Aggregate(balances map[category.Category]CategoryBalance) (granted, remaining float64) {
	for cat, b := range balances {
		if !cat.CountsTowardAggregate() {
			continue
		}
		weight := cat.DayWeight()
		granted += b.Granted * weight
		remaining += b.Remaining * weight
	}
	return round2(granted), round2(remaining)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
