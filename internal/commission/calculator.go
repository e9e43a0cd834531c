package commission

import (
	"fmt"
	"math"

	"github.com/reefdesk/reefdesk/internal/shared"
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Base returns the commissionable portion of the invoice under the agent's
// term. Equipment lines are excluded when the term says so; manual lines are
// included only when the term opts in.
func Base(items []Item, term AgentCommercialTerm) float64 {
	var base float64
	for _, it := range items {
		if term.ExcludeEquipmentFromCommission && it.IsEquipment {
			continue
		}
		if it.IsManual() && !term.IncludeManualItemsInCommission {
			continue
		}
		base += it.Total
	}
	return round2(base)
}

// Calculate derives the commission amount for one invoice. Fixed-amount
// terms pay the flat rate whenever any commissionable line exists.
func Calculate(items []Item, term AgentCommercialTerm) (float64, error) {
	base := Base(items, term)
	switch term.CommissionType {
	case TypePercentage:
		if term.CommissionRate < 0 {
			return 0, fmt.Errorf("%w: negative commission rate %.2f", shared.ErrConfiguration, term.CommissionRate)
		}
		return round2(base * term.CommissionRate / 100), nil
	case TypeFixedAmount:
		if base == 0 {
			return 0, nil
		}
		return round2(term.CommissionRate), nil
	default:
		return 0, fmt.Errorf("%w: unknown commission type %q", shared.ErrConfiguration, term.CommissionType)
	}
}
