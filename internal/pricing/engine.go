package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// tierCandidate is one tier with its computed price for a given dive count.
type tierCandidate struct {
	tier  PriceTier
	price float64
}

// itemCandidate is one item with its resolved result for a given query.
type itemCandidate struct {
	item   PriceListItem
	result PriceResult
}

// ResolvePrice resolves one price for an (item, dive-count, date, customer
// type) query. Overlapping tiers are settled by the first active
// OVERLAP_HANDLING rule whose condition matches the item's service type and
// the query date; without a configured rule the engine falls back to
// APPLY_HIGHEST_PRIORITY and records a warning.
func ResolvePrice(item PriceListItem, rules []PricingRule, q Query) (PriceResult, error) {
	if err := checkApplicable(item, q.AsOf, q.CustomerType); err != nil {
		return PriceResult{}, err
	}

	switch item.PricingModel {
	case ModelSingle:
		return PriceResult{UnitPrice: round2(item.BasePrice), SourceItemID: item.ID}, nil

	case ModelRange:
		if q.DiveCount < item.MinDives || q.DiveCount > item.MaxDives {
			return PriceResult{}, fmt.Errorf("item %d: dive count %d outside [%d,%d]: %w",
				item.ID, q.DiveCount, item.MinDives, item.MaxDives, shared.ErrPriceNotApplicable)
		}
		return PriceResult{UnitPrice: round2(item.BasePrice), SourceItemID: item.ID}, nil

	case ModelTiered:
		return resolveTiered(item, rules, q)
	}

	return PriceResult{}, fmt.Errorf("item %d: unknown pricing model %q: %w",
		item.ID, item.PricingModel, shared.ErrConfiguration)
}

func resolveTiered(item PriceListItem, rules []PricingRule, q Query) (PriceResult, error) {
	var candidates []tierCandidate
	for _, tier := range item.Tiers {
		if !tier.IsActive || !tier.Contains(q.DiveCount) {
			continue
		}
		candidates = append(candidates, tierCandidate{tier: tier, price: tierPrice(tier, q.DiveCount)})
	}

	if len(candidates) == 0 {
		return PriceResult{}, fmt.Errorf("item %d: no tier covers %d dives: %w",
			item.ID, q.DiveCount, shared.ErrPriceNotApplicable)
	}

	if len(candidates) == 1 {
		c := candidates[0]
		return PriceResult{UnitPrice: round2(c.price), SourceItemID: item.ID, SourceTierID: &c.tier.ID}, nil
	}

	action, warnings := overlapAction(rules, item.ServiceType, q.AsOf)
	switch action {
	case ActionApplyLowest:
		c := lowestTier(candidates)
		return PriceResult{UnitPrice: round2(c.price), SourceItemID: item.ID, SourceTierID: &c.tier.ID, Warnings: warnings}, nil

	case ActionReject:
		return PriceResult{}, fmt.Errorf("item %d: %d tiers cover %d dives: %w",
			item.ID, len(candidates), q.DiveCount, shared.ErrOverlapConflict)

	case ActionWarn:
		warnings = append(warnings, fmt.Sprintf("item %d: %d overlapping tiers at %d dives, picked by priority",
			item.ID, len(candidates), q.DiveCount))
		fallthrough

	default: // ActionApplyHighestPriority
		c := highestPriorityTier(candidates)
		return PriceResult{UnitPrice: round2(c.price), SourceItemID: item.ID, SourceTierID: &c.tier.ID, Warnings: warnings}, nil
	}
}

// ResolveAcrossItems settles item-level RANGE overlap for items of one
// service type: every applicable item is resolved independently and the
// overlap-handling rule picks among the successful candidates, using item
// priority and id as tie-breaks.
func ResolveAcrossItems(items []PriceListItem, rules []PricingRule, q Query) (PriceResult, error) {
	var (
		candidates  []itemCandidate
		serviceType string
		lastErr     error
	)
	for _, item := range items {
		res, err := ResolvePrice(item, rules, q)
		if err != nil {
			lastErr = err
			continue
		}
		serviceType = item.ServiceType
		candidates = append(candidates, itemCandidate{item: item, result: res})
	}

	if len(candidates) == 0 {
		if lastErr != nil {
			return PriceResult{}, lastErr
		}
		return PriceResult{}, fmt.Errorf("no items supplied: %w", shared.ErrPriceNotApplicable)
	}
	if len(candidates) == 1 {
		return candidates[0].result, nil
	}

	action, warnings := overlapAction(rules, serviceType, q.AsOf)
	switch action {
	case ActionApplyLowest:
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.result.UnitPrice < best.result.UnitPrice {
				best = c
			}
		}
		best.result.Warnings = append(best.result.Warnings, warnings...)
		return best.result, nil

	case ActionReject:
		return PriceResult{}, fmt.Errorf("%d items of service %q price %d dives: %w",
			len(candidates), serviceType, q.DiveCount, shared.ErrOverlapConflict)

	case ActionWarn:
		warnings = append(warnings, fmt.Sprintf("%d overlapping items for service %q, picked by priority",
			len(candidates), serviceType))
		fallthrough

	default:
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].item.Priority != candidates[j].item.Priority {
				return candidates[i].item.Priority > candidates[j].item.Priority
			}
			return candidates[i].item.ID < candidates[j].item.ID
		})
		best := candidates[0]
		best.result.Warnings = append(best.result.Warnings, warnings...)
		return best.result, nil
	}
}

// ValidateTierBounds rejects inverted bands. Called on every tier write.
func ValidateTierBounds(fromDives, toDives int) error {
	if fromDives > toDives {
		return fmt.Errorf("tier bounds [%d,%d] inverted: %w", fromDives, toDives, shared.ErrConfiguration)
	}
	return nil
}

func checkApplicable(item PriceListItem, asOf time.Time, customerType booking.CustomerType) error {
	if !item.IsActive {
		return fmt.Errorf("item %d inactive: %w", item.ID, shared.ErrPriceNotApplicable)
	}
	if item.ValidFrom != nil && asOf.Before(*item.ValidFrom) {
		return fmt.Errorf("item %d not yet valid: %w", item.ID, shared.ErrPriceNotApplicable)
	}
	if item.ValidUntil != nil && asOf.After(*item.ValidUntil) {
		return fmt.Errorf("item %d expired: %w", item.ID, shared.ErrPriceNotApplicable)
	}
	if item.ApplicableTo != booking.CustomerTypeAll && customerType != item.ApplicableTo {
		return fmt.Errorf("item %d not applicable to %s: %w", item.ID, customerType, shared.ErrPriceNotApplicable)
	}
	return nil
}

// overlapAction finds the governing overlap rule. Rules arrive in SortOrder;
// the first active match wins. A missing rule falls back to
// APPLY_HIGHEST_PRIORITY with a warning so the gap is visible to callers.
func overlapAction(rules []PricingRule, serviceType string, asOf time.Time) (RuleAction, []string) {
	for _, rule := range rules {
		if !rule.IsActive || rule.RuleType != RuleTypeOverlapHandling {
			continue
		}
		if rule.Condition.Matches(serviceType, asOf) {
			return rule.Action, nil
		}
	}
	return ActionApplyHighestPriority, []string{"no overlap-handling rule configured, picked by priority"}
}

func tierPrice(tier PriceTier, diveCount int) float64 {
	if tier.TotalPrice != nil {
		return *tier.TotalPrice
	}
	return tier.PricePerDive * float64(diveCount)
}

func lowestTier(candidates []tierCandidate) tierCandidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.price < best.price {
			best = c
		}
	}
	return best
}

// highestPriorityTier orders by tier sort_order descending with tier id as
// the final deterministic tie-break.
func highestPriorityTier(candidates []tierCandidate) tierCandidate {
	sorted := make([]tierCandidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].tier.SortOrder != sorted[j].tier.SortOrder {
			return sorted[i].tier.SortOrder > sorted[j].tier.SortOrder
		}
		return sorted[i].tier.ID < sorted[j].tier.ID
	})
	return sorted[0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
