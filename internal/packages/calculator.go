package packages

import (
	"math"
	"sort"
)

// CalculatePrice computes the persons/tier-adjusted package total plus
// selected add-ons. Among active tiers covering the group size the one with
// the highest MinPersons wins (most specific match); when none qualifies the
// package default per-person rate applies. Option ids not present or
// inactive are ignored, and each id counts once.
func CalculatePrice(pkg Package, persons int, optionIDs []int64) float64 {
	rate := baseRate(pkg, persons)
	total := rate * float64(persons)

	selected := make(map[int64]bool, len(optionIDs))
	for _, id := range optionIDs {
		selected[id] = true
	}
	for _, opt := range pkg.Options {
		if opt.IsActive && selected[opt.ID] {
			total += opt.Price
		}
	}

	return round2(total)
}

// GetBreakdown produces the ordered breakdown listing: header line, a
// breakdown marker, one line per component in sort order, and a total line
// equal to the catalog list price. The total here is BasePrice, not the
// persons-adjusted CalculatePrice figure; the two are distinct outputs.
func GetBreakdown(pkg Package) []BreakdownLine {
	lines := make([]BreakdownLine, 0, len(pkg.Components)+3)

	lines = append(lines, BreakdownLine{
		Kind:        LineHeader,
		Description: pkg.Name,
		UnitPrice:   pkg.PricePerPerson,
		Quantity:    1,
		Unit:        "person",
		TotalPrice:  pkg.PricePerPerson,
	})
	lines = append(lines, BreakdownLine{
		Kind:        LineMarker,
		Description: "Package includes:",
	})

	components := make([]PackageComponent, len(pkg.Components))
	copy(components, pkg.Components)
	sort.Slice(components, func(i, j int) bool {
		if components[i].SortOrder != components[j].SortOrder {
			return components[i].SortOrder < components[j].SortOrder
		}
		return components[i].ID < components[j].ID
	})
	for _, c := range components {
		lines = append(lines, BreakdownLine{
			Kind:        LineComponent,
			Description: c.Description,
			UnitPrice:   c.UnitPrice,
			Quantity:    c.Quantity,
			TotalPrice:  c.TotalPrice,
		})
	}

	lines = append(lines, BreakdownLine{
		Kind:        LineTotal,
		Description: "Total",
		TotalPrice:  pkg.BasePrice,
	})

	return lines
}

// ValidateBreakdown checks that inclusive component totals add up to the
// list price within an absolute 0.01 tolerance. Configuration-time sanity
// check, not part of the booking path.
func ValidateBreakdown(pkg Package) bool {
	var sum float64
	for _, c := range pkg.Components {
		if c.IsInclusive {
			sum += c.TotalPrice
		}
	}
	return math.Abs(sum-pkg.BasePrice) <= 0.01
}

func baseRate(pkg Package, persons int) float64 {
	rate := pkg.PricePerPerson
	bestMin := -1
	for _, tier := range pkg.PricingTiers {
		if !tier.IsActive || persons < tier.MinPersons {
			continue
		}
		if tier.MaxPersons != nil && persons > *tier.MaxPersons {
			continue
		}
		if tier.MinPersons > bestMin {
			bestMin = tier.MinPersons
			rate = tier.PricePerPerson
		}
	}
	return rate
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
