package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/shared"
)

func ptr[T any](v T) *T {
	return &v
}

func tieredItem(tiers ...PriceTier) PriceListItem {
	return PriceListItem{
		ID:           1,
		ServiceType:  "FUN_DIVE",
		PricingModel: ModelTiered,
		ApplicableTo: booking.CustomerTypeAll,
		IsActive:     true,
		Tiers:        tiers,
	}
}

func overlapRule(action RuleAction) []PricingRule {
	return []PricingRule{
		{
			ID:       1,
			RuleType: RuleTypeOverlapHandling,
			Condition: RuleCondition{
				Kind:        ConditionServiceType,
				ServiceType: "FUN_DIVE",
			},
			Action:   action,
			IsActive: true,
		},
	}
}

func query(diveCount int) Query {
	return Query{DiveCount: diveCount, AsOf: time.Now(), CustomerType: booking.CustomerTypeAll}
}

func TestResolveSingle(t *testing.T) {
	item := PriceListItem{
		ID:           7,
		PricingModel: ModelSingle,
		BasePrice:    85,
		ApplicableTo: booking.CustomerTypeAll,
		IsActive:     true,
	}

	res, err := ResolvePrice(item, nil, query(99))
	require.NoError(t, err)
	assert.Equal(t, 85.0, res.UnitPrice)
	assert.Equal(t, int64(7), res.SourceItemID)
	assert.Nil(t, res.SourceTierID)
}

func TestResolveRangeBoundsInclusive(t *testing.T) {
	item := PriceListItem{
		ID:           3,
		PricingModel: ModelRange,
		BasePrice:    60,
		MinDives:     1,
		MaxDives:     5,
		ApplicableTo: booking.CustomerTypeAll,
		IsActive:     true,
	}

	res, err := ResolvePrice(item, nil, query(5))
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.UnitPrice)

	_, err = ResolvePrice(item, nil, query(6))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPriceNotApplicable))
}

func TestResolveTieredSelection(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 5, PricePerDive: 50, IsActive: true},
		PriceTier{ID: 11, FromDives: 6, ToDives: 10, PricePerDive: 40, IsActive: true},
	)

	res, err := ResolvePrice(item, nil, query(3))
	require.NoError(t, err)
	assert.Equal(t, 150.0, res.UnitPrice)
	require.NotNil(t, res.SourceTierID)
	assert.Equal(t, int64(10), *res.SourceTierID)

	res, err = ResolvePrice(item, nil, query(8))
	require.NoError(t, err)
	assert.Equal(t, 320.0, res.UnitPrice)
	require.NotNil(t, res.SourceTierID)
	assert.Equal(t, int64(11), *res.SourceTierID)
}

func TestResolveTieredBoundaryInclusive(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 5, PricePerDive: 50, IsActive: true},
	)

	res, err := ResolvePrice(item, nil, query(5))
	require.NoError(t, err)
	assert.Equal(t, 250.0, res.UnitPrice)

	_, err = ResolvePrice(item, nil, query(6))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPriceNotApplicable))
}

func TestResolveTieredTotalPriceOverride(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 50, TotalPrice: ptr(399.0), IsActive: true},
	)

	res, err := ResolvePrice(item, nil, query(7))
	require.NoError(t, err)
	assert.Equal(t, 399.0, res.UnitPrice)
}

func TestOverlapApplyLowest(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, IsActive: true},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, IsActive: true},
	)

	res, err := ResolvePrice(item, overlapRule(ActionApplyLowest), query(7))
	require.NoError(t, err)
	assert.Equal(t, 280.0, res.UnitPrice)
	require.NotNil(t, res.SourceTierID)
	assert.Equal(t, int64(11), *res.SourceTierID)
	assert.Empty(t, res.Warnings)
}

func TestOverlapReject(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, IsActive: true},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, IsActive: true},
	)

	_, err := ResolvePrice(item, overlapRule(ActionReject), query(7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrOverlapConflict))
}

func TestOverlapHighestPriority(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, SortOrder: 2, IsActive: true},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, SortOrder: 1, IsActive: true},
	)

	res, err := ResolvePrice(item, overlapRule(ActionApplyHighestPriority), query(7))
	require.NoError(t, err)
	require.NotNil(t, res.SourceTierID)
	assert.Equal(t, int64(10), *res.SourceTierID)
	assert.Equal(t, 315.0, res.UnitPrice)
}

func TestOverlapHighestPriorityTieBreakByID(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 11, FromDives: 1, ToDives: 10, PricePerDive: 45, SortOrder: 1, IsActive: true},
		PriceTier{ID: 10, FromDives: 5, ToDives: 15, PricePerDive: 40, SortOrder: 1, IsActive: true},
	)

	res, err := ResolvePrice(item, overlapRule(ActionApplyHighestPriority), query(7))
	require.NoError(t, err)
	require.NotNil(t, res.SourceTierID)
	assert.Equal(t, int64(10), *res.SourceTierID)
}

func TestOverlapWarnResolvesWithWarning(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, SortOrder: 2, IsActive: true},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, SortOrder: 1, IsActive: true},
	)

	res, err := ResolvePrice(item, overlapRule(ActionWarn), query(7))
	require.NoError(t, err)
	assert.Equal(t, 315.0, res.UnitPrice)
	assert.NotEmpty(t, res.Warnings)
}

func TestOverlapNoRuleFallsBackWithWarning(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, SortOrder: 2, IsActive: true},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, SortOrder: 1, IsActive: true},
	)

	res, err := ResolvePrice(item, nil, query(7))
	require.NoError(t, err)
	assert.Equal(t, 315.0, res.UnitPrice)
	assert.NotEmpty(t, res.Warnings)
}

func TestInactiveTiersIgnored(t *testing.T) {
	item := tieredItem(
		PriceTier{ID: 10, FromDives: 1, ToDives: 10, PricePerDive: 45, IsActive: false},
		PriceTier{ID: 11, FromDives: 5, ToDives: 15, PricePerDive: 40, IsActive: true},
	)

	res, err := ResolvePrice(item, overlapRule(ActionReject), query(7))
	require.NoError(t, err)
	assert.Equal(t, 280.0, res.UnitPrice)
}

func TestValidityWindow(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	item := PriceListItem{
		ID:           1,
		PricingModel: ModelSingle,
		BasePrice:    100,
		ApplicableTo: booking.CustomerTypeAll,
		IsActive:     true,
		ValidFrom:    ptr(now.AddDate(0, 0, 1)),
	}

	_, err := ResolvePrice(item, nil, Query{DiveCount: 1, AsOf: now, CustomerType: booking.CustomerTypeAll})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPriceNotApplicable))

	item.ValidFrom = nil
	item.ValidUntil = ptr(now.AddDate(0, 0, -1))
	_, err = ResolvePrice(item, nil, Query{DiveCount: 1, AsOf: now, CustomerType: booking.CustomerTypeAll})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPriceNotApplicable))

	// Open bounds are unbounded.
	item.ValidUntil = nil
	res, err := ResolvePrice(item, nil, Query{DiveCount: 1, AsOf: now, CustomerType: booking.CustomerTypeAll})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.UnitPrice)
}

func TestCustomerTypeApplicability(t *testing.T) {
	item := PriceListItem{
		ID:           1,
		PricingModel: ModelSingle,
		BasePrice:    100,
		ApplicableTo: booking.CustomerTypeMember,
		IsActive:     true,
	}

	_, err := ResolvePrice(item, nil, Query{DiveCount: 1, AsOf: time.Now(), CustomerType: booking.CustomerTypeNonMember})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPriceNotApplicable))

	res, err := ResolvePrice(item, nil, Query{DiveCount: 1, AsOf: time.Now(), CustomerType: booking.CustomerTypeMember})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.UnitPrice)
}

func TestResolveAcrossItemsOverlap(t *testing.T) {
	items := []PriceListItem{
		{
			ID: 1, ServiceType: "FUN_DIVE", PricingModel: ModelRange, BasePrice: 55,
			MinDives: 1, MaxDives: 10, Priority: 1,
			ApplicableTo: booking.CustomerTypeAll, IsActive: true,
		},
		{
			ID: 2, ServiceType: "FUN_DIVE", PricingModel: ModelRange, BasePrice: 48,
			MinDives: 5, MaxDives: 15, Priority: 5,
			ApplicableTo: booking.CustomerTypeAll, IsActive: true,
		},
	}

	// Priority wins under APPLY_HIGHEST_PRIORITY.
	res, err := ResolveAcrossItems(items, overlapRule(ActionApplyHighestPriority), query(7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.SourceItemID)
	assert.Equal(t, 48.0, res.UnitPrice)

	// Lowest computed price wins under APPLY_LOWEST.
	res, err = ResolveAcrossItems(items, overlapRule(ActionApplyLowest), query(7))
	require.NoError(t, err)
	assert.Equal(t, 48.0, res.UnitPrice)

	// REJECT raises a conflict.
	_, err = ResolveAcrossItems(items, overlapRule(ActionReject), query(7))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrOverlapConflict))

	// Outside the shared window only one item matches, no rule consulted.
	res, err = ResolveAcrossItems(items, overlapRule(ActionReject), query(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SourceItemID)
}

func TestValidateTierBounds(t *testing.T) {
	require.NoError(t, ValidateTierBounds(1, 5))
	require.NoError(t, ValidateTierBounds(5, 5))

	err := ValidateTierBounds(6, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConfiguration))
}
