package pricing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/shared"
)

type mockCatalog struct {
	items  []PriceListItem
	rules  []PricingRule
	nextID int64
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{nextID: 1}
}

func (m *mockCatalog) GetItem(_ context.Context, id int64) (*PriceListItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
}

func (m *mockCatalog) ListItemsByService(_ context.Context, tenantID int64, serviceType string) ([]PriceListItem, error) {
	var out []PriceListItem
	for _, item := range m.items {
		if item.ServiceType == serviceType {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListRules(_ context.Context, tenantID int64) ([]PricingRule, error) {
	var out []PricingRule
	for _, rule := range m.rules {
		if rule.TenantID == tenantID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (m *mockCatalog) CreateItem(_ context.Context, item PriceListItem) (int64, error) {
	item.ID = m.nextID
	m.nextID++
	m.items = append(m.items, item)
	return item.ID, nil
}

func (m *mockCatalog) InsertTier(_ context.Context, tier PriceTier) (int64, error) {
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *mockCatalog) InsertRule(_ context.Context, rule PricingRule) (int64, error) {
	rule.ID = m.nextID
	m.nextID++
	m.rules = append(m.rules, rule)
	return rule.ID, nil
}

func rangeItem(id int64, priority int, price float64) PriceListItem {
	return PriceListItem{
		ID:           id,
		ServiceType:  "FUN_DIVE",
		Name:         fmt.Sprintf("fun dive %d", id),
		BasePrice:    price,
		PricingModel: ModelRange,
		MinDives:     1,
		MaxDives:     10,
		Priority:     priority,
		ApplicableTo: booking.CustomerTypeAll,
		IsActive:     true,
	}
}

func TestAddRuleVisibleToCachedResolution(t *testing.T) {
	catalog := newMockCatalog()
	catalog.items = []PriceListItem{rangeItem(1, 5, 90), rangeItem(2, 1, 70)}

	cache, _ := newTestCache(t)
	svc := NewService(catalog, cache, nil)
	q := Query{DiveCount: 3, AsOf: time.Now(), CustomerType: booking.CustomerTypeMember}

	// No overlap rule yet: priority fallback wins and the snapshot is cached.
	res, err := svc.ResolveService(context.Background(), 1, "FUN_DIVE", q)
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.UnitPrice)
	assert.NotEmpty(t, res.Warnings)

	_, err = svc.AddRule(context.Background(), PricingRule{
		TenantID:  1,
		RuleType:  RuleTypeOverlapHandling,
		Condition: RuleCondition{Kind: ConditionAny},
		Action:    ActionReject,
		IsActive:  true,
	})
	require.NoError(t, err)

	// The rule governs the very next resolution, not just post-TTL ones.
	_, err = svc.ResolveService(context.Background(), 1, "FUN_DIVE", q)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOverlapConflict)
}

func TestAddRuleInvalidatesOnlyOwnTenant(t *testing.T) {
	catalog := newMockCatalog()
	catalog.items = []PriceListItem{rangeItem(1, 5, 90), rangeItem(2, 1, 70)}

	cache, server := newTestCache(t)
	svc := NewService(catalog, cache, nil)
	q := Query{DiveCount: 3, AsOf: time.Now(), CustomerType: booking.CustomerTypeMember}

	_, err := svc.ResolveService(context.Background(), 1, "FUN_DIVE", q)
	require.NoError(t, err)
	_, err = svc.ResolveService(context.Background(), 2, "FUN_DIVE", q)
	require.NoError(t, err)

	_, err = svc.AddRule(context.Background(), PricingRule{
		TenantID:  1,
		RuleType:  RuleTypeOverlapHandling,
		Condition: RuleCondition{Kind: ConditionAny},
		Action:    ActionReject,
		IsActive:  true,
	})
	require.NoError(t, err)

	assert.False(t, server.Exists(snapshotKey(1, "FUN_DIVE")))
	assert.True(t, server.Exists(snapshotKey(2, "FUN_DIVE")))
}
