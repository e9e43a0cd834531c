package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/observability"
)

// Service wires the catalog repository, snapshot cache and resolution engine.
type Service struct {
	repo    Repository
	cache   *SnapshotCache
	metrics *observability.Metrics
}

// NewService builds the pricing service. cache and metrics may be nil.
func NewService(repo Repository, cache *SnapshotCache, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics}
}

// Resolve prices one item for a query.
func (s *Service) Resolve(ctx context.Context, tenantID, itemID int64, q Query) (PriceResult, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return PriceResult{}, fmt.Errorf("load item: %w", err)
	}
	rules, err := s.repo.ListRules(ctx, tenantID)
	if err != nil {
		return PriceResult{}, fmt.Errorf("load rules: %w", err)
	}

	if q.AsOf.IsZero() {
		q.AsOf = time.Now()
	}

	res, err := ResolvePrice(*item, rules, q)
	s.countOutcome(err)
	return res, err
}

// ResolveService prices a service type across all applicable items of the
// tenant's catalog, settling item-level overlap by rule.
func (s *Service) ResolveService(ctx context.Context, tenantID int64, serviceType string, q Query) (PriceResult, error) {
	items, rules, err := s.cache.Load(ctx, tenantID, serviceType, func(ctx context.Context) ([]PriceListItem, []PricingRule, error) {
		items, err := s.repo.ListItemsByService(ctx, tenantID, serviceType)
		if err != nil {
			return nil, nil, err
		}
		rules, err := s.repo.ListRules(ctx, tenantID)
		if err != nil {
			return nil, nil, err
		}
		return items, rules, nil
	})
	if err != nil {
		return PriceResult{}, fmt.Errorf("load catalog: %w", err)
	}

	if q.AsOf.IsZero() {
		q.AsOf = time.Now()
	}

	res, err := ResolveAcrossItems(items, rules, q)
	s.countOutcome(err)
	return res, err
}

// CreateItem validates and persists a price-list item.
func (s *Service) CreateItem(ctx context.Context, tenantID int64, req CreateItemRequest) (*PriceListItem, error) {
	if PricingModel(req.PricingModel) == ModelRange {
		if err := ValidateTierBounds(req.MinDives, req.MaxDives); err != nil {
			return nil, err
		}
	}

	item := PriceListItem{
		PriceListID:            req.PriceListID,
		ServiceType:            req.ServiceType,
		Name:                   req.Name,
		BasePrice:              req.BasePrice,
		PricingModel:           PricingModel(req.PricingModel),
		MinDives:               req.MinDives,
		MaxDives:               req.MaxDives,
		Priority:               req.Priority,
		ValidFrom:              req.ValidFrom,
		ValidUntil:             req.ValidUntil,
		ApplicableTo:           booking.CustomerType(req.ApplicableTo),
		TaxInclusive:           req.TaxInclusive,
		ServiceChargeInclusive: req.ServiceChargeInclusive,
		IsActive:               true,
		IsStandalone:           req.IsStandalone,
		CanBePackageComponent:  req.CanBePackageComponent,
		PackageComponentType:   req.PackageComponentType,
	}

	id, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	item.ID = id

	s.cache.Invalidate(ctx, tenantID, item.ServiceType)
	return &item, nil
}

// AddTier validates bounds at write time and persists the tier. Inverted
// bounds never reach the database.
func (s *Service) AddTier(ctx context.Context, tenantID, itemID int64, req CreateTierRequest) (*PriceTier, error) {
	if err := ValidateTierBounds(req.FromDives, req.ToDives); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}

	tier := PriceTier{
		ItemID:       item.ID,
		FromDives:    req.FromDives,
		ToDives:      req.ToDives,
		PricePerDive: req.PricePerDive,
		TotalPrice:   req.TotalPrice,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}

	id, err := s.repo.InsertTier(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("insert tier: %w", err)
	}
	tier.ID = id

	s.cache.Invalidate(ctx, tenantID, item.ServiceType)
	return &tier, nil
}

// AddRule persists a pricing rule and drops the tenant's cached snapshots
// so resolution picks the rule up right away.
func (s *Service) AddRule(ctx context.Context, rule PricingRule) (*PricingRule, error) {
	id, err := s.repo.InsertRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("insert rule: %w", err)
	}
	rule.ID = id

	s.cache.InvalidateTenant(ctx, rule.TenantID)
	return &rule, nil
}

func (s *Service) countOutcome(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "resolved"
	if err != nil {
		outcome = "failed"
	}
	s.metrics.PricesResolved.WithLabelValues(outcome).Inc()
}
