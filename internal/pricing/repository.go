package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/shared"
)

// Repository defines catalog data access.
type Repository interface {
	GetItem(ctx context.Context, id int64) (*PriceListItem, error)
	ListItemsByService(ctx context.Context, tenantID int64, serviceType string) ([]PriceListItem, error)
	ListRules(ctx context.Context, tenantID int64) ([]PricingRule, error)
	CreateItem(ctx context.Context, item PriceListItem) (int64, error)
	InsertTier(ctx context.Context, tier PriceTier) (int64, error)
	InsertRule(ctx context.Context, rule PricingRule) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `
	i.id, i.price_list_id, i.service_type, i.name, i.base_price, i.pricing_model,
	i.min_dives, i.max_dives, i.priority, i.valid_from, i.valid_until,
	i.applicable_to, i.tax_inclusive, i.service_charge_inclusive, i.is_active,
	i.is_standalone, i.can_be_package_component, i.package_component_type,
	i.created_at, i.updated_at
`

func scanItem(row pgx.Row) (*PriceListItem, error) {
	var item PriceListItem
	err := row.Scan(
		&item.ID, &item.PriceListID, &item.ServiceType, &item.Name, &item.BasePrice,
		&item.PricingModel, &item.MinDives, &item.MaxDives, &item.Priority,
		&item.ValidFrom, &item.ValidUntil, &item.ApplicableTo, &item.TaxInclusive,
		&item.ServiceChargeInclusive, &item.IsActive, &item.IsStandalone,
		&item.CanBePackageComponent, &item.PackageComponentType,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetItem(ctx context.Context, id int64) (*PriceListItem, error) {
	query := `SELECT ` + itemColumns + ` FROM price_list_items i WHERE i.id = $1`
	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("price list item %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}

	tiers, err := r.listTiers(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	item.Tiers = tiers[id]
	return item, nil
}

func (r *repository) ListItemsByService(ctx context.Context, tenantID int64, serviceType string) ([]PriceListItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM price_list_items i
		INNER JOIN price_lists pl ON pl.id = i.price_list_id
		WHERE pl.tenant_id = $1 AND i.service_type = $2 AND i.is_active
		ORDER BY i.priority DESC, i.id
	`
	rows, err := r.pool.Query(ctx, query, tenantID, serviceType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		items []PriceListItem
		ids   []int64
	)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tiers, err := r.listTiers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for idx := range items {
		items[idx].Tiers = tiers[items[idx].ID]
	}
	return items, nil
}

func (r *repository) listTiers(ctx context.Context, itemIDs []int64) (map[int64][]PriceTier, error) {
	if len(itemIDs) == 0 {
		return map[int64][]PriceTier{}, nil
	}
	const query = `
		SELECT id, item_id, from_dives, to_dives, price_per_dive, total_price,
		       sort_order, is_active, created_at, updated_at
		FROM price_tiers
		WHERE item_id = ANY($1)
		ORDER BY sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make(map[int64][]PriceTier)
	for rows.Next() {
		var t PriceTier
		if err := rows.Scan(&t.ID, &t.ItemID, &t.FromDives, &t.ToDives, &t.PricePerDive,
			&t.TotalPrice, &t.SortOrder, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tiers[t.ItemID] = append(tiers[t.ItemID], t)
	}
	return tiers, rows.Err()
}

func (r *repository) ListRules(ctx context.Context, tenantID int64) ([]PricingRule, error) {
	const query = `
		SELECT id, tenant_id, rule_type, condition, action, sort_order, is_active,
		       created_at, updated_at
		FROM pricing_rules
		WHERE tenant_id = $1 AND is_active
		ORDER BY sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []PricingRule
	for rows.Next() {
		var (
			rule    PricingRule
			rawCond []byte
		)
		if err := rows.Scan(&rule.ID, &rule.TenantID, &rule.RuleType, &rawCond,
			&rule.Action, &rule.SortOrder, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		if len(rawCond) > 0 {
			if err := json.Unmarshal(rawCond, &rule.Condition); err != nil {
				return nil, fmt.Errorf("rule %d condition: %w", rule.ID, shared.ErrConfiguration)
			}
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *repository) CreateItem(ctx context.Context, item PriceListItem) (int64, error) {
	const query = `
		INSERT INTO price_list_items (
			price_list_id, service_type, name, base_price, pricing_model,
			min_dives, max_dives, priority, valid_from, valid_until, applicable_to,
			tax_inclusive, service_charge_inclusive, is_active, is_standalone,
			can_be_package_component, package_component_type, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now(),now())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		item.PriceListID, item.ServiceType, item.Name, item.BasePrice, item.PricingModel,
		item.MinDives, item.MaxDives, item.Priority, item.ValidFrom, item.ValidUntil,
		item.ApplicableTo, item.TaxInclusive, item.ServiceChargeInclusive, item.IsActive,
		item.IsStandalone, item.CanBePackageComponent, item.PackageComponentType,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertTier(ctx context.Context, tier PriceTier) (int64, error) {
	const query = `
		INSERT INTO price_tiers (
			item_id, from_dives, to_dives, price_per_dive, total_price,
			sort_order, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		tier.ItemID, tier.FromDives, tier.ToDives, tier.PricePerDive, tier.TotalPrice,
		tier.SortOrder, tier.IsActive,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertRule(ctx context.Context, rule PricingRule) (int64, error) {
	cond, err := json.Marshal(rule.Condition)
	if err != nil {
		return 0, err
	}
	const query = `
		INSERT INTO pricing_rules (
			tenant_id, rule_type, condition, action, sort_order, is_active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,now(),now())
		RETURNING id
	`
	var id int64
	err = r.pool.QueryRow(ctx, query,
		rule.TenantID, rule.RuleType, cond, rule.Action, rule.SortOrder, rule.IsActive,
	).Scan(&id)
	return id, err
}
