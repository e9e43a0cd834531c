package packages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/shared"
)

// Repository defines package catalog data access.
type Repository interface {
	Get(ctx context.Context, id int64) (*Package, error)
	InsertComponent(ctx context.Context, c PackageComponent) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed package repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (*Package, error) {
	const query = `
		SELECT id, tenant_id, name, base_price, price_per_person, nights, days,
		       total_dives, is_active, created_at, updated_at, deleted_at
		FROM packages
		WHERE id = $1 AND deleted_at IS NULL
	`
	var pkg Package
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&pkg.ID, &pkg.TenantID, &pkg.Name, &pkg.BasePrice, &pkg.PricePerPerson,
		&pkg.Nights, &pkg.Days, &pkg.TotalDives, &pkg.IsActive,
		&pkg.CreatedAt, &pkg.UpdatedAt, &pkg.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("package %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}

	if pkg.Components, err = r.listComponents(ctx, id); err != nil {
		return nil, err
	}
	if pkg.Options, err = r.listOptions(ctx, id); err != nil {
		return nil, err
	}
	if pkg.PricingTiers, err = r.listTiers(ctx, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) listComponents(ctx context.Context, packageID int64) ([]PackageComponent, error) {
	const query = `
		SELECT id, package_id, component_type, description, unit_price, quantity,
		       total_price, is_inclusive, sort_order
		FROM package_components
		WHERE package_id = $1
		ORDER BY sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var components []PackageComponent
	for rows.Next() {
		var c PackageComponent
		if err := rows.Scan(&c.ID, &c.PackageID, &c.ComponentType, &c.Description,
			&c.UnitPrice, &c.Quantity, &c.TotalPrice, &c.IsInclusive, &c.SortOrder); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func (r *repository) listOptions(ctx context.Context, packageID int64) ([]PackageOption, error) {
	const query = `
		SELECT id, package_id, name, price, max_quantity, is_active, sort_order
		FROM package_options
		WHERE package_id = $1
		ORDER BY sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []PackageOption
	for rows.Next() {
		var o PackageOption
		if err := rows.Scan(&o.ID, &o.PackageID, &o.Name, &o.Price, &o.MaxQuantity,
			&o.IsActive, &o.SortOrder); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *repository) listTiers(ctx context.Context, packageID int64) ([]PackagePricingTier, error) {
	const query = `
		SELECT id, package_id, min_persons, max_persons, price_per_person,
		       discount_percentage, is_active
		FROM package_pricing_tiers
		WHERE package_id = $1
		ORDER BY min_persons, id
	`
	rows, err := r.pool.Query(ctx, query, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []PackagePricingTier
	for rows.Next() {
		var t PackagePricingTier
		if err := rows.Scan(&t.ID, &t.PackageID, &t.MinPersons, &t.MaxPersons,
			&t.PricePerPerson, &t.DiscountPercentage, &t.IsActive); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *repository) InsertComponent(ctx context.Context, c PackageComponent) (int64, error) {
	const query = `
		INSERT INTO package_components (
			package_id, component_type, description, unit_price, quantity,
			total_price, is_inclusive, sort_order
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		c.PackageID, c.ComponentType, c.Description, c.UnitPrice, c.Quantity,
		c.TotalPrice, c.IsInclusive, c.SortOrder,
	).Scan(&id)
	return id, err
}
