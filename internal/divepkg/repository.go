package divepkg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/platform/db"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// Repository defines punch-card data access. Quota consumption happens
// through WithTx so the check-then-increment sequence holds a row lock.
type Repository interface {
	Get(ctx context.Context, id int64) (*DivePackage, error)
	ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository is the transaction-scoped view of the repository.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*DivePackage, error)
	IncrementDivesUsed(ctx context.Context, id, expectedVersion int64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx-backed punch-card repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const packageColumns = `
	id, tenant_id, customer_id, package_total_dives, package_dives_used,
	package_total_price, package_per_dive_price, package_start_date,
	package_end_date, status, version, created_at, updated_at
`

func scanPackage(row pgx.Row) (*DivePackage, error) {
	var p DivePackage
	err := row.Scan(
		&p.ID, &p.TenantID, &p.CustomerID, &p.TotalDives, &p.DivesUsed,
		&p.TotalPrice, &p.PerDivePrice, &p.StartDate, &p.EndDate,
		&p.Status, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*DivePackage, error) {
	query := `SELECT ` + packageColumns + ` FROM dive_packages WHERE id = $1`
	p, err := scanPackage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dive package %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// ListExpiredActive returns IDs of packages still marked Active whose end
// date has passed, for the background expiry sweep.
func (r *repository) ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]int64, error) {
	const query = `
		SELECT id FROM dive_packages
		WHERE status = 'Active' AND package_end_date IS NOT NULL AND package_end_date < $1
		ORDER BY package_end_date
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired packages: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan package id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (*DivePackage, error) {
	query := `SELECT ` + packageColumns + ` FROM dive_packages WHERE id = $1 FOR UPDATE`
	p, err := scanPackage(r.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dive package %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// IncrementDivesUsed bumps usage guarded by the version column. A zero row
// count means another transaction won the race.
func (r *txRepository) IncrementDivesUsed(ctx context.Context, id, expectedVersion int64) error {
	const query = `
		UPDATE dive_packages
		SET package_dives_used = package_dives_used + 1,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $2
		  AND package_dives_used < package_total_dives
	`
	tag, err := r.tx.Exec(ctx, query, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dive package %d: %w", id, shared.ErrConcurrencyConflict)
	}
	return nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	const query = `UPDATE dive_packages SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dive package %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
