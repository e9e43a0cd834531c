package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/platform/db"
	"github.com/reefdesk/reefdesk/internal/shared"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepo{tx: tx})
	})
}

func (r *Repository) GetTerm(ctx context.Context, agentID int64) (AgentCommercialTerm, error) {
	const q = `
		SELECT id, agent_id, commission_type, commission_rate,
		       exclude_equipment_from_commission, include_manual_items_in_commission
		FROM agent_commercial_terms
		WHERE agent_id = $1`
	var t AgentCommercialTerm
	err := r.pool.QueryRow(ctx, q, agentID).Scan(
		&t.ID, &t.AgentID, &t.CommissionType, &t.CommissionRate,
		&t.ExcludeEquipmentFromCommission, &t.IncludeManualItemsInCommission,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return AgentCommercialTerm{}, fmt.Errorf("%w: commercial term for agent %d", shared.ErrNotFound, agentID)
	}
	if err != nil {
		return AgentCommercialTerm{}, fmt.Errorf("get commercial term: %w", err)
	}
	return t, nil
}

// TotalEarned sums an agent's non-cancelled commissions.
func (r *Repository) TotalEarned(ctx context.Context, agentID int64) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(amount), 0)
		FROM agent_commissions
		WHERE agent_id = $1 AND status <> 'Cancelled'`
	var total float64
	if err := r.pool.QueryRow(ctx, q, agentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum commissions: %w", err)
	}
	return total, nil
}

func (r *Repository) GetByInvoice(ctx context.Context, invoiceID int64) (AgentCommission, error) {
	const q = `
		SELECT id, reference, invoice_id, agent_id, amount, status, created_at, updated_at
		FROM agent_commissions
		WHERE invoice_id = $1`
	var c AgentCommission
	err := r.pool.QueryRow(ctx, q, invoiceID).Scan(
		&c.ID, &c.Reference, &c.InvoiceID, &c.AgentID, &c.Amount, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return AgentCommission{}, fmt.Errorf("%w: commission for invoice %d", shared.ErrNotFound, invoiceID)
	}
	if err != nil {
		return AgentCommission{}, fmt.Errorf("get commission: %w", err)
	}
	return c, nil
}

// TxRepository is the slice of commission persistence that runs inside the
// invoicing transaction.
type TxRepository interface {
	Upsert(ctx context.Context, c AgentCommission) (AgentCommission, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// NewTxRepository wraps an existing transaction so callers that own the
// transaction, such as invoice creation, can write the commission row in
// the same unit of work as the invoice items.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepo{tx: tx}
}

type txRepo struct {
	tx pgx.Tx
}

// Upsert inserts the commission row for the invoice, or replaces the amount
// on the existing Pending or Paid row. A Cancelled row stays cancelled.
func (r *txRepo) Upsert(ctx context.Context, c AgentCommission) (AgentCommission, error) {
	const q = `
		INSERT INTO agent_commissions (reference, invoice_id, agent_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (invoice_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    updated_at = now()
		WHERE agent_commissions.status <> 'Cancelled'
		RETURNING id, reference, invoice_id, agent_id, amount, status, created_at, updated_at`
	var out AgentCommission
	err := r.tx.QueryRow(ctx, q, c.Reference, c.InvoiceID, c.AgentID, c.Amount, c.Status).Scan(
		&out.ID, &out.Reference, &out.InvoiceID, &out.AgentID, &out.Amount, &out.Status, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict hit a cancelled row. Return it untouched.
		const sel = `
			SELECT id, reference, invoice_id, agent_id, amount, status, created_at, updated_at
			FROM agent_commissions
			WHERE invoice_id = $1`
		if serr := r.tx.QueryRow(ctx, sel, c.InvoiceID).Scan(
			&out.ID, &out.Reference, &out.InvoiceID, &out.AgentID, &out.Amount, &out.Status, &out.CreatedAt, &out.UpdatedAt,
		); serr != nil {
			return AgentCommission{}, fmt.Errorf("get cancelled commission: %w", serr)
		}
		return out, nil
	}
	if err != nil {
		return AgentCommission{}, fmt.Errorf("upsert commission: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a Pending commission to Paid or Cancelled. Both targets
// are terminal, so a row that already left Pending is never touched again.
func (r *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE agent_commissions SET status = $2, updated_at = now() WHERE id = $1 AND status = 'Pending'`,
		id, status)
	if err != nil {
		return fmt.Errorf("update commission status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current Status
	err = r.tx.QueryRow(ctx, `SELECT status FROM agent_commissions WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: commission %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("get commission status: %w", err)
	}
	return fmt.Errorf("commission %d is %s: %w", id, current, ErrInvalidTransition)
}
