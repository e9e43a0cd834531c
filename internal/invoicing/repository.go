package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/observability"
	"github.com/reefdesk/reefdesk/internal/platform/db"
	"github.com/reefdesk/reefdesk/internal/sequence"
	"github.com/reefdesk/reefdesk/internal/shared"
)

type Repository struct {
	pool    *pgxpool.Pool
	metrics *observability.Metrics
}

func NewRepository(pool *pgxpool.Pool, metrics *observability.Metrics) *Repository {
	return &Repository{pool: pool, metrics: metrics}
}

func (r *Repository) WithTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepo{tx: tx, metrics: r.metrics})
	})
}

const invoiceColumns = `id, tenant_id, number, booking_id, agent_id, type, status, related_invoice_id, total, issued_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.Number, &inv.BookingID, &inv.AgentID, &inv.Type,
		&inv.Status, &inv.RelatedInvoiceID, &inv.Total, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	return inv, err
}

func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *Repository) ListItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	const q = `
		SELECT id, invoice_id, description, quantity, unit_price, total,
		       is_equipment, booking_dive_id, equipment_id, price_list_item_id
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`
	rows, err := r.pool.Query(ctx, q, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Total,
			&it.IsEquipment, &it.BookingDiveID, &it.EquipmentID, &it.PriceListItemID,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return listPayments(ctx, r.pool, invoiceID)
}

// ListByPeriod returns a tenant's invoices issued in the given year, oldest
// first, for export.
func (r *Repository) ListByPeriod(ctx context.Context, tenantID int64, year int) ([]Invoice, error) {
	const q = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND EXTRACT(YEAR FROM issued_at) = $2
		ORDER BY issued_at, id`
	rows, err := r.pool.Query(ctx, q, tenantID, year)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listPayments(ctx context.Context, q querier, invoiceID int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, amount, method, paid_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TxRepository is the transactional surface of invoice creation and
// settlement. Sequence numbering and the commission row ride the same
// transaction so none of them can land without the invoice.
type TxRepository interface {
	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	InsertItem(ctx context.Context, item InvoiceItem) (InvoiceItem, error)
	AdvanceExists(ctx context.Context, bookingID int64) (bool, error)
	GetForUpdate(ctx context.Context, id int64) (Invoice, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error
	NextNumber(ctx context.Context, tenantID int64, scheme sequence.Scheme, period int) (string, error)
	Commissions() commission.TxRepository
}

type txRepo struct {
	tx      pgx.Tx
	metrics *observability.Metrics
}

func (r *txRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	const q = `
		INSERT INTO invoices (tenant_id, number, booking_id, agent_id, type, status, related_invoice_id, total, issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING ` + invoiceColumns
	row := r.tx.QueryRow(ctx, q,
		inv.TenantID, inv.Number, inv.BookingID, inv.AgentID, inv.Type,
		inv.Status, inv.RelatedInvoiceID, inv.Total, inv.IssuedAt,
	)
	out, err := scanInvoice(row)
	if err != nil {
		return Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return out, nil
}

func (r *txRepo) InsertItem(ctx context.Context, item InvoiceItem) (InvoiceItem, error) {
	const q = `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, total, is_equipment, booking_dive_id, equipment_id, price_list_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.tx.QueryRow(ctx, q,
		item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.Total,
		item.IsEquipment, item.BookingDiveID, item.EquipmentID, item.PriceListItemID,
	).Scan(&item.ID)
	if err != nil {
		return InvoiceItem{}, fmt.Errorf("insert invoice item: %w", err)
	}
	return item, nil
}

// AdvanceExists reports whether the booking already carries an advance
// invoice. There is no unique constraint backing this; the check runs
// inside the creation transaction at RepeatableRead.
func (r *txRepo) AdvanceExists(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE booking_id = $1 AND type = 'Advance')`,
		bookingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check advance invoice: %w", err)
	}
	return exists, nil
}

func (r *txRepo) GetForUpdate(ctx context.Context, id int64) (Invoice, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice for update: %w", err)
	}
	return inv, nil
}

func (r *txRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	const q = `
		INSERT INTO payments (invoice_id, amount, method, paid_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.tx.QueryRow(ctx, q, p.InvoiceID, p.Amount, p.Method, p.PaidAt).Scan(&p.ID); err != nil {
		return Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

func (r *txRepo) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return listPayments(ctx, r.tx, invoiceID)
}

func (r *txRepo) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	return nil
}

func (r *txRepo) NextNumber(ctx context.Context, tenantID int64, scheme sequence.Scheme, period int) (string, error) {
	return sequence.NewGenerator(r.tx, r.metrics).Next(ctx, tenantID, scheme, period)
}

func (r *txRepo) Commissions() commission.TxRepository {
	return commission.NewTxRepository(r.tx)
}
