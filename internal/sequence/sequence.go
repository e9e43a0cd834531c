// Package sequence issues gapless human-readable document numbers, one
// counter per tenant, scheme and period.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reefdesk/reefdesk/internal/observability"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// Scheme names a numbering series. Each scheme counts independently.
type Scheme string

const (
	SchemeInvoice Scheme = "INV"
	SchemeBasket  Scheme = "BSK"
	SchemeExpense Scheme = "EXP"
)

const uniqueViolation = "23505"

// maxRetries bounds the insert retry loop when two requests race to create
// the first counter row for a period.
const maxRetries = 3

// Format renders a sequence value as a document number, e.g. INV-2026-042.
func Format(scheme Scheme, period int, value int64) string {
	return fmt.Sprintf("%s-%d-%03d", scheme, period, value)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Generator hands out the next number in a series. It is safe for
// concurrent use: the counter advances in a single atomic upsert, so two
// callers can never observe the same value.
type Generator struct {
	q       querier
	metrics *observability.Metrics
}

func NewGenerator(q querier, metrics *observability.Metrics) *Generator {
	return &Generator{q: q, metrics: metrics}
}

// Next reserves and returns the next number for the tenant, scheme and
// period. The reservation is part of the surrounding transaction when the
// generator is built over one, so a rolled-back invoice releases no gap.
func (g *Generator) Next(ctx context.Context, tenantID int64, scheme Scheme, period int) (string, error) {
	const q = `
		INSERT INTO document_sequences (tenant_id, scheme, period, value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, scheme, period) DO UPDATE
		SET value = document_sequences.value + 1
		RETURNING value`

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		var value int64
		err := g.q.QueryRow(ctx, q, tenantID, string(scheme), period).Scan(&value)
		if err == nil {
			return Format(scheme, period, value), nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Two first-time inserts collided before the ON CONFLICT arbiter
			// saw the committed row.
			if g.metrics != nil {
				g.metrics.SequenceRetries.Inc()
			}
			if _, inTx := g.q.(pgx.Tx); inTx {
				// The violation has aborted the surrounding transaction, so
				// another statement on it cannot succeed. The caller owns
				// the transaction boundary and retries the whole unit.
				return "", fmt.Errorf("%w: sequence %s/%d: %v", shared.ErrConcurrencyConflict, scheme, period, err)
			}
			// Retry; the next attempt takes the update path.
			lastErr = err
			continue
		}
		return "", fmt.Errorf("next sequence %s/%d: %w", scheme, period, err)
	}
	return "", fmt.Errorf("%w: sequence %s/%d: %v", shared.ErrConcurrencyConflict, scheme, period, lastErr)
}
