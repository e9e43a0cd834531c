package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reefdesk/reefdesk/internal/observability"
)

// ErrInvalidTransition indicates a status change from a terminal state.
// Paid and Cancelled commissions never move again.
var ErrInvalidTransition = errors.New("commission status is terminal")

// commissionNamespace seeds deterministic references so recomputing the same
// invoice yields the same reference.
var commissionNamespace = uuid.MustParse("6f1c7a52-9d0e-4b83-b7ce-2f41a9c05d18")

// Reference derives the stable reference for an (invoice, agent) pair.
func Reference(invoiceID, agentID int64) uuid.UUID {
	return uuid.NewSHA1(commissionNamespace, []byte(fmt.Sprintf("commission:%d:%d", invoiceID, agentID)))
}

type repository interface {
	GetTerm(ctx context.Context, agentID int64) (AgentCommercialTerm, error)
	GetByInvoice(ctx context.Context, invoiceID int64) (AgentCommission, error)
	TotalEarned(ctx context.Context, agentID int64) (float64, error)
	WithTx(ctx context.Context, fn func(TxRepository) error) error
}

type Service struct {
	repo    repository
	metrics *observability.Metrics
	log     *slog.Logger
}

func NewService(repo repository, metrics *observability.Metrics, log *slog.Logger) *Service {
	return &Service{repo: repo, metrics: metrics, log: log}
}

// Record computes and persists the commission for one finalized invoice.
// Re-running it for the same invoice replaces the amount on the existing row
// instead of inserting a duplicate.
func (s *Service) Record(ctx context.Context, invoiceID, agentID int64, items []Item) (AgentCommission, error) {
	term, err := s.repo.GetTerm(ctx, agentID)
	if err != nil {
		return AgentCommission{}, err
	}

	amount, err := Calculate(items, term)
	if err != nil {
		return AgentCommission{}, err
	}

	row := AgentCommission{
		Reference: Reference(invoiceID, agentID),
		InvoiceID: invoiceID,
		AgentID:   agentID,
		Amount:    amount,
		Status:    StatusPending,
	}

	var out AgentCommission
	err = s.repo.WithTx(ctx, func(tx TxRepository) error {
		saved, err := tx.Upsert(ctx, row)
		if err != nil {
			return err
		}
		out = saved
		return nil
	})
	if err != nil {
		return AgentCommission{}, err
	}

	if s.metrics != nil {
		s.metrics.CommissionsRecorded.Inc()
	}
	s.log.InfoContext(ctx, "commission recorded",
		slog.Int64("invoice_id", invoiceID),
		slog.Int64("agent_id", agentID),
		slog.Float64("amount", out.Amount),
		slog.String("status", string(out.Status)),
	)
	return out, nil
}

// MarkPaid moves a pending commission to Paid.
func (s *Service) MarkPaid(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, StatusPaid)
	})
}

// Cancel voids a commission. Cancelled rows no longer count toward the
// agent's earned total and are never overwritten by recomputation.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, StatusCancelled)
	})
}

// TotalEarned reports the agent's aggregate non-cancelled commission.
func (s *Service) TotalEarned(ctx context.Context, agentID int64) (float64, error) {
	return s.repo.TotalEarned(ctx, agentID)
}

// ByInvoice returns the commission row attached to an invoice.
func (s *Service) ByInvoice(ctx context.Context, invoiceID int64) (AgentCommission, error) {
	return s.repo.GetByInvoice(ctx, invoiceID)
}
