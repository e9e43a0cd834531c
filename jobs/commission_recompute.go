package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/reefdesk/reefdesk/internal/commission"
	"github.com/reefdesk/reefdesk/internal/invoicing"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// CommissionRecomputeJob replays commission calculation for one invoice
// after its line items changed. Recording is idempotent, so a redelivered
// task is harmless.
type CommissionRecomputeJob struct {
	invoices    *invoicing.Repository
	commissions *commission.Service
	logger      *slog.Logger
}

// NewCommissionRecomputeJob builds the recompute handler.
func NewCommissionRecomputeJob(invoices *invoicing.Repository, commissions *commission.Service, logger *slog.Logger) *CommissionRecomputeJob {
	return &CommissionRecomputeJob{invoices: invoices, commissions: commissions, logger: logger}
}

// Handle processes TaskCommissionRecompute tasks.
func (j *CommissionRecomputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CommissionRecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	items, err := j.invoices.ListItems(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			j.logger.Warn("commission recompute for missing invoice",
				slog.Int64("invoice_id", payload.InvoiceID))
			return asynq.SkipRetry
		}
		return err
	}

	rows := make([]commission.Item, 0, len(items))
	for _, it := range items {
		rows = append(rows, commission.Item{
			Total:           it.Total,
			IsEquipment:     it.IsEquipment,
			BookingDiveID:   it.BookingDiveID,
			EquipmentID:     it.EquipmentID,
			PriceListItemID: it.PriceListItemID,
		})
	}

	if _, err := j.commissions.Record(ctx, payload.InvoiceID, payload.AgentID, rows); err != nil {
		j.logger.Error("commission recompute failed",
			slog.Int64("invoice_id", payload.InvoiceID), slog.Any("error", err))
		return err
	}
	return nil
}
