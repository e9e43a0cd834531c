package invoicing

import "math"

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Reconciliation is the settlement picture of one invoice at a point in
// time, computed from an explicit snapshot of its payments.
type Reconciliation struct {
	Total            float64 `json:"total"`
	TotalPaid        float64 `json:"total_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	FullyPaid        bool    `json:"fully_paid"`
	CanAddPayment    bool    `json:"can_add_payment"`
}

// Reconcile derives the invoice's balance from its payments. Overpayment
// drives the remaining balance negative rather than clamping, so the caller
// can see the credit.
func Reconcile(inv Invoice, payments []Payment) Reconciliation {
	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	paid = round2(paid)
	remaining := round2(inv.Total - paid)

	return Reconciliation{
		Total:            inv.Total,
		TotalPaid:        paid,
		RemainingBalance: remaining,
		FullyPaid:        remaining <= 0,
		CanAddPayment:    inv.Status != StatusRefunded && remaining > 0,
	}
}

// StatusFor maps a reconciliation onto the invoice status ladder. Refunded
// is terminal and never recomputed.
func StatusFor(current InvoiceStatus, rec Reconciliation) InvoiceStatus {
	if current == StatusRefunded {
		return StatusRefunded
	}
	switch {
	case rec.FullyPaid:
		return StatusPaid
	case rec.TotalPaid > 0:
		return StatusPartiallyPaid
	default:
		return StatusDraft
	}
}
