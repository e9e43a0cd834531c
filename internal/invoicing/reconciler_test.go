package invoicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileBalanceRoundTrip(t *testing.T) {
	inv := Invoice{Total: 300, Status: StatusDraft}

	rec := Reconcile(inv, []Payment{{Amount: 100}, {Amount: 50}})
	assert.Equal(t, 150.0, rec.TotalPaid)
	assert.Equal(t, 150.0, rec.RemainingBalance)
	assert.False(t, rec.FullyPaid)
	assert.True(t, rec.CanAddPayment)

	rec = Reconcile(inv, []Payment{{Amount: 100}, {Amount: 50}, {Amount: 150}})
	assert.Equal(t, 0.0, rec.RemainingBalance)
	assert.True(t, rec.FullyPaid)
	assert.False(t, rec.CanAddPayment)
}

func TestReconcileNoPayments(t *testing.T) {
	rec := Reconcile(Invoice{Total: 300, Status: StatusDraft}, nil)
	assert.Equal(t, 0.0, rec.TotalPaid)
	assert.Equal(t, 300.0, rec.RemainingBalance)
	assert.False(t, rec.FullyPaid)
	assert.True(t, rec.CanAddPayment)
}

func TestReconcileOverpaymentShowsCredit(t *testing.T) {
	rec := Reconcile(Invoice{Total: 300, Status: StatusDraft}, []Payment{{Amount: 350}})
	assert.Equal(t, -50.0, rec.RemainingBalance)
	assert.True(t, rec.FullyPaid)
	assert.False(t, rec.CanAddPayment)
}

func TestReconcileRefundedBlocksPayments(t *testing.T) {
	rec := Reconcile(Invoice{Total: 300, Status: StatusRefunded}, []Payment{{Amount: 100}})
	assert.Equal(t, 200.0, rec.RemainingBalance)
	assert.False(t, rec.CanAddPayment)
}

func TestReconcileRoundsCents(t *testing.T) {
	rec := Reconcile(Invoice{Total: 0.3, Status: StatusDraft}, []Payment{{Amount: 0.1}, {Amount: 0.2}})
	assert.Equal(t, 0.0, rec.RemainingBalance)
	assert.True(t, rec.FullyPaid)
}

func TestStatusFor(t *testing.T) {
	inv := Invoice{Total: 300}

	assert.Equal(t, StatusDraft, StatusFor(StatusDraft, Reconcile(inv, nil)))
	assert.Equal(t, StatusPartiallyPaid, StatusFor(StatusDraft, Reconcile(inv, []Payment{{Amount: 100}})))
	assert.Equal(t, StatusPaid, StatusFor(StatusPartiallyPaid, Reconcile(inv, []Payment{{Amount: 300}})))
	assert.Equal(t, StatusRefunded, StatusFor(StatusRefunded, Reconcile(inv, []Payment{{Amount: 300}})))
}

func TestNewItemEstablishesTotal(t *testing.T) {
	item := NewItem("Fun dive", 3, 45.5)
	assert.Equal(t, 136.5, item.Total)

	// Mutating quantity later does not silently recompute the total.
	item.Quantity = 10
	assert.Equal(t, 136.5, item.Total)
}
