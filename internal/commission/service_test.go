package commission

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/shared"
)

type mockRepository struct {
	terms       map[int64]AgentCommercialTerm
	commissions map[int64]AgentCommission // keyed by invoice ID
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		terms:       make(map[int64]AgentCommercialTerm),
		commissions: make(map[int64]AgentCommission),
		nextID:      1,
	}
}

func (m *mockRepository) GetTerm(_ context.Context, agentID int64) (AgentCommercialTerm, error) {
	t, ok := m.terms[agentID]
	if !ok {
		return AgentCommercialTerm{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *mockRepository) GetByInvoice(_ context.Context, invoiceID int64) (AgentCommission, error) {
	c, ok := m.commissions[invoiceID]
	if !ok {
		return AgentCommission{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) TotalEarned(_ context.Context, agentID int64) (float64, error) {
	var total float64
	for _, c := range m.commissions {
		if c.AgentID == agentID && c.Status != StatusCancelled {
			total += c.Amount
		}
	}
	return total, nil
}

func (m *mockRepository) WithTx(_ context.Context, fn func(TxRepository) error) error {
	return fn(&mockTxRepo{m: m})
}

type mockTxRepo struct {
	m *mockRepository
}

func (t *mockTxRepo) Upsert(_ context.Context, c AgentCommission) (AgentCommission, error) {
	if existing, ok := t.m.commissions[c.InvoiceID]; ok {
		if existing.Status == StatusCancelled {
			return existing, nil
		}
		existing.Amount = c.Amount
		t.m.commissions[c.InvoiceID] = existing
		return existing, nil
	}
	c.ID = t.m.nextID
	t.m.nextID++
	t.m.commissions[c.InvoiceID] = c
	return c, nil
}

func (t *mockTxRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	for inv, c := range t.m.commissions {
		if c.ID == id {
			if c.Status != StatusPending {
				return fmt.Errorf("commission %d is %s: %w", id, c.Status, ErrInvalidTransition)
			}
			c.Status = status
			t.m.commissions[inv] = c
			return nil
		}
	}
	return shared.ErrNotFound
}

func testService(repo *mockRepository) *Service {
	return NewService(repo, nil, slog.Default())
}

func TestRecordIsIdempotent(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)
	items := []Item{{Total: 200, BookingDiveID: ptr(int64(1))}}

	first, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	assert.Equal(t, 20.0, first.Amount)
	assert.Equal(t, StatusPending, first.Status)

	second, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same row, no duplicate")
	assert.Len(t, repo.commissions, 1)

	// A changed item total updates the amount in place.
	items[0].Total = 300
	third, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, 30.0, third.Amount)
}

func TestRecordSameReferenceAcrossRuns(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)
	items := []Item{{Total: 100, BookingDiveID: ptr(int64(1))}}

	first, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	second, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	assert.Equal(t, first.Reference, second.Reference)
}

func TestRecordLeavesCancelledAlone(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)
	items := []Item{{Total: 200, BookingDiveID: ptr(int64(1))}}

	first, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), first.ID))

	got, err := svc.Record(context.Background(), 41, 9, items)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Len(t, repo.commissions, 1)
}

func TestRecordUnknownAgent(t *testing.T) {
	svc := testService(newMockRepository())

	_, err := svc.Record(context.Background(), 41, 9, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTotalEarnedExcludesCancelled(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)

	a, err := svc.Record(context.Background(), 41, 9, []Item{{Total: 200, BookingDiveID: ptr(int64(1))}})
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), 42, 9, []Item{{Total: 500, BookingDiveID: ptr(int64(2))}})
	require.NoError(t, err)

	total, err := svc.TotalEarned(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 70.0, total)

	require.NoError(t, svc.Cancel(context.Background(), a.ID))
	total, err = svc.TotalEarned(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)
}

func TestMarkPaid(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)

	c, err := svc.Record(context.Background(), 41, 9, []Item{{Total: 200, BookingDiveID: ptr(int64(1))}})
	require.NoError(t, err)
	require.NoError(t, svc.MarkPaid(context.Background(), c.ID))

	got, err := svc.ByInvoice(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
}

func TestMarkPaidCancelledCommissionFails(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)

	c, err := svc.Record(context.Background(), 41, 9, []Item{{Total: 200, BookingDiveID: ptr(int64(1))}})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), c.ID))

	err = svc.MarkPaid(context.Background(), c.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// The row stays Cancelled and out of the agent's earnings.
	got, err := svc.ByInvoice(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	total, err := svc.TotalEarned(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestCancelPaidCommissionFails(t *testing.T) {
	repo := newMockRepository()
	repo.terms[9] = percentTerm(10)
	svc := testService(repo)

	c, err := svc.Record(context.Background(), 41, 9, []Item{{Total: 200, BookingDiveID: ptr(int64(1))}})
	require.NoError(t, err)
	require.NoError(t, svc.MarkPaid(context.Background(), c.ID))

	err = svc.Cancel(context.Background(), c.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := svc.ByInvoice(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
}
