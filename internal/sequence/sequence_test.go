package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/shared"
)

type seqKey struct {
	tenant int64
	scheme string
	period int
}

// mockQuerier mimics the upsert counter, optionally failing the first N
// calls with a unique violation the way racing first inserts do.
type mockQuerier struct {
	counters  map[seqKey]int64
	failFirst int
	calls     int
	err       error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[seqKey]int64)}
}

type mockRow struct {
	value int64
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.value
	return nil
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.calls++
	if m.err != nil {
		return mockRow{err: m.err}
	}
	if m.calls <= m.failFirst {
		return mockRow{err: &pgconn.PgError{Code: "23505"}}
	}
	key := seqKey{tenant: args[0].(int64), scheme: args[1].(string), period: args[2].(int)}
	m.counters[key]++
	return mockRow{value: m.counters[key]}
}

func TestNextFormatsAndIncrements(t *testing.T) {
	q := newMockQuerier()
	gen := NewGenerator(q, nil)

	first, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", first)

	second, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-002", second)
}

func TestNextIsolatesSeries(t *testing.T) {
	q := newMockQuerier()
	gen := NewGenerator(q, nil)

	_, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.NoError(t, err)

	byScheme, err := gen.Next(context.Background(), 1, SchemeBasket, 2026)
	require.NoError(t, err)
	assert.Equal(t, "BSK-2026-001", byScheme)

	byPeriod, err := gen.Next(context.Background(), 1, SchemeInvoice, 2027)
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-001", byPeriod)

	byTenant, err := gen.Next(context.Background(), 2, SchemeInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", byTenant)
}

func TestNextRetriesUniqueViolation(t *testing.T) {
	q := newMockQuerier()
	q.failFirst = 1
	gen := NewGenerator(q, nil)

	got, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", got)
	assert.Equal(t, 2, q.calls)
}

// mockTxQuerier presents the counter as part of a transaction, the way the
// invoicing repository builds its generator.
type mockTxQuerier struct {
	pgx.Tx
	inner *mockQuerier
}

func (m *mockTxQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.inner.QueryRow(ctx, sql, args...)
}

func TestNextInTxSurfacesConflictWithoutRetry(t *testing.T) {
	inner := newMockQuerier()
	inner.failFirst = 1
	gen := NewGenerator(&mockTxQuerier{inner: inner}, nil)

	_, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, inner.calls, "no further statements on an aborted transaction")
}

func TestNextGivesUpAfterRetries(t *testing.T) {
	q := newMockQuerier()
	q.failFirst = maxRetries
	gen := NewGenerator(q, nil)

	_, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestNextPropagatesOtherErrors(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	gen := NewGenerator(q, nil)

	_, err := gen.Next(context.Background(), 1, SchemeInvoice, 2026)
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 1, q.calls)
}

func TestFormatPadsToThreeDigits(t *testing.T) {
	assert.Equal(t, "INV-2026-007", Format(SchemeInvoice, 2026, 7))
	assert.Equal(t, "EXP-2026-042", Format(SchemeExpense, 2026, 42))
	assert.Equal(t, "INV-2026-1042", Format(SchemeInvoice, 2026, 1042))
}
