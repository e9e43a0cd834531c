package divepkg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/shared"
)

type mockRepository struct {
	packages map[int64]*DivePackage

	// Error injection
	conflictOnIncrement bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{packages: make(map[int64]*DivePackage)}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*DivePackage, error) {
	p, ok := m.packages[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) ListExpiredActive(_ context.Context, asOf time.Time, limit int) ([]int64, error) {
	var ids []int64
	for id, p := range m.packages {
		if len(ids) == limit {
			break
		}
		if p.Status == StatusActive && p.EndDate != nil && p.EndDate.Before(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepo{mock: m})
}

type mockTxRepo struct {
	mock *mockRepository
}

func (tx *mockTxRepo) GetForUpdate(ctx context.Context, id int64) (*DivePackage, error) {
	return tx.mock.Get(ctx, id)
}

func (tx *mockTxRepo) IncrementDivesUsed(ctx context.Context, id, expectedVersion int64) error {
	if tx.mock.conflictOnIncrement {
		return shared.ErrConcurrencyConflict
	}
	p, ok := tx.mock.packages[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.Version != expectedVersion || p.DivesUsed >= p.TotalDives {
		return shared.ErrConcurrencyConflict
	}
	p.DivesUsed++
	p.Version++
	return nil
}

func (tx *mockTxRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	p, ok := tx.mock.packages[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = status
	return nil
}

func newTestService(pkgs ...*DivePackage) (*Service, *mockRepository) {
	repo := newMockRepository()
	for _, p := range pkgs {
		repo.packages[p.ID] = p
	}
	svc := NewService(repo, nil)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func TestConsumeDive(t *testing.T) {
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 3, Status: StatusActive,
	})

	pkg, err := svc.ConsumeDive(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, pkg.DivesUsed)
	assert.Equal(t, 6, pkg.RemainingDives())
	assert.Equal(t, StatusActive, pkg.Status)
}

func TestConsumeLastDiveCompletes(t *testing.T) {
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 9, Status: StatusActive,
	})

	pkg, err := svc.ConsumeDive(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, pkg.DivesUsed)
	assert.Equal(t, 0, pkg.RemainingDives())
	assert.Equal(t, StatusCompleted, pkg.Status)
}

func TestConsumeExhaustedFails(t *testing.T) {
	svc, repo := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 10, Status: StatusActive,
	})

	_, err := svc.ConsumeDive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientDives))

	// dives_used unchanged.
	assert.Equal(t, 10, repo.packages[1].DivesUsed)
}

func TestConsumeTerminalStatusFails(t *testing.T) {
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 2, Status: StatusCancelled,
	})

	_, err := svc.ConsumeDive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageNotActive))
}

func TestConsumePastEndDateFails(t *testing.T) {
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 2, Status: StatusActive, EndDate: &end,
	})

	_, err := svc.ConsumeDive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageNotActive))
}

func TestConsumeConcurrencyConflictSurfaces(t *testing.T) {
	svc, repo := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 9, Status: StatusActive,
	})
	repo.conflictOnIncrement = true

	_, err := svc.ConsumeDive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
}

func TestTransition(t *testing.T) {
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 2, Status: StatusActive,
	})

	pkg, err := svc.Transition(context.Background(), 1, StatusExpired)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, pkg.Status)

	// Terminal states reject further transitions.
	_, err = svc.Transition(context.Background(), 1, StatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestExpireOverdue(t *testing.T) {
	past := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	svc, repo := newTestService(
		&DivePackage{ID: 1, TotalDives: 10, DivesUsed: 2, Status: StatusActive, EndDate: &past},
		&DivePackage{ID: 2, TotalDives: 10, DivesUsed: 2, Status: StatusActive, EndDate: &future},
		&DivePackage{ID: 3, TotalDives: 10, DivesUsed: 10, Status: StatusCompleted, EndDate: &past},
	)

	expired, err := svc.ExpireOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, StatusExpired, repo.packages[1].Status)
	assert.Equal(t, StatusActive, repo.packages[2].Status)
	assert.Equal(t, StatusCompleted, repo.packages[3].Status)
}

func TestIsActiveService(t *testing.T) {
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&DivePackage{
		ID: 1, TotalDives: 10, DivesUsed: 2, Status: StatusActive, EndDate: &end,
	})

	active, err := svc.IsActive(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, active)
}
