package divepkg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reefdesk/reefdesk/internal/observability"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// ErrPackageNotActive indicates a punch card whose status or validity window
// forbids consumption.
var ErrPackageNotActive = errors.New("dive package not active")

// ErrInvalidTransition indicates a status change from a terminal state.
var ErrInvalidTransition = errors.New("dive package status is terminal")

// Service drives punch-card consumption and the status machine.
type Service struct {
	repo    Repository
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService builds the punch-card service. metrics may be nil.
func NewService(repo Repository, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, metrics: metrics, now: time.Now}
}

// ConsumeDive logs one dive against the punch card. The row is locked for
// the duration of the check-then-increment so two concurrent bookings cannot
// both pass CanAddDive when only one dive remains. Exhausting the quota
// flips the card to Completed.
func (s *Service) ConsumeDive(ctx context.Context, id int64) (*DivePackage, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pkg, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		asOf := s.now()
		if pkg.Status != StatusActive {
			return fmt.Errorf("dive package %d status %s: %w", id, pkg.Status, ErrPackageNotActive)
		}
		if pkg.EndDate != nil && asOf.After(*pkg.EndDate) {
			return fmt.Errorf("dive package %d ended %s: %w", id, pkg.EndDate.Format("2006-01-02"), ErrPackageNotActive)
		}
		if pkg.RemainingDives() == 0 {
			return fmt.Errorf("dive package %d: %d of %d dives used: %w",
				id, pkg.DivesUsed, pkg.TotalDives, shared.ErrInsufficientDives)
		}

		if err := tx.IncrementDivesUsed(ctx, id, pkg.Version); err != nil {
			return err
		}

		if pkg.RemainingDives() == 1 {
			// This consumption exhausted the quota.
			if err := tx.UpdateStatus(ctx, id, StatusCompleted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DivesConsumed.Inc()
	}
	return s.repo.Get(ctx, id)
}

// IsActive re-evaluates the derived predicate against the current row.
func (s *Service) IsActive(ctx context.Context, id int64) (bool, error) {
	pkg, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return pkg.IsActive(s.now()), nil
}

// ExpireOverdue sweeps Active packages past their end date to Expired and
// reports how many flipped. A package consumed or cancelled between the
// scan and its turn is skipped, not an error.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListExpiredActive(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	var expired int
	for _, id := range ids {
		if _, err := s.Transition(ctx, id, StatusExpired); err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// Transition applies an external workflow decision. Non-Active states are
// terminal.
func (s *Service) Transition(ctx context.Context, id int64, target Status) (*DivePackage, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		pkg, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if pkg.Status != StatusActive {
			return fmt.Errorf("dive package %d is %s: %w", id, pkg.Status, ErrInvalidTransition)
		}
		if target == StatusActive {
			return fmt.Errorf("dive package %d: cannot transition to Active: %w", id, ErrInvalidTransition)
		}
		return tx.UpdateStatus(ctx, id, target)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
