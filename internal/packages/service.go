package packages

import (
	"context"
	"fmt"
)

// Service exposes package pricing over the catalog repository.
type Service struct {
	repo Repository
}

// NewService builds the package service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Quote computes the persons/options-adjusted price for a package.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (float64, error) {
	pkg, err := s.repo.Get(ctx, req.PackageID)
	if err != nil {
		return 0, fmt.Errorf("load package: %w", err)
	}
	return CalculatePrice(*pkg, req.Persons, req.OptionIDs), nil
}

// Breakdown returns the ordered breakdown listing for a package.
func (s *Service) Breakdown(ctx context.Context, packageID int64) ([]BreakdownLine, error) {
	pkg, err := s.repo.Get(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	return GetBreakdown(*pkg), nil
}

// Validate runs the configuration-time breakdown sanity check.
func (s *Service) Validate(ctx context.Context, packageID int64) (bool, error) {
	pkg, err := s.repo.Get(ctx, packageID)
	if err != nil {
		return false, fmt.Errorf("load package: %w", err)
	}
	return ValidateBreakdown(*pkg), nil
}

// AddComponent persists a component with its total established up front.
func (s *Service) AddComponent(ctx context.Context, packageID int64, componentType ComponentType, description string, unitPrice float64, quantity int, inclusive bool, sortOrder int) (*PackageComponent, error) {
	if _, err := s.repo.Get(ctx, packageID); err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}

	c := NewComponent(packageID, componentType, description, unitPrice, quantity, inclusive, sortOrder)
	id, err := s.repo.InsertComponent(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("insert component: %w", err)
	}
	c.ID = id
	return &c, nil
}
