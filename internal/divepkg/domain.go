// Package divepkg tracks punch-card dive packages: a prepaid bundle of N
// dives consumed incrementally over a validity window.
package divepkg

import "time"

// Status enumerates punch-card states. Active is the only non-terminal
// state.
type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusExpired   Status = "Expired"
	StatusCancelled Status = "Cancelled"
)

// DivePackage is one punch card. 0 <= DivesUsed <= TotalDives always holds.
type DivePackage struct {
	ID          int64      `json:"id" db:"id"`
	TenantID    int64      `json:"tenant_id" db:"tenant_id"`
	CustomerID  int64      `json:"customer_id" db:"customer_id"`
	TotalDives  int        `json:"package_total_dives" db:"package_total_dives"`
	DivesUsed   int        `json:"package_dives_used" db:"package_dives_used"`
	TotalPrice  float64    `json:"package_total_price" db:"package_total_price"`
	PerDivePrice *float64  `json:"package_per_dive_price,omitempty" db:"package_per_dive_price"`
	StartDate   time.Time  `json:"package_start_date" db:"package_start_date"`
	EndDate     *time.Time `json:"package_end_date,omitempty" db:"package_end_date"`
	Status      Status     `json:"status" db:"status"`
	Version     int64      `json:"-" db:"version"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RemainingDives returns the unused quota, floored at zero.
func (p DivePackage) RemainingDives() int {
	remaining := p.TotalDives - p.DivesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsActive reports whether the punch card can still be consumed as of the
// given time. Derived on every call, never cached: DivesUsed moves between
// checks.
func (p DivePackage) IsActive(asOf time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.EndDate != nil && asOf.After(*p.EndDate) {
		return false
	}
	return p.RemainingDives() > 0
}

// CanAddDive reports whether one more dive may be logged. Kept as a distinct
// named check for call-site clarity.
func (p DivePackage) CanAddDive(asOf time.Time) bool {
	return p.IsActive(asOf)
}

// PerDiveRate returns the effective per-dive price: the explicit rate when
// set, otherwise total price spread over the quota. A zero-dive package
// prices to zero rather than dividing by zero.
func (p DivePackage) PerDiveRate() float64 {
	if p.PerDivePrice != nil {
		return *p.PerDivePrice
	}
	if p.TotalDives > 0 {
		return p.TotalPrice / float64(p.TotalDives)
	}
	return 0
}
