package divepkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 {
	return &v
}

func TestRemainingDives(t *testing.T) {
	p := DivePackage{TotalDives: 10, DivesUsed: 3}
	assert.Equal(t, 7, p.RemainingDives())

	p.DivesUsed = 10
	assert.Equal(t, 0, p.RemainingDives())

	// Floor at zero even on corrupted data.
	p.DivesUsed = 12
	assert.Equal(t, 0, p.RemainingDives())
}

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 1, 0)

	p := DivePackage{TotalDives: 10, DivesUsed: 3, Status: StatusActive, EndDate: &end}
	assert.True(t, p.IsActive(now))
	assert.True(t, p.CanAddDive(now))

	// Terminal status.
	p.Status = StatusCancelled
	assert.False(t, p.IsActive(now))

	// Past end date.
	p.Status = StatusActive
	past := now.AddDate(0, 0, -1)
	p.EndDate = &past
	assert.False(t, p.IsActive(now))

	// Open-ended package with remaining quota.
	p.EndDate = nil
	assert.True(t, p.IsActive(now))

	// Exhausted quota.
	p.DivesUsed = 10
	assert.False(t, p.IsActive(now))
	assert.False(t, p.CanAddDive(now))
}

func TestPerDiveRate(t *testing.T) {
	p := DivePackage{TotalDives: 10, TotalPrice: 400}
	assert.Equal(t, 40.0, p.PerDiveRate())

	// Explicit rate wins over the derived one.
	p.PerDivePrice = fptr(45)
	assert.Equal(t, 45.0, p.PerDiveRate())

	// Zero quota prices to zero, no division.
	p = DivePackage{TotalDives: 0, TotalPrice: 400}
	assert.Equal(t, 0.0, p.PerDiveRate())
}
