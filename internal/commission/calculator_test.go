package commission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reefdesk/reefdesk/internal/shared"
)

func ptr[T any](v T) *T { return &v }

func percentTerm(rate float64) AgentCommercialTerm {
	return AgentCommercialTerm{
		CommissionType:                 TypePercentage,
		CommissionRate:                 rate,
		ExcludeEquipmentFromCommission: true,
	}
}

func TestCalculateExcludesEquipment(t *testing.T) {
	items := []Item{
		{Total: 100, IsEquipment: true, EquipmentID: ptr(int64(7))},
		{Total: 200, BookingDiveID: ptr(int64(3))},
	}

	amount, err := Calculate(items, percentTerm(10))
	require.NoError(t, err)
	assert.Equal(t, 20.0, amount)
}

func TestCalculateIncludesEquipmentWhenAllowed(t *testing.T) {
	items := []Item{
		{Total: 100, IsEquipment: true, EquipmentID: ptr(int64(7))},
		{Total: 200, BookingDiveID: ptr(int64(3))},
	}
	term := percentTerm(10)
	term.ExcludeEquipmentFromCommission = false

	amount, err := Calculate(items, term)
	require.NoError(t, err)
	assert.Equal(t, 30.0, amount)
}

func TestCalculateManualItems(t *testing.T) {
	items := []Item{
		{Total: 200, BookingDiveID: ptr(int64(3))},
		{Total: 50}, // no links, a hand-typed line
	}

	term := percentTerm(10)
	amount, err := Calculate(items, term)
	require.NoError(t, err)
	assert.Equal(t, 20.0, amount, "manual line excluded by default")

	term.IncludeManualItemsInCommission = true
	amount, err = Calculate(items, term)
	require.NoError(t, err)
	assert.Equal(t, 25.0, amount)
}

func TestCalculateFixedAmount(t *testing.T) {
	term := AgentCommercialTerm{CommissionType: TypeFixedAmount, CommissionRate: 35}

	amount, err := Calculate([]Item{{Total: 500, BookingDiveID: ptr(int64(1))}}, term)
	require.NoError(t, err)
	assert.Equal(t, 35.0, amount, "flat rate applied once per invoice")

	amount, err = Calculate([]Item{
		{Total: 500, BookingDiveID: ptr(int64(1))},
		{Total: 300, BookingDiveID: ptr(int64(2))},
	}, term)
	require.NoError(t, err)
	assert.Equal(t, 35.0, amount, "not multiplied by item count")
}

func TestCalculateFixedAmountNoCommissionableLines(t *testing.T) {
	term := AgentCommercialTerm{
		CommissionType:                 TypeFixedAmount,
		CommissionRate:                 35,
		ExcludeEquipmentFromCommission: true,
	}

	amount, err := Calculate([]Item{{Total: 100, IsEquipment: true, EquipmentID: ptr(int64(7))}}, term)
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestCalculateRounding(t *testing.T) {
	items := []Item{{Total: 33.33, BookingDiveID: ptr(int64(1))}}

	amount, err := Calculate(items, percentTerm(15))
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)
}

func TestCalculateRejectsBadTerm(t *testing.T) {
	_, err := Calculate(nil, AgentCommercialTerm{CommissionType: "Barter"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConfiguration))

	_, err = Calculate(nil, percentTerm(-5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConfiguration))
}

func TestIsManual(t *testing.T) {
	assert.True(t, Item{Total: 10}.IsManual())
	assert.False(t, Item{Total: 10, PriceListItemID: ptr(int64(4))}.IsManual())
	assert.False(t, Item{Total: 10, EquipmentID: ptr(int64(4))}.IsManual())
	assert.False(t, Item{Total: 10, BookingDiveID: ptr(int64(4))}.IsManual())
}
