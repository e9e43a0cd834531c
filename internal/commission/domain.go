package commission

import (
	"time"

	"github.com/google/uuid"
)

// Type selects how an agent's commission is derived.
type Type string

const (
	TypePercentage  Type = "Percentage"
	TypeFixedAmount Type = "FixedAmount"
)

// Status enumerates commission lifecycle states. Paid and Cancelled are
// terminal; transitions come from the payment workflow, not this package.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusCancelled Status = "Cancelled"
)

// AgentCommercialTerm is an agent's commercial agreement, one per agent.
type AgentCommercialTerm struct {
	ID                             int64   `json:"id" db:"id"`
	AgentID                        int64   `json:"agent_id" db:"agent_id"`
	CommissionType                 Type    `json:"commission_type" db:"commission_type"`
	CommissionRate                 float64 `json:"commission_rate" db:"commission_rate"`
	ExcludeEquipmentFromCommission bool    `json:"exclude_equipment_from_commission" db:"exclude_equipment_from_commission"`
	IncludeManualItemsInCommission bool    `json:"include_manual_items_in_commission" db:"include_manual_items_in_commission"`
}

// AgentCommission is the single commission row for one (invoice, agent)
// pair.
type AgentCommission struct {
	ID        int64     `json:"id" db:"id"`
	Reference uuid.UUID `json:"reference" db:"reference"`
	InvoiceID int64     `json:"invoice_id" db:"invoice_id"`
	AgentID   int64     `json:"agent_id" db:"agent_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Item is the snapshot of one invoice line the calculator consumes. A line
// with no link to a booking dive, equipment rental or price-list item is a
// manual line.
type Item struct {
	Total           float64
	IsEquipment     bool
	BookingDiveID   *int64
	EquipmentID     *int64
	PriceListItemID *int64
}

// IsManual reports whether the line was typed in by hand rather than priced
// from the catalog or a booking.
func (i Item) IsManual() bool {
	return i.BookingDiveID == nil && i.EquipmentID == nil && i.PriceListItemID == nil
}
