package invoicing

import "time"

// InvoiceType distinguishes the deposit/settlement chain from a plain
// one-shot invoice.
type InvoiceType string

const (
	TypeAdvance InvoiceType = "Advance"
	TypeFinal   InvoiceType = "Final"
	TypeFull    InvoiceType = "Full"
)

type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "Draft"
	StatusPartiallyPaid InvoiceStatus = "Partially Paid"
	StatusPaid          InvoiceStatus = "Paid"
	StatusRefunded      InvoiceStatus = "Refunded"
)

type Invoice struct {
	ID               int64         `json:"id" db:"id"`
	TenantID         int64         `json:"tenant_id" db:"tenant_id"`
	Number           string        `json:"number" db:"number"`
	BookingID        int64         `json:"booking_id" db:"booking_id"`
	AgentID          *int64        `json:"agent_id,omitempty" db:"agent_id"`
	Type             InvoiceType   `json:"type" db:"type"`
	Status           InvoiceStatus `json:"status" db:"status"`
	RelatedInvoiceID *int64        `json:"related_invoice_id,omitempty" db:"related_invoice_id"`
	Total            float64       `json:"total" db:"total"`
	IssuedAt         time.Time     `json:"issued_at" db:"issued_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// InvoiceItem is one line on an invoice. The link columns identify what
// priced the line; a line with none of them was entered by hand.
type InvoiceItem struct {
	ID              int64   `json:"id" db:"id"`
	InvoiceID       int64   `json:"invoice_id" db:"invoice_id"`
	Description     string  `json:"description" db:"description"`
	Quantity        int     `json:"quantity" db:"quantity"`
	UnitPrice       float64 `json:"unit_price" db:"unit_price"`
	Total           float64 `json:"total" db:"total"`
	IsEquipment     bool    `json:"is_equipment" db:"is_equipment"`
	BookingDiveID   *int64  `json:"booking_dive_id,omitempty" db:"booking_dive_id"`
	EquipmentID     *int64  `json:"equipment_id,omitempty" db:"equipment_id"`
	PriceListItemID *int64  `json:"price_list_item_id,omitempty" db:"price_list_item_id"`
}

// NewItem builds a line with its total established once at creation.
func NewItem(description string, quantity int, unitPrice float64) InvoiceItem {
	return InvoiceItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       round2(unitPrice * float64(quantity)),
	}
}

type Payment struct {
	ID        int64     `json:"id" db:"id"`
	InvoiceID int64     `json:"invoice_id" db:"invoice_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Method    string    `json:"method" db:"method"`
	PaidAt    time.Time `json:"paid_at" db:"paid_at"`
}

// CreateInvoiceRequest covers Advance and Full invoices. Final invoices are
// minted from their Advance via CreateFinal.
type CreateInvoiceRequest struct {
	TenantID  int64             `json:"tenant_id" validate:"required"`
	BookingID int64             `json:"booking_id" validate:"required"`
	AgentID   *int64            `json:"agent_id,omitempty"`
	Type      InvoiceType       `json:"type" validate:"required,oneof=Advance Full"`
	Items     []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

type CreateItemInput struct {
	Description     string  `json:"description" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	IsEquipment     bool    `json:"is_equipment"`
	BookingDiveID   *int64  `json:"booking_dive_id,omitempty"`
	EquipmentID     *int64  `json:"equipment_id,omitempty"`
	PriceListItemID *int64  `json:"price_list_item_id,omitempty"`
}

type AddPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
}
