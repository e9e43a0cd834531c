package packages

import "time"

// ComponentType classifies package components.
type ComponentType string

const (
	ComponentTransfer      ComponentType = "TRANSFER"
	ComponentAccommodation ComponentType = "ACCOMMODATION"
	ComponentDive          ComponentType = "DIVE"
	ComponentExcursion     ComponentType = "EXCURSION"
	ComponentMeal          ComponentType = "MEAL"
	ComponentEquipment     ComponentType = "EQUIPMENT"
	ComponentOther         ComponentType = "OTHER"
)

// Package is a bundled product: components make up the list price,
// options are independent add-ons, pricing tiers adjust the per-person rate
// by group size.
type Package struct {
	ID             int64                `json:"id" db:"id"`
	TenantID       int64                `json:"tenant_id" db:"tenant_id"`
	Name           string               `json:"name" db:"name"`
	BasePrice      float64              `json:"base_price" db:"base_price"`
	PricePerPerson float64              `json:"price_per_person" db:"price_per_person"`
	Nights         int                  `json:"nights" db:"nights"`
	Days           int                  `json:"days" db:"days"`
	TotalDives     int                  `json:"total_dives" db:"total_dives"`
	IsActive       bool                 `json:"is_active" db:"is_active"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" db:"updated_at"`
	DeletedAt      *time.Time           `json:"deleted_at,omitempty" db:"deleted_at"`
	Components     []PackageComponent   `json:"components,omitempty" db:"-"`
	Options        []PackageOption      `json:"options,omitempty" db:"-"`
	PricingTiers   []PackagePricingTier `json:"pricing_tiers,omitempty" db:"-"`
}

// PackageComponent is one ordered line of the package breakdown.
// TotalPrice = UnitPrice × Quantity is established by NewComponent at
// creation, never recomputed by persistence hooks.
type PackageComponent struct {
	ID            int64         `json:"id" db:"id"`
	PackageID     int64         `json:"package_id" db:"package_id"`
	ComponentType ComponentType `json:"component_type" db:"component_type"`
	Description   string        `json:"description" db:"description"`
	UnitPrice     float64       `json:"unit_price" db:"unit_price"`
	Quantity      int           `json:"quantity" db:"quantity"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	IsInclusive   bool          `json:"is_inclusive" db:"is_inclusive"`
	SortOrder     int           `json:"sort_order" db:"sort_order"`
}

// NewComponent establishes the total-price invariant once, at creation.
func NewComponent(packageID int64, componentType ComponentType, description string, unitPrice float64, quantity int, inclusive bool, sortOrder int) PackageComponent {
	return PackageComponent{
		PackageID:     packageID,
		ComponentType: componentType,
		Description:   description,
		UnitPrice:     unitPrice,
		Quantity:      quantity,
		TotalPrice:    round2(unitPrice * float64(quantity)),
		IsInclusive:   inclusive,
		SortOrder:     sortOrder,
	}
}

// PackageOption is an optional add-on with its own price.
type PackageOption struct {
	ID          int64   `json:"id" db:"id"`
	PackageID   int64   `json:"package_id" db:"package_id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	MaxQuantity int     `json:"max_quantity" db:"max_quantity"`
	IsActive    bool    `json:"is_active" db:"is_active"`
	SortOrder   int     `json:"sort_order" db:"sort_order"`
}

// PackagePricingTier adjusts the per-person rate by group size.
// MaxPersons nil means open-ended.
type PackagePricingTier struct {
	ID                 int64    `json:"id" db:"id"`
	PackageID          int64    `json:"package_id" db:"package_id"`
	MinPersons         int      `json:"min_persons" db:"min_persons"`
	MaxPersons         *int     `json:"max_persons,omitempty" db:"max_persons"`
	PricePerPerson     float64  `json:"price_per_person" db:"price_per_person"`
	DiscountPercentage float64  `json:"discount_percentage" db:"discount_percentage"`
	IsActive           bool     `json:"is_active" db:"is_active"`
}

// BreakdownLineKind tags breakdown lines.
type BreakdownLineKind string

const (
	LineHeader    BreakdownLineKind = "HEADER"
	LineMarker    BreakdownLineKind = "BREAKDOWN"
	LineComponent BreakdownLineKind = "COMPONENT"
	LineTotal     BreakdownLineKind = "TOTAL"
)

// BreakdownLine is one row of the package breakdown listing.
type BreakdownLine struct {
	Kind        BreakdownLineKind `json:"kind"`
	Description string            `json:"description"`
	UnitPrice   float64           `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Unit        string            `json:"unit,omitempty"`
	TotalPrice  float64           `json:"total_price"`
}

// QuoteRequest asks for a persons/options-adjusted package price.
type QuoteRequest struct {
	PackageID int64   `json:"package_id" validate:"required,gt=0"`
	Persons   int     `json:"persons" validate:"required,gt=0"`
	OptionIDs []int64 `json:"option_ids,omitempty"`
}
