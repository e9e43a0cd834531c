package pricing

import (
	"time"

	"github.com/reefdesk/reefdesk/internal/booking"
)

// PricingModel selects how a price-list item prices a service.
type PricingModel string

const (
	ModelSingle PricingModel = "SINGLE"
	ModelRange  PricingModel = "RANGE"
	ModelTiered PricingModel = "TIERED"
)

// RuleType enumerates pricing rule categories.
type RuleType string

const (
	RuleTypeOverlapHandling RuleType = "OVERLAP_HANDLING"
	RuleTypeValidation      RuleType = "VALIDATION"
	RuleTypeDiscount        RuleType = "DISCOUNT"
	RuleTypeSurcharge       RuleType = "SURCHARGE"
)

// RuleAction enumerates the documented rule actions.
type RuleAction string

const (
	ActionApplyLowest          RuleAction = "APPLY_LOWEST"
	ActionApplyHighestPriority RuleAction = "APPLY_HIGHEST_PRIORITY"
	ActionReject               RuleAction = "REJECT"
	ActionWarn                 RuleAction = "WARN"
)

// PriceList groups price-list items for one tenant context.
type PriceList struct {
	ID        int64     `json:"id" db:"id"`
	TenantID  int64     `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Currency  string    `json:"currency" db:"currency"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PriceListItem prices one service, either flat, by dive-count range, or by
// tiered schedule.
type PriceListItem struct {
	ID                     int64                `json:"id" db:"id"`
	PriceListID            int64                `json:"price_list_id" db:"price_list_id"`
	ServiceType            string               `json:"service_type" db:"service_type"`
	Name                   string               `json:"name" db:"name"`
	BasePrice              float64              `json:"base_price" db:"base_price"`
	PricingModel           PricingModel         `json:"pricing_model" db:"pricing_model"`
	MinDives               int                  `json:"min_dives" db:"min_dives"`
	MaxDives               int                  `json:"max_dives" db:"max_dives"`
	Priority               int                  `json:"priority" db:"priority"`
	ValidFrom              *time.Time           `json:"valid_from,omitempty" db:"valid_from"`
	ValidUntil             *time.Time           `json:"valid_until,omitempty" db:"valid_until"`
	ApplicableTo           booking.CustomerType `json:"applicable_to" db:"applicable_to"`
	TaxInclusive           bool                 `json:"tax_inclusive" db:"tax_inclusive"`
	ServiceChargeInclusive bool                 `json:"service_charge_inclusive" db:"service_charge_inclusive"`
	IsActive               bool                 `json:"is_active" db:"is_active"`
	IsStandalone           bool                 `json:"is_standalone" db:"is_standalone"`
	CanBePackageComponent  bool                 `json:"can_be_package_component" db:"can_be_package_component"`
	PackageComponentType   *string              `json:"package_component_type,omitempty" db:"package_component_type"`
	CreatedAt              time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at" db:"updated_at"`
	Tiers                  []PriceTier          `json:"tiers,omitempty" db:"-"`
}

// PriceTier is one dive-count band of a TIERED item. FromDives <= ToDives is
// enforced at write time, never discovered during resolution.
type PriceTier struct {
	ID           int64     `json:"id" db:"id"`
	ItemID       int64     `json:"item_id" db:"item_id"`
	FromDives    int       `json:"from_dives" db:"from_dives"`
	ToDives      int       `json:"to_dives" db:"to_dives"`
	PricePerDive float64   `json:"price_per_dive" db:"price_per_dive"`
	TotalPrice   *float64  `json:"total_price,omitempty" db:"total_price"`
	SortOrder    int       `json:"sort_order" db:"sort_order"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Contains reports whether the tier band covers the dive count. ToDives is
// inclusive.
func (t PriceTier) Contains(diveCount int) bool {
	return diveCount >= t.FromDives && diveCount <= t.ToDives
}

// ConditionKind tags the closed rule-condition union.
type ConditionKind string

const (
	ConditionAny         ConditionKind = "ANY"
	ConditionServiceType ConditionKind = "SERVICE_TYPE"
	ConditionDateRange   ConditionKind = "DATE_RANGE"
)

// RuleCondition scopes a pricing rule. It is a closed predicate language:
// match everything, match one service type, or match a date window.
type RuleCondition struct {
	Kind        ConditionKind `json:"kind"`
	ServiceType string        `json:"service_type,omitempty"`
	DateFrom    *time.Time    `json:"date_from,omitempty"`
	DateTo      *time.Time    `json:"date_to,omitempty"`
}

// Matches evaluates the condition against a query scope.
func (c RuleCondition) Matches(serviceType string, asOf time.Time) bool {
	switch c.Kind {
	case ConditionAny, "":
		return true
	case ConditionServiceType:
		return c.ServiceType == serviceType
	case ConditionDateRange:
		if c.DateFrom != nil && asOf.Before(*c.DateFrom) {
			return false
		}
		if c.DateTo != nil && asOf.After(*c.DateTo) {
			return false
		}
		return true
	}
	return false
}

// PricingRule configures overlap handling and adjustments. Rules are
// evaluated in SortOrder; the first active OVERLAP_HANDLING rule matching
// the query's scope governs tie-break behaviour for that query.
type PricingRule struct {
	ID        int64         `json:"id" db:"id"`
	TenantID  int64         `json:"tenant_id" db:"tenant_id"`
	RuleType  RuleType      `json:"rule_type" db:"rule_type"`
	Condition RuleCondition `json:"condition" db:"condition"`
	Action    RuleAction    `json:"action" db:"action"`
	SortOrder int           `json:"sort_order" db:"sort_order"`
	IsActive  bool          `json:"is_active" db:"is_active"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// Query carries the parameters of one price resolution.
type Query struct {
	DiveCount    int
	AsOf         time.Time
	CustomerType booking.CustomerType
}

// PriceResult is the outcome of a successful resolution.
type PriceResult struct {
	UnitPrice    float64  `json:"unit_price"`
	SourceItemID int64    `json:"source_item_id"`
	SourceTierID *int64   `json:"source_tier_id,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// CreateItemRequest creates a price-list item.
type CreateItemRequest struct {
	PriceListID            int64   `json:"price_list_id" validate:"required,gt=0"`
	ServiceType            string  `json:"service_type" validate:"required,max=100"`
	Name                   string  `json:"name" validate:"required,max=200"`
	BasePrice              float64 `json:"base_price" validate:"gte=0"`
	PricingModel           string  `json:"pricing_model" validate:"required,oneof=SINGLE RANGE TIERED"`
	MinDives               int     `json:"min_dives" validate:"gte=0"`
	MaxDives               int     `json:"max_dives" validate:"gte=0"`
	Priority               int     `json:"priority"`
	ValidFrom              *time.Time `json:"valid_from,omitempty"`
	ValidUntil             *time.Time `json:"valid_until,omitempty"`
	ApplicableTo           string  `json:"applicable_to" validate:"required,oneof=ALL MEMBER NON_MEMBER GROUP CORPORATE"`
	TaxInclusive           bool    `json:"tax_inclusive"`
	ServiceChargeInclusive bool    `json:"service_charge_inclusive"`
	IsStandalone           bool    `json:"is_standalone"`
	CanBePackageComponent  bool    `json:"can_be_package_component"`
	PackageComponentType   *string `json:"package_component_type,omitempty"`
}

// CreateTierRequest adds a tier to a TIERED item.
type CreateTierRequest struct {
	FromDives    int      `json:"from_dives" validate:"gte=0"`
	ToDives      int      `json:"to_dives" validate:"gte=0"`
	PricePerDive float64  `json:"price_per_dive" validate:"gte=0"`
	TotalPrice   *float64 `json:"total_price,omitempty" validate:"omitempty,gte=0"`
	SortOrder    int      `json:"sort_order"`
}

// CreateRuleRequest adds a tenant pricing rule.
type CreateRuleRequest struct {
	RuleType  string        `json:"rule_type" validate:"required,oneof=OVERLAP_HANDLING VALIDATION DISCOUNT SURCHARGE"`
	Action    string        `json:"action" validate:"required,oneof=APPLY_LOWEST APPLY_HIGHEST_PRIORITY REJECT WARN"`
	SortOrder int           `json:"sort_order"`
	Condition RuleCondition `json:"condition"`
}

// ResolveServiceRequest asks for the best price of a service type across
// the tenant's catalog.
type ResolveServiceRequest struct {
	ServiceType  string    `json:"service_type" validate:"required,max=100"`
	DiveCount    int       `json:"dive_count" validate:"gte=0"`
	AsOf         time.Time `json:"as_of"`
	CustomerType string    `json:"customer_type" validate:"required,oneof=ALL MEMBER NON_MEMBER GROUP CORPORATE"`
}

// ResolveRequest asks for one price.
type ResolveRequest struct {
	ItemID       int64     `json:"item_id" validate:"required,gt=0"`
	DiveCount    int       `json:"dive_count" validate:"gte=0"`
	AsOf         time.Time `json:"as_of"`
	CustomerType string    `json:"customer_type" validate:"required,oneof=ALL MEMBER NON_MEMBER GROUP CORPORATE"`
}
