package shared

import "errors"

// Domain error taxonomy. Every operation in the core surfaces one of these
// kinds so callers can distinguish "computed to zero" from "failed to
// compute". All are scoped to the single operation that raised them.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrPriceNotApplicable indicates no price matched the validity window,
	// dive-count range, or customer type of the query.
	ErrPriceNotApplicable = errors.New("price not applicable")
	// ErrOverlapConflict indicates overlapping price bands under a REJECT
	// overlap-handling rule.
	ErrOverlapConflict = errors.New("overlapping price bands rejected by rule")
	// ErrConfiguration indicates invalid catalog configuration, rejected at
	// write time (inverted tier bounds, non-positive dive quota).
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInsufficientDives indicates a punch-card package with no remaining
	// dive quota.
	ErrInsufficientDives = errors.New("insufficient dives remaining")
	// ErrDuplicateAdvanceInvoice indicates a booking that already has an
	// advance invoice.
	ErrDuplicateAdvanceInvoice = errors.New("booking already has an advance invoice")
	// ErrConcurrencyConflict indicates a lost update on sequence numbering or
	// dive-quota consumption.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)
