package httpx

import (
	"errors"
	"net/http"

	"github.com/reefdesk/reefdesk/internal/shared"
)

// Sentinel errors for the HTTP layer.
var (
	ErrValidation = errors.New("validation failed")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrPriceNotApplicable):
		Problem(w, http.StatusUnprocessableEntity, "Price Not Applicable", err.Error())
	case errors.Is(err, shared.ErrOverlapConflict):
		Problem(w, http.StatusConflict, "Overlap Conflict", err.Error())
	case errors.Is(err, shared.ErrConfiguration):
		Problem(w, http.StatusBadRequest, "Invalid Configuration", err.Error())
	case errors.Is(err, shared.ErrInsufficientDives):
		Problem(w, http.StatusConflict, "Insufficient Dives", err.Error())
	case errors.Is(err, shared.ErrDuplicateAdvanceInvoice):
		Problem(w, http.StatusConflict, "Duplicate Advance Invoice", err.Error())
	case errors.Is(err, shared.ErrConcurrencyConflict):
		Problem(w, http.StatusConflict, "Concurrency Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
