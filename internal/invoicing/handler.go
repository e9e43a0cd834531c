package invoicing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reefdesk/reefdesk/internal/platform/httpx"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// Handler exposes invoice issuance and settlement over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches invoicing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.Create)
	r.Post("/invoices/{id}/final", h.CreateFinal)
	r.Post("/invoices/{id}/payments", h.AddPayment)
	r.Post("/invoices/{id}/refund", h.Refund)
	r.Get("/invoices/{id}/reconciliation", h.Reconciliation)
	r.Get("/invoices/export", h.Export)
}

func invoiceID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Create issues an Advance or Full invoice for a booking.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.TenantID = shared.TenantFromContext(r.Context())
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create invoice failed", "booking_id", req.BookingID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, inv)
}

// CreateFinal issues the settlement invoice chained to the advance in the
// path.
func (h *Handler) CreateFinal(w http.ResponseWriter, r *http.Request) {
	advanceID, ok := invoiceID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	var req struct {
		Items []CreateItemInput `json:"items" validate:"required,min=1,dive"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	inv, err := h.service.CreateFinal(r.Context(), advanceID, req.Items)
	if err != nil {
		h.logger.Warn("create final invoice failed", "advance_id", advanceID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, inv)
}

// AddPayment records a payment and returns the updated balance.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	var req AddPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rec, err := h.service.AddPayment(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrPaymentNotAllowed) {
			httpx.Problem(w, http.StatusConflict, "Payment Not Allowed", err.Error())
			return
		}
		h.logger.Warn("add payment failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, rec)
}

// Refund marks the invoice refunded.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	if err := h.service.Refund(r.Context(), id); err != nil {
		h.logger.Warn("refund invoice failed", "invoice_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(StatusRefunded)})
}

// Reconciliation reports the invoice's balance.
func (h *Handler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	rec, err := h.service.Reconcile(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, rec)
}

// Export streams the tenant's invoices for one year as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year <= 0 {
		year = time.Now().Year()
	}

	tenantID := shared.TenantFromContext(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	if err := h.service.Export(r.Context(), w, tenantID, year); err != nil {
		h.logger.Error("export invoices failed", "tenant_id", tenantID, "error", err)
	}
}
