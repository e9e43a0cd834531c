package commission

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reefdesk/reefdesk/internal/platform/httpx"
)

// RecomputeFunc queues an asynchronous commission replay for an invoice.
type RecomputeFunc func(ctx context.Context, invoiceID, agentID int64) error

// Handler exposes agent commission lookups and lifecycle transitions.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	recompute RecomputeFunc
}

func NewHandler(logger *slog.Logger, service *Service, recompute RecomputeFunc) *Handler {
	return &Handler{logger: logger, service: service, recompute: recompute}
}

// MountRoutes attaches commission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/agents/{id}/commissions/total", h.TotalEarned)
	r.Get("/invoices/{id}/commission", h.ByInvoice)
	r.Post("/commissions/{id}/pay", h.MarkPaid)
	r.Post("/commissions/{id}/cancel", h.Cancel)
	if h.recompute != nil {
		r.Post("/invoices/{id}/commission/recompute", h.Recompute)
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// TotalEarned reports the agent's aggregate non-cancelled commission.
func (h *Handler) TotalEarned(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid agent id")
		return
	}

	total, err := h.service.TotalEarned(r.Context(), agentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]float64{"total_earned": total})
}

// ByInvoice returns the commission row attached to an invoice.
func (h *Handler) ByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	row, err := h.service.ByInvoice(r.Context(), invoiceID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, row)
}

// MarkPaid moves a pending commission to Paid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid commission id")
		return
	}

	if err := h.service.MarkPaid(r.Context(), id); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
			return
		}
		h.logger.Warn("mark commission paid failed", "commission_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(StatusPaid)})
}

// Cancel voids a commission.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid commission id")
		return
	}

	if err := h.service.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
			return
		}
		h.logger.Warn("cancel commission failed", "commission_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(StatusCancelled)})
}

// Recompute queues a replay of the invoice's commission. The existing row
// supplies the agent; an invoice that never earned one returns 404.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	row, err := h.service.ByInvoice(r.Context(), invoiceID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.recompute(r.Context(), invoiceID, row.AgentID); err != nil {
		h.logger.Error("enqueue commission recompute failed", "invoice_id", invoiceID, "error", err)
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "could not queue recompute")
		return
	}

	httpx.JSON(w, http.StatusAccepted, map[string]int64{"invoice_id": invoiceID})
}
