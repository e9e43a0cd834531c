package booking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reefdesk/reefdesk/internal/platform/httpx"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// Handler serves read-only booking snapshots to the operations dashboard.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes attaches booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bookings/{id}", h.Get)
}

// bookingView aggregates one booking with its dives, equipment and parties.
type bookingView struct {
	Booking   *Booking           `json:"booking"`
	Dives     []BookingDive      `json:"dives"`
	Equipment []BookingEquipment `json:"equipment"`
	Customer  *Customer          `json:"customer"`
	Agent     *Agent             `json:"agent,omitempty"`
}

// Get returns the booking snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}

	ctx := r.Context()
	b, err := h.repo.GetBooking(ctx, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if b.TenantID != shared.TenantFromContext(ctx) {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	view := bookingView{Booking: b}
	if view.Dives, err = h.repo.ListDives(ctx, id); err != nil {
		h.logger.Warn("list booking dives failed", "booking_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	if view.Equipment, err = h.repo.ListEquipment(ctx, id); err != nil {
		h.logger.Warn("list booking equipment failed", "booking_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}
	if view.Customer, err = h.repo.GetCustomer(ctx, b.CustomerID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if b.AgentID != nil {
		if view.Agent, err = h.repo.GetAgent(ctx, *b.AgentID); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	httpx.JSON(w, http.StatusOK, view)
}
