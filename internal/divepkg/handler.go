package divepkg

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reefdesk/reefdesk/internal/platform/httpx"
)

// Handler exposes punch-card package tracking over JSON.
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

// MountRoutes attaches dive-package routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/dive-packages/{id}/consume", h.Consume)
	r.Post("/dive-packages/{id}/status", h.Transition)
	r.Get("/dive-packages/{id}/active", h.Active)
}

func packageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// Consume logs one dive against the package.
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}

	pkg, err := h.service.ConsumeDive(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPackageNotActive) {
			httpx.Problem(w, http.StatusConflict, "Package Not Active", err.Error())
			return
		}
		h.logger.Warn("consume dive failed", "package_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, pkg)
}

// Transition moves the package to a new status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}

	var req struct {
		Status Status `json:"status" validate:"required,oneof=Active Completed Expired Cancelled"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	pkg, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
			return
		}
		h.logger.Warn("transition dive package failed", "package_id", id, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, pkg)
}

// Active reports whether the package can still absorb dives.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}

	active, err := h.service.IsActive(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]bool{"active": active})
}
