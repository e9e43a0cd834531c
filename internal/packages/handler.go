package packages

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reefdesk/reefdesk/internal/platform/httpx"
)

// Handler exposes package pricing over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the package handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches package routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/packages/quote", h.Quote)
	r.Get("/packages/{id}/breakdown", h.Breakdown)
	r.Get("/packages/{id}/validate", h.Validate)
}

// Quote prices a package for a group size and selected options.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	amount, err := h.service.Quote(r.Context(), req)
	if err != nil {
		h.logger.Warn("package quote failed", "package_id", req.PackageID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]float64{"amount": amount})
}

// Breakdown lists the package's ordered breakdown lines.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	packageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || packageID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}

	lines, err := h.service.Breakdown(r.Context(), packageID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, lines)
}

// Validate runs the breakdown sanity check.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	packageID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || packageID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}

	ok, err := h.service.Validate(r.Context(), packageID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
