package pricing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reefdesk/reefdesk/internal/booking"
	"github.com/reefdesk/reefdesk/internal/platform/httpx"
	"github.com/reefdesk/reefdesk/internal/shared"
)

// Handler exposes the pricing service over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the pricing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pricing/resolve", h.Resolve)
	r.Post("/pricing/resolve-service", h.ResolveService)
	r.Post("/pricing/items", h.CreateItem)
	r.Post("/pricing/items/{id}/tiers", h.AddTier)
	r.Post("/pricing/rules", h.AddRule)
}

// Resolve prices one item for a dive-count/date/customer-type query.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID := shared.TenantFromContext(r.Context())
	res, err := h.service.Resolve(r.Context(), tenantID, req.ItemID, Query{
		DiveCount:    req.DiveCount,
		AsOf:         req.AsOf,
		CustomerType: booking.CustomerType(req.CustomerType),
	})
	if err != nil {
		h.logger.Warn("resolve price failed", "item_id", req.ItemID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, res)
}

// ResolveService prices a service type across the tenant's whole catalog,
// using the snapshot cache.
func (h *Handler) ResolveService(w http.ResponseWriter, r *http.Request) {
	var req ResolveServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID := shared.TenantFromContext(r.Context())
	res, err := h.service.ResolveService(r.Context(), tenantID, req.ServiceType, Query{
		DiveCount:    req.DiveCount,
		AsOf:         req.AsOf,
		CustomerType: booking.CustomerType(req.CustomerType),
	})
	if err != nil {
		h.logger.Warn("resolve service price failed", "service_type", req.ServiceType, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, res)
}

// CreateItem adds a price-list item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID := shared.TenantFromContext(r.Context())
	item, err := h.service.CreateItem(r.Context(), tenantID, req)
	if err != nil {
		h.logger.Error("create price list item failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, item)
}

// AddTier adds a tier to an item. Inverted bounds are rejected here, at
// write time.
func (h *Handler) AddTier(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || itemID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}

	var req CreateTierRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID := shared.TenantFromContext(r.Context())
	tier, err := h.service.AddTier(r.Context(), tenantID, itemID, req)
	if err != nil {
		h.logger.Warn("add tier failed", "item_id", itemID, "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, tier)
}

// AddRule adds a tenant pricing rule.
func (h *Handler) AddRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rule, err := h.service.AddRule(r.Context(), PricingRule{
		TenantID:  shared.TenantFromContext(r.Context()),
		RuleType:  RuleType(req.RuleType),
		Action:    RuleAction(req.Action),
		SortOrder: req.SortOrder,
		Condition: req.Condition,
		IsActive:  true,
	})
	if err != nil {
		h.logger.Error("add pricing rule failed", "error", err)
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, rule)
}
