package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// AvailabilityHandler handles weekly availability endpoints
type AvailabilityHandler struct {
	service *service.AvailabilityService
	logger  *logger.Logger
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(svc *service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the availability routes
func (h *AvailabilityHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("availability.write")).Post("/", h.Declare)
	r.With(httputil.RequirePermission("availability.write")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("availability.write")).Delete("/{id}", h.Delete)
	r.With(httputil.RequirePermission("availability.read")).Get("/employee/{employeeID}", h.ListByEmployee)
}

// Declare adds a weekly availability window for an employee
func (h *AvailabilityHandler) Declare(w http.ResponseWriter, r *http.Request) {
	var req service.AvailabilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	availability, err := h.service.Declare(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, availability)
}

// Update modifies an availability window
func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.AvailabilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	availability, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, availability)
}

// Delete removes an availability window
func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListByEmployee lists an employee's declared windows
func (h *AvailabilityHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	windows, err := h.service.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, windows)
}
