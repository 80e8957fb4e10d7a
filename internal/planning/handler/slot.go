package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// SlotHandler handles time slot endpoints
type SlotHandler struct {
	service *service.SlotService
	logger  *logger.Logger
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(svc *service.SlotService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the slot routes
func (h *SlotHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("slot.read")).Get("/", h.List)
	r.With(httputil.RequirePermission("slot.write")).Post("/", h.Create)
	r.With(httputil.RequirePermission("slot.read")).Post("/check", h.Check)
	r.With(httputil.RequirePermission("slot.read")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("slot.write")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("slot.write")).Delete("/{id}", h.Delete)
}

// List lists slots with filters
func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.SlotListParams{}

	if planningID := r.URL.Query().Get("planning_id"); planningID != "" {
		params.PlanningID = &planningID
	}
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		params.EmployeeID = &employeeID
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	slots, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slots)
}

// Get gets a slot by ID
func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	slot, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slot)
}

// Create schedules a new slot. A conflicting window comes back as a 409
// whose payload is the conflict report.
func (h *SlotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSlotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	slot, report, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && report != nil {
			httputil.ErrorWithData(w, err, report)
			return
		}
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, slot)
}

// Update moves or reassigns a slot
func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.UpdateSlotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	slot, report, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && report != nil {
			httputil.ErrorWithData(w, err, report)
			return
		}
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slot)
}

// Delete removes a slot
func (h *SlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Check runs the conflict check without writing anything. Clients call it
// while a slot is being dragged around in the planning grid.
func (h *SlotHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req service.CheckRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	report, err := h.service.Check(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}
