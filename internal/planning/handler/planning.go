package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// PlanningHandler handles planning lifecycle endpoints
type PlanningHandler struct {
	service *service.PlanningService
	logger  *logger.Logger
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(svc *service.PlanningService, log *logger.Logger) *PlanningHandler {
	return &PlanningHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the planning routes
func (h *PlanningHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("planning.read")).Get("/", h.List)
	r.With(httputil.RequirePermission("planning.write")).Post("/", h.Create)
	r.With(httputil.RequirePermission("planning.read")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("planning.write")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("planning.delete")).Delete("/{id}", h.Delete)
	r.With(httputil.RequirePermission("planning.write")).Put("/{id}/slots", h.ReplaceSlots)
	r.With(httputil.RequirePermission("planning.publish")).Post("/{id}/publish", h.Publish)
	r.With(httputil.RequirePermission("planning.publish")).Post("/{id}/reject", h.Reject)
	r.With(httputil.RequirePermission("planning.publish")).Post("/{id}/cancel", h.Cancel)
}

// List lists plannings with filters
func (h *PlanningHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.PlanningListParams{}
	params.Page, params.PerPage = parsePagination(r)

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}
	if creatorID := r.URL.Query().Get("creator_id"); creatorID != "" {
		params.CreatorID = &creatorID
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.From = &t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			params.To = &t
		}
	}

	plannings, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, plannings, paginationMeta(params.Page, params.PerPage, total))
}

// Get gets a planning by ID
func (h *PlanningHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	planning, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, planning)
}

// Create creates a planning, optionally with its initial slots. When any
// slot collides, the response carries the per-slot conflict reports.
func (h *PlanningHandler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := actorEmployeeID(w, r)
	if !ok {
		return
	}

	var req service.CreatePlanningRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	planning, reports, err := h.service.Create(r.Context(), &req, creatorID)
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && len(reports) > 0 {
			httputil.ErrorWithData(w, err, reports)
			return
		}
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, planning)
}

// Update renames a planning or moves its period. Only drafts are editable.
func (h *PlanningHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.UpdatePlanningRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	planning, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, planning)
}

// ReplaceSlots swaps out the planning's whole slot set in one transaction
func (h *PlanningHandler) ReplaceSlots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Slots []service.SlotInput `json:"slots" validate:"required,dive"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	slots, reports, err := h.service.ReplaceSlots(r.Context(), id, req.Slots)
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && len(reports) > 0 {
			httputil.ErrorWithData(w, err, reports)
			return
		}
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slots)
}

// Publish moves a draft planning to published
func (h *PlanningHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

// Reject moves a draft planning to rejected
func (h *PlanningHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

// Cancel moves a draft or published planning to cancelled
func (h *PlanningHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *PlanningHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID string) error) {
	id := chi.URLParam(r, "id")

	actorID, ok := actorUserID(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), id, actorID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Delete removes a planning and its slots
func (h *PlanningHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, ok := actorUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
