package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// SummaryHandler handles hour summary endpoints
type SummaryHandler struct {
	service *service.SummaryService
	logger  *logger.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(svc *service.SummaryService, log *logger.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the hour summary routes
func (h *SummaryHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("summary.read")).Get("/planning/{planningID}", h.ListByPlanning)
	r.With(httputil.RequirePermission("summary.read")).Get("/employee/{employeeID}", h.ListByEmployee)
	r.With(httputil.RequirePermission("summary.read")).Get("/planning/{planningID}/employee/{employeeID}", h.Get)
	r.With(httputil.RequirePermission("summary.recompute")).Post("/planning/{planningID}/employee/{employeeID}/recompute", h.Recompute)
}

// ListByPlanning lists the hour summaries of every employee in a planning
func (h *SummaryHandler) ListByPlanning(w http.ResponseWriter, r *http.Request) {
	planningID := chi.URLParam(r, "planningID")

	summaries, err := h.service.ListByPlanning(r.Context(), planningID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}

// ListByEmployee lists an employee's summaries across plannings
func (h *SummaryHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	summaries, err := h.service.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summaries)
}

// Get gets one (planning, employee) summary
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	planningID := chi.URLParam(r, "planningID")
	employeeID := chi.URLParam(r, "employeeID")

	summary, err := h.service.GetByPair(r.Context(), planningID, employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// Recompute forces a recompute of one (planning, employee) summary. The
// worker keeps summaries current on its own; this is the manual override.
func (h *SummaryHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	planningID := chi.URLParam(r, "planningID")
	employeeID := chi.URLParam(r, "employeeID")

	summary, err := h.service.RecomputePair(r.Context(), planningID, employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if summary == nil {
		// No slots left for the pair: summary row was removed.
		httputil.NoContent(w)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
