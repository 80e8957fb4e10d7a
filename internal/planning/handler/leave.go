package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// LeaveHandler handles leave request endpoints
type LeaveHandler struct {
	service *service.LeaveService
	logger  *logger.Logger
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(svc *service.LeaveService, log *logger.Logger) *LeaveHandler {
	return &LeaveHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the leave request routes
func (h *LeaveHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("leave.read")).Get("/", h.List)
	r.With(httputil.RequirePermission("leave.request")).Post("/", h.Request)
	r.With(httputil.RequirePermission("leave.read")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("leave.review")).Post("/{id}/approve", h.Approve)
	r.With(httputil.RequirePermission("leave.review")).Post("/{id}/reject", h.Reject)
	r.With(httputil.RequirePermission("leave.request")).Post("/{id}/cancel", h.Cancel)
}

// List lists leave requests with filters
func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.LeaveListParams{}
	params.Page, params.PerPage = parsePagination(r)

	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		params.EmployeeID = &employeeID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
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

	leaves, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, leaves, paginationMeta(params.Page, params.PerPage, total))
}

// Get gets a leave request by ID
func (h *LeaveHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	leave, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leave)
}

// Request files a new leave request
func (h *LeaveHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req service.RequestLeaveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.service.Request(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, leave)
}

// Approve approves a pending leave request
func (h *LeaveHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve)
}

// Reject rejects a pending leave request
func (h *LeaveHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject)
}

// Cancel withdraws a leave request
func (h *LeaveHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Cancel)
}

func (h *LeaveHandler) review(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, leaveID, employeeID string) (*repository.Leave, error)) {
	id := chi.URLParam(r, "id")

	employeeID, ok := actorEmployeeID(w, r)
	if !ok {
		return
	}

	leave, err := fn(r.Context(), id, employeeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leave)
}
