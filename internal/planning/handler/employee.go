package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// EmployeeHandler handles employee endpoints
type EmployeeHandler struct {
	service *service.EmployeeService
	logger  *logger.Logger
}

// NewEmployeeHandler creates a new employee handler
func NewEmployeeHandler(svc *service.EmployeeService, log *logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the employee routes
func (h *EmployeeHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("employee.read")).Get("/", h.List)
	r.With(httputil.RequirePermission("employee.write")).Post("/", h.Create)
	r.With(httputil.RequirePermission("employee.read")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("employee.write")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("employee.write")).Delete("/{id}", h.Deactivate)
}

// List lists employees with filters
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	params := repository.EmployeeListParams{}
	params.Page, params.PerPage = parsePagination(r)

	if status := r.URL.Query().Get("status"); status != "" {
		params.Status = &status
	}
	if position := r.URL.Query().Get("position"); position != "" {
		params.Position = &position
	}

	employees, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, employees, paginationMeta(params.Page, params.PerPage, total))
}

// Get gets an employee by ID
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	employee, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// Create creates a new employee
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.EmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	employee, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, employee)
}

// Update modifies an employee
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req service.EmployeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	employee, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// Deactivate marks an employee inactive. Employees are never hard-deleted,
// their slots and summaries stay on record.
func (h *EmployeeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
