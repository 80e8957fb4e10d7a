package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/httputil"
	"github.com/planora/planora-backend/pkg/logger"
)

// AccessHandler handles role permission endpoints
type AccessHandler struct {
	service *service.AccessService
	logger  *logger.Logger
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(svc *service.AccessService, log *logger.Logger) *AccessHandler {
	return &AccessHandler{
		service: svc,
		logger:  log,
	}
}

// Routes mounts the access management routes
func (h *AccessHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("access.manage")).Get("/roles", h.ListGrants)
	r.With(httputil.RequirePermission("access.manage")).Post("/roles", h.Assign)
	r.With(httputil.RequirePermission("access.manage")).Post("/roles/{role}/revoke", h.Revoke)
}

// ListGrants lists the active permission grant of every role
func (h *AccessHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.ListGrants(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, grants)
}

// Assign records a new permission set version for a role
func (h *AccessHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorUserID(w, r)
	if !ok {
		return
	}

	var req service.AssignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	grant, err := h.service.Assign(r.Context(), &req, actorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, grant)
}

// Revoke removes permissions from a role, recording a new version
func (h *AccessHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")

	actorID, ok := actorUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Permissions []string `json:"permissions" validate:"required,min=1"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	grant, err := h.service.Revoke(r.Context(), role, req.Permissions, actorID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, grant)
}
