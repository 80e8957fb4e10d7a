package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/planora/planora-backend/internal/auth/service"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/httputil"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Routes mounts the public auth routes
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

// ProtectedRoutes mounts routes that require an authenticated principal
func (h *AuthHandler) ProtectedRoutes(r chi.Router) {
	r.Post("/change-password", h.ChangePassword)
	r.Get("/me", h.Me)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tokens)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r.Context())
	if principal == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	var req service.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.UserID, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r.Context())
	if principal == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	httputil.JSON(w, http.StatusOK, principal)
}
