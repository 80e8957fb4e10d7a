package handler

import (
	"net/http"
	"strconv"

	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/httputil"
)

// actorEmployeeID resolves the authenticated principal's employee profile.
// Operations acting on behalf of an employee (reviewing leave, cancelling a
// planning) need one; service accounts without a linked employee are refused.
func actorEmployeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal := httputil.GetPrincipal(r.Context())
	if principal == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return "", false
	}
	if principal.EmployeeID == "" {
		httputil.Error(w, errors.Forbidden("no employee profile is linked to this account"))
		return "", false
	}
	return principal.EmployeeID, true
}

// actorUserID resolves the authenticated principal's account ID.
func actorUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal := httputil.GetPrincipal(r.Context())
	if principal == nil {
		httputil.Error(w, errors.Unauthorized("authentication required"))
		return "", false
	}
	return principal.UserID, true
}

func parsePagination(r *http.Request) (page, perPage int) {
	page, perPage = 1, 50
	if p, _ := strconv.Atoi(r.URL.Query().Get("page")); p > 0 {
		page = p
	}
	if pp, _ := strconv.Atoi(r.URL.Query().Get("per_page")); pp > 0 && pp <= 100 {
		perPage = pp
	}
	return page, perPage
}

func paginationMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
