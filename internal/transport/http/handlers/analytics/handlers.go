package analyticshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/analytics"
	"perfeval/internal/domain/auth"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service *analytics.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *analytics.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods/{periodID}/analytics", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAnalyticsRead, h.Perms))
		r.Get("/overview", h.privileged(h.handleOverview))
		r.Get("/dimensions", h.privileged(h.handleDimensions))
		r.Get("/groups", h.privileged(h.handleGroups))
		r.Get("/team", h.handleTeam)
	})
}

// privileged keeps organisation-wide dashboards to hr and admin; supervisors
// use the team view.
func (h *Handler) privileged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := shared.RequireUser(w, r)
		if !ok {
			return
		}
		if !auth.IsPrivileged(user.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "organisation dashboards require hr or admin", middleware.GetRequestID(r.Context()))
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "analytics_failed", "failed to build overview")
		return
	}
	api.Success(w, overview, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDimensions(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Dimensions(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "analytics_failed", "failed to build dimension view")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Groups(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "analytics_failed", "failed to build group comparison")
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}

// handleTeam shows the caller's direct reports. Privileged roles may pick
// another supervisor with ?supervisorId=.
func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	supervisorID := user.UserID
	if requested := r.URL.Query().Get("supervisorId"); requested != "" && requested != user.UserID {
		if !auth.IsPrivileged(user.Role) {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot view another supervisor's team", middleware.GetRequestID(r.Context()))
			return
		}
		supervisorID = requested
	}
	view, err := h.Service.Team(r.Context(), chi.URLParam(r, "periodID"), supervisorID)
	if err != nil {
		shared.FailError(w, r, err, "analytics_failed", "failed to build team view")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}
