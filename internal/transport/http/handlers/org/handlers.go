package orghandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/org"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
}

func NewHandler(service *org.Service, perms middleware.PermissionStore, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Put("/{userID}", h.handleUpdateUser)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/{userID}/subordinates", h.handleSubordinates)
	})
	r.Route("/groups", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleListGroups)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Post("/", h.handleCreateGroup)
	})
}

type meResponse struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Profile     *org.User `json:"profile,omitempty"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	out := meResponse{
		UserID:      user.UserID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: auth.RolePermissions[user.Role],
	}
	profile, err := h.Service.GetUser(r.Context(), user.UserID)
	switch {
	case err == nil:
		out.Profile = &profile
	case !errors.Is(err, org.ErrNotFound):
		shared.FailError(w, r, err, "profile_lookup_failed", "failed to load profile")
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	if !auth.IsPrivileged(user.Role) {
		users, err := h.Service.Subordinates(r.Context(), user.UserID)
		if err != nil {
			shared.FailError(w, r, err, "user_list_failed", "failed to list users")
			return
		}
		shared.SetTotal(w, len(users))
		api.Success(w, users, middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("role", query.Get("role"), auth.Roles)
	filter := org.UserFilter{GroupID: query.Get("groupId"), Role: query.Get("role")}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("active", "must be true or false")
		}
		filter.Active = &active
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	users, total, err := h.Service.ListUsers(r.Context(), filter)
	if err != nil {
		shared.FailError(w, r, err, "user_list_failed", "failed to list users")
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input org.UserInput
	if !shared.Decode(w, r, &input) {
		return
	}
	created, err := h.Service.CreateUser(r.Context(), input)
	if err != nil {
		shared.FailError(w, r, err, "user_create_failed", "failed to create user")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "users.create", "user", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")
	if !h.canSee(w, r, user, userID) {
		return
	}
	found, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		shared.FailError(w, r, err, "user_get_failed", "failed to load user")
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")
	before, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		shared.FailError(w, r, err, "user_update_failed", "failed to update user")
		return
	}
	var input org.UserInput
	if !shared.Decode(w, r, &input) {
		return
	}
	updated, err := h.Service.UpdateUser(r.Context(), userID, input)
	if err != nil {
		shared.FailError(w, r, err, "user_update_failed", "failed to update user")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "users.update", "user", userID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubordinates(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID != user.UserID && !auth.IsPrivileged(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this team", middleware.GetRequestID(r.Context()))
		return
	}
	users, err := h.Service.Subordinates(r.Context(), userID)
	if err != nil {
		shared.FailError(w, r, err, "subordinates_failed", "failed to list subordinates")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "group_list_failed", "failed to list groups")
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input org.GroupInput
	if !shared.Decode(w, r, &input) {
		return
	}
	group, err := h.Service.CreateGroup(r.Context(), input)
	if err != nil {
		shared.FailError(w, r, err, "group_create_failed", "failed to create group")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "groups.create", "group", group.ID, nil, group)
	api.Created(w, group, middleware.GetRequestID(r.Context()))
}

// canSee allows the user themself, their supervisor and privileged roles.
func (h *Handler) canSee(w http.ResponseWriter, r *http.Request, user auth.UserContext, userID string) bool {
	if userID == user.UserID || auth.IsPrivileged(user.Role) {
		return true
	}
	supervises, err := h.Service.IsSupervisorOf(r.Context(), user.UserID, userID)
	if err != nil {
		shared.FailError(w, r, err, "permission_error", "permission check failed")
		return false
	}
	if !supervises {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this user", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}
