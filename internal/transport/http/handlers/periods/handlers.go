package periodhandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Notifier interface {
	Create(ctx context.Context, userID, notificationType, title, body string) error
}

type Directory interface {
	ActiveUsers(ctx context.Context) ([]org.User, error)
}

type Handler struct {
	Service *period.Service
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
	Notify  Notifier
	Users   Directory
}

func NewHandler(service *period.Service, perms middleware.PermissionStore, auditSvc shared.AuditRecorder, notify Notifier, users Directory) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Notify: notify, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPeriodsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPeriodsRead, h.Perms)).Get("/active", h.handleActive)
		r.With(middleware.RequirePermission(auth.PermPeriodsRead, h.Perms)).Get("/{periodID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)).Put("/{periodID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)).Post("/{periodID}/activate", h.handleActivate)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)).Post("/{periodID}/close", h.handleClose)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)).Post("/{periodID}/reopen", h.handleReopen)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	v := shared.NewValidator()
	v.Enum("status", status, []string{period.StatusDraft, period.StatusActive, period.StatusClosed})
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	periods, err := h.Service.List(r.Context(), status)
	if err != nil {
		shared.FailError(w, r, err, "period_list_failed", "failed to list periods")
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Active(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "period_get_failed", "failed to load active period")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "period_get_failed", "failed to load period")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input period.Input
	if !shared.Decode(w, r, &input) {
		return
	}
	created, err := h.Service.Create(r.Context(), input)
	if err != nil {
		shared.FailError(w, r, err, "period_create_failed", "failed to create period")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "periods.create", "period", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	before, err := h.Service.Get(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "period_update_failed", "failed to update period")
		return
	}
	var input period.Input
	if !shared.Decode(w, r, &input) {
		return
	}
	updated, err := h.Service.Update(r.Context(), periodID, input)
	if err != nil {
		shared.FailError(w, r, err, "period_update_failed", "failed to update period")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "periods.update", "period", periodID, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	activation, err := h.Service.Activate(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "period_activate_failed", "failed to activate period")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "periods.activate", "period", periodID, nil, activation)
	h.announce(r.Context(), notifications.TypePeriodActivated, "Evaluation period opened",
		"The evaluation period "+activation.Period.Name+" is now open.")
	api.Success(w, activation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	closed, err := h.Service.Close(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "period_close_failed", "failed to close period")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "periods.close", "period", periodID, nil, closed)
	h.announce(r.Context(), notifications.TypePeriodClosed, "Evaluation period closed",
		"The evaluation period "+closed.Name+" is closed and results are final.")
	api.Success(w, closed, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	if user.Role != auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "only admins can reopen a closed period", middleware.GetRequestID(r.Context()))
		return
	}
	periodID := chi.URLParam(r, "periodID")
	reopened, err := h.Service.Reopen(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "period_reopen_failed", "failed to reopen period")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "periods.reopen", "period", periodID, nil, reopened)
	api.Success(w, reopened, middleware.GetRequestID(r.Context()))
}

// announce notifies every active user. Failures are logged per user.
func (h *Handler) announce(ctx context.Context, notificationType, title, body string) {
	if h.Notify == nil || h.Users == nil {
		return
	}
	users, err := h.Users.ActiveUsers(ctx)
	if err != nil {
		slog.Warn("announcement recipients lookup failed", "type", notificationType, "err", err)
		return
	}
	for _, u := range users {
		if err := h.Notify.Create(ctx, u.ID, notificationType, title, body); err != nil {
			slog.Warn("announcement notification failed", "type", notificationType, "userId", u.ID, "err", err)
		}
	}
}
